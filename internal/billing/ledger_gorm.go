package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"membership-app/internal/domain/memberships"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedger is the postgres-backed Ledger.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Transaction(ctx context.Context, fn func(Ledger) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormLedger{db: tx})
	})
}

func (l *GormLedger) MembershipExists(ctx context.Context, stripeSubscriptionID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&memberships.Membership{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count memberships: %w", err)
	}
	return count > 0, nil
}

func (l *GormLedger) InsertMembership(ctx context.Context, m *memberships.Membership) error {
	if err := l.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (l *GormLedger) CancelCurrentMemberships(ctx context.Context, memberID uint, at time.Time) (int64, error) {
	res := l.db.WithContext(ctx).
		Model(&memberships.Membership{}).
		Where("member_id = ? AND status IN ?", memberID,
			[]memberships.Status{memberships.StatusActive, memberships.StatusFrozen}).
		Updates(map[string]interface{}{
			"status":       memberships.StatusCancelled,
			"auto_renew":   false,
			"cancelled_at": at,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("cancel current memberships: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (l *GormLedger) ApplySubscriptionUpdate(ctx context.Context, stripeSubscriptionID string, upd MembershipUpdate) (int64, error) {
	res := l.db.WithContext(ctx).
		Model(&memberships.Membership{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(map[string]interface{}{
			"status":          upd.Status,
			"stripe_price_id": upd.StripePriceID,
			"end_date":        upd.EndDate,
			"auto_renew":      upd.AutoRenew,
			"cancelled_at":    upd.CancelledAt,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("apply subscription update: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (l *GormLedger) MarkMembershipCancelled(ctx context.Context, stripeSubscriptionID string, at time.Time) (int64, error) {
	res := l.db.WithContext(ctx).
		Model(&memberships.Membership{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(map[string]interface{}{
			"status":       memberships.StatusCancelled,
			"auto_renew":   false,
			"cancelled_at": at,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("mark membership cancelled: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (l *GormLedger) MarkMembershipPendingPayment(ctx context.Context, stripeSubscriptionID string) (int64, error) {
	res := l.db.WithContext(ctx).
		Model(&memberships.Membership{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Update("status", memberships.StatusPendingPayment)
	if res.Error != nil {
		return 0, fmt.Errorf("mark membership pending_payment: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (l *GormLedger) PaymentExists(ctx context.Context, stripeInvoiceID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&memberships.Payment{}).
		Where("stripe_invoice_id = ?", stripeInvoiceID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count payments: %w", err)
	}
	return count > 0, nil
}

func (l *GormLedger) InsertPayment(ctx context.Context, p *memberships.Payment) error {
	// The unique index on stripe_invoice_id backs up the check-then-insert
	// dedup under concurrent redelivery.
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_invoice_id"}},
			DoNothing: true,
		}).
		Create(p).Error
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (l *GormLedger) MemberIDForCustomer(ctx context.Context, stripeCustomerID string) (uint, bool, error) {
	var mapping memberships.CustomerMapping
	err := l.db.WithContext(ctx).
		Where("stripe_customer_id = ?", stripeCustomerID).
		First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup customer mapping: %w", err)
	}
	return mapping.MemberID, true, nil
}

func (l *GormLedger) CustomerIDForMember(ctx context.Context, memberID uint) (string, bool, error) {
	var mapping memberships.CustomerMapping
	err := l.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup customer mapping: %w", err)
	}
	return mapping.StripeCustomerID, true, nil
}

func (l *GormLedger) SaveCustomerMapping(ctx context.Context, memberID uint, stripeCustomerID string) (string, error) {
	mapping := memberships.CustomerMapping{
		MemberID:         memberID,
		StripeCustomerID: stripeCustomerID,
	}
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "member_id"}},
			DoNothing: true,
		}).
		Create(&mapping).Error
	if err != nil {
		return "", fmt.Errorf("save customer mapping: %w", err)
	}

	// Re-read: a concurrent checkout may have won the insert.
	id, ok, err := l.CustomerIDForMember(ctx, memberID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("customer mapping for member %d missing after insert", memberID)
	}
	return id, nil
}
