package members

import (
	"time"

	"membership-app/internal/domain/memberships"
	"membership-app/internal/domain/plans"
)

type MeResponse struct {
	Member  MemberDTO  `json:"member"`
	Billing BillingDTO `json:"billing"`
}

type MemberDTO struct {
	ID         uint    `json:"id"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Lastname   string  `json:"lastname"`
	Tel        *string `json:"tel"`
	Role       string  `json:"role"`
	IsVerified bool    `json:"is_verified"`
}

type BillingDTO struct {
	Membership *MembershipDTO `json:"membership"`
	Trial      *TrialDTO      `json:"trial"`
}

type MembershipDTO struct {
	Status               string     `json:"status"`
	PlanName             *string    `json:"plan_name,omitempty"`
	PlanTier             string     `json:"plan_tier"`
	StartsAt             time.Time  `json:"starts_at"`
	CurrentPeriodEnd     time.Time  `json:"current_period_end"`
	AutoRenew            bool       `json:"auto_renew"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
}

type TrialDTO struct {
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	DaysLeft *int       `json:"days_left"`
}

func BuildMembershipDTO(m *memberships.Membership) *MembershipDTO {
	if m == nil {
		return nil
	}
	var planName *string
	if m.Plan != nil {
		planName = &m.Plan.Name
	}
	return &MembershipDTO{
		Status:               string(m.Status),
		PlanName:             planName,
		PlanTier:             plans.PlanTier(m.Plan),
		StartsAt:             m.StartDate,
		CurrentPeriodEnd:     m.EndDate,
		AutoRenew:            m.AutoRenew,
		CancelledAt:          m.CancelledAt,
		StripeSubscriptionID: m.StripeSubscriptionID,
	}
}

func BuildTrialDTO(now time.Time, start, end *time.Time) *TrialDTO {
	if start == nil || end == nil {
		return nil
	}

	var daysLeft int
	if now.Before(*end) {
		daysLeft = int(end.Sub(now).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}
	}

	return &TrialDTO{
		StartsAt: start,
		EndsAt:   end,
		DaysLeft: &daysLeft,
	}
}
