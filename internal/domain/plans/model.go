package plans

type Plan struct {
	ID            uint `gorm:"primaryKey"`
	Name          string
	PriceCents    int64  `gorm:"column:price_cents"`
	Currency      string `gorm:"type:varchar(3);not null;default:'eur'"`
	StripePriceID string `gorm:"column:stripe_price_id;not null;uniqueIndex:idx_plans_stripe_price_id"`
	Interval      string
	Tier          string `gorm:"column:tier"` // "basic" | "premium" | "elite"
}
