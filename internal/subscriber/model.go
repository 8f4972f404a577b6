package subscriber

import "time"

// Subscriber is the local mirror of a user's billing state. At most one row
// per user; writes always go through Upsert.
type Subscriber struct {
	ID                   string `gorm:"primaryKey"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	UserID               string `gorm:"uniqueIndex"`
	Email                string
	StripeCustomerID     string
	StripeSubscriptionID *string
	StripePriceID        *string
	StripeProductID      *string
	PlanID               *string
	SubscriptionTier     *string
	BillingInterval      *string
	Status               *string
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CancelAt             *time.Time
	SubscriptionEnd      *time.Time
	Subscribed           bool
	// EventAt is the billing-event timestamp the row was computed from. The
	// upsert refuses to let an older event overwrite a newer one.
	EventAt time.Time
}

func (Subscriber) TableName() string {
	return "subscribers"
}
