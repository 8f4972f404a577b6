package subscriber

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
)

var upsertColumns = []string{
	"email", "stripe_customer_id", "stripe_subscription_id", "stripe_price_id",
	"stripe_product_id", "plan_id", "subscription_tier", "billing_interval",
	"status", "current_period_start", "current_period_end", "cancel_at",
	"subscription_end", "subscribed", "event_at", "updated_at",
}

// confirmColumns is what the success-page confirmation is allowed to touch.
// The confirm flow never knows the subscription id, status or periods, so
// assigning those would null out what the webhook already wrote.
var confirmColumns = []string{
	"email", "stripe_customer_id", "stripe_price_id", "plan_id",
	"subscription_tier", "billing_interval", "subscribed",
	"subscription_end", "event_at", "updated_at",
}

// Upsert converges the row for s.UserID toward s. Keyed on user_id, so
// redelivered events land on the same row; the DO UPDATE is guarded on
// event_at so an out-of-order delivery cannot overwrite newer state with
// older data.
func Upsert(s *Subscriber) error {
	return upsertWith(s, upsertColumns)
}

// UpsertConfirmation is the narrow write for the checkout-confirmation
// fallback: it updates only the columns the confirm flow actually carries,
// leaving the webhook's subscription linkage and period fields intact when
// the webhook landed first.
func UpsertConfirmation(s *Subscriber) error {
	return upsertWith(s, confirmColumns)
}

func upsertWith(s *Subscriber, columns []string) error {
	if s.UserID == "" {
		return errors.New("subscriber upsert requires a user id")
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.EventAt.IsZero() {
		s.EventAt = time.Now()
	}

	return database.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("subscribers.event_at <= excluded.event_at"),
		}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(s).Error
}

// FindByUserID returns the subscriber row for a user, or nil when the user
// has never subscribed.
func FindByUserID(userID string) (*Subscriber, error) {
	var sub Subscriber
	err := database.DB.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}
