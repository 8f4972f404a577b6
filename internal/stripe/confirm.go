package stripe

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/plan"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/subscriber"
)

// ConfirmPayment POST /api/checkout/confirm. Best-effort upsert from the
// payment success page for when the webhook hasn't landed yet. The webhook
// stays authoritative: the confirmation writes only the columns it actually
// carries, so a webhook row that arrived first keeps its subscription id,
// status and period fields.
func ConfirmPayment(c *gin.Context) {
	userID := c.GetString("user_id")
	userEmail := c.GetString("user_email")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var input struct {
		CustomerID string `json:"customer_id"`
		PriceID    string `json:"price_id"`
	}
	if err := c.BindJSON(&input); err != nil || input.PriceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id and price_id required"})
		return
	}

	match, err := plan.ResolvePrice(input.PriceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "plan lookup failed"})
		return
	}
	if match == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no plan found for price"})
		return
	}

	now := time.Now()
	interval := string(match.Interval)
	planID := match.PlanID
	name := match.Name

	row := subscriber.Subscriber{
		UserID:           userID,
		Email:            userEmail,
		StripeCustomerID: input.CustomerID,
		StripePriceID:    &input.PriceID,
		PlanID:           &planID,
		SubscriptionTier: &name,
		BillingInterval:  &interval,
		Subscribed:       true,
		SubscriptionEnd:  periodEndFor(match.Interval, now),
		EventAt:          now,
	}

	if err := subscriber.UpsertConfirmation(&row); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscriber update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// periodEndFor estimates the period end from the billing interval. Lifetime
// purchases have none.
func periodEndFor(interval plan.BillingInterval, now time.Time) *time.Time {
	var end time.Time
	switch interval {
	case plan.IntervalMonth:
		end = now.AddDate(0, 1, 0)
	case plan.IntervalYear:
		end = now.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &end
}
