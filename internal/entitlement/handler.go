package entitlement

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/subscriber"
)

type Handler struct {
	Evaluator *Evaluator
}

func NewHandler(e *Evaluator) *Handler {
	return &Handler{Evaluator: e}
}

// GetEntitlements GET /api/entitlements. Returns the merged capability row
// plus usage, for clients that gate locally.
func (h *Handler) GetEntitlements(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	gate, err := h.Evaluator.Evaluate(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "entitlement evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan_id":                  gate.PlanID,
		"mentorship":               gate.Limits.Mentorship,
		"can_view_mentorship":      gate.Limits.CanViewMentorship,
		"can_post_wisdom":          gate.Limits.CanPostWisdom,
		"can_see_progress_tracker": gate.Limits.CanSeeProgressTracker,
		"storage_bytes_cap":        gate.Limits.StorageBytes,
		"usage":                    gate.Usage,
	})
}

// CanCreateContent GET /api/can-create/:kind. The creation pre-check for a
// single content kind; the decision is advisory for clients, the creation
// handlers re-run the gate before inserting.
func (h *Handler) CanCreateContent(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	kind := Kind(c.Param("kind"))
	switch kind {
	case KindLegacy, KindIdea, KindTimeless, KindWisdom:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown content kind"})
		return
	}

	decision, err := h.Evaluator.CanCreate(c.Request.Context(), userID, kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "entitlement evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, decision)
}

// GetSubscription GET /api/subscription. Returns the billing status as our
// DB knows it; the webhook keeps this in sync with the processor.
func (h *Handler) GetSubscription(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	sub, err := subscriber.FindByUserID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription lookup failed"})
		return
	}

	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"subscribed": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscribed":         sub.Subscribed,
		"status":             sub.Status,
		"plan_id":            sub.PlanID,
		"subscription_tier":  sub.SubscriptionTier,
		"billing_interval":   sub.BillingInterval,
		"stripe_customer_id": sub.StripeCustomerID,
		"stripe_price_id":    sub.StripePriceID,
		"stripe_product_id":  sub.StripeProductID,
		"current_period_end": sub.CurrentPeriodEnd,
		"subscription_end":   sub.SubscriptionEnd,
		"cancel_at":          sub.CancelAt,
	})
}
