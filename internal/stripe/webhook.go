package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/identity"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/logs"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/plan"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/subscriber"
)

// Reconciler consumes billing events and converges the local subscriber
// table toward the processor's view. Deliveries can arrive out of order or
// more than once; every path funnels into one idempotent upsert, and the
// upsert's event_at guard keeps stale deliveries from overwriting newer
// state.
type Reconciler struct {
	Secret        string
	Subscriptions SubscriptionRetriever
	Customers     CustomerRetriever
	ResolveUser   func(ctx context.Context, h Hints) string
	LookupPrice   func(priceID string) (*plan.PriceMatch, error)
	Persist       func(s *subscriber.Subscriber) error
}

func NewReconciler() *Reconciler {
	chain := DefaultChain(identity.NewClientFromEnv())
	return &Reconciler{
		Secret:        os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Subscriptions: apiSubscriptions{},
		Customers:     apiCustomers{},
		ResolveUser:   chain.Resolve,
		LookupPrice:   plan.ResolvePrice,
		Persist:       subscriber.Upsert,
	}
}

// HandleWebhook POST /api/webhooks/stripe. Signature verification happens
// before anything else; an unverified payload mutates nothing.
func (r *Reconciler) HandleWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to read body"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, r.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	eventAt := time.Unix(event.Created, 0)
	ctx := c.Request.Context()

	var handleErr error
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if handleErr = json.Unmarshal(event.Data.Raw, &session); handleErr == nil {
			handleErr = r.handleCheckoutCompleted(ctx, &session, eventAt)
		}

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if handleErr = json.Unmarshal(event.Data.Raw, &sub); handleErr == nil {
			handleErr = r.handleSubscriptionChanged(ctx, &sub, eventAt)
		}

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if handleErr = json.Unmarshal(event.Data.Raw, &sub); handleErr == nil {
			handleErr = r.handleSubscriptionDeleted(ctx, &sub, eventAt)
		}

	default:
		logs.LogJSON("INFO", "Unhandled Stripe event type", map[string]interface{}{
			"type": string(event.Type),
		})
	}

	if handleErr != nil {
		// surfaced so the provider's own retry/alerting applies
		logs.LogJSON("ERROR", "Webhook handling failed", map[string]interface{}{
			"type":  string(event.Type),
			"error": handleErr.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": handleErr.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, s *stripe.CheckoutSession, eventAt time.Time) error {
	row := subscriber.Subscriber{EventAt: eventAt}
	if s.Customer != nil {
		row.StripeCustomerID = s.Customer.ID
	}
	if s.CustomerDetails != nil {
		row.Email = s.CustomerDetails.Email
	}

	if s.Subscription != nil && s.Subscription.ID != "" {
		sub, err := r.Subscriptions.Get(s.Subscription.ID)
		if err != nil {
			return fmt.Errorf("retrieve subscription: %w", err)
		}
		applySubscription(&row, sub)
	}

	if err := r.applyPlan(&row); err != nil {
		return err
	}

	metaUserID := s.Metadata["user_id"]
	if metaUserID == "" {
		metaUserID = s.ClientReferenceID
	}
	userID := r.ResolveUser(ctx, Hints{MetadataUserID: metaUserID, Email: row.Email})
	if userID == "" {
		// the e-mail fallback is inherently unreliable; dropping here is an
		// accepted gap and the provider gets a 200
		logs.LogJSON("WARN", "No user resolved for checkout event, dropping", map[string]interface{}{
			"customer_id": row.StripeCustomerID,
		})
		return nil
	}
	row.UserID = userID

	return r.Persist(&row)
}

func (r *Reconciler) handleSubscriptionChanged(ctx context.Context, sub *stripe.Subscription, eventAt time.Time) error {
	row := subscriber.Subscriber{EventAt: eventAt}
	if sub.Customer != nil {
		row.StripeCustomerID = sub.Customer.ID
		row.Email = r.customerEmail(sub.Customer.ID)
	}

	applySubscription(&row, sub)
	if err := r.applyPlan(&row); err != nil {
		return err
	}

	userID := r.ResolveUser(ctx, Hints{MetadataUserID: sub.Metadata["user_id"], Email: row.Email})
	if userID == "" {
		logs.LogJSON("WARN", "No user resolved for subscription event, dropping", map[string]interface{}{
			"subscription_id": sub.ID,
		})
		return nil
	}
	row.UserID = userID

	return r.Persist(&row)
}

func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, sub *stripe.Subscription, eventAt time.Time) error {
	email := ""
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
		email = r.customerEmail(customerID)
	}

	row := deletedRow(sub, customerID, email, eventAt)

	userID := r.ResolveUser(ctx, Hints{MetadataUserID: sub.Metadata["user_id"], Email: email})
	if userID == "" {
		logs.LogJSON("WARN", "No user resolved for subscription deletion, dropping", map[string]interface{}{
			"subscription_id": sub.ID,
		})
		return nil
	}
	row.UserID = userID

	return r.Persist(&row)
}

// customerEmail is best-effort: the e-mail only feeds the fallback
// resolvers, so a failed customer fetch is logged, not fatal.
func (r *Reconciler) customerEmail(customerID string) string {
	if customerID == "" {
		return ""
	}
	cust, err := r.Customers.Get(customerID)
	if err != nil {
		logs.LogJSON("WARN", "Customer fetch failed", map[string]interface{}{
			"customer_id": customerID,
			"error":       err.Error(),
		})
		return ""
	}
	if cust.Deleted {
		return ""
	}
	return cust.Email
}

// applySubscription copies the authoritative billing fields of sub onto row.
func applySubscription(row *subscriber.Subscriber, sub *stripe.Subscription) {
	if sub.ID != "" {
		id := sub.ID
		row.StripeSubscriptionID = &id
	}

	status := string(sub.Status)
	row.Status = &status
	row.Subscribed = sub.Status == stripe.SubscriptionStatusActive
	row.CurrentPeriodStart = timeFromUnix(sub.CurrentPeriodStart)
	row.CurrentPeriodEnd = timeFromUnix(sub.CurrentPeriodEnd)
	row.SubscriptionEnd = row.CurrentPeriodEnd
	row.CancelAt = timeFromUnix(sub.CancelAt)

	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return
	}
	price := sub.Items.Data[0].Price
	priceID := price.ID
	row.StripePriceID = &priceID
	if price.Product != nil {
		productID := price.Product.ID
		row.StripeProductID = &productID
	}
	if price.Recurring != nil {
		interval := string(price.Recurring.Interval)
		if interval == "month" || interval == "year" {
			row.BillingInterval = &interval
		}
	}
}

// deletedRow builds the terminal state for a deleted subscription: plan and
// price linkage cleared, historical customer id preserved.
func deletedRow(sub *stripe.Subscription, customerID, email string, eventAt time.Time) subscriber.Subscriber {
	status := string(sub.Status)
	if status == "" {
		status = "canceled"
	}
	row := subscriber.Subscriber{
		Email:              email,
		StripeCustomerID:   customerID,
		Status:             &status,
		Subscribed:         false,
		CurrentPeriodStart: timeFromUnix(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   timeFromUnix(sub.CurrentPeriodEnd),
		CancelAt:           timeFromUnix(sub.CancelAt),
		EventAt:            eventAt,
	}
	row.SubscriptionEnd = row.CurrentPeriodEnd
	if sub.ID != "" {
		id := sub.ID
		row.StripeSubscriptionID = &id
	}
	return row
}

// applyPlan maps the row's price id to an internal plan. A price no plan
// references is a valid outcome, not an error.
func (r *Reconciler) applyPlan(row *subscriber.Subscriber) error {
	if row.StripePriceID == nil {
		return nil
	}
	match, err := r.LookupPrice(*row.StripePriceID)
	if err != nil {
		return fmt.Errorf("resolve price: %w", err)
	}
	if match == nil {
		logs.LogJSON("WARN", "No plan references price", map[string]interface{}{
			"price_id": *row.StripePriceID,
		})
		return nil
	}

	planID := match.PlanID
	name := match.Name
	row.PlanID = &planID
	row.SubscriptionTier = &name
	if row.BillingInterval == nil {
		interval := string(match.Interval)
		row.BillingInterval = &interval
	}
	return nil
}

func timeFromUnix(secs int64) *time.Time {
	if secs == 0 {
		return nil
	}
	t := time.Unix(secs, 0)
	return &t
}
