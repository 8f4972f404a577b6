package stripe

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v78"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/plan"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/subscriber"
)

const testSecret = "whsec_test_secret"

func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type stubSubscriptions struct {
	sub *stripe.Subscription
	err error
}

func (s stubSubscriptions) Get(string) (*stripe.Subscription, error) { return s.sub, s.err }

type stubCustomers struct {
	email string
}

func (s stubCustomers) Get(string) (*stripe.Customer, error) {
	return &stripe.Customer{Email: s.email}, nil
}

func testReconciler() (*Reconciler, *[]subscriber.Subscriber) {
	var persisted []subscriber.Subscriber
	r := &Reconciler{
		Secret:        testSecret,
		Subscriptions: stubSubscriptions{},
		Customers:     stubCustomers{email: "buyer@example.com"},
		ResolveUser: func(_ context.Context, h Hints) string {
			return h.MetadataUserID
		},
		LookupPrice: func(priceID string) (*plan.PriceMatch, error) {
			if priceID == "price_123" {
				return &plan.PriceMatch{
					PlanID:   "builder",
					Name:     "Builder – Legacy Builder",
					Interval: plan.IntervalMonth,
				}, nil
			}
			return nil, nil
		},
		Persist: func(s *subscriber.Subscriber) error {
			persisted = append(persisted, *s)
			return nil
		},
	}
	return r, &persisted
}

func postWebhook(r *Reconciler, payload []byte, signature string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/webhooks/stripe", r.HandleWebhook)

	req := httptest.NewRequest("POST", "/api/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

const subscriptionUpdatedPayload = `{
	"id": "evt_1",
	"object": "event",
	"api_version": "2024-04-10",
	"created": 1700000000,
	"type": "customer.subscription.updated",
	"data": {"object": {
		"id": "sub_123",
		"object": "subscription",
		"customer": "cus_123",
		"status": "active",
		"current_period_start": 1699990000,
		"current_period_end": 1702582000,
		"metadata": {"user_id": "user-1"},
		"items": {"data": [{"price": {
			"id": "price_123",
			"product": "prod_1",
			"recurring": {"interval": "month"}
		}}]}
	}}
}`

func TestHandleWebhook_SignatureFailure(t *testing.T) {
	r, persisted := testReconciler()

	t.Run("missing signature", func(t *testing.T) {
		rr := postWebhook(r, []byte(subscriptionUpdatedPayload), "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		sig := signPayload([]byte(subscriptionUpdatedPayload), "whsec_other")
		rr := postWebhook(r, []byte(subscriptionUpdatedPayload), sig)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	assert.Empty(t, *persisted, "no state may be mutated on verification failure")
}

func TestHandleWebhook_SubscriptionUpdated(t *testing.T) {
	r, persisted := testReconciler()
	payload := []byte(subscriptionUpdatedPayload)
	sig := signPayload(payload, testSecret)

	rr := postWebhook(r, payload, sig)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "received")

	assert.Len(t, *persisted, 1)
	row := (*persisted)[0]
	assert.Equal(t, "user-1", row.UserID)
	assert.Equal(t, "cus_123", row.StripeCustomerID)
	assert.Equal(t, "buyer@example.com", row.Email)
	assert.True(t, row.Subscribed)
	assert.Equal(t, "active", *row.Status)
	assert.Equal(t, "month", *row.BillingInterval)
	assert.Equal(t, "builder", *row.PlanID)
	assert.Equal(t, "Builder – Legacy Builder", *row.SubscriptionTier)
	assert.Equal(t, "price_123", *row.StripePriceID)
	assert.Equal(t, "prod_1", *row.StripeProductID)
	assert.Equal(t, time.Unix(1700000000, 0), row.EventAt)
}

func TestHandleWebhook_Redelivery(t *testing.T) {
	r, persisted := testReconciler()
	payload := []byte(subscriptionUpdatedPayload)

	rr := postWebhook(r, payload, signPayload(payload, testSecret))
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = postWebhook(r, payload, signPayload(payload, testSecret))
	assert.Equal(t, http.StatusOK, rr.Code)

	// redelivery produces the exact same write; the keyed upsert makes the
	// second one a no-op
	assert.Len(t, *persisted, 2)
	assert.Equal(t, (*persisted)[0], (*persisted)[1])
}

func TestHandleWebhook_CheckoutCompleted(t *testing.T) {
	r, persisted := testReconciler()
	r.Subscriptions = stubSubscriptions{sub: &stripe.Subscription{
		ID:                 "sub_123",
		Status:             stripe.SubscriptionStatusActive,
		CurrentPeriodStart: 1699990000,
		CurrentPeriodEnd:   1702582000,
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{
			Price: &stripe.Price{
				ID:        "price_123",
				Product:   &stripe.Product{ID: "prod_1"},
				Recurring: &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth},
			},
		}}},
	}}

	payload := []byte(`{
		"id": "evt_2",
		"object": "event",
		"api_version": "2024-04-10",
		"created": 1700000100,
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"object": "checkout.session",
			"customer": "cus_123",
			"subscription": "sub_123",
			"client_reference_id": "user-1",
			"metadata": {"user_id": "user-1"},
			"customer_details": {"email": "buyer@example.com"}
		}}
	}`)

	rr := postWebhook(r, payload, signPayload(payload, testSecret))
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Len(t, *persisted, 1)
	row := (*persisted)[0]
	assert.Equal(t, "user-1", row.UserID)
	assert.True(t, row.Subscribed)
	assert.Equal(t, "builder", *row.PlanID)
	assert.Equal(t, "sub_123", *row.StripeSubscriptionID)
}

func TestHandleWebhook_SubscriptionDeleted(t *testing.T) {
	r, persisted := testReconciler()

	payload := []byte(`{
		"id": "evt_3",
		"object": "event",
		"api_version": "2024-04-10",
		"created": 1700000200,
		"type": "customer.subscription.deleted",
		"data": {"object": {
			"id": "sub_123",
			"object": "subscription",
			"customer": "cus_123",
			"status": "canceled",
			"current_period_end": 1702582000,
			"metadata": {"user_id": "user-1"}
		}}
	}`)

	rr := postWebhook(r, payload, signPayload(payload, testSecret))
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Len(t, *persisted, 1)
	row := (*persisted)[0]
	assert.False(t, row.Subscribed)
	assert.Nil(t, row.PlanID)
	assert.Nil(t, row.StripePriceID)
	assert.Nil(t, row.StripeProductID)
	assert.Nil(t, row.BillingInterval)
	assert.Equal(t, "canceled", *row.Status)
	assert.Equal(t, "cus_123", row.StripeCustomerID, "historical customer id is preserved")
}

func TestHandleWebhook_UnresolvableUserIsDropped(t *testing.T) {
	r, persisted := testReconciler()
	r.ResolveUser = func(context.Context, Hints) string { return "" }

	payload := []byte(subscriptionUpdatedPayload)
	rr := postWebhook(r, payload, signPayload(payload, testSecret))

	// dropped, not surfaced: the provider cannot usefully retry this
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, *persisted)
}

func TestHandleWebhook_DownstreamFailureSurfaces(t *testing.T) {
	r, persisted := testReconciler()
	r.LookupPrice = func(string) (*plan.PriceMatch, error) {
		return nil, errors.New("catalog unavailable")
	}

	payload := []byte(subscriptionUpdatedPayload)
	rr := postWebhook(r, payload, signPayload(payload, testSecret))

	// surfaced as an error response so the provider retries
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, *persisted)
}

func TestApplySubscription_IntervalAndStatus(t *testing.T) {
	sub := &stripe.Subscription{
		ID:     "sub_9",
		Status: stripe.SubscriptionStatusPastDue,
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{
			Price: &stripe.Price{
				ID:        "price_y",
				Recurring: &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalYear},
			},
		}}},
	}

	var row subscriber.Subscriber
	applySubscription(&row, sub)

	assert.False(t, row.Subscribed, "only active subscriptions count as subscribed")
	assert.Equal(t, "past_due", *row.Status)
	assert.Equal(t, "year", *row.BillingInterval)
}
