package stripe

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/customer"
	"github.com/stripe/stripe-go/v78/price"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/logs"
)

// CreateCheckout POST /api/checkout. The caller passes either a concrete
// price_id or a plan label ("Monthly"/"Yearly"/"Lifetime"). The session
// carries the user id in metadata so the webhook can resolve identity
// deterministically.
func CreateCheckout(c *gin.Context) {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	domain := os.Getenv("DOMAIN_URL")

	userID := c.GetString("user_id")
	userEmail := c.GetString("user_email")
	if userID == "" || userEmail == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var input struct {
		PriceID string `json:"price_id"`
		Plan    string `json:"plan"`
	}
	_ = c.BindJSON(&input)

	customerID, err := findOrCreateCustomer(userEmail, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "customer lookup failed"})
		return
	}

	priceID := input.PriceID
	if priceID == "" && input.Plan != "" {
		priceID, err = priceForPlanLabel(input.Plan)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if priceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no price provided or resolved"})
		return
	}

	resolved, err := price.Get(priceID, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown price"})
		return
	}

	// one-time prices get a payment-mode session instead of a subscription
	mode := "payment"
	if resolved.Recurring != nil {
		mode = "subscription"
	}

	successURL := fmt.Sprintf(
		"%s/dashboard/payment-confirmation?session_id={CHECKOUT_SESSION_ID}&customer_id=%s&price_id=%s",
		domain, customerID, priceID,
	)
	cancelURL := domain + "/pricing"

	sessionParams := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(mode),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(successURL),
		CancelURL:           stripe.String(cancelURL),
		ClientReferenceID:   stripe.String(userID),
		AllowPromotionCodes: stripe.Bool(true),
		Metadata: map[string]string{
			"user_id": userID,
		},
	}

	createdSession, err := session.New(sessionParams)
	if err != nil {
		logs.LogJSON("ERROR", "Checkout session creation failed", map[string]interface{}{
			"error":  err.Error(),
			"userID": userID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout session creation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": createdSession.URL})
}

func findOrCreateCustomer(email, userID string) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)

	iter := customer.List(listParams)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", err
	}

	created, err := customer.New(&stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"user_id": userID,
		},
	})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// priceForPlanLabel derives a price from a plan label by listing active
// prices, matching on the recurrence interval.
func priceForPlanLabel(label string) (string, error) {
	listParams := &stripe.PriceListParams{Active: stripe.Bool(true)}
	listParams.Limit = stripe.Int64(100)

	iter := price.List(listParams)
	for iter.Next() {
		p := iter.Price()
		switch label {
		case "Monthly":
			if p.Recurring != nil && p.Recurring.Interval == stripe.PriceRecurringIntervalMonth {
				return p.ID, nil
			}
		case "Yearly":
			if p.Recurring != nil && p.Recurring.Interval == stripe.PriceRecurringIntervalYear {
				return p.ID, nil
			}
		case "Lifetime":
			if p.Recurring == nil {
				return p.ID, nil
			}
		}
	}
	if err := iter.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no matching price found for plan: %s", label)
}
