package stripe

import (
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/customer"
	"github.com/stripe/stripe-go/v78/subscription"
)

// SubscriptionRetriever fetches a subscription from the billing provider.
type SubscriptionRetriever interface {
	Get(id string) (*stripe.Subscription, error)
}

// CustomerRetriever fetches a customer from the billing provider.
type CustomerRetriever interface {
	Get(id string) (*stripe.Customer, error)
}

type apiSubscriptions struct{}

func (apiSubscriptions) Get(id string) (*stripe.Subscription, error) {
	return subscription.Get(id, nil)
}

type apiCustomers struct{}

func (apiCustomers) Get(id string) (*stripe.Customer, error) {
	return customer.Get(id, nil)
}
