package stripe

import (
	"context"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/identity"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/logs"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/user"
)

// Hints is what a billing event knows about the acting user.
type Hints struct {
	MetadataUserID string
	Email          string
}

// ResolverFunc tries one identity-resolution strategy. Returning "" with a
// nil error is a miss; the chain moves on to the next strategy.
type ResolverFunc func(ctx context.Context, h Hints) (string, error)

// Chain tries resolvers in order and returns the first hit. Strategy errors
// are logged and skipped, since a later strategy may still succeed.
type Chain []ResolverFunc

func (c Chain) Resolve(ctx context.Context, h Hints) string {
	for _, resolve := range c {
		id, err := resolve(ctx, h)
		if err != nil {
			logs.LogJSON("WARN", "Identity resolver failed", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		if id != "" {
			return id
		}
	}
	return ""
}

// MetadataResolver trusts the user id the checkout flow embedded in the
// session metadata. Exact when present.
func MetadataResolver(_ context.Context, h Hints) (string, error) {
	return h.MetadataUserID, nil
}

// ProfileEmailResolver matches the payer's e-mail against known profiles.
func ProfileEmailResolver(_ context.Context, h Hints) (string, error) {
	return user.FindIDByEmail(h.Email)
}

// AdminLookupResolver asks the identity provider's admin API as a last
// resort.
func AdminLookupResolver(idp *identity.Client) ResolverFunc {
	return func(ctx context.Context, h Hints) (string, error) {
		return idp.FindUserIDByEmail(ctx, h.Email)
	}
}

// DefaultChain is the production resolution order: session metadata, then
// profile e-mail match, then the identity-provider lookup.
func DefaultChain(idp *identity.Client) Chain {
	return Chain{MetadataResolver, ProfileEmailResolver, AdminLookupResolver(idp)}
}
