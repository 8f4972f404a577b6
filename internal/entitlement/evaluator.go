package entitlement

import (
	"context"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/logs"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/plan"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/subscriber"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/usage"
)

// Evaluator computes effective entitlements by merging the subscriber row,
// the static plan catalog, the live override row and current usage. A failed
// subscriber or override lookup degrades to the static free defaults rather
// than failing the evaluation.
type Evaluator struct {
	Usage *usage.Aggregator
}

func NewEvaluator(agg *usage.Aggregator) *Evaluator {
	return &Evaluator{Usage: agg}
}

// Evaluate builds the gate for a user.
func (e *Evaluator) Evaluate(ctx context.Context, userID string) (*Gate, error) {
	planID := plan.Free

	sub, err := subscriber.FindByUserID(userID)
	if err != nil {
		logs.LogJSON("WARN", "Subscriber lookup failed, falling back to free plan", map[string]interface{}{
			"error":  err.Error(),
			"userID": userID,
		})
	} else if sub != nil {
		planID = plan.DeriveID(sub.PlanID, sub.SubscriptionTier)
	}

	base := plan.LimitsFor(planID)

	row, err := LoadAccess(userID)
	if err != nil {
		logs.LogJSON("WARN", "Access override lookup failed, using plan defaults", map[string]interface{}{
			"error":  err.Error(),
			"userID": userID,
		})
		row = nil
	}

	gate := &Gate{
		PlanID: planID,
		Limits: Merge(base, row),
		Usage:  e.Usage.Collect(ctx, userID),
	}
	return gate, nil
}

// CanCreate evaluates the creation guard for one content kind. Served as its
// own endpoint so clients can pre-check before uploading anything; the
// content handlers enforce the same gate checks again at insert time.
func (e *Evaluator) CanCreate(ctx context.Context, userID string, kind Kind) (Decision, error) {
	gate, err := e.Evaluate(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	if kind == KindWisdom {
		return gate.RequireMentorRole(), nil
	}
	return gate.RequireCapacity(kind), nil
}
