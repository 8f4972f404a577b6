package entitlement

import (
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/plan"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/usage"
)

// Kind names a gated content kind.
type Kind string

const (
	KindLegacy   Kind = "legacy"
	KindIdea     Kind = "idea"
	KindTimeless Kind = "timeless"
	KindWisdom   Kind = "wisdom"
)

// Reason classifies why a check failed so the caller can render the right
// message. ReasonLoading is not a denial: usage is not decidable yet and the
// caller must defer the action.
type Reason string

const (
	ReasonLoading   Reason = "loading"
	ReasonQuota     Reason = "quota"
	ReasonStorage   Reason = "storage"
	ReasonForbidden Reason = "forbidden"
)

// Decision is the structured outcome of a capability check. Denials are
// expected, frequent outcomes, so they are values, never errors.
type Decision struct {
	OK     bool   `json:"ok"`
	Reason Reason `json:"reason,omitempty"`
}

func allow() Decision        { return Decision{OK: true} }
func deny(r Reason) Decision { return Decision{OK: false, Reason: r} }

// Gate is a user's evaluated entitlement state. All checks are total: every
// capability resolves to a definite decision.
type Gate struct {
	PlanID plan.ID
	Limits Effective
	Usage  usage.Snapshot
}

// RequireCapacity checks the month-to-date creation count of kind against
// the resolved cap. Unlimited caps always pass. Wisdom creation is governed
// by the mentor role, not a numeric cap.
func (g *Gate) RequireCapacity(kind Kind) Decision {
	if !g.Usage.Ready {
		return deny(ReasonLoading)
	}

	var used int64
	limit := plan.Unlimited

	switch kind {
	case KindLegacy:
		used, limit = g.Usage.LegacyCountMonth, g.Limits.LegacyPerMonth
	case KindIdea:
		used, limit = g.Usage.IdeaCountMonth, g.Limits.IdeaPerMonth
	case KindTimeless:
		used, limit = g.Usage.TimelessCountMonth, g.Limits.TimelessPerMonth
	case KindWisdom:
		used, limit = g.Usage.WisdomCountMonth, plan.Unlimited
	}

	if limit == plan.Unlimited {
		return allow()
	}
	if used < int64(limit) {
		return allow()
	}
	return deny(ReasonQuota)
}

// RequireStorage passes iff the remaining storage budget covers bytesNeeded.
func (g *Gate) RequireStorage(bytesNeeded int64) Decision {
	if !g.Usage.Ready {
		return deny(ReasonLoading)
	}
	if g.Limits.StorageBytes-g.Usage.StorageBytes >= bytesNeeded {
		return allow()
	}
	return deny(ReasonStorage)
}

// RequireMentorshipAccess passes when the merged view-mentorship capability
// is granted.
func (g *Gate) RequireMentorshipAccess() Decision {
	if g.Limits.CanViewMentorship {
		return allow()
	}
	return deny(ReasonForbidden)
}

// RequireMentorRole passes only for the highest mentorship tier (or an
// explicit live grant folded in by the merge).
func (g *Gate) RequireMentorRole() Decision {
	if g.Limits.CanPostWisdom {
		return allow()
	}
	return deny(ReasonForbidden)
}
