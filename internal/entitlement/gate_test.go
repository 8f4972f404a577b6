package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/plan"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/usage"
)

func gateFor(id plan.ID, snap usage.Snapshot, row *AccessRow) *Gate {
	return &Gate{
		PlanID: id,
		Limits: Merge(plan.LimitsFor(id), row),
		Usage:  snap,
	}
}

func TestRequireCapacity(t *testing.T) {
	t.Run("free plan at cap fails with quota", func(t *testing.T) {
		g := gateFor(plan.Free, usage.Snapshot{LegacyCountMonth: 5, Ready: true}, nil)
		d := g.RequireCapacity(KindLegacy)
		assert.False(t, d.OK)
		assert.Equal(t, ReasonQuota, d.Reason)
	})

	t.Run("free plan under cap passes", func(t *testing.T) {
		g := gateFor(plan.Free, usage.Snapshot{LegacyCountMonth: 4, Ready: true}, nil)
		assert.True(t, g.RequireCapacity(KindLegacy).OK)
	})

	t.Run("same usage passes after upgrading to builder", func(t *testing.T) {
		g := gateFor(plan.Builder, usage.Snapshot{LegacyCountMonth: 5, Ready: true}, nil)
		assert.True(t, g.RequireCapacity(KindLegacy).OK)
	})

	t.Run("unlimited cap always passes regardless of usage", func(t *testing.T) {
		g := gateFor(plan.Builder, usage.Snapshot{IdeaCountMonth: 1 << 40, Ready: true}, nil)
		assert.True(t, g.RequireCapacity(KindIdea).OK)
	})

	t.Run("wisdom counts are not capacity-capped", func(t *testing.T) {
		g := gateFor(plan.Free, usage.Snapshot{WisdomCountMonth: 999, Ready: true}, nil)
		assert.True(t, g.RequireCapacity(KindWisdom).OK)
	})

	t.Run("unready usage defers instead of deciding", func(t *testing.T) {
		g := gateFor(plan.Master, usage.Snapshot{}, nil)
		d := g.RequireCapacity(KindLegacy)
		assert.False(t, d.OK)
		assert.Equal(t, ReasonLoading, d.Reason)
	})
}

func TestRequireStorage(t *testing.T) {
	limits := plan.LimitsFor(plan.Free) // 500MB cap

	t.Run("exact fit passes", func(t *testing.T) {
		g := gateFor(plan.Free, usage.Snapshot{StorageBytes: limits.StorageBytes - 10, Ready: true}, nil)
		assert.True(t, g.RequireStorage(10).OK)
	})

	t.Run("short by one byte fails with storage", func(t *testing.T) {
		g := gateFor(plan.Free, usage.Snapshot{StorageBytes: limits.StorageBytes - 9, Ready: true}, nil)
		d := g.RequireStorage(10)
		assert.False(t, d.OK)
		assert.Equal(t, ReasonStorage, d.Reason)
	})

	t.Run("unready usage defers", func(t *testing.T) {
		g := gateFor(plan.Free, usage.Snapshot{}, nil)
		assert.Equal(t, ReasonLoading, g.RequireStorage(1).Reason)
	})
}

func TestRequireMentorshipAccess(t *testing.T) {
	ready := usage.Snapshot{Ready: true}

	t.Run("free plan without override is forbidden", func(t *testing.T) {
		g := gateFor(plan.Free, ready, nil)
		d := g.RequireMentorshipAccess()
		assert.False(t, d.OK)
		assert.Equal(t, ReasonForbidden, d.Reason)
	})

	t.Run("builder plan passes", func(t *testing.T) {
		g := gateFor(plan.Builder, ready, nil)
		assert.True(t, g.RequireMentorshipAccess().OK)
	})

	t.Run("live grant on free plan passes", func(t *testing.T) {
		g := gateFor(plan.Free, ready, &AccessRow{CanViewMentorship: boolPtr(true)})
		assert.True(t, g.RequireMentorshipAccess().OK)
	})
}

func TestRequireMentorRole(t *testing.T) {
	ready := usage.Snapshot{Ready: true}

	t.Run("only the highest tier passes statically", func(t *testing.T) {
		assert.False(t, gateFor(plan.Free, ready, nil).RequireMentorRole().OK)
		assert.False(t, gateFor(plan.Builder, ready, nil).RequireMentorRole().OK)
		assert.True(t, gateFor(plan.Master, ready, nil).RequireMentorRole().OK)
	})

	t.Run("can_post_wisdom grant on a mentee plan passes", func(t *testing.T) {
		g := gateFor(plan.Builder, ready, &AccessRow{CanPostWisdom: boolPtr(true)})
		assert.True(t, g.RequireMentorRole().OK)
	})
}
