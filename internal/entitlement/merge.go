package entitlement

import (
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/plan"
)

// Effective is the total capability set after merging static plan defaults
// with the live override row. Every field always carries a definite value,
// so a failed or missing override load can never leave a capability
// undecided.
type Effective struct {
	plan.Limits
	CanViewMentorship     bool
	CanPostWisdom         bool
	CanSeeProgressTracker bool
}

// Merge combines the static plan limits with the live capability row.
// Override values win whenever present; absent fields fall back to the
// plan-derived defaults.
func Merge(base plan.Limits, row *AccessRow) Effective {
	out := Effective{
		Limits:                base,
		CanViewMentorship:     base.Mentorship != plan.MentorshipNone,
		CanPostWisdom:         base.Mentorship == plan.MentorshipMentorMentee,
		CanSeeProgressTracker: base.ShowProgressTracker,
	}

	if row == nil {
		return out
	}

	if row.Mentorship != nil {
		switch *row.Mentorship {
		case "both":
			out.Mentorship = plan.MentorshipMentorMentee
		case "mentee":
			out.Mentorship = plan.MentorshipMentee
		case "none":
			out.Mentorship = plan.MentorshipNone
		}
		// re-derive the flag defaults from the overridden level before the
		// explicit boolean overrides are applied below
		out.CanViewMentorship = out.Mentorship != plan.MentorshipNone
		out.CanPostWisdom = out.Mentorship == plan.MentorshipMentorMentee
	}
	if row.CanViewMentorship != nil {
		out.CanViewMentorship = *row.CanViewMentorship
	}
	if row.CanPostWisdom != nil {
		out.CanPostWisdom = *row.CanPostWisdom
	}
	if row.CanSeeProgressTracker != nil {
		out.CanSeeProgressTracker = *row.CanSeeProgressTracker
		out.ShowProgressTracker = *row.CanSeeProgressTracker
	}

	return out
}
