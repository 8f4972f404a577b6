package plan

// ID is the internal plan identifier.
type ID string

const (
	Free    ID = "free"
	Builder ID = "builder"
	Master  ID = "master"
)

// MentorshipAccess levels. The plan_limits table stores "both" where the
// static catalog says "mentor_mentee"; FromMentorshipValue folds that.
type MentorshipAccess string

const (
	MentorshipNone         MentorshipAccess = "none"
	MentorshipMentee       MentorshipAccess = "mentee"
	MentorshipMentorMentee MentorshipAccess = "mentor_mentee"
)

// Unlimited is the sentinel for caps without a numeric limit.
const Unlimited = -1

// Limits are the static per-plan defaults. Monthly caps use Unlimited where
// the plan has no ceiling; StorageBytes is a hard cap.
type Limits struct {
	LegacyPerMonth      int
	IdeaPerMonth        int
	TimelessPerMonth    int
	StorageBytes        int64
	Mentorship          MentorshipAccess
	ShowProgressTracker bool
	AllowFeaturedIdeas  bool
}

var defaults = map[ID]Limits{
	Free: {
		LegacyPerMonth:      5,
		IdeaPerMonth:        5,
		TimelessPerMonth:    5,
		StorageBytes:        500 * 1024 * 1024, // 500MB
		Mentorship:          MentorshipNone,
		ShowProgressTracker: false,
		AllowFeaturedIdeas:  false,
	},
	Builder: {
		LegacyPerMonth:      100,
		IdeaPerMonth:        Unlimited,
		TimelessPerMonth:    10,
		StorageBytes:        5 * 1024 * 1024 * 1024, // 5GB
		Mentorship:          MentorshipMentee,
		ShowProgressTracker: true,
		AllowFeaturedIdeas:  false,
	},
	Master: {
		LegacyPerMonth:      Unlimited,
		IdeaPerMonth:        Unlimited,
		TimelessPerMonth:    Unlimited,
		StorageBytes:        100 * 1024 * 1024 * 1024, // 100GB
		Mentorship:          MentorshipMentorMentee,
		ShowProgressTracker: true,
		AllowFeaturedIdeas:  true,
	},
}

// LimitsFor returns the static defaults for a plan. Unknown plans get the
// free tier.
func LimitsFor(id ID) Limits {
	if l, ok := defaults[id]; ok {
		return l
	}
	return defaults[Free]
}

// FromTier maps a human-readable subscription tier string to a plan id.
// Fallback only; the mentorship-value derivation is preferred.
func FromTier(tier string) ID {
	switch tier {
	case "Builder – Legacy Builder", "builder":
		return Builder
	case "Master – Legacy Master", "master":
		return Master
	default:
		return Free
	}
}

// FromMentorshipValue maps a plan_limits mentorship value to a plan id.
func FromMentorshipValue(v string) ID {
	switch v {
	case "both":
		return Master
	case "mentee":
		return Builder
	default:
		return Free
	}
}
