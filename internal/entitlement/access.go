package entitlement

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
)

// AccessRow is the live server-side capability row for one user. Nil fields
// mean "unknown"; the merge falls back to the static plan defaults for
// those. Rows exist only for users whose entitlements were adjusted manually
// (grants, trials).
type AccessRow struct {
	Mentorship            *string
	CanViewMentorship     *bool
	CanPostWisdom         *bool
	CanSeeProgressTracker *bool
}

// Override is the persisted form of an AccessRow.
type Override struct {
	ID                    string `gorm:"primaryKey"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
	UserID                string `gorm:"uniqueIndex"`
	Mentorship            *string
	CanViewMentorship     *bool
	CanPostWisdom         *bool
	CanSeeProgressTracker *bool
	Note                  string
}

func (Override) TableName() string {
	return "access_overrides"
}

// LoadAccess returns the live capability row for a user, or nil when no
// override exists.
func LoadAccess(userID string) (*AccessRow, error) {
	var o Override
	err := database.DB.Where("user_id = ?", userID).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &AccessRow{
		Mentorship:            o.Mentorship,
		CanViewMentorship:     o.CanViewMentorship,
		CanPostWisdom:         o.CanPostWisdom,
		CanSeeProgressTracker: o.CanSeeProgressTracker,
	}, nil
}
