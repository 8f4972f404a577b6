package user

import (
	"errors"

	"gorm.io/gorm"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
)

func ExistsByEmail(email string) bool {
	var count int64
	database.DB.Model(&Profile{}).Where("email = ?", email).Count(&count)
	return count > 0
}

// FindIDByEmail matches a profile by e-mail or username (legacy rows keep the
// signup e-mail in the username column). Returns "" when no profile matches.
func FindIDByEmail(email string) (string, error) {
	if email == "" {
		return "", nil
	}

	var profile Profile
	err := database.DB.
		Select("id").
		Where("email = ? OR username = ?", email, email).
		First(&profile).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	return profile.ID, nil
}

func IsAdmin(userID string) (bool, error) {
	var profile Profile
	err := database.DB.
		Select("is_admin").
		Where("id = ?", userID).
		First(&profile).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return profile.IsAdmin, nil
}
