package plan

import (
	"errors"

	"gorm.io/gorm"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
)

// BillingInterval records which price slot of a plan a purchase used.
type BillingInterval string

const (
	IntervalMonth    BillingInterval = "month"
	IntervalYear     BillingInterval = "year"
	IntervalLifetime BillingInterval = "lifetime"
)

// PriceMatch is the outcome of mapping a Stripe price id to a plan.
type PriceMatch struct {
	PlanID   string
	Name     string
	Interval BillingInterval
}

// MatchInterval reports which of the three price slots of cfg carries
// priceID.
func MatchInterval(cfg *Configuration, priceID string) (BillingInterval, bool) {
	switch {
	case cfg.StripePriceIDMonthly != nil && *cfg.StripePriceIDMonthly == priceID:
		return IntervalMonth, true
	case cfg.StripePriceIDAnnual != nil && *cfg.StripePriceIDAnnual == priceID:
		return IntervalYear, true
	case cfg.StripePriceIDLifetime != nil && *cfg.StripePriceIDLifetime == priceID:
		return IntervalLifetime, true
	}
	return "", false
}

// ResolvePrice finds the plan whose monthly, annual or lifetime price id is
// priceID. A nil match with a nil error means no plan references the price,
// which is a valid outcome (legacy or test prices).
func ResolvePrice(priceID string) (*PriceMatch, error) {
	if priceID == "" {
		return nil, nil
	}

	var cfg Configuration
	err := database.DB.
		Where("stripe_price_id_monthly = ? OR stripe_price_id_annual = ? OR stripe_price_id_lifetime = ?",
			priceID, priceID, priceID).
		First(&cfg).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	interval, ok := MatchInterval(&cfg, priceID)
	if !ok {
		return nil, nil
	}

	return &PriceMatch{PlanID: cfg.PlanID, Name: cfg.Name, Interval: interval}, nil
}

// MentorshipValueFor returns the mentorship_access limit value for a plan,
// or "" when the catalog has none.
func MentorshipValueFor(planID string) (string, error) {
	var limit Limit
	err := database.DB.
		Where("plan_id = ? AND resource = ?", planID, "mentorship_access").
		First(&limit).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	if limit.MentorshipValue == nil {
		return "", nil
	}
	return *limit.MentorshipValue, nil
}

// DeriveID computes the effective plan id for a subscriber row. The external
// plan id is preferred: its mentorship_access limit decides the alias. The
// human-readable tier string is only a fallback for rows without a plan id;
// a failed limit lookup resolves to free, never to the stale tier label.
func DeriveID(externalPlanID, tier *string) ID {
	if externalPlanID != nil && *externalPlanID != "" {
		mv, err := MentorshipValueFor(*externalPlanID)
		if err != nil {
			return Free
		}
		return FromMentorshipValue(mv)
	}
	if tier != nil {
		return FromTier(*tier)
	}
	return Free
}
