package plan

import "time"

// Configuration is a purchasable plan catalog entry. Read-only from the
// application's perspective; rows are managed administratively.
type Configuration struct {
	ID                    string `gorm:"primaryKey"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
	PlanID                string `gorm:"uniqueIndex"`
	Name                  string
	Description           string
	Features              string `gorm:"type:jsonb"`
	MonthlyPrice          *float64
	AnnualPrice           *float64
	LifetimePrice         *float64
	StripePriceIDMonthly  *string
	StripePriceIDAnnual   *string
	StripePriceIDLifetime *string
	IsPopular             bool
}

func (Configuration) TableName() string {
	return "plan_configurations"
}

// Limit is a resource-scoped plan limit. (plan_id, resource) is unique.
type Limit struct {
	ID              string `gorm:"primaryKey"`
	CreatedAt       time.Time
	PlanID          string `gorm:"uniqueIndex:idx_plan_limits_plan_resource"`
	Resource        string `gorm:"uniqueIndex:idx_plan_limits_plan_resource"`
	LimitValue      *int64
	MentorshipValue *string
	Period          *string // "total" or "month"
}

func (Limit) TableName() string {
	return "plan_limits"
}
