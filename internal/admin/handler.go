package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/entitlement"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/logs"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/plan"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/subscriber"
)

// GetDashboardStats GET /api/admin/stats
func GetDashboardStats(c *gin.Context) {
	route := c.FullPath()
	userID := c.GetString("user_id")

	var totalUsers, legacyPosts, ideaPosts, pendingMessages, wisdomResources int64
	var activeSubscribers int64

	database.DB.Table("profiles").Count(&totalUsers)
	database.DB.Table("legacy_posts").Where("is_deleted = false").Count(&legacyPosts)
	database.DB.Table("idea_posts").Where("is_deleted = false").Count(&ideaPosts)
	database.DB.Table("timeless_messages").Where("status = 'pending' AND is_deleted = false").Count(&pendingMessages)
	database.DB.Table("wisdom_resources").Where("is_deleted = false").Count(&wisdomResources)
	database.DB.Table("subscribers").Where("subscribed = true").Count(&activeSubscribers)

	var byPlan []struct {
		PlanID string `json:"plan_id"`
		Count  int64  `json:"count"`
	}
	database.DB.Table("subscribers").
		Select("plan_id, COUNT(*) as count").
		Where("subscribed = true AND plan_id IS NOT NULL").
		Group("plan_id").
		Scan(&byPlan)

	c.JSON(http.StatusOK, gin.H{"stats": gin.H{
		"total_users":         totalUsers,
		"legacy_posts":        legacyPosts,
		"idea_posts":          ideaPosts,
		"pending_messages":    pendingMessages,
		"wisdom_resources":    wisdomResources,
		"active_subscribers":  activeSubscribers,
		"subscribers_by_plan": byPlan,
	}})

	logs.LogJSON("INFO", "Admin stats retrieved successfully", map[string]interface{}{
		"route":  route,
		"userID": userID,
	})
}

// SetAccessOverride PUT /api/admin/users/:id/access
// Upserts the live capability row consulted by the entitlement merge.
func SetAccessOverride(c *gin.Context) {
	targetID := c.Param("id")

	var input struct {
		Mentorship            *string `json:"mentorship"`
		CanViewMentorship     *bool   `json:"can_view_mentorship"`
		CanPostWisdom         *bool   `json:"can_post_wisdom"`
		CanSeeProgressTracker *bool   `json:"can_see_progress_tracker"`
		Note                  string  `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Mentorship != nil {
		switch *input.Mentorship {
		case "none", "mentee", "both":
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mentorship value"})
			return
		}
	}

	override := entitlement.Override{
		ID:                    uuid.New().String(),
		CreatedAt:             time.Now(),
		UpdatedAt:             time.Now(),
		UserID:                targetID,
		Mentorship:            input.Mentorship,
		CanViewMentorship:     input.CanViewMentorship,
		CanPostWisdom:         input.CanPostWisdom,
		CanSeeProgressTracker: input.CanSeeProgressTracker,
		Note:                  input.Note,
	}

	err := database.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at", "mentorship", "can_view_mentorship",
			"can_post_wisdom", "can_see_progress_tracker", "note",
		}),
	}).Create(&override).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save access override"})
		return
	}

	logs.LogJSON("INFO", "Access override saved", map[string]interface{}{
		"adminID":  c.GetString("user_id"),
		"targetID": targetID,
	})

	c.JSON(http.StatusOK, gin.H{"ok": true, "override": override})
}

// ClearAccessOverride DELETE /api/admin/users/:id/access
func ClearAccessOverride(c *gin.Context) {
	targetID := c.Param("id")

	if err := database.DB.Where("user_id = ?", targetID).Delete(&entitlement.Override{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear access override"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ChangeUserPlan PUT /api/admin/users/:id/plan
// Writes a manual subscriber row. The event timestamp is now, so a later
// billing webhook for the same user still wins.
func ChangeUserPlan(c *gin.Context) {
	targetID := c.Param("id")

	var input struct {
		PlanID string `json:"plan_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	planID := plan.ID(input.PlanID)
	switch planID {
	case plan.Free, plan.Builder, plan.Master:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	idStr := string(planID)
	subscribed := planID != plan.Free
	row := &subscriber.Subscriber{
		UserID:     targetID,
		PlanID:     &idStr,
		Subscribed: subscribed,
		EventAt:    time.Now(),
	}

	if err := subscriber.Upsert(row); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change plan"})
		return
	}

	logs.LogJSON("INFO", "User plan changed manually", map[string]interface{}{
		"adminID":  c.GetString("user_id"),
		"targetID": targetID,
		"plan":     input.PlanID,
	})

	c.JSON(http.StatusOK, gin.H{"ok": true, "plan_id": input.PlanID})
}
