package content

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/entitlement"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/logs"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/storage"
)

// GateSource evaluates a user's entitlement gate. Satisfied by
// *entitlement.Evaluator.
type GateSource interface {
	Evaluate(ctx context.Context, userID string) (*entitlement.Gate, error)
}

// Handler serves the gated content endpoints. Every creation is checked
// server-side against the caller's evaluated gate, regardless of any
// client-side gating.
type Handler struct {
	Gates GateSource
}

func NewHandler(gates GateSource) *Handler {
	return &Handler{Gates: gates}
}

var validMediaExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".webp": true, ".heic": true,
	".mp4": true, ".mov": true, ".mp3": true,
	".wav": true, ".pdf": true,
}

func denyStatus(d entitlement.Decision) int {
	if d.Reason == entitlement.ReasonLoading {
		return http.StatusServiceUnavailable
	}
	return http.StatusForbidden
}

func (h *Handler) gateFor(c *gin.Context) (*entitlement.Gate, string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, "", false
	}

	gate, err := h.Gates.Evaluate(c.Request.Context(), userID.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate entitlements"})
		return nil, "", false
	}
	return gate, userID.(string), true
}

// uploadFormMedia handles the optional multipart media field. It charges the
// declared file size against the storage budget before uploading anything.
func (h *Handler) uploadFormMedia(c *gin.Context, gate *entitlement.Gate, userID, idPrefix string) (string, bool) {
	file, header, err := c.Request.FormFile("media")
	if err != nil {
		return "", true
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !validMediaExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file extension"})
		return "", false
	}

	if d := gate.RequireStorage(header.Size); !d.OK {
		c.JSON(denyStatus(d), gin.H{"ok": false, "reason": d.Reason})
		return "", false
	}

	filename := fmt.Sprintf("%s_%s%s", idPrefix, uuid.New().String(), ext)
	url, err := storage.UploadMedia(file, userID, filename, header.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed", "details": err.Error()})
		return "", false
	}
	return url, true
}

// CreateLegacyPost creates a legacy entry, with optional media.
func (h *Handler) CreateLegacyPost(c *gin.Context) {
	gate, userID, ok := h.gateFor(c)
	if !ok {
		return
	}

	if d := gate.RequireCapacity(entitlement.KindLegacy); !d.OK {
		c.JSON(denyStatus(d), gin.H{"ok": false, "reason": d.Reason})
		return
	}

	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	mediaURL, ok := h.uploadFormMedia(c, gate, userID, "legacy")
	if !ok {
		return
	}

	post := LegacyPost{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: c.PostForm("description"),
		MediaURL:    mediaURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := database.DB.Create(&post).Error; err != nil {
		if mediaURL != "" {
			if parts := strings.Split(mediaURL, ".amazonaws.com/"); len(parts) > 1 {
				_ = storage.DeleteMedia(parts[1])
			}
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create legacy post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "post": post})
}

// GetLegacyPosts returns the caller's legacy entries, newest first.
func (h *Handler) GetLegacyPosts(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var posts []LegacyPost
	if err := database.DB.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at DESC").Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch legacy posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// DeleteLegacyPost soft-deletes an entry. The row stays so the monthly quota
// still counts it; the media object is removed for real.
func (h *Handler) DeleteLegacyPost(c *gin.Context) {
	postID := c.Param("id")
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var post LegacyPost
	if err := database.DB.First(&post, "id = ? AND user_id = ? AND is_deleted = ?", postID, userID, false).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Legacy post not found"})
		return
	}

	if post.MediaURL != "" {
		if parts := strings.Split(post.MediaURL, ".amazonaws.com/"); len(parts) > 1 {
			if err := storage.DeleteMedia(parts[1]); err != nil {
				logs.LogJSON("WARN", "Failed to delete media object", map[string]interface{}{
					"error": err.Error(),
					"key":   parts[1],
				})
			}
		}
	}

	if err := database.DB.Model(&post).Update("is_deleted", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete legacy post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// CreateIdeaPost creates a short idea entry.
func (h *Handler) CreateIdeaPost(c *gin.Context) {
	gate, userID, ok := h.gateFor(c)
	if !ok {
		return
	}

	if d := gate.RequireCapacity(entitlement.KindIdea); !d.OK {
		c.JSON(denyStatus(d), gin.H{"ok": false, "reason": d.Reason})
		return
	}

	var input struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := IdeaPost{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     input.Title,
		Content:   input.Content,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := database.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create idea post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "post": post})
}

// GetIdeaPosts returns the caller's idea entries, newest first.
func (h *Handler) GetIdeaPosts(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var posts []IdeaPost
	if err := database.DB.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at DESC").Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch idea posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// CreateTimelessMessage schedules a message for future delivery.
func (h *Handler) CreateTimelessMessage(c *gin.Context) {
	gate, userID, ok := h.gateFor(c)
	if !ok {
		return
	}

	if d := gate.RequireCapacity(entitlement.KindTimeless); !d.OK {
		c.JSON(denyStatus(d), gin.H{"ok": false, "reason": d.Reason})
		return
	}

	var input struct {
		Title        string `json:"title" binding:"required"`
		Body         string `json:"body" binding:"required"`
		Recipients   string `json:"recipients" binding:"required"`
		DeliveryDate string `json:"delivery_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deliveryDate, err := time.Parse("2006-01-02", input.DeliveryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid delivery date, expected YYYY-MM-DD"})
		return
	}

	msg := TimelessMessage{
		ID:           uuid.New().String(),
		UserID:       userID,
		Title:        input.Title,
		Body:         input.Body,
		Recipients:   input.Recipients,
		DeliveryDate: deliveryDate,
		Status:       "pending",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := database.DB.Create(&msg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create timeless message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "message": msg})
}

// GetTimelessMessages returns the caller's scheduled messages.
func (h *Handler) GetTimelessMessages(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var msgs []TimelessMessage
	if err := database.DB.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("delivery_date ASC").Find(&msgs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch timeless messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// CreateWisdomResource publishes mentor content. Creation is gated on the
// mentor role, not on a numeric cap.
func (h *Handler) CreateWisdomResource(c *gin.Context) {
	gate, userID, ok := h.gateFor(c)
	if !ok {
		return
	}

	if d := gate.RequireMentorRole(); !d.OK {
		c.JSON(denyStatus(d), gin.H{"ok": false, "reason": d.Reason})
		return
	}

	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	mediaURL, ok := h.uploadFormMedia(c, gate, userID, "wisdom")
	if !ok {
		return
	}

	res := WisdomResource{
		ID:          uuid.New().String(),
		CreatedBy:   userID,
		Title:       title,
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		MediaURL:    mediaURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := database.DB.Create(&res).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create wisdom resource"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "resource": res})
}

// GetWisdomResources lists published wisdom resources. Viewing requires the
// mentorship capability of the caller's plan.
func (h *Handler) GetWisdomResources(c *gin.Context) {
	gate, _, ok := h.gateFor(c)
	if !ok {
		return
	}

	if d := gate.RequireMentorshipAccess(); !d.OK {
		c.JSON(denyStatus(d), gin.H{"ok": false, "reason": d.Reason})
		return
	}

	var resources []WisdomResource
	if err := database.DB.Where("is_deleted = ?", false).
		Order("created_at DESC").Find(&resources).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wisdom resources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"resources": resources})
}
