package content

import "time"

// LegacyPost is a long-form legacy entry. Rows are soft-deleted so the
// monthly quota keeps counting removed entries created this month.
type LegacyPost struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MediaURL    string    `json:"media_url"`
	IsDeleted   bool      `gorm:"default:false" json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (LegacyPost) TableName() string {
	return "legacy_posts"
}

// IdeaPost is a short idea entry.
type IdeaPost struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	IsFeatured bool      `gorm:"default:false" json:"is_featured"`
	IsDeleted  bool      `gorm:"default:false" json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (IdeaPost) TableName() string {
	return "idea_posts"
}

// TimelessMessage is a scheduled message delivered on or after its delivery
// date. Status moves from pending to sent exactly once.
type TimelessMessage struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	MediaURL     string     `json:"media_url"`
	Recipients   string     `json:"recipients"`
	DeliveryDate time.Time  `json:"delivery_date"`
	Status       string     `gorm:"default:pending" json:"status"`
	SentAt       *time.Time `json:"sent_at"`
	IsDeleted    bool       `gorm:"default:false" json:"is_deleted"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (TimelessMessage) TableName() string {
	return "timeless_messages"
}

// WisdomResource is mentor-published content. Ownership lives in created_by,
// not user_id like the other content tables.
type WisdomResource struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	CreatedBy   string    `gorm:"column:created_by" json:"created_by"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	MediaURL    string    `json:"media_url"`
	IsDeleted   bool      `gorm:"default:false" json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (WisdomResource) TableName() string {
	return "wisdom_resources"
}
