package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// User is a forum member. Identity is issued by an external provider; the row only mirrors
// what the forum needs to attribute and filter content.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Channel groups threads and is addressed by slug.
type Channel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"size:120;not null;uniqueIndex" json:"slug"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Thread is a forum topic. RepliesCount mirrors the number of Reply rows and is only
// written by the reply write path.
type Thread struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Title        string            `gorm:"size:255;not null" json:"title"`
	Body         string            `gorm:"type:text;not null" json:"body"`
	ChannelID    uint              `gorm:"index;not null" json:"channel_id"`
	Channel      Channel           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"channel"`
	UserID       uint              `gorm:"index;not null" json:"user_id"`
	Owner        User              `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"owner"`
	RepliesCount int               `gorm:"not null;default:0;index" json:"replies_count"`
	Visits       int               `gorm:"not null;default:0" json:"visits"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Path returns the canonical URL path of the thread. Channel must be loaded.
func (t Thread) Path() string {
	return fmt.Sprintf("/threads/%s/%d", t.Channel.Slug, t.ID)
}

// Reply is a response that belongs to exactly one thread.
type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"index;not null" json:"thread_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Owner     User      `gorm:"foreignKey:UserID" json:"owner"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All returns every forum model in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Channel{}, &Thread{}, &Reply{}}
}
