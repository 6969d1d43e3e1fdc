// Package db provides the durable GORM/SQLite store for tycoonsim.
package db

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// User is a player known to the store, keyed by the opaque platform user ID.
type User struct {
	UserID      string `gorm:"primaryKey"`
	Username    string `gorm:"not null"`
	GamesPlayed int    `gorm:"default:0"`
	TotalScore  int64  `gorm:"default:0"`
	LastPlayed  time.Time
}

func (User) TableName() string { return "users" }

// Game is one playthrough of a character, completed or not.
type Game struct {
	GameID      int64  `gorm:"primaryKey;autoIncrement"`
	UserID      string `gorm:"index;not null"`
	CharacterID string `gorm:"index;not null"`
	TotalScore  int64  `gorm:"default:0"`
	Completed   bool   `gorm:"default:false;index"`
	CreatedAt   time.Time
}

func (Game) TableName() string { return "games" }

// GameDecision records one answered decision within a game.
type GameDecision struct {
	DecisionID     int64 `gorm:"primaryKey;autoIncrement"`
	GameID         int64 `gorm:"index;not null"`
	DecisionNumber int   `gorm:"not null"`
	ChoiceMade     string `gorm:"not null"`
	Score          int    `gorm:"not null"`
	CreatedAt      time.Time
}

func (GameDecision) TableName() string { return "decisions" }

// Feedback is a player rating tied to a game.
type Feedback struct {
	FeedbackID int64 `gorm:"primaryKey;autoIncrement"`
	GameID     int64 `gorm:"index;not null"`
	Rating     int   `gorm:"not null"`
	Comments   sql.NullString
	CreatedAt  time.Time
}

func (Feedback) TableName() string { return "feedback" }

// ActiveSession is the durable mirror of an in-memory game session.
// The unique index on UserID enforces one live session per user.
type ActiveSession struct {
	SessionID    string `gorm:"primaryKey"`
	UserID       string `gorm:"uniqueIndex;not null"`
	GameID       int64  `gorm:"not null"`
	ChannelID    string
	LastActivity time.Time `gorm:"index"`
}

func (ActiveSession) TableName() string { return "active_sessions" }

// BeforeCreate hooks keep timestamps sane when callers leave them zero.

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.LastPlayed.IsZero() {
		u.LastPlayed = time.Now()
	}
	return nil
}

func (s *ActiveSession) BeforeCreate(tx *gorm.DB) error {
	if s.LastActivity.IsZero() {
		s.LastActivity = time.Now()
	}
	return nil
}
