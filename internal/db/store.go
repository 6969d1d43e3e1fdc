package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the GORM database connection.
type Store struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// Config holds database configuration.
type Config struct {
	Path     string          // Path to SQLite database file
	MaxConns int             // Maximum number of open connections (default: 4)
	LogLevel logger.LogLevel // GORM log level (logger.Silent for production)
}

// NewStore opens the database, runs migrations, and enables WAL mode.
func NewStore(cfg Config) (*Store, error) {
	// Foreign keys enabled in the DSN so every connection gets them.
	dsn := cfg.Path + "?_foreign_keys=ON"

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger:      logger.Default.LogMode(cfg.LogLevel),
		PrepareStmt: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in flight; the
	// busy timeout makes SQLite retry instead of failing on a locked DB.
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &Store{db: db, sqlDB: sqlDB}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping() error {
	return s.sqlDB.Ping()
}

// GetOrCreateUser returns the user record, creating it on first contact.
// An existing user's stored username is refreshed when a non-empty name is
// supplied.
func (s *Store) GetOrCreateUser(ctx context.Context, userID, username string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = User{UserID: userID, Username: username, LastPlayed: time.Now()}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user %s: %w", userID, err)
		}
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}

	if username != "" && username != user.Username {
		user.Username = username
		_ = s.db.WithContext(ctx).Model(&User{}).
			Where("user_id = ?", userID).
			Update("username", username).Error
	}
	return &user, nil
}

// CreateGame creates a new game for the user, bumps their games_played
// counter, and touches last_played. Returns the new game ID.
func (s *Store) CreateGame(ctx context.Context, userID, characterID string) (int64, error) {
	game := Game{UserID: userID, CharacterID: characterID, CreatedAt: time.Now()}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&game).Error; err != nil {
			return err
		}
		return tx.Model(&User{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"games_played": gorm.Expr("games_played + 1"),
				"last_played":  time.Now(),
			}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("create game for %s: %w", userID, err)
	}
	return game.GameID, nil
}

// CreateSession writes the durable session mirror, replacing any prior
// session row for the user.
func (s *Store) CreateSession(ctx context.Context, sessionID, userID string, gameID int64, channelID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&ActiveSession{}).Error; err != nil {
			return err
		}
		return tx.Create(&ActiveSession{
			SessionID:    sessionID,
			UserID:       userID,
			GameID:       gameID,
			ChannelID:    channelID,
			LastActivity: time.Now(),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("create session %s: %w", sessionID, err)
	}
	return nil
}

// TouchSession refreshes the durable session's activity timestamp.
func (s *Store) TouchSession(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).Model(&ActiveSession{}).
		Where("session_id = ?", sessionID).
		Update("last_activity", time.Now()).Error
	if err != nil {
		return fmt.Errorf("touch session %s: %w", sessionID, err)
	}
	return nil
}

// DeleteSession removes the durable session mirror. Deleting a session
// that is already gone is not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&ActiveSession{}).Error
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// ActiveSessionFor returns the user's durable session record, or nil.
func (s *Store) ActiveSessionFor(ctx context.Context, userID string) (*ActiveSession, error) {
	var sess ActiveSession
	err := s.db.WithContext(ctx).First(&sess, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session for %s: %w", userID, err)
	}
	return &sess, nil
}

// RecordDecision stores one answered decision and adds its score to the
// game's running total.
func (s *Store) RecordDecision(ctx context.Context, gameID int64, number int, choice string, score int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&GameDecision{
			GameID:         gameID,
			DecisionNumber: number,
			ChoiceMade:     choice,
			Score:          score,
			CreatedAt:      time.Now(),
		}).Error; err != nil {
			return err
		}
		return tx.Model(&Game{}).
			Where("game_id = ?", gameID).
			Update("total_score", gorm.Expr("total_score + ?", score)).Error
	})
	if err != nil {
		return fmt.Errorf("record decision %d for game %d: %w", number, gameID, err)
	}
	return nil
}

// CompleteGame marks the game completed and folds its score into the
// user's lifetime total. Returns the final game score. Callers must not
// complete the same game twice; the session state machine enforces this.
func (s *Store) CompleteGame(ctx context.Context, gameID int64) (int64, error) {
	var finalScore int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game Game
		if err := tx.First(&game, "game_id = ?", gameID).Error; err != nil {
			return err
		}
		finalScore = game.TotalScore

		if err := tx.Model(&Game{}).
			Where("game_id = ?", gameID).
			Update("completed", true).Error; err != nil {
			return err
		}
		return tx.Model(&User{}).
			Where("user_id = ?", game.UserID).
			Update("total_score", gorm.Expr("total_score + ?", game.TotalScore)).Error
	})
	if err != nil {
		return 0, fmt.Errorf("complete game %d: %w", gameID, err)
	}
	return finalScore, nil
}

// RecordFeedback stores a player rating for a game.
func (s *Store) RecordFeedback(ctx context.Context, gameID int64, rating int, comments string) error {
	fb := Feedback{GameID: gameID, Rating: rating, CreatedAt: time.Now()}
	if comments != "" {
		fb.Comments = sql.NullString{String: comments, Valid: true}
	}
	if err := s.db.WithContext(ctx).Create(&fb).Error; err != nil {
		return fmt.Errorf("record feedback for game %d: %w", gameID, err)
	}
	return nil
}

// GameDecisions returns all decisions made in a game, in decision order.
func (s *Store) GameDecisions(ctx context.Context, gameID int64) ([]GameDecision, error) {
	var out []GameDecision
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("decision_number ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("get decisions for game %d: %w", gameID, err)
	}
	return out, nil
}
