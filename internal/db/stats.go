package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// UserStats aggregates a player's lifetime record.
type UserStats struct {
	UserID            string       `json:"user_id"`
	Username          string       `json:"username"`
	GamesPlayed       int          `json:"games_played"`
	TotalScore        int64        `json:"total_score"`
	TopScore          int64        `json:"top_score"`
	AvgScore          int64        `json:"avg_score"`
	FavoriteCharacter string       `json:"favorite_character"`
	RecentGames       []GameRecord `json:"recent_games"`
	LastPlayed        time.Time    `json:"last_played"`
}

// GameRecord is one completed game in a stats or analytics listing.
type GameRecord struct {
	GameID      int64     `json:"game_id"`
	CharacterID string    `json:"character_id"`
	TotalScore  int64     `json:"total_score"`
	Username    string    `json:"username,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeaderboardEntry is one row of the high-score table.
type LeaderboardEntry struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	HighScore int64  `json:"high_score"`
}

// CharacterPlays counts how often a character has been played.
type CharacterPlays struct {
	CharacterID string `json:"character_id"`
	Count       int64  `json:"count"`
}

// GetUserStats returns aggregate statistics for a user, or nil when the
// user is unknown.
func (s *Store) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}

	stats := &UserStats{
		UserID:      user.UserID,
		Username:    user.Username,
		GamesPlayed: user.GamesPlayed,
		TotalScore:  user.TotalScore,
		LastPlayed:  user.LastPlayed,
	}

	row := s.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(total_score), 0), COALESCE(ROUND(AVG(total_score)), 0)
		FROM games
		WHERE user_id = ? AND completed = 1
	`, userID).Row()
	if err := row.Scan(&stats.TopScore, &stats.AvgScore); err != nil {
		return nil, fmt.Errorf("scan score stats for %s: %w", userID, err)
	}

	var favorite struct{ CharacterID string }
	err = s.db.WithContext(ctx).Raw(`
		SELECT character_id
		FROM games
		WHERE user_id = ?
		GROUP BY character_id
		ORDER BY COUNT(*) DESC
		LIMIT 1
	`, userID).Scan(&favorite).Error
	if err != nil {
		return nil, fmt.Errorf("get favorite character for %s: %w", userID, err)
	}
	stats.FavoriteCharacter = favorite.CharacterID

	err = s.db.WithContext(ctx).Raw(`
		SELECT game_id, character_id, total_score, completed, created_at
		FROM games
		WHERE user_id = ? AND completed = 1
		ORDER BY created_at DESC
		LIMIT 5
	`, userID).Scan(&stats.RecentGames).Error
	if err != nil {
		return nil, fmt.Errorf("get recent games for %s: %w", userID, err)
	}

	return stats, nil
}

// GetLeaderboard returns the top players by best completed-game score,
// optionally filtered to a single character.
func (s *Store) GetLeaderboard(ctx context.Context, limit int, characterID string) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT g.user_id, u.username, MAX(g.total_score) AS high_score
		FROM games g
		JOIN users u ON g.user_id = u.user_id
		WHERE g.completed = 1
	`
	args := []interface{}{}
	if characterID != "" {
		query += " AND g.character_id = ?"
		args = append(args, characterID)
	}
	query += `
		GROUP BY g.user_id
		ORDER BY high_score DESC
		LIMIT ?
	`
	args = append(args, limit)

	var out []LeaderboardEntry
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	return out, nil
}

// PopularCharacters returns the most-played characters.
func (s *Store) PopularCharacters(ctx context.Context, limit int) ([]CharacterPlays, error) {
	if limit <= 0 {
		limit = 5
	}

	var out []CharacterPlays
	err := s.db.WithContext(ctx).Raw(`
		SELECT character_id, COUNT(*) AS count
		FROM games
		GROUP BY character_id
		ORDER BY count DESC
		LIMIT ?
	`, limit).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("get popular characters: %w", err)
	}
	return out, nil
}

// RecentGames returns the most recently started games across all users.
func (s *Store) RecentGames(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	var out []GameRecord
	err := s.db.WithContext(ctx).Raw(`
		SELECT g.game_id, g.character_id, g.total_score, u.username, g.completed, g.created_at
		FROM games g
		JOIN users u ON g.user_id = u.user_id
		ORDER BY g.created_at DESC
		LIMIT ?
	`, limit).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("get recent games: %w", err)
	}
	return out, nil
}
