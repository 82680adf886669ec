package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the VerdictCache interface.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite verdict cache.
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdict_cache (
			content_id TEXT PRIMARY KEY,
			phishing_score REAL,
			semantic_confidence REAL,
			impersonating TEXT,
			reason TEXT,
			analyzed_at TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_verdict_expires_at ON verdict_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached verdict by content id.
func (c *SQLiteCache) Get(ctx context.Context, contentID string) (*core.AnalysisResult, bool) {
	var (
		score, confidence float64
		impersonating     sql.NullString
		reason            string
		analyzedAt        string
	)

	err := c.db.QueryRowContext(ctx, `
		SELECT phishing_score, semantic_confidence, impersonating, reason, analyzed_at
		FROM verdict_cache
		WHERE content_id = ? AND expires_at > datetime('now')
	`, contentID).Scan(&score, &confidence, &impersonating, &reason, &analyzedAt)

	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("Failed to query verdict cache", zap.Error(err), zap.String("content_id", contentID))
		}
		return nil, false
	}

	parsedAt, err := time.Parse(time.RFC3339, analyzedAt)
	if err != nil {
		c.logger.Error("Failed to parse analyzed_at timestamp", zap.Error(err))
		return nil, false
	}

	result := &core.AnalysisResult{
		PhishingScore:      score,
		SemanticConfidence: confidence,
		Reason:             reason,
		AnalyzedAt:         parsedAt,
	}
	if impersonating.Valid {
		result.Impersonating = &impersonating.String
	}
	return result, true
}

// Set stores a verdict for the given content id.
func (c *SQLiteCache) Set(ctx context.Context, contentID string, result *core.AnalysisResult, ttl time.Duration) {
	var impersonating sql.NullString
	if result.Impersonating != nil {
		impersonating = sql.NullString{String: *result.Impersonating, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO verdict_cache
			(content_id, phishing_score, semantic_confidence, impersonating, reason, analyzed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, contentID, result.PhishingScore, result.SemanticConfidence, impersonating, result.Reason,
		result.AnalyzedAt.Format(time.RFC3339), time.Now().Add(ttl).Format(time.RFC3339))

	if err != nil {
		c.logger.Error("Failed to insert verdict cache entry", zap.Error(err), zap.String("content_id", contentID))
	}
}

// Delete removes a cached verdict.
func (c *SQLiteCache) Delete(ctx context.Context, contentID string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM verdict_cache
		WHERE content_id = ?
	`, contentID)

	if err != nil {
		return fmt.Errorf("failed to delete verdict cache entry: %w", err)
	}

	return nil
}

// Cleanup removes expired entries.
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM verdict_cache
		WHERE expires_at <= datetime('now')
	`)

	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired verdict cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired entries.
func (c *SQLiteCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up verdict cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database.
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
