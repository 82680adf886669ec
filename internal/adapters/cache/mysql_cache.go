package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the VerdictCache interface, for
// deployments that share one verdict cache across instances.
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL verdict cache.
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdict_cache (
			content_id VARCHAR(64) PRIMARY KEY,
			phishing_score DOUBLE,
			semantic_confidence DOUBLE,
			impersonating VARCHAR(255),
			reason TEXT,
			analyzed_at DATETIME,
			expires_at DATETIME,
			INDEX idx_verdict_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached verdict by content id.
func (c *MySQLCache) Get(ctx context.Context, contentID string) (*core.AnalysisResult, bool) {
	var (
		score, confidence float64
		impersonating     sql.NullString
		reason            string
		analyzedAt        string
	)

	err := c.db.QueryRowContext(ctx, `
		SELECT phishing_score, semantic_confidence, impersonating, reason, analyzed_at
		FROM verdict_cache
		WHERE content_id = ? AND expires_at > NOW()
	`, contentID).Scan(&score, &confidence, &impersonating, &reason, &analyzedAt)

	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("Failed to query verdict cache", zap.Error(err), zap.String("content_id", contentID))
		}
		return nil, false
	}

	// Timestamps are stored in MySQL's native format so the DSN does not
	// need parseTime enabled.
	when, err := time.Parse("2006-01-02 15:04:05", analyzedAt)
	if err != nil {
		c.logger.Error("Failed to parse analyzed_at timestamp", zap.Error(err), zap.String("content_id", contentID))
		return nil, false
	}

	result := &core.AnalysisResult{
		PhishingScore:      score,
		SemanticConfidence: confidence,
		Reason:             reason,
		AnalyzedAt:         when,
	}
	if impersonating.Valid {
		result.Impersonating = &impersonating.String
	}
	return result, true
}

// Set stores a verdict for the given content id.
func (c *MySQLCache) Set(ctx context.Context, contentID string, result *core.AnalysisResult, ttl time.Duration) {
	var impersonating sql.NullString
	if result.Impersonating != nil {
		impersonating = sql.NullString{String: *result.Impersonating, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO verdict_cache
			(content_id, phishing_score, semantic_confidence, impersonating, reason, analyzed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			phishing_score = VALUES(phishing_score),
			semantic_confidence = VALUES(semantic_confidence),
			impersonating = VALUES(impersonating),
			reason = VALUES(reason),
			analyzed_at = VALUES(analyzed_at),
			expires_at = VALUES(expires_at)
	`, contentID, result.PhishingScore, result.SemanticConfidence, impersonating, result.Reason,
		result.AnalyzedAt.Format("2006-01-02 15:04:05"), time.Now().Add(ttl).Format("2006-01-02 15:04:05"))

	if err != nil {
		c.logger.Error("Failed to insert verdict cache entry", zap.Error(err), zap.String("content_id", contentID))
	}
}

// Delete removes a cached verdict.
func (c *MySQLCache) Delete(ctx context.Context, contentID string) error {
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
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM verdict_cache
		WHERE expires_at <= NOW()
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
func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}
