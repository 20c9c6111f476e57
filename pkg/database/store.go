package database

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ygn-labs/ygn-brain/pkg/artifact"
	"github.com/ygn-labs/ygn-brain/pkg/evidence"
	"github.com/ygn-labs/ygn-brain/pkg/guard"
)

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("session not found")

// SessionRow mirrors one brain_sessions row.
type SessionRow struct {
	SessionID       string
	Task            string
	Mode            string
	ModelID         string
	Status          string
	Blocked         bool
	Result          *string
	ErrorMessage    *string
	MerkleRoot      string
	SignerPublicKey string
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// InsertSession stores a new session row in status pending.
func (c *Client) InsertSession(ctx context.Context, sessionID, task, mode, modelID string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO brain_sessions (session_id, task, mode, model_id) VALUES ($1, $2, $3, $4)`,
		sessionID, task, mode, modelID)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sessionID, err)
	}
	return nil
}

// MarkSessionStarted transitions a session to in_progress.
func (c *Client) MarkSessionStarted(ctx context.Context, sessionID string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE brain_sessions SET status = 'in_progress', started_at = now()
		WHERE session_id = $1 AND deleted_at IS NULL`, sessionID)
	if err != nil {
		return fmt.Errorf("mark session started %s: %w", sessionID, err)
	}
	return requireRow(res, sessionID)
}

// CompleteSession records the terminal state of a session together with
// the evidence chain fingerprint.
func (c *Client) CompleteSession(ctx context.Context, sessionID, status string, blocked bool, result, errorMessage, merkleRoot, signerKey string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE brain_sessions
		SET status = $2, blocked = $3, result = NULLIF($4, ''),
			error_message = NULLIF($5, ''), merkle_root = $6,
			signer_public_key = $7, completed_at = now()
		WHERE session_id = $1 AND deleted_at IS NULL`,
		sessionID, status, blocked, result, errorMessage, merkleRoot, signerKey)
	if err != nil {
		return fmt.Errorf("complete session %s: %w", sessionID, err)
	}
	return requireRow(res, sessionID)
}

// GetSession loads one session row.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*SessionRow, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT session_id, task, mode, model_id, status, blocked, result,
			error_message, COALESCE(merkle_root, ''), COALESCE(signer_public_key, ''),
			created_at, started_at, completed_at
		FROM brain_sessions WHERE session_id = $1 AND deleted_at IS NULL`, sessionID)

	var s SessionRow
	err := row.Scan(&s.SessionID, &s.Task, &s.Mode, &s.ModelID, &s.Status, &s.Blocked,
		&s.Result, &s.ErrorMessage, &s.MerkleRoot, &s.SignerPublicKey,
		&s.CreatedAt, &s.StartedAt, &s.CompletedAt)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return &s, nil
}

// ListSessions returns the most recent sessions, newest first.
func (c *Client) ListSessions(ctx context.Context, limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT session_id, task, mode, model_id, status, blocked, result,
			error_message, COALESCE(merkle_root, ''), COALESCE(signer_public_key, ''),
			created_at, started_at, completed_at
		FROM brain_sessions WHERE deleted_at IS NULL
		ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var s SessionRow
		if err := rows.Scan(&s.SessionID, &s.Task, &s.Mode, &s.ModelID, &s.Status, &s.Blocked,
			&s.Result, &s.ErrorMessage, &s.MerkleRoot, &s.SignerPublicKey,
			&s.CreatedAt, &s.StartedAt, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SearchSessions runs a full-text query over task and result, relying on
// the GIN indexes created at migration time.
func (c *Client) SearchSessions(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT session_id FROM brain_sessions
		WHERE deleted_at IS NULL
		AND (to_tsvector('english', task) @@ plainto_tsquery('english', $1)
			OR to_tsvector('english', COALESCE(result, '')) @@ plainto_tsquery('english', $1))
		ORDER BY created_at DESC LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveEvidence persists a session's evidence chain in one transaction.
// Entries already present (by seq) are left untouched so the call is
// safe to repeat after partial failures.
func (c *Client) SaveEvidence(ctx context.Context, sessionID string, entries []evidence.Entry) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin evidence tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for seq, e := range entries {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("marshal evidence data seq %d: %w", seq, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO evidence_entries
				(session_id, seq, entry_id, phase, kind, data, content_hash, prev_hash, signature)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
			ON CONFLICT (session_id, seq) DO NOTHING`,
			sessionID, seq, e.EntryID, e.Phase, string(e.Kind), data,
			e.EntryHash, e.PrevHash, e.Signature)
		if err != nil {
			return fmt.Errorf("insert evidence seq %d: %w", seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit evidence tx: %w", err)
	}
	return nil
}

// CountEvidence returns the number of persisted entries for a session.
func (c *Client) CountEvidence(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evidence_entries WHERE session_id = $1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count evidence: %w", err)
	}
	return n, nil
}

// RecordGuardCheck persists one guard decision. sessionID may be empty
// for standalone checks.
func (c *Client) RecordGuardCheck(ctx context.Context, sessionID, inputExcerpt string, result guard.Result, latencyMS float64) error {
	var sid any
	if sessionID != "" {
		sid = sessionID
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO guard_checks
			(session_id, input_excerpt, allowed, threat_level, score, reason, backend, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sid, inputExcerpt, result.Allowed, string(result.Level), result.Score,
		result.Reason, result.Backend, latencyMS)
	if err != nil {
		return fmt.Errorf("record guard check: %w", err)
	}
	return nil
}

// SoftDeleteSessionsBefore marks sessions created before the cutoff as
// deleted. Returns the number of rows affected.
func (c *Client) SoftDeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`UPDATE brain_sessions SET deleted_at = now()
		WHERE created_at < $1 AND deleted_at IS NULL
		AND status NOT IN ('pending', 'in_progress', 'cancelling')`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("soft delete sessions: %w", err)
	}
	return res.RowsAffected()
}

// PurgeDeletedBefore hard-deletes sessions soft-deleted before the
// cutoff. Evidence, guard checks, memories, and artifact handles go
// with them via ON DELETE CASCADE.
func (c *Client) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM brain_sessions WHERE deleted_at IS NOT NULL AND deleted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

// RecordArtifact persists an artifact handle. The payload itself stays
// in the artifact store; duplicates (same content hash) are ignored.
func (c *Client) RecordArtifact(ctx context.Context, sessionID string, h artifact.Handle) error {
	var sid any
	if sessionID != "" {
		sid = sessionID
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO artifacts (session_id, artifact_id, summary, size_bytes, mime_type, source)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (artifact_id) DO NOTHING`,
		sid, h.ArtifactID, h.Summary, h.SizeBytes, h.MimeType, h.Source)
	if err != nil {
		return fmt.Errorf("record artifact %s: %w", h.ArtifactID, err)
	}
	return nil
}

// InsertMemory persists one memory entry.
func (c *Client) InsertMemory(ctx context.Context, sessionID, key, content, category string) error {
	var sid any
	if sessionID != "" {
		sid = sessionID
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO memory_entries (session_id, key, content, category) VALUES ($1, $2, $3, $4)`,
		sid, key, content, category)
	if err != nil {
		return fmt.Errorf("insert memory %s: %w", key, err)
	}
	return nil
}

// SearchMemory runs a full-text query over stored memory content.
func (c *Client) SearchMemory(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT key FROM memory_entries
		WHERE to_tsvector('english', content) @@ plainto_tsquery('english', $1)
		ORDER BY created_at DESC LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search memory: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan memory key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func requireRow(res stdsql.Result, sessionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}
