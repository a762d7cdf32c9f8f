package export

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/textanasearch/textana/internal/frequency"
	apperrors "github.com/textanasearch/textana/pkg/errors"
	"github.com/textanasearch/textana/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS frequency_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	word_count  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS frequency_entries (
	snapshot_id BIGINT NOT NULL REFERENCES frequency_snapshots(id) ON DELETE CASCADE,
	rank        INTEGER NOT NULL,
	word        TEXT NOT NULL,
	count       INTEGER NOT NULL,
	PRIMARY KEY (snapshot_id, rank)
);`

// PostgresSink persists corpus frequency rankings as timestamped snapshots.
type PostgresSink struct {
	client *postgres.Client
	logger *slog.Logger
}

// NewPostgresSink creates a sink over an open client.
func NewPostgresSink(client *postgres.Client) *PostgresSink {
	return &PostgresSink{
		client: client,
		logger: slog.Default().With("component", "postgres-sink"),
	}
}

// EnsureSchema creates the snapshot tables if they do not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.DB.ExecContext(ctx, schema); err != nil {
		return apperrors.IOFailuref("creating snapshot schema: %v", err)
	}
	return nil
}

// SaveSnapshot writes the full ranking as one snapshot and returns its ID.
func (s *PostgresSink) SaveSnapshot(ctx context.Context, entries []frequency.Entry) (int64, error) {
	var snapshotID int64
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`INSERT INTO frequency_snapshots (word_count) VALUES ($1) RETURNING id`,
			len(entries),
		)
		if err := row.Scan(&snapshotID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO frequency_entries (snapshot_id, rank, word, count) VALUES ($1, $2, $3, $4)`,
		)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, e := range entries {
			if _, err := stmt.ExecContext(ctx, snapshotID, i+1, e.Word, e.Count); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.IOFailuref("saving frequency snapshot: %v", err)
	}
	s.logger.Info("frequency snapshot saved", "snapshot_id", snapshotID, "entries", len(entries))
	return snapshotID, nil
}
