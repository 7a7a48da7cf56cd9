package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kapu/gamegen-go/internal/domain"
	"go.uber.org/zap"
)

const createGeneratedGamesTable = `
CREATE TABLE IF NOT EXISTS generated_games (
	id          BIGSERIAL PRIMARY KEY,
	batch_id    TEXT        NOT NULL,
	position    INTEGER     NOT NULL,
	source_url  TEXT        NOT NULL,
	game_name   TEXT        NOT NULL,
	slug        TEXT        NOT NULL,
	payload     JSONB       NOT NULL,
	failed      BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (batch_id, position)
);
CREATE INDEX IF NOT EXISTS idx_generated_games_source_url ON generated_games (source_url);
`

const insertGeneratedGame = `
INSERT INTO generated_games (batch_id, position, source_url, game_name, slug, payload, failed, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// HistoryRepository archives generated batches in PostgreSQL.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewHistoryRepository(ps *PostgresService, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     ps.GetDB(),
		logger: logger,
	}
}

func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createGeneratedGamesTable); err != nil {
		return fmt.Errorf("failed to create generated_games table: %w", err)
	}
	return nil
}

type historyRow struct {
	position  int
	sourceURL string
	gameName  string
	slug      string
	payload   []byte
	failed    bool
}

func buildHistoryRows(records []domain.GameRecord) ([]historyRow, error) {
	rows := make([]historyRow, 0, len(records))
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal record %d: %w", i, err)
		}
		rows = append(rows, historyRow{
			position:  i,
			sourceURL: rec.IframeURL,
			gameName:  rec.Name,
			slug:      rec.Slug,
			payload:   payload,
			failed:    rec.IsPlaceholder(),
		})
	}
	return rows, nil
}

// SaveBatch stores every record of the batch in one transaction.
func (r *HistoryRepository) SaveBatch(ctx context.Context, batch domain.BatchResult) error {
	rows, err := buildHistoryRows(batch.Records)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertGeneratedGame)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			batch.BatchID, row.position, row.sourceURL, row.gameName, row.slug,
			row.payload, row.failed, batch.CompletedAt,
		); err != nil {
			return fmt.Errorf("insert record %d: %w", row.position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	r.logger.Info("Batch archived",
		zap.String("batch_id", batch.BatchID),
		zap.Int("records", len(rows)),
		zap.Int("failed", batch.FailedCount()),
	)
	return nil
}

// RecentBatches lists the most recent batch ids, newest first.
func (r *HistoryRepository) RecentBatches(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT batch_id FROM generated_games
GROUP BY batch_id
ORDER BY MAX(created_at) DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent batches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan batch id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadBatch returns the records of a batch in input order.
func (r *HistoryRepository) LoadBatch(ctx context.Context, batchID string) ([]domain.GameRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM generated_games WHERE batch_id = $1 ORDER BY position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query batch %s: %w", batchID, err)
	}
	defer rows.Close()

	records := make([]domain.GameRecord, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec domain.GameRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
