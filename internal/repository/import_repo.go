package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/paycms/console/internal/domain"
)

// ImportBatch records a member file that has been imported, keyed by the
// hash of its content.
type ImportBatch struct {
	ID          string    `json:"id"`
	ServiceID   string    `json:"serviceId"`
	Format      string    `json:"format"`
	FileHash    string    `json:"fileHash"`
	RecordCount int       `json:"recordCount"`
	ImportedAt  time.Time `json:"importedAt"`
}

type ImportRepo struct {
	db *sql.DB
}

func NewImportRepo(db *sql.DB) *ImportRepo {
	return &ImportRepo{db: db}
}

// ImportMembers inserts members, skipping existing ones, and records the
// batch in one transaction. It returns the number of new members.
func (r *ImportRepo) ImportMembers(ctx context.Context, b *ImportBatch, members []domain.Member) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	inserted, err := insertMembers(ctx, tx, members)
	if err != nil {
		return 0, err
	}
	if err := insertBatch(ctx, tx, b); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, b *ImportBatch) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO import_batches (id, service_id, format, file_hash, record_count, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.ServiceID, b.Format, b.FileHash, b.RecordCount,
		b.ImportedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert import batch: %w", err)
	}
	return nil
}

func (r *ImportRepo) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM import_batches WHERE file_hash = ?", hash,
	).Scan(&count)
	return count > 0, err
}
