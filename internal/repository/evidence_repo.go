package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paycms/console/internal/domain"
)

// EvidenceRepo stores one consent evidence file per member. Uploading again
// replaces the previous file.
type EvidenceRepo struct {
	db *sql.DB
}

func NewEvidenceRepo(db *sql.DB) *EvidenceRepo {
	return &EvidenceRepo{db: db}
}

func (r *EvidenceRepo) Upsert(ctx context.Context, f *domain.EvidenceFile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO evidence_files (id, service_id, member_id, agree_type, file_ext, size, is_base64, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (service_id, member_id) DO UPDATE SET
			id = excluded.id,
			agree_type = excluded.agree_type,
			file_ext = excluded.file_ext,
			size = excluded.size,
			is_base64 = excluded.is_base64,
			uploaded_at = excluded.uploaded_at`,
		f.ID, f.ServiceID, f.MemberID, string(f.AgreeType), f.FileExt, f.Size, f.IsBase64,
		f.UploadedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert evidence: %w", err)
	}
	return nil
}

func (r *EvidenceRepo) Get(ctx context.Context, serviceID, memberID string) (*domain.EvidenceFile, error) {
	var f domain.EvidenceFile
	var agreeType, uploadedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, service_id, member_id, agree_type, file_ext, size, is_base64, uploaded_at
		FROM evidence_files WHERE service_id = ? AND member_id = ?`,
		serviceID, memberID,
	).Scan(&f.ID, &f.ServiceID, &f.MemberID, &agreeType, &f.FileExt, &f.Size, &f.IsBase64, &uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	f.AgreeType = domain.EvidenceType(agreeType)
	f.UploadedAt, _ = time.Parse(time.RFC3339Nano, uploadedAt)
	return &f, nil
}

// Delete removes the member's evidence file and reports whether one existed.
func (r *EvidenceRepo) Delete(ctx context.Context, serviceID, memberID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM evidence_files WHERE service_id = ? AND member_id = ?",
		serviceID, memberID,
	)
	if err != nil {
		return false, fmt.Errorf("delete evidence: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *EvidenceRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evidence_files").Scan(&count)
	return count, err
}
