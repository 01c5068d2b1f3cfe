package cms

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/paycms/console/internal/domain"
	"github.com/paycms/console/internal/repository"
)

// EvidenceUpload is a consent evidence file submitted for a member.
type EvidenceUpload struct {
	AgreeType domain.EvidenceType
	FileExt   string
	Content   []byte
}

// UploadEvidence stores the member's consent evidence, replacing any earlier
// file.
func (s *Service) UploadEvidence(ctx context.Context, serviceID, memberID string, up EvidenceUpload) (*domain.EvidenceFile, error) {
	f, err := s.storeEvidence(ctx, serviceID, memberID, up, false)
	return f, s.observe("evidence_upload", err)
}

// UploadEvidenceEncoded is UploadEvidence for a base64-encoded payload. The
// size limit applies to the encoded text.
func (s *Service) UploadEvidenceEncoded(ctx context.Context, serviceID, memberID string, agreeType domain.EvidenceType, fileExt, encData string) (*domain.EvidenceFile, error) {
	if len(encData) > s.maxEvidence {
		return nil, s.observe("evidence_upload_enc", ErrEvidenceSize)
	}
	content, err := base64.StdEncoding.DecodeString(encData)
	if err != nil {
		return nil, s.observe("evidence_upload_enc", paramError("encData is not base64: %v", err))
	}
	f, err := s.storeEvidence(ctx, serviceID, memberID, EvidenceUpload{
		AgreeType: agreeType,
		FileExt:   fileExt,
		Content:   content,
	}, true)
	return f, s.observe("evidence_upload_enc", err)
}

func (s *Service) storeEvidence(ctx context.Context, serviceID, memberID string, up EvidenceUpload, encoded bool) (*domain.EvidenceFile, error) {
	ext := strings.TrimPrefix(strings.ToLower(up.FileExt), ".")
	if memberID == "" || up.AgreeType == "" || ext == "" || len(up.Content) == 0 {
		return nil, paramError("memberId, agreetype, fileext and file are required")
	}
	if !up.AgreeType.AcceptsExtension(ext) {
		return nil, ErrEvidenceExt
	}
	if len(up.Content) > s.maxEvidence {
		return nil, ErrEvidenceSize
	}

	f := &domain.EvidenceFile{
		ID:         uuid.NewString(),
		ServiceID:  serviceID,
		MemberID:   memberID,
		AgreeType:  up.AgreeType,
		FileExt:    ext,
		Size:       len(up.Content),
		IsBase64:   encoded,
		UploadedAt: s.now().UTC(),
	}
	if err := s.evidence.Upsert(ctx, f); err != nil {
		return nil, fmt.Errorf("store evidence: %w", err)
	}
	return f, nil
}

func (s *Service) GetEvidence(ctx context.Context, serviceID, memberID string) (*domain.EvidenceFile, error) {
	f, err := s.evidence.Get(ctx, serviceID, memberID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEvidenceMissing
	}
	return f, err
}

func (s *Service) DeleteEvidence(ctx context.Context, serviceID, memberID string) error {
	deleted, err := s.evidence.Delete(ctx, serviceID, memberID)
	if err == nil && !deleted {
		err = ErrEvidenceMissing
	}
	return s.observe("evidence_delete", err)
}
