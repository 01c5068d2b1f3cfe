package ingestion

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paycms/console/internal/calendar"
	"github.com/paycms/console/internal/domain"
	"github.com/paycms/console/internal/repository"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// MemberRecord is one member of an import file. Line is the record's
// position in the file, for error reporting.
type MemberRecord struct {
	MemberID string `json:"memberId"`
	domain.MemberRequest
	Line int `json:"-"`
}

// Rejection explains why a record was not imported.
type Rejection struct {
	Line     int    `json:"line"`
	MemberID string `json:"memberId,omitempty"`
	Reason   string `json:"reason"`
}

// ImportResult is returned from a successful import.
type ImportResult struct {
	BatchID           string      `json:"batchId"`
	AlreadyImported   bool        `json:"alreadyImported,omitempty"`
	RecordsImported   int         `json:"recordsImported"`
	DuplicatesSkipped int         `json:"duplicatesSkipped"`
	Rejected          []Rejection `json:"rejected,omitempty"`
}

// Service registers members in bulk from CSV or JSON batch files. Imported
// members enter the same pending state as members registered one by one.
type Service struct {
	imports *repository.ImportRepo
	loc     *time.Location
	log     *zap.Logger
	now     func() time.Time
}

func NewService(imports *repository.ImportRepo, loc *time.Location, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		imports: imports,
		loc:     loc,
		log:     log,
		now:     time.Now,
	}
}

// Import parses a member batch file and stores its valid records. A file
// whose content was imported before is skipped.
func (s *Service) Import(ctx context.Context, serviceID string, data []byte, format string) (*ImportResult, error) {
	if serviceID == "" {
		return nil, fmt.Errorf("service id is required")
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	exists, err := s.imports.ExistsByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if exists {
		return &ImportResult{AlreadyImported: true}, nil
	}

	var records []MemberRecord
	switch strings.ToLower(format) {
	case FormatCSV:
		records, err = ParseMembersCSV(data)
	case FormatJSON:
		records, err = ParseMembersJSON(data)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}

	now := s.now()
	today := calendar.FormatCompact(now.In(s.loc))
	result := &ImportResult{BatchID: "IMP-" + hash[:16]}

	members := make([]domain.Member, 0, len(records))
	for _, rec := range records {
		if reason := validate(rec); reason != "" {
			result.Rejected = append(result.Rejected, Rejection{Line: rec.Line, MemberID: rec.MemberID, Reason: reason})
			continue
		}
		members = append(members, domain.Member{
			ServiceID:    serviceID,
			MemberID:     rec.MemberID,
			Status:       domain.MemberPending,
			RegDt:        today,
			BankSendDt:   today,
			MemberName:   rec.MemberName,
			ServiceCd:    rec.ServiceCd,
			BankCd:       rec.BankCd,
			AccountNo:    rec.AccountNo,
			AccountName:  rec.AccountName,
			IDNo:         rec.IDNo,
			HpNo:         rec.HpNo,
			Email:        rec.Email,
			ServiceName:  rec.ServiceName,
			CardNo:       rec.CardNo,
			ValYn:        rec.ValYn,
			CusType:      rec.CusType,
			CusOffNo:     rec.CusOffNo,
			UserDefine:   rec.UserDefine,
			RegisteredAt: now.UTC(),
		})
	}

	batch := &repository.ImportBatch{
		ID:          result.BatchID,
		ServiceID:   serviceID,
		Format:      strings.ToLower(format),
		FileHash:    hash,
		RecordCount: len(records),
		ImportedAt:  now,
	}
	inserted, err := s.imports.ImportMembers(ctx, batch, members)
	if err != nil {
		return nil, fmt.Errorf("import members: %w", err)
	}
	result.RecordsImported = inserted
	result.DuplicatesSkipped = len(members) - inserted

	s.log.Info("members imported",
		zap.String("batch_id", result.BatchID),
		zap.String("service_id", serviceID),
		zap.Int("records", len(records)),
		zap.Int("imported", inserted),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}

func validate(rec MemberRecord) string {
	if rec.MemberID == "" {
		return "missing memberId"
	}
	if missing := rec.MissingFields(); len(missing) > 0 {
		return "missing " + strings.Join(missing, ", ")
	}
	if rec.ServiceCd == domain.ServiceBank {
		if _, ok := domain.BankCodes[rec.BankCd]; !ok {
			return fmt.Sprintf("unknown bank code %q", rec.BankCd)
		}
	}
	return ""
}
