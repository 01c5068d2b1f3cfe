// Package cms simulates the external CMS payment provider: consent evidence,
// member registration, withdrawals, settlement due dates and the member
// change feed. State lives in SQLite; provider-side processing is modelled
// as a fixed delay after registration.
package cms

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/paycms/console/internal/calendar"
	"github.com/paycms/console/internal/metrics"
	"github.com/paycms/console/internal/repository"
)

const (
	defaultProcessingDelay  = 20 * time.Minute
	defaultMaxEvidenceBytes = 300 * 1024
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	Policy           calendar.SettlementPolicy
	ProcessingDelay  time.Duration
	MaxEvidenceBytes int
	Location         *time.Location
	Now              func() time.Time
	Logger           *zap.Logger
}

// Service implements the mock CMS operations on top of the repositories.
type Service struct {
	cal      *calendar.Calendar
	members  *repository.MemberRepo
	payments *repository.PaymentRepo
	evidence *repository.EvidenceRepo

	policy      calendar.SettlementPolicy
	delay       time.Duration
	maxEvidence int
	loc         *time.Location
	now         func() time.Time
	log         *zap.Logger
}

func NewService(
	cal *calendar.Calendar,
	members *repository.MemberRepo,
	payments *repository.PaymentRepo,
	evidence *repository.EvidenceRepo,
	opts Options,
) *Service {
	s := &Service{
		cal:         cal,
		members:     members,
		payments:    payments,
		evidence:    evidence,
		policy:      opts.Policy,
		delay:       opts.ProcessingDelay,
		maxEvidence: opts.MaxEvidenceBytes,
		loc:         opts.Location,
		now:         opts.Now,
		log:         opts.Logger,
	}
	if s.policy == nil {
		s.policy = calendar.StandardPolicy{}
	}
	if s.delay <= 0 {
		s.delay = defaultProcessingDelay
	}
	if s.maxEvidence <= 0 {
		s.maxEvidence = defaultMaxEvidenceBytes
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Calendar returns the business calendar the service settles against.
func (s *Service) Calendar() *calendar.Calendar { return s.cal }

// Policy returns the settlement policy in force.
func (s *Service) Policy() calendar.SettlementPolicy { return s.policy }

// Now returns the current time in the service's time zone.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

func (s *Service) today() string {
	return calendar.FormatCompact(s.Now())
}

// processed reports whether the provider has finished with a request
// registered at t.
func (s *Service) processed(t time.Time) bool {
	return s.now().Sub(t) > s.delay
}

// observe records the outcome of an operation and passes err through.
func (s *Service) observe(op string, err error) error {
	code := ResultCode(err)
	if code == "" {
		code = "error"
		s.log.Error("cms operation failed", zap.String("operation", op), zap.Error(err))
	} else if code != CodeOK {
		s.log.Info("cms operation rejected", zap.String("operation", op), zap.String("result_cd", code))
	}
	metrics.CMSResults.WithLabelValues(op, code).Inc()
	return err
}

// Stats summarises the stored state.
type Stats struct {
	Members         int    `json:"members"`
	Payments        int    `json:"payments"`
	EvidenceFiles   int    `json:"evidenceFiles"`
	SettlementMode  string `json:"settlementMode"`
	ProcessingDelay string `json:"processingDelay"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	members, err := s.members.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	payments, err := s.payments.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}
	files, err := s.evidence.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count evidence: %w", err)
	}
	return &Stats{
		Members:         members,
		Payments:        payments,
		EvidenceFiles:   files,
		SettlementMode:  s.policy.Name(),
		ProcessingDelay: s.delay.String(),
	}, nil
}

// mask keeps the first visible characters of v and stars out the rest.
func mask(v string, visible int) string {
	n := utf8.RuneCountInString(v)
	if n <= visible {
		return v
	}
	r := []rune(v)
	return string(r[:visible]) + strings.Repeat("*", n-visible)
}

// randomDigits returns n pseudo-random decimal digits.
func randomDigits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}
