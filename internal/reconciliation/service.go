// Package reconciliation summarises the withdrawals of a send date into
// per-service settlement batches and flags records that do not add up.
package reconciliation

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/paycms/console/internal/calendar"
	"github.com/paycms/console/internal/domain"
	"github.com/paycms/console/internal/fee"
	"github.com/paycms/console/internal/repository"
)

type DiscrepancyType string

const (
	DiscrepancyNonBusinessDay DiscrepancyType = "NON_BUSINESS_DAY"
	DiscrepancyMissingFee     DiscrepancyType = "MISSING_FEE"
	DiscrepancyFeeMismatch    DiscrepancyType = "FEE_MISMATCH"
	DiscrepancyInvalidAmount  DiscrepancyType = "INVALID_AMOUNT"
)

type Discrepancy struct {
	Type        DiscrepancyType `json:"type"`
	MessageNo   string          `json:"messageNo,omitempty"`
	Expected    string          `json:"expected,omitempty"`
	Actual      string          `json:"actual,omitempty"`
	Description string          `json:"description"`
}

// Batch aggregates the withdrawals of one service code. Amounts cover
// succeeded withdrawals only.
type Batch struct {
	ServiceCd    domain.ServiceCode `json:"serviceCd"`
	Payments     int                `json:"payments"`
	Pending      int                `json:"pending"`
	Succeeded    int                `json:"succeeded"`
	Failed       int                `json:"failed"`
	Cancelled    int                `json:"cancelled"`
	GrossAmount  string             `json:"grossAmount"`
	FeeAmount    string             `json:"feeAmount"`
	NetAmount    string             `json:"netAmount"`
	SettleDt     string             `json:"settleDt"`
	RealSettleDt string             `json:"realSettleDt,omitempty"`
}

type Summary struct {
	ServiceID     string        `json:"serviceId"`
	SendDt        string        `json:"sendDt"`
	BusinessDay   bool          `json:"businessDay"`
	Policy        string        `json:"policy"`
	Batches       []Batch       `json:"batches"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// Service builds settlement summaries from stored withdrawals.
type Service struct {
	payments *repository.PaymentRepo
	cal      *calendar.Calendar
	policy   calendar.SettlementPolicy
	log      *zap.Logger
}

func NewService(payments *repository.PaymentRepo, cal *calendar.Calendar, policy calendar.SettlementPolicy, log *zap.Logger) *Service {
	if policy == nil {
		policy = calendar.StandardPolicy{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{payments: payments, cal: cal, policy: policy, log: log}
}

type tally struct {
	batch      Batch
	gross, fee decimal.Decimal
}

// Summarize groups the withdrawals sent on sendDt (YYYYMMDD) by service code
// and reports their settlement dates. Withdrawals are taken as stored; the
// provider's pending-to-succeeded transition is applied on lookup, not here.
func (s *Service) Summarize(ctx context.Context, serviceID, sendDt string) (*Summary, error) {
	withdrawal, err := calendar.ParseCompact(sendDt)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.ListBySendDate(ctx, serviceID, sendDt)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	summary := &Summary{
		ServiceID:     serviceID,
		SendDt:        sendDt,
		BusinessDay:   s.cal.IsBusinessDay(withdrawal),
		Policy:        s.policy.Name(),
		Batches:       []Batch{},
		Discrepancies: []Discrepancy{},
	}
	if !summary.BusinessDay && len(payments) > 0 {
		summary.Discrepancies = append(summary.Discrepancies, Discrepancy{
			Type:        DiscrepancyNonBusinessDay,
			Description: fmt.Sprintf("%d withdrawals sent on non-business day %s", len(payments), sendDt),
		})
	}

	tallies := make(map[domain.ServiceCode]*tally)
	for _, p := range payments {
		t, ok := tallies[p.ServiceCd]
		if !ok {
			t = &tally{batch: Batch{ServiceCd: p.ServiceCd}}
			tallies[p.ServiceCd] = t
		}
		t.batch.Payments++

		switch p.Status {
		case domain.PaymentPending:
			t.batch.Pending++
		case domain.PaymentFailed:
			t.batch.Failed++
		case domain.PaymentCancelRequested, domain.PaymentCancelled:
			t.batch.Cancelled++
		case domain.PaymentSucceeded:
			t.batch.Succeeded++
			if d := s.addSucceeded(t, p); d != nil {
				summary.Discrepancies = append(summary.Discrepancies, *d)
			}
		}
	}

	for _, t := range tallies {
		res, err := s.cal.SettlementDate(withdrawal, t.batch.ServiceCd, s.policy)
		if err != nil {
			s.log.Warn("skipping settlement for unknown service code",
				zap.String("service_cd", string(t.batch.ServiceCd)),
				zap.String("send_dt", sendDt),
			)
		} else {
			t.batch.SettleDt = res.SettleDt()
			t.batch.RealSettleDt = res.RealSettleDt()
		}
		t.batch.GrossAmount = t.gross.String()
		t.batch.FeeAmount = t.fee.String()
		t.batch.NetAmount = t.gross.Sub(t.fee).String()
		summary.Batches = append(summary.Batches, t.batch)
	}
	sort.Slice(summary.Batches, func(i, j int) bool {
		return summary.Batches[i].ServiceCd < summary.Batches[j].ServiceCd
	})

	s.log.Info("settlement summary built",
		zap.String("service_id", serviceID),
		zap.String("send_dt", sendDt),
		zap.Int("payments", len(payments)),
		zap.Int("discrepancies", len(summary.Discrepancies)),
	)
	return summary, nil
}

// addSucceeded adds a succeeded withdrawal to its batch and returns a
// discrepancy if its amount or fee is inconsistent.
func (s *Service) addSucceeded(t *tally, p domain.Payment) *Discrepancy {
	amount, err := fee.ParseAmount(p.ReqAmt)
	if err != nil {
		return &Discrepancy{
			Type:        DiscrepancyInvalidAmount,
			MessageNo:   p.MessageNo,
			Actual:      p.ReqAmt,
			Description: err.Error(),
		}
	}
	t.gross = t.gross.Add(amount)

	expected, err := fee.Calculate(p.ReqAmt, p.ServiceCd)
	if err != nil {
		return nil
	}
	if p.Fee == "" {
		return &Discrepancy{
			Type:        DiscrepancyMissingFee,
			MessageNo:   p.MessageNo,
			Expected:    expected,
			Description: "succeeded withdrawal has no fee",
		}
	}
	charged, err := decimal.NewFromString(p.Fee)
	if err == nil {
		t.fee = t.fee.Add(charged)
	}
	if err != nil || charged.String() != expected {
		return &Discrepancy{
			Type:        DiscrepancyFeeMismatch,
			MessageNo:   p.MessageNo,
			Expected:    expected,
			Actual:      p.Fee,
			Description: "charged fee differs from the service rate",
		}
	}
	return nil
}
