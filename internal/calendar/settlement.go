package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paycms/console/internal/domain"
)

// ErrUnknownServiceCode is returned for service codes other than BANK and
// CARD.
var ErrUnknownServiceCode = errors.New("unknown service code")

const (
	bankSettlementDays = 2
	cardSettlementDays = 1
)

// SettlementResult carries the settlement date of a withdrawal. RealSettleDate
// is only set when the provider reports a separate confirmed date.
type SettlementResult struct {
	SettleDate     time.Time
	RealSettleDate *time.Time
}

// SettleDt returns the settlement date in wire (YYYYMMDD) form.
func (r SettlementResult) SettleDt() string {
	return FormatCompact(r.SettleDate)
}

// RealSettleDt returns the confirmed settlement date in wire form, or "" if
// there is none.
func (r SettlementResult) RealSettleDt() string {
	if r.RealSettleDate == nil {
		return ""
	}
	return FormatCompact(*r.RealSettleDate)
}

// SettlementPolicy decides when a withdrawal settles.
type SettlementPolicy interface {
	Name() string
	Settle(c *Calendar, withdrawal time.Time, svc domain.ServiceCode) SettlementResult
}

// StandardPolicy settles BANK withdrawals two business days after the
// withdrawal date, with an identical confirmed date, and CARD withdrawals one
// business day after.
type StandardPolicy struct{}

func (StandardPolicy) Name() string { return "standard" }

func (StandardPolicy) Settle(c *Calendar, withdrawal time.Time, svc domain.ServiceCode) SettlementResult {
	if svc == domain.ServiceBank {
		d := c.AddBusinessDays(withdrawal, bankSettlementDays)
		return SettlementResult{SettleDate: d, RealSettleDate: &d}
	}
	return SettlementResult{SettleDate: c.AddBusinessDays(withdrawal, cardSettlementDays)}
}

// AcceleratedPolicy settles every withdrawal on its own date. It is used
// against the provider's test environment.
type AcceleratedPolicy struct{}

func (AcceleratedPolicy) Name() string { return "accelerated" }

func (AcceleratedPolicy) Settle(_ *Calendar, withdrawal time.Time, _ domain.ServiceCode) SettlementResult {
	d := truncate(withdrawal)
	return SettlementResult{SettleDate: d, RealSettleDate: &d}
}

// PolicyFor maps a configured settlement mode to its policy. "test" is
// accepted as an alias of "accelerated".
func PolicyFor(mode string) (SettlementPolicy, error) {
	switch strings.ToLower(mode) {
	case "", "standard":
		return StandardPolicy{}, nil
	case "accelerated", "test":
		return AcceleratedPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown settlement mode: %q", mode)
	}
}

// SettlementDate computes when a withdrawal on the given date settles under
// policy. A nil policy means StandardPolicy.
func (c *Calendar) SettlementDate(withdrawal time.Time, svc domain.ServiceCode, policy SettlementPolicy) (SettlementResult, error) {
	if !svc.Valid() {
		return SettlementResult{}, fmt.Errorf("%w: %q", ErrUnknownServiceCode, svc)
	}
	if policy == nil {
		policy = StandardPolicy{}
	}
	return policy.Settle(c, truncate(withdrawal), svc), nil
}

// SettlementDateCompact is SettlementDate for a YYYYMMDD withdrawal date.
func (c *Calendar) SettlementDateCompact(withdrawal string, svc domain.ServiceCode, policy SettlementPolicy) (SettlementResult, error) {
	d, err := ParseCompact(withdrawal)
	if err != nil {
		return SettlementResult{}, err
	}
	return c.SettlementDate(d, svc, policy)
}
