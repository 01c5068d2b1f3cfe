package calendar

import (
	"fmt"
	"time"

	"github.com/paycms/console/internal/domain"
)

const (
	ReasonCutoffPassed           = "cutoff passed"
	ReasonRegistrationDatePassed = "registration date passed"
	NoteNextBusinessDay          = "processed next business day"
)

// Rules holds the intraday cut-offs of the withdrawal cycle.
type Rules struct {
	// WithdrawalCutoffHour is the hour on the business day before the
	// withdrawal date from which registrations are refused.
	WithdrawalCutoffHour int
	// MemberCutoffHour is the hour after which member registrations slip to
	// the next business day.
	MemberCutoffHour int
	// ResultTime is the HH:MM at which provider results become available.
	ResultTime string
}

func DefaultRules() Rules {
	return Rules{
		WithdrawalCutoffHour: 17,
		MemberCutoffHour:     12,
		ResultTime:           "13:00",
	}
}

// Admission is the outcome of a cut-off check. Note is advisory and never
// accompanies a refusal.
type Admission struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Note    string `json:"note,omitempty"`
}

// RequiredRegistrationDate returns the business day on which a withdrawal
// for the given date must be registered.
func (c *Calendar) RequiredRegistrationDate(withdrawal time.Time) time.Time {
	return c.PreviousBusinessDay(withdrawal)
}

// RegistrationDeadlineCheck reports whether a withdrawal for the given date
// can still be registered at now. The calendar day and hour of now are read
// in now's own location.
func (c *Calendar) RegistrationDeadlineCheck(withdrawal, now time.Time) Admission {
	required := c.RequiredRegistrationDate(withdrawal)
	today := truncate(now)

	switch {
	case today.Equal(required):
		if now.Hour() >= c.rules.WithdrawalCutoffHour {
			return Admission{Allowed: false, Reason: ReasonCutoffPassed}
		}
	case today.After(required):
		return Admission{Allowed: false, Reason: ReasonRegistrationDatePassed}
	}
	return Admission{Allowed: true}
}

// WithdrawalDeadline renders the registration deadline of a withdrawal date
// as "YYYY-MM-DD HH:00".
func (c *Calendar) WithdrawalDeadline(withdrawal time.Time) string {
	return fmt.Sprintf("%s %02d:00", FormatCanonical(c.RequiredRegistrationDate(withdrawal)), c.rules.WithdrawalCutoffHour)
}

// MemberRegistrationWindow always admits a member registration; past the
// member cut-off it notes that processing moves to the next business day.
func (c *Calendar) MemberRegistrationWindow(now time.Time) Admission {
	if now.Hour() >= c.rules.MemberCutoffHour {
		return Admission{Allowed: true, Note: NoteNextBusinessDay}
	}
	return Admission{Allowed: true}
}

// RequestKind is the type of request whose result availability is asked for.
type RequestKind string

const (
	RequestMember  RequestKind = "member"
	RequestPayment RequestKind = "payment"
)

// Availability is when a provider result can be fetched.
type Availability struct {
	Date time.Time `json:"-"`
	Time string    `json:"availableTime"`
}

// ResultAvailability returns when the result of a request made on the given
// date becomes available. Member registrations and BANK payments report on
// the next business day, CARD payments on the same day. svc is only
// consulted for payments.
func (c *Calendar) ResultAvailability(requested time.Time, kind RequestKind, svc domain.ServiceCode) (Availability, error) {
	var d time.Time
	switch kind {
	case RequestMember:
		d = c.NextBusinessDay(requested)
	case RequestPayment:
		switch svc {
		case domain.ServiceBank:
			d = c.NextBusinessDay(requested)
		case domain.ServiceCard:
			d = truncate(requested)
		default:
			return Availability{}, fmt.Errorf("%w: %q", ErrUnknownServiceCode, svc)
		}
	default:
		return Availability{}, fmt.Errorf("unknown request kind: %q", kind)
	}
	return Availability{Date: d, Time: c.rules.ResultTime}, nil
}
