package calendar

import (
	"fmt"
	"time"

	"github.com/paycms/console/internal/domain"
)

// DayEntry is one day of a monthly settlement calendar. Deadline and
// settlement fields are only set on business days.
type DayEntry struct {
	Date               string         `json:"date"`
	IsBusinessDay      bool           `json:"isBusinessDay"`
	WithdrawalDeadline string         `json:"withdrawalDeadline,omitempty"`
	Settlement         *DaySettlement `json:"settlementDate,omitempty"`
}

// DaySettlement holds the settlement dates of a withdrawal on that day.
type DaySettlement struct {
	Bank string `json:"bank"`
	Card string `json:"card"`
}

// MonthlyCalendar lays out every day of the month with its business-day
// flag and, for business days, the registration deadline and the BANK and
// CARD settlement dates under policy.
func (c *Calendar) MonthlyCalendar(year int, month time.Month, policy SettlementPolicy) ([]DayEntry, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month out of range: %d", month)
	}
	days := Date(year, month+1, 0).Day()

	entries := make([]DayEntry, 0, days)
	for day := 1; day <= days; day++ {
		d := Date(year, month, day)
		entry := DayEntry{
			Date:          FormatCanonical(d),
			IsBusinessDay: c.IsBusinessDay(d),
		}
		if entry.IsBusinessDay {
			bank, err := c.SettlementDate(d, domain.ServiceBank, policy)
			if err != nil {
				return nil, err
			}
			card, err := c.SettlementDate(d, domain.ServiceCard, policy)
			if err != nil {
				return nil, err
			}
			entry.WithdrawalDeadline = c.WithdrawalDeadline(d)
			entry.Settlement = &DaySettlement{
				Bank: FormatCanonical(bank.SettleDate),
				Card: FormatCanonical(card.SettleDate),
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
