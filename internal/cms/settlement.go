package cms

import (
	"github.com/paycms/console/internal/domain"
	"github.com/paycms/console/internal/metrics"
)

// SettlementDue is the provider's answer to a settlement due-date query.
type SettlementDue struct {
	SettleDt     string                  `json:"settleDt"`
	SettleSt     domain.SettlementStatus `json:"settleSt"`
	RealSettleDt string                  `json:"realSettleDt,omitempty"`
}

// SettlementStatus reports when withdrawals sent on sendDt settle. Only BANK
// withdrawals carry a confirmed settlement date.
func (s *Service) SettlementStatus(sendDt, serviceCd string) (*SettlementDue, error) {
	if sendDt == "" || serviceCd == "" {
		return nil, s.observe("settlement_due", paramError("sendDt and serviceCd are required"))
	}
	svc, err := domain.ParseServiceCode(serviceCd)
	if err != nil {
		return nil, s.observe("settlement_due", paramError("%v", err))
	}
	res, err := s.cal.SettlementDateCompact(sendDt, svc, s.policy)
	if err != nil {
		return nil, s.observe("settlement_due", paramError("%v", err))
	}
	metrics.SettlementCalculations.WithLabelValues(string(svc), s.policy.Name()).Inc()

	due := &SettlementDue{
		SettleDt: res.SettleDt(),
		SettleSt: domain.SettlementCompleted,
	}
	if svc == domain.ServiceBank {
		due.RealSettleDt = res.RealSettleDt()
	}
	return due, s.observe("settlement_due", nil)
}
