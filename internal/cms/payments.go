package cms

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/paycms/console/internal/calendar"
	"github.com/paycms/console/internal/domain"
	"github.com/paycms/console/internal/fee"
	"github.com/paycms/console/internal/repository"
)

const (
	msgPaymentSucceeded = "withdrawal completed"
	appNoDigits         = 8
)

// PaymentRegistration is the outcome of a withdrawal registration. Deadline
// reports whether the request still made the registration cut-off of its
// withdrawal date; late requests are stored all the same.
type PaymentRegistration struct {
	Deadline         calendar.Admission `json:"deadline"`
	RegistrationDate string             `json:"registrationDt"`
}

// CreatePayment registers a withdrawal for an active member under the
// (sendDt, messageNo) key.
func (s *Service) CreatePayment(ctx context.Context, serviceID, sendDt, messageNo string, req domain.PaymentRequest) (*PaymentRegistration, error) {
	reg, err := s.createPayment(ctx, serviceID, sendDt, messageNo, req)
	return reg, s.observe("payment_register", err)
}

func (s *Service) createPayment(ctx context.Context, serviceID, sendDt, messageNo string, req domain.PaymentRequest) (*PaymentRegistration, error) {
	withdrawal, err := calendar.ParseCompact(sendDt)
	if err != nil {
		return nil, paramError("withdrawal date: %v", err)
	}
	if messageNo == "" || req.MemberID == "" {
		return nil, paramError("messageNo and memberId are required")
	}
	if !req.ServiceCd.Valid() {
		return nil, paramError("serviceCd %q", req.ServiceCd)
	}
	if _, err := fee.ParseAmount(req.ReqAmt); err != nil {
		return nil, paramError("reqAmt: %v", err)
	}

	m, err := s.loadMember(ctx, serviceID, req.MemberID)
	if errors.Is(err, ErrMemberNotFound) {
		return nil, ErrPaymentMember
	}
	if err != nil {
		return nil, err
	}
	if m.Status != domain.MemberActive {
		return nil, ErrMemberInactive
	}

	_, err = s.payments.Get(ctx, serviceID, sendDt, messageNo)
	switch {
	case err == nil:
		return nil, ErrPaymentExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("lookup payment: %w", err)
	}

	cashRcp := req.CashRcpYn
	if cashRcp == "" {
		cashRcp = "Y"
	}
	p := &domain.Payment{
		ServiceID:    serviceID,
		MemberID:     req.MemberID,
		SendDt:       sendDt,
		Status:       domain.PaymentPending,
		MessageNo:    messageNo,
		MemberName:   req.MemberName,
		AccountDesc:  req.AccountDesc,
		ReqAmt:       req.ReqAmt,
		CashRcpYn:    cashRcp,
		ServiceCd:    req.ServiceCd,
		CancelDt:     req.CancelDt,
		UserDefine:   req.UserDefine,
		RegisteredAt: s.now().UTC(),
	}
	if p.MemberName == "" {
		p.MemberName = m.MemberName
	}
	if err := s.payments.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	deadline := s.cal.RegistrationDeadlineCheck(withdrawal, s.Now())
	if !deadline.Allowed {
		s.log.Warn("withdrawal registered after deadline",
			zap.String("send_dt", sendDt),
			zap.String("message_no", messageNo),
			zap.String("reason", deadline.Reason),
		)
	}
	return &PaymentRegistration{
		Deadline:         deadline,
		RegistrationDate: calendar.FormatCompact(s.cal.RequiredRegistrationDate(withdrawal)),
	}, nil
}

// GetPayment returns the withdrawal with the member name masked. A pending
// withdrawal succeeds once the processing delay has passed; card withdrawals
// then carry an approval date and number, and every success carries its fee.
func (s *Service) GetPayment(ctx context.Context, serviceID, sendDt, messageNo string) (*domain.Payment, error) {
	p, err := s.loadPayment(ctx, serviceID, sendDt, messageNo)
	if err != nil {
		return nil, s.observe("payment_get", err)
	}
	s.observe("payment_get", nil)
	masked := *p
	masked.MemberName = mask(p.MemberName, 1)
	return &masked, nil
}

func (s *Service) loadPayment(ctx context.Context, serviceID, sendDt, messageNo string) (*domain.Payment, error) {
	p, err := s.payments.Get(ctx, serviceID, sendDt, messageNo)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if p.Status != domain.PaymentPending || !s.processed(p.RegisteredAt) {
		return p, nil
	}

	charge, err := fee.Calculate(p.ReqAmt, p.ServiceCd)
	if err != nil {
		return nil, fmt.Errorf("payment %s/%s fee: %w", sendDt, messageNo, err)
	}
	p.Status = domain.PaymentSucceeded
	p.BankResultCd = CodeOK
	p.BankResultMsg = msgPaymentSucceeded
	p.Fee = charge
	if p.ServiceCd == domain.ServiceCard {
		p.AppDt = s.today()
		p.AppNo = randomDigits(appNoDigits)
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("complete payment: %w", err)
	}
	return p, nil
}

// DeletePayment withdraws a registration the provider has not started on.
func (s *Service) DeletePayment(ctx context.Context, serviceID, sendDt, messageNo string) error {
	err := s.deletePayment(ctx, serviceID, sendDt, messageNo)
	return s.observe("payment_delete", err)
}

func (s *Service) deletePayment(ctx context.Context, serviceID, sendDt, messageNo string) error {
	p, err := s.loadPayment(ctx, serviceID, sendDt, messageNo)
	if errors.Is(err, ErrPaymentNotFound) {
		return ErrDeleteNotFound
	}
	if err != nil {
		return err
	}
	if p.Status != domain.PaymentPending {
		return ErrDeleteNotPending
	}
	return s.payments.Delete(ctx, serviceID, sendDt, messageNo)
}

// CancelPayment requests cancellation of a successful card approval. An
// empty cancelDt means today.
func (s *Service) CancelPayment(ctx context.Context, serviceID, sendDt, messageNo, cancelDt string) error {
	err := s.cancelPayment(ctx, serviceID, sendDt, messageNo, cancelDt)
	return s.observe("payment_cancel", err)
}

func (s *Service) cancelPayment(ctx context.Context, serviceID, sendDt, messageNo, cancelDt string) error {
	if cancelDt == "" {
		cancelDt = s.today()
	} else if _, err := calendar.ParseCompact(cancelDt); err != nil {
		return paramError("cancelDt: %v", err)
	}

	p, err := s.loadPayment(ctx, serviceID, sendDt, messageNo)
	if err != nil {
		return err
	}
	if p.ServiceCd != domain.ServiceCard {
		return ErrCancelNotCard
	}
	if p.Status != domain.PaymentSucceeded {
		return ErrCancelNotSucceeded
	}
	p.Status = domain.PaymentCancelRequested
	p.CancelDt = cancelDt
	return s.payments.Update(ctx, p)
}

// ListPayments returns a page of withdrawals, member names masked.
func (s *Service) ListPayments(ctx context.Context, f repository.PaymentFilter) ([]domain.Payment, int, error) {
	payments, total, err := s.payments.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	for i := range payments {
		payments[i].MemberName = mask(payments[i].MemberName, 1)
	}
	return payments, total, nil
}
