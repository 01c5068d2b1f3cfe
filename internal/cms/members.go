package cms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paycms/console/internal/calendar"
	"github.com/paycms/console/internal/domain"
	"github.com/paycms/console/internal/repository"
)

const msgMemberRegistered = "registration completed"

// Registration is the outcome of a member registration.
type Registration struct {
	BankSendDt string `json:"bankSendDt"`
	// Window carries the next-business-day note for late registrations.
	Window     calendar.Admission `json:"window"`
	ResultDt   string             `json:"resultDt"`
	ResultTime string             `json:"resultTime"`
}

// RegisterMember stores a pending member. The provider picks it up on the
// day it is sent; its result is available from the next business day.
func (s *Service) RegisterMember(ctx context.Context, serviceID, memberID string, req domain.MemberRequest) (*Registration, error) {
	reg, err := s.registerMember(ctx, serviceID, memberID, req)
	return reg, s.observe("member_register", err)
}

func (s *Service) registerMember(ctx context.Context, serviceID, memberID string, req domain.MemberRequest) (*Registration, error) {
	if memberID == "" {
		return nil, paramError("memberId is required")
	}
	_, err := s.members.Get(ctx, serviceID, memberID)
	switch {
	case err == nil:
		return nil, ErrMemberExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("lookup member: %w", err)
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, paramError("missing %s", strings.Join(missing, ", "))
	}

	now := s.Now()
	today := calendar.FormatCompact(now)
	m := &domain.Member{
		ServiceID:    serviceID,
		MemberID:     memberID,
		Status:       domain.MemberPending,
		RegDt:        today,
		BankSendDt:   today,
		MemberName:   req.MemberName,
		ServiceCd:    req.ServiceCd,
		BankCd:       req.BankCd,
		AccountNo:    req.AccountNo,
		AccountName:  req.AccountName,
		IDNo:         req.IDNo,
		HpNo:         req.HpNo,
		Email:        req.Email,
		ServiceName:  req.ServiceName,
		CardNo:       req.CardNo,
		ValYn:        req.ValYn,
		CusType:      req.CusType,
		CusOffNo:     req.CusOffNo,
		UserDefine:   req.UserDefine,
		RegisteredAt: now.UTC(),
	}
	if err := s.members.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	avail, err := s.cal.ResultAvailability(now, calendar.RequestMember, req.ServiceCd)
	if err != nil {
		return nil, err
	}
	return &Registration{
		BankSendDt: today,
		Window:     s.cal.MemberRegistrationWindow(now),
		ResultDt:   calendar.FormatCompact(avail.Date),
		ResultTime: avail.Time,
	}, nil
}

// GetMember returns the member with personal fields masked. A pending member
// becomes active once the processing delay has passed.
func (s *Service) GetMember(ctx context.Context, serviceID, memberID string) (*domain.Member, error) {
	m, err := s.loadMember(ctx, serviceID, memberID)
	if err != nil {
		return nil, s.observe("member_get", err)
	}
	s.observe("member_get", nil)
	return maskMember(*m), nil
}

// loadMember fetches a member and applies any provider-side transition that
// is due.
func (s *Service) loadMember(ctx context.Context, serviceID, memberID string) (*domain.Member, error) {
	m, err := s.members.Get(ctx, serviceID, memberID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if m.Status == domain.MemberPending && s.processed(m.RegisteredAt) {
		m.Status = domain.MemberActive
		m.BankResultMsg = msgMemberRegistered
		if err := s.members.Update(ctx, m); err != nil {
			return nil, fmt.Errorf("activate member: %w", err)
		}
	}
	return m, nil
}

// MemberUpdate holds the member fields a modification may change. Nil fields
// are left alone.
type MemberUpdate struct {
	MemberName  *string `json:"memberName"`
	HpNo        *string `json:"hpNo"`
	Email       *string `json:"email"`
	ServiceName *string `json:"serviceName"`
	UserDefine  *string `json:"userDefine"`
}

func (s *Service) ModifyMember(ctx context.Context, serviceID, memberID string, upd MemberUpdate) error {
	err := s.modifyMember(ctx, serviceID, memberID, upd)
	return s.observe("member_modify", err)
}

func (s *Service) modifyMember(ctx context.Context, serviceID, memberID string, upd MemberUpdate) error {
	m, err := s.loadMember(ctx, serviceID, memberID)
	if err != nil {
		return err
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&m.MemberName, upd.MemberName)
	set(&m.HpNo, upd.HpNo)
	set(&m.Email, upd.Email)
	set(&m.ServiceName, upd.ServiceName)
	set(&m.UserDefine, upd.UserDefine)
	if strings.TrimSpace(m.MemberName) == "" {
		return paramError("memberName cannot be empty")
	}
	return s.members.Update(ctx, m)
}

// CancelMember terminates a member's registration.
func (s *Service) CancelMember(ctx context.Context, serviceID, memberID string) error {
	err := s.cancelMember(ctx, serviceID, memberID)
	return s.observe("member_cancel", err)
}

func (s *Service) cancelMember(ctx context.Context, serviceID, memberID string) error {
	m, err := s.loadMember(ctx, serviceID, memberID)
	if err != nil {
		return err
	}
	if m.Status == domain.MemberCancelled {
		return ErrMemberCancelled
	}
	m.Status = domain.MemberCancelled
	m.StopDt = s.today()
	return s.members.Update(ctx, m)
}

// ListMembers returns a page of members, masked.
func (s *Service) ListMembers(ctx context.Context, f repository.MemberFilter) ([]domain.Member, int, error) {
	members, total, err := s.members.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	for i := range members {
		members[i] = *maskMember(members[i])
	}
	return members, total, nil
}

// ChangeHistory returns the provider's feed of account changes ("C") or
// cancellations ("D") for a day. The mock provider reports one synthetic
// record per query.
func (s *Service) ChangeHistory(serviceID, status, searchDt string) ([]domain.ChangeHistory, error) {
	if status != "C" && status != "D" {
		return nil, s.observe("change_history", paramError("status must be C or D"))
	}
	if _, err := calendar.ParseCompact(searchDt); err != nil {
		return nil, s.observe("change_history", paramError("searchDt: %v", err))
	}

	h := domain.ChangeHistory{
		ServiceID:    serviceID,
		Status:       status,
		MemberCd:     "mem" + randomDigits(9),
		OldBankCd:    "011",
		OldAccountNo: "12345678901234",
	}
	if status == "C" {
		h.CauseType = "1"
		h.NewBankCd = "020"
		h.NewAccountNo = "98765432109876"
	}
	s.observe("change_history", nil)
	return []domain.ChangeHistory{h}, nil
}

func maskMember(m domain.Member) *domain.Member {
	m.MemberName = mask(m.MemberName, 1)
	m.AccountNo = mask(m.AccountNo, 4)
	m.AccountName = mask(m.AccountName, 1)
	m.IDNo = mask(m.IDNo, 6)
	m.CardNo = mask(m.CardNo, 4)
	return &m
}
