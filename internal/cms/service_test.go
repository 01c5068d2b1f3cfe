package cms

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paycms/console/internal/calendar"
	"github.com/paycms/console/internal/domain"
	"github.com/paycms/console/internal/repository"
)

const testServiceID = "svc01"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T, opts Options) (*Service, *fakeClock) {
	t.Helper()
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "cms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Wednesday 2024-01-03 10:00
	clk := &fakeClock{t: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)}
	opts.Now = clk.Now
	svc := NewService(
		calendar.Default(),
		repository.NewMemberRepo(db),
		repository.NewPaymentRepo(db),
		repository.NewEvidenceRepo(db),
		opts,
	)
	return svc, clk
}

func bankMember() domain.MemberRequest {
	return domain.MemberRequest{
		MemberName:  "Kim Minsu",
		ServiceCd:   domain.ServiceBank,
		BankCd:      "004",
		AccountNo:   "12345678901234",
		AccountName: "Kim Minsu",
		IDNo:        "9001011234567",
		HpNo:        "01012345678",
	}
}

func cardMember() domain.MemberRequest {
	return domain.MemberRequest{
		MemberName: "Lee Jiwoo",
		ServiceCd:  domain.ServiceCard,
		CardNo:     "9410123412341234",
		ValYn:      "2812",
		HpNo:       "01098765432",
	}
}

// activeMember registers a member and lets the provider process it.
func activeMember(t *testing.T, svc *Service, clk *fakeClock, id string, req domain.MemberRequest) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.RegisterMember(ctx, testServiceID, id, req)
	require.NoError(t, err)
	clk.Advance(21 * time.Minute)
	m, err := svc.GetMember(ctx, testServiceID, id)
	require.NoError(t, err)
	require.Equal(t, domain.MemberActive, m.Status)
}

func payment(memberID string, svcCd domain.ServiceCode) domain.PaymentRequest {
	return domain.PaymentRequest{
		MemberID:  memberID,
		ReqAmt:    "50000",
		ServiceCd: svcCd,
	}
}

func TestRegisterMember(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	reg, err := svc.RegisterMember(ctx, testServiceID, "m1", bankMember())
	require.NoError(t, err)
	assert.Equal(t, "20240103", reg.BankSendDt)
	assert.Equal(t, "20240104", reg.ResultDt)
	assert.Equal(t, "13:00", reg.ResultTime)
	assert.True(t, reg.Window.Allowed)
	assert.Empty(t, reg.Window.Note)

	_, err = svc.RegisterMember(ctx, testServiceID, "m1", bankMember())
	assert.ErrorIs(t, err, ErrMemberExists)

	_, err = svc.RegisterMember(ctx, "svc02", "m1", bankMember())
	assert.NoError(t, err, "member ids are scoped by service id")
}

func TestRegisterMemberValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	noAccount := bankMember()
	noAccount.AccountNo = ""
	noCard := cardMember()
	noCard.CardNo = " "
	unknown := bankMember()
	unknown.ServiceCd = "WIRE"

	for name, req := range map[string]domain.MemberRequest{
		"bank without account": noAccount,
		"card without card":    noCard,
		"unknown service":      unknown,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.RegisterMember(ctx, testServiceID, "m1", req)
			assert.Equal(t, "7777", ResultCode(err))
		})
	}

	_, err := svc.RegisterMember(ctx, testServiceID, "", bankMember())
	assert.ErrorIs(t, err, ErrParameter)
}

func TestRegisterMemberAfterCutoff(t *testing.T) {
	svc, clk := newTestService(t, Options{})
	clk.t = time.Date(2024, 1, 5, 14, 0, 0, 0, time.UTC) // Friday afternoon

	reg, err := svc.RegisterMember(context.Background(), testServiceID, "m1", cardMember())
	require.NoError(t, err)
	assert.Equal(t, "20240105", reg.BankSendDt)
	assert.Equal(t, calendar.NoteNextBusinessDay, reg.Window.Note)
	assert.Equal(t, "20240108", reg.ResultDt)
}

func TestGetMemberActivatesAfterDelay(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t, Options{})

	_, err := svc.GetMember(ctx, testServiceID, "m1")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = svc.RegisterMember(ctx, testServiceID, "m1", bankMember())
	require.NoError(t, err)

	m, err := svc.GetMember(ctx, testServiceID, "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberPending, m.Status)
	assert.Equal(t, "K********", m.MemberName)
	assert.Equal(t, "1234**********", m.AccountNo)
	assert.Equal(t, "K********", m.AccountName)
	assert.Equal(t, "900101*******", m.IDNo)
	assert.Equal(t, "004", m.BankCd)

	clk.Advance(20 * time.Minute)
	m, err = svc.GetMember(ctx, testServiceID, "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberPending, m.Status, "processing takes longer than the delay")

	clk.Advance(time.Second)
	m, err = svc.GetMember(ctx, testServiceID, "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberActive, m.Status)
	assert.Equal(t, msgMemberRegistered, m.BankResultMsg)
}

func TestGetMemberCustomDelay(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t, Options{ProcessingDelay: time.Minute})

	_, err := svc.RegisterMember(ctx, testServiceID, "m1", cardMember())
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)

	m, err := svc.GetMember(ctx, testServiceID, "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberActive, m.Status)
	assert.Equal(t, "9410************", m.CardNo)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "홍**", mask("홍길동", 1))
	assert.Equal(t, "abc", mask("abc", 4))
	assert.Equal(t, "", mask("", 1))
	assert.Equal(t, "1234*", mask("12345", 4))
}

func TestModifyMember(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	email := "kim@example.com"
	err := svc.ModifyMember(ctx, testServiceID, "m1", MemberUpdate{Email: &email})
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = svc.RegisterMember(ctx, testServiceID, "m1", bankMember())
	require.NoError(t, err)

	name := "Park Seoyeon"
	require.NoError(t, svc.ModifyMember(ctx, testServiceID, "m1", MemberUpdate{MemberName: &name, Email: &email}))

	stored, err := svc.members.Get(ctx, testServiceID, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Park Seoyeon", stored.MemberName)
	assert.Equal(t, "kim@example.com", stored.Email)
	assert.Equal(t, "01012345678", stored.HpNo)
	assert.Equal(t, "12345678901234", stored.AccountNo)

	empty := ""
	err = svc.ModifyMember(ctx, testServiceID, "m1", MemberUpdate{MemberName: &empty})
	assert.ErrorIs(t, err, ErrParameter)
}

func TestCancelMember(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t, Options{})

	assert.ErrorIs(t, svc.CancelMember(ctx, testServiceID, "m1"), ErrMemberNotFound)

	_, err := svc.RegisterMember(ctx, testServiceID, "m1", bankMember())
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	require.NoError(t, svc.CancelMember(ctx, testServiceID, "m1"))

	m, err := svc.GetMember(ctx, testServiceID, "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberCancelled, m.Status)
	assert.Equal(t, "20240104", m.StopDt)

	assert.ErrorIs(t, svc.CancelMember(ctx, testServiceID, "m1"), ErrMemberCancelled)
}

func TestCreatePayment(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t, Options{})

	_, err := svc.CreatePayment(ctx, testServiceID, "20240105", "0001", payment("m1", domain.ServiceBank))
	assert.ErrorIs(t, err, ErrPaymentMember)

	_, err = svc.RegisterMember(ctx, testServiceID, "m1", bankMember())
	require.NoError(t, err)
	_, err = svc.CreatePayment(ctx, testServiceID, "20240105", "0001", payment("m1", domain.ServiceBank))
	assert.ErrorIs(t, err, ErrMemberInactive)

	clk.Advance(21 * time.Minute)
	reg, err := svc.CreatePayment(ctx, testServiceID, "20240105", "0001", payment("m1", domain.ServiceBank))
	require.NoError(t, err)
	assert.True(t, reg.Deadline.Allowed)
	assert.Equal(t, "20240104", reg.RegistrationDate)

	_, err = svc.CreatePayment(ctx, testServiceID, "20240105", "0001", payment("m1", domain.ServiceBank))
	assert.ErrorIs(t, err, ErrPaymentExists)

	p, err := svc.GetPayment(ctx, testServiceID, "20240105", "0001")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.Equal(t, "Y", p.CashRcpYn)
	assert.Equal(t, "K********", p.MemberName, "member name defaults to the member's")
}

func TestCreatePaymentLate(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t, Options{})
	activeMember(t, svc, clk, "m1", bankMember())

	// Withdrawal on Thursday must be registered by Wednesday 17:00.
	clk.t = time.Date(2024, 1, 3, 17, 30, 0, 0, time.UTC)
	reg, err := svc.CreatePayment(ctx, testServiceID, "20240104", "0001", payment("m1", domain.ServiceBank))
	require.NoError(t, err)
	assert.False(t, reg.Deadline.Allowed)
	assert.Equal(t, calendar.ReasonCutoffPassed, reg.Deadline.Reason)
}

func TestCreatePaymentValidation(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t, Options{})
	activeMember(t, svc, clk, "m1", bankMember())

	badAmount := payment("m1", domain.ServiceBank)
	badAmount.ReqAmt = "12.5"
	badService := payment("m1", "WIRE")

	cases := []struct {
		name      string
		sendDt    string
		messageNo string
		req       domain.PaymentRequest
	}{
		{"malformed date", "2024-01-05", "0001", payment("m1", domain.ServiceBank)},
		{"impossible date", "20240230", "0001", payment("m1", domain.ServiceBank)},
		{"missing message number", "20240105", "", payment("m1", domain.ServiceBank)},
		{"missing member", "20240105", "0001", payment("", domain.ServiceBank)},
		{"fractional amount", "20240105", "0001", badAmount},
		{"unknown service", "20240105", "0001", badService},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreatePayment(ctx, testServiceID, tc.sendDt, tc.messageNo, tc.req)
			assert.Equal(t, "7777", ResultCode(err))
		})
	}
}

func TestGetPaymentCompletes(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t, Options{})
	activeMember(t, svc, clk, "m1", bankMember())
	activeMember(t, svc, clk, "c1", cardMember())

	_, err := svc.GetPayment(ctx, testServiceID, "20240105", "0001")
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = svc.CreatePayment(ctx, testServiceID, "20240105", "0001", payment("m1", domain.ServiceBank))
	require.NoError(t, err)
	card := payment("c1", domain.ServiceCard)
	card.ReqAmt = "50050"
	_, err = svc.CreatePayment(ctx, testServiceID, "20240105", "0002", card)
	require.NoError(t, err)

	clk.Advance(21 * time.Minute)

	bank, err := svc.GetPayment(ctx, testServiceID, "20240105", "0001")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, bank.Status)
	assert.Equal(t, CodeOK, bank.BankResultCd)
	assert.Equal(t, "500", bank.Fee)
	assert.Empty(t, bank.AppNo)

	c, err := svc.GetPayment(ctx, testServiceID, "20240105", "0002")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, c.Status)
	assert.Equal(t, "501", c.Fee)
	assert.Equal(t, "20240103", c.AppDt)
	assert.Len(t, c.AppNo, appNoDigits)

	again, err := svc.GetPayment(ctx, testServiceID, "20240105", "0002")
	require.NoError(t, err)
	assert.Equal(t, c.AppNo, again.AppNo, "approval is assigned once")
}

func TestDeletePayment(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t, Options{})
	activeMember(t, svc, clk, "m1", bankMember())

	assert.ErrorIs(t, svc.DeletePayment(ctx, testServiceID, "20240105", "0001"), ErrDeleteNotFound)

	_, err := svc.CreatePayment(ctx, testServiceID, "20240105", "0001", payment("m1", domain.ServiceBank))
	require.NoError(t, err)
	require.NoError(t, svc.DeletePayment(ctx, testServiceID, "20240105", "0001"))

	_, err = svc.CreatePayment(ctx, testServiceID, "20240105", "0002", payment("m1", domain.ServiceBank))
	require.NoError(t, err)
	clk.Advance(21 * time.Minute)
	assert.ErrorIs(t, svc.DeletePayment(ctx, testServiceID, "20240105", "0002"), ErrDeleteNotPending)
}

func TestCancelPayment(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t, Options{})
	activeMember(t, svc, clk, "m1", bankMember())
	activeMember(t, svc, clk, "c1", cardMember())

	assert.ErrorIs(t, svc.CancelPayment(ctx, testServiceID, "20240105", "0001", ""), ErrPaymentNotFound)

	_, err := svc.CreatePayment(ctx, testServiceID, "20240105", "0001", payment("m1", domain.ServiceBank))
	require.NoError(t, err)
	_, err = svc.CreatePayment(ctx, testServiceID, "20240105", "0002", payment("c1", domain.ServiceCard))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CancelPayment(ctx, testServiceID, "20240105", "0002", ""), ErrCancelNotSucceeded)

	clk.Advance(21 * time.Minute)
	assert.ErrorIs(t, svc.CancelPayment(ctx, testServiceID, "20240105", "0001", ""), ErrCancelNotCard)
	assert.ErrorIs(t, svc.CancelPayment(ctx, testServiceID, "20240105", "0002", "2024-01-05"), ErrParameter)

	require.NoError(t, svc.CancelPayment(ctx, testServiceID, "20240105", "0002", "20240108"))
	p, err := svc.GetPayment(ctx, testServiceID, "20240105", "0002")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCancelRequested, p.Status)
	assert.Equal(t, "20240108", p.CancelDt)

	assert.ErrorIs(t, svc.CancelPayment(ctx, testServiceID, "20240105", "0002", ""), ErrCancelNotSucceeded)
}

func TestSettlementStatus(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	due, err := svc.SettlementStatus("20240103", "BANK")
	require.NoError(t, err)
	assert.Equal(t, "20240105", due.SettleDt)
	assert.Equal(t, "20240105", due.RealSettleDt)
	assert.Equal(t, domain.SettlementCompleted, due.SettleSt)

	due, err = svc.SettlementStatus("20240103", "CARD")
	require.NoError(t, err)
	assert.Equal(t, "20240104", due.SettleDt)
	assert.Empty(t, due.RealSettleDt)

	// Thursday before the Seollal holidays.
	due, err = svc.SettlementStatus("20240208", "BANK")
	require.NoError(t, err)
	assert.Equal(t, "20240214", due.SettleDt)

	for _, args := range [][2]string{
		{"", "BANK"},
		{"20240103", ""},
		{"20240103", "WIRE"},
		{"2024013", "BANK"},
		{"20241301", "CARD"},
	} {
		_, err := svc.SettlementStatus(args[0], args[1])
		assert.Equal(t, "7777", ResultCode(err), "args %v", args)
	}
}

func TestSettlementStatusAccelerated(t *testing.T) {
	svc, _ := newTestService(t, Options{Policy: calendar.AcceleratedPolicy{}})

	due, err := svc.SettlementStatus("20240103", "CARD")
	require.NoError(t, err)
	assert.Equal(t, "20240103", due.SettleDt)
	assert.Empty(t, due.RealSettleDt)

	due, err = svc.SettlementStatus("20240103", "BANK")
	require.NoError(t, err)
	assert.Equal(t, "20240103", due.RealSettleDt)
}

func TestChangeHistory(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	changes, err := svc.ChangeHistory(testServiceID, "C", "20240103")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, testServiceID, c.ServiceID)
	assert.Equal(t, "1", c.CauseType)
	assert.Equal(t, "020", c.NewBankCd)
	assert.Equal(t, "98765432109876", c.NewAccountNo)
	assert.True(t, strings.HasPrefix(c.MemberCd, "mem"))
	assert.Len(t, c.MemberCd, 12)

	changes, err = svc.ChangeHistory(testServiceID, "D", "20240103")
	require.NoError(t, err)
	assert.Empty(t, changes[0].NewBankCd)
	assert.Empty(t, changes[0].CauseType)
	assert.Equal(t, "011", changes[0].OldBankCd)

	_, err = svc.ChangeHistory(testServiceID, "", "20240103")
	assert.ErrorIs(t, err, ErrParameter)
	_, err = svc.ChangeHistory(testServiceID, "C", "")
	assert.ErrorIs(t, err, ErrParameter)
}

func TestEvidence(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{MaxEvidenceBytes: 16})

	_, err := svc.UploadEvidence(ctx, testServiceID, "m1", EvidenceUpload{
		AgreeType: domain.EvidenceSignature, FileExt: "pdf", Content: []byte("x"),
	})
	assert.ErrorIs(t, err, ErrEvidenceExt)

	_, err = svc.UploadEvidence(ctx, testServiceID, "m1", EvidenceUpload{
		AgreeType: domain.EvidenceWritten, FileExt: "pdf", Content: make([]byte, 17),
	})
	assert.ErrorIs(t, err, ErrEvidenceSize)

	f, err := svc.UploadEvidence(ctx, testServiceID, "m1", EvidenceUpload{
		AgreeType: domain.EvidenceWritten, FileExt: ".PDF", Content: []byte("%PDF-1.4"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pdf", f.FileExt)
	assert.Equal(t, 8, f.Size)
	assert.NotEmpty(t, f.ID)

	_, err = svc.UploadEvidenceEncoded(ctx, testServiceID, "m1", domain.EvidenceRecording, "mp3", "not base64!")
	assert.ErrorIs(t, err, ErrParameter)

	// 12 bytes encode to exactly 16 characters; 13 bytes fit decoded but not encoded.
	_, err = svc.UploadEvidenceEncoded(ctx, testServiceID, "m1", domain.EvidenceRecording, "mp3",
		base64.StdEncoding.EncodeToString(make([]byte, 12)))
	require.NoError(t, err)
	_, err = svc.UploadEvidenceEncoded(ctx, testServiceID, "m1", domain.EvidenceRecording, "mp3",
		base64.StdEncoding.EncodeToString(make([]byte, 13)))
	assert.ErrorIs(t, err, ErrEvidenceSize)

	f, err = svc.UploadEvidenceEncoded(ctx, testServiceID, "m1", domain.EvidenceRecording, "mp3",
		base64.StdEncoding.EncodeToString([]byte("ID3")))
	require.NoError(t, err)
	assert.True(t, f.IsBase64)

	stored, err := svc.GetEvidence(ctx, testServiceID, "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.EvidenceRecording, stored.AgreeType)

	require.NoError(t, svc.DeleteEvidence(ctx, testServiceID, "m1"))
	assert.ErrorIs(t, svc.DeleteEvidence(ctx, testServiceID, "m1"), ErrEvidenceMissing)
	_, err = svc.GetEvidence(ctx, testServiceID, "m1")
	assert.ErrorIs(t, err, ErrEvidenceMissing)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, clk := newTestService(t, Options{})
	activeMember(t, svc, clk, "m1", bankMember())
	_, err := svc.CreatePayment(ctx, testServiceID, "20240105", "0001", payment("m1", domain.ServiceBank))
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Members)
	assert.Equal(t, 1, stats.Payments)
	assert.Equal(t, 0, stats.EvidenceFiles)
	assert.Equal(t, "standard", stats.SettlementMode)
	assert.Equal(t, "20m0s", stats.ProcessingDelay)
}
