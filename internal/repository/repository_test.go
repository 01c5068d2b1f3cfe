package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paycms/console/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "cms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testMember(id string, svc domain.ServiceCode) domain.Member {
	return domain.Member{
		ServiceID:    "svc01",
		MemberID:     id,
		Status:       domain.MemberPending,
		RegDt:        "20240102",
		BankSendDt:   "20240102",
		MemberName:   "Kim Minsu",
		ServiceCd:    svc,
		BankCd:       "004",
		AccountNo:    "12345678901234",
		AccountName:  "Kim Minsu",
		IDNo:         "900101",
		HpNo:         "01012345678",
		CusType:      domain.CashReceiptDeduction,
		RegisteredAt: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestInitDBIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cms.db")
	db, err := InitDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = InitDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestMemberRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemberRepo(openTestDB(t))

	m := testMember("m1", domain.ServiceBank)
	require.NoError(t, repo.Insert(ctx, &m))
	assert.Error(t, repo.Insert(ctx, &m), "primary key must reject duplicates")

	got, err := repo.Get(ctx, "svc01", "m1")
	require.NoError(t, err)
	assert.Equal(t, m, *got)

	_, err = repo.Get(ctx, "svc01", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(ctx, "other", "m1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemberRepoUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemberRepo(openTestDB(t))

	m := testMember("m1", domain.ServiceBank)
	require.NoError(t, repo.Insert(ctx, &m))

	m.Status = domain.MemberCancelled
	m.StopDt = "20240105"
	m.Email = "kim@example.com"
	m.AccountNo = "99999999999999"
	require.NoError(t, repo.Update(ctx, &m))

	got, err := repo.Get(ctx, "svc01", "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberCancelled, got.Status)
	assert.Equal(t, "20240105", got.StopDt)
	assert.Equal(t, "kim@example.com", got.Email)
	assert.Equal(t, "12345678901234", got.AccountNo, "account number is not mutable")

	missing := testMember("nope", domain.ServiceBank)
	assert.ErrorIs(t, repo.Update(ctx, &missing), ErrNotFound)
}

func TestImportMembersAndList(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewMemberRepo(db)
	imports := NewImportRepo(db)
	batch := func(hash string) *ImportBatch {
		return &ImportBatch{ID: "IMP-" + hash, ServiceID: "svc01", Format: "json", FileHash: hash, ImportedAt: time.Now()}
	}

	members := []domain.Member{
		testMember("m1", domain.ServiceBank),
		testMember("m2", domain.ServiceCard),
		testMember("m3", domain.ServiceBank),
	}
	members[2].Status = domain.MemberActive

	n, err := imports.ImportMembers(ctx, batch("h1"), members)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = imports.ImportMembers(ctx, batch("h2"), members[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, n, "existing members are skipped")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	list, total, err := repo.List(ctx, MemberFilter{ServiceCd: "BANK"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	active := domain.MemberActive
	list, total, err = repo.List(ctx, MemberFilter{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "m3", list[0].MemberID)

	list, total, err = repo.List(ctx, MemberFilter{Page: Page{Page: 2, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 1)
}

func testPayment(messageNo string) domain.Payment {
	return domain.Payment{
		ServiceID:     "svc01",
		MemberID:      "m1",
		SendDt:        "20240103",
		MessageNo:     messageNo,
		BankResultMsg: "pending",
		Status:        domain.PaymentPending,
		MemberName:    "Kim Minsu",
		ReqAmt:        "50000",
		CashRcpYn:     "Y",
		ServiceCd:     domain.ServiceBank,
		RegisteredAt:  time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestPaymentRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepo(openTestDB(t))

	p := testPayment("0001")
	require.NoError(t, repo.Insert(ctx, &p))
	assert.Error(t, repo.Insert(ctx, &p))

	got, err := repo.Get(ctx, "svc01", "20240103", "0001")
	require.NoError(t, err)
	assert.Equal(t, p, *got)

	p.Status = domain.PaymentSucceeded
	p.BankResultCd = "0000"
	p.Fee = "500"
	require.NoError(t, repo.Update(ctx, &p))

	got, err = repo.Get(ctx, "svc01", "20240103", "0001")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, got.Status)
	assert.Equal(t, "500", got.Fee)

	require.NoError(t, repo.Delete(ctx, "svc01", "20240103", "0001"))
	assert.ErrorIs(t, repo.Delete(ctx, "svc01", "20240103", "0001"), ErrNotFound)
	_, err = repo.Get(ctx, "svc01", "20240103", "0001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentRepoList(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepo(openTestDB(t))

	for _, no := range []string{"0001", "0002", "0003"} {
		p := testPayment(no)
		require.NoError(t, repo.Insert(ctx, &p))
	}
	other := testPayment("0001")
	other.SendDt = "20240104"
	other.MemberID = "m2"
	require.NoError(t, repo.Insert(ctx, &other))

	list, total, err := repo.List(ctx, PaymentFilter{SendDt: "20240103"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, "0001", list[0].MessageNo)

	list, total, err = repo.List(ctx, PaymentFilter{MemberID: "m2"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "20240104", list[0].SendDt)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestEvidenceRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewEvidenceRepo(openTestDB(t))

	f := domain.EvidenceFile{
		ID:         "ev-1",
		ServiceID:  "svc01",
		MemberID:   "m1",
		AgreeType:  domain.EvidenceWritten,
		FileExt:    "pdf",
		Size:       1024,
		UploadedAt: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(ctx, &f))

	f.ID = "ev-2"
	f.AgreeType = domain.EvidenceRecording
	f.FileExt = "mp3"
	f.IsBase64 = true
	require.NoError(t, repo.Upsert(ctx, &f))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "a member keeps a single evidence file")

	got, err := repo.Get(ctx, "svc01", "m1")
	require.NoError(t, err)
	assert.Equal(t, f, *got)

	deleted, err := repo.Delete(ctx, "svc01", "m1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "svc01", "m1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.Get(ctx, "svc01", "m1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentRepoListBySendDate(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepo(openTestDB(t))

	for _, no := range []string{"0002", "0001"} {
		p := testPayment(no)
		require.NoError(t, repo.Insert(ctx, &p))
	}
	other := testPayment("0003")
	other.ServiceID = "svc02"
	require.NoError(t, repo.Insert(ctx, &other))

	list, err := repo.ListBySendDate(ctx, "svc01", "20240103")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "0001", list[0].MessageNo)

	list, err = repo.ListBySendDate(ctx, "svc01", "20240104")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestImportRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewImportRepo(openTestDB(t))

	exists, err := repo.ExistsByHash(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, exists)

	b := &ImportBatch{
		ID:          "IMP-1",
		ServiceID:   "svc01",
		Format:      "csv",
		FileHash:    "abc",
		RecordCount: 3,
		ImportedAt:  time.Now(),
	}
	n, err := repo.ImportMembers(ctx, b, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	exists, err = repo.ExistsByHash(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, exists)

	b.ID = "IMP-2"
	_, err = repo.ImportMembers(ctx, b, nil)
	assert.Error(t, err, "hash must be unique")
}

func TestImportRepoImportMembersIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	imports := NewImportRepo(db)
	members := NewMemberRepo(db)
	at := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)

	batch := &ImportBatch{ID: "IMP-1", ServiceID: "svc01", Format: "csv", FileHash: "h1", RecordCount: 1, ImportedAt: at}
	n, err := imports.ImportMembers(ctx, batch, []domain.Member{testMember("m1", domain.ServiceBank)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	exists, err := imports.ExistsByHash(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, exists)

	// A batch that cannot be recorded leaves no members behind.
	dup := &ImportBatch{ID: "IMP-1", ServiceID: "svc01", Format: "csv", FileHash: "h2", RecordCount: 1, ImportedAt: at}
	_, err = imports.ImportMembers(ctx, dup, []domain.Member{testMember("m2", domain.ServiceCard)})
	require.Error(t, err)

	_, err = members.Get(ctx, "svc01", "m2")
	assert.ErrorIs(t, err, ErrNotFound)
	count, err := members.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(openTestDB(t))
	at := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)

	alice := &domain.User{ID: "u1", Email: "alice@example.com", Name: "Alice", CreatedAt: at, UpdatedAt: at}
	bob := &domain.User{ID: "u2", Email: "bob@example.com", CreatedAt: at.Add(time.Second), UpdatedAt: at.Add(time.Second)}
	require.NoError(t, repo.Insert(ctx, alice))
	require.NoError(t, repo.Insert(ctx, bob))

	err := repo.Insert(ctx, &domain.User{ID: "u3", Email: "alice@example.com", CreatedAt: at, UpdatedAt: at})
	assert.ErrorIs(t, err, ErrDuplicate)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u2", users[0].ID, "newest first")
	assert.Equal(t, at, users[1].CreatedAt)

	bob.Email = "alice@example.com"
	assert.ErrorIs(t, repo.Update(ctx, bob), ErrDuplicate)

	bob.Email = "robert@example.com"
	bob.Name = "Robert"
	require.NoError(t, repo.Update(ctx, bob))
	got, err := repo.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "robert@example.com", got.Email)
	assert.Equal(t, "Robert", got.Name)

	assert.ErrorIs(t, repo.Update(ctx, &domain.User{ID: "nope", Email: "x@example.com"}), ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.ErrorIs(t, repo.Delete(ctx, "u1"), ErrNotFound)
	_, err = repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}
