package ingestion

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paycms/console/internal/domain"
	"github.com/paycms/console/internal/repository"
)

const membersCSV = `member_id,member_name,service_cd,bank_cd,account_no,account_name,id_no,hp_no,card_no,val_yn
m1,Kim Minsu,BANK,004,12345678901234,Kim Minsu,900101,01012345678,,
m2,Lee Jiwoo,card,,,,,01098765432,9410123412341234,2812
m3,Choi Yuna,BANK,999,11112222333344,Choi Yuna,920202,01055556666,,
,No Id,BANK,004,1,x,1,010,,
m4,Han Bora,CARD,,,,,01011112222,,
`

const membersJSON = `{"members": [
	{"memberId": "j1", "memberName": "Park Seoyeon", "serviceCd": "BANK", "bankCd": "088",
	 "accountNo": "11002233445566", "accountName": "Park Seoyeon", "idNo": "880808", "hpNo": "01033334444"},
	{"memberId": "j2", "memberName": "Jung Hoon", "serviceCd": "CARD", "cardNo": "5555444433332222", "valYn": "2701", "hpNo": "01077778888"}
]}`

func newTestService(t *testing.T) (*Service, *repository.MemberRepo) {
	t.Helper()
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "cms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	members := repository.NewMemberRepo(db)
	svc := NewService(repository.NewImportRepo(db), nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC) }
	return svc, members
}

func TestParseMembersCSV(t *testing.T) {
	records, err := ParseMembersCSV([]byte(membersCSV))
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, "m1", records[0].MemberID)
	assert.Equal(t, domain.ServiceBank, records[0].ServiceCd)
	assert.Equal(t, "12345678901234", records[0].AccountNo)
	assert.Equal(t, 2, records[0].Line)

	assert.Equal(t, domain.ServiceCard, records[1].ServiceCd, "service codes are upper-cased")
	assert.Equal(t, "9410123412341234", records[1].CardNo)
}

func TestParseMembersCSVMissingColumn(t *testing.T) {
	_, err := ParseMembersCSV([]byte("member_id,member_name\nm1,Kim\n"))
	assert.ErrorContains(t, err, "service_cd")
}

func TestParseMembersCSVBadCusType(t *testing.T) {
	_, err := ParseMembersCSV([]byte("member_id,member_name,service_cd,cus_type\nm1,Kim,CARD,x\n"))
	assert.ErrorContains(t, err, "line 2: cus_type")
}

func TestParseMembersJSON(t *testing.T) {
	records, err := ParseMembersJSON([]byte(membersJSON))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "j1", records[0].MemberID)
	assert.Equal(t, "088", records[0].BankCd)
	assert.Equal(t, 2, records[1].Line)

	records, err = ParseMembersJSON([]byte(`[{"memberId": "a1", "memberName": "A", "serviceCd": "CARD"}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a1", records[0].MemberID)

	_, err = ParseMembersJSON([]byte(`{"members": [}`))
	assert.Error(t, err)
}

func TestImportCSV(t *testing.T) {
	ctx := context.Background()
	svc, members := newTestService(t)

	res, err := svc.Import(ctx, "svc01", []byte(membersCSV), "csv")
	require.NoError(t, err)
	assert.Equal(t, 2, res.RecordsImported)
	assert.Equal(t, 0, res.DuplicatesSkipped)
	require.Len(t, res.Rejected, 3)
	assert.Equal(t, 4, res.Rejected[0].Line)
	assert.Contains(t, res.Rejected[0].Reason, "bank code")
	assert.Equal(t, "missing memberId", res.Rejected[1].Reason)
	assert.Contains(t, res.Rejected[2].Reason, "cardNo")

	m, err := members.Get(ctx, "svc01", "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberPending, m.Status)
	assert.Equal(t, "20240103", m.RegDt)
	assert.Equal(t, "20240103", m.BankSendDt)

	again, err := svc.Import(ctx, "svc01", []byte(membersCSV), "csv")
	require.NoError(t, err)
	assert.True(t, again.AlreadyImported)
	assert.Zero(t, again.RecordsImported)
}

func TestImportSkipsExistingMembers(t *testing.T) {
	ctx := context.Background()
	svc, members := newTestService(t)

	first, err := svc.Import(ctx, "svc01", []byte(membersJSON), "json")
	require.NoError(t, err)

	// Same members with different formatting hash differently. The clock
	// does not move between the two imports.
	res, err := svc.Import(ctx, "svc01", []byte(membersJSON+"\n"), "JSON")
	require.NoError(t, err)
	assert.NotEqual(t, first.BatchID, res.BatchID)
	assert.Equal(t, 0, res.RecordsImported)
	assert.Equal(t, 2, res.DuplicatesSkipped)

	count, err := members.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestImportErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Import(ctx, "svc01", []byte("x"), "xml")
	assert.ErrorContains(t, err, "unsupported format")

	_, err = svc.Import(ctx, "", []byte(membersJSON), "json")
	assert.Error(t, err)

	_, err = svc.Import(ctx, "svc01", []byte("{"), "json")
	assert.Error(t, err)
}
