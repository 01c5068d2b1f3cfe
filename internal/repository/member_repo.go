package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paycms/console/internal/domain"
)

type MemberRepo struct {
	db *sql.DB
}

func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

const memberColumns = `service_id, member_id, status, bank_result_msg, reg_dt, bank_send_dt,
	stop_dt, member_name, service_cd, bank_cd, account_no, account_name, id_no, hp_no,
	email, service_name, card_no, val_yn, cus_type, cus_off_no, user_define, registered_at`

func memberArgs(m *domain.Member) []any {
	return []any{
		m.ServiceID, m.MemberID, int(m.Status), m.BankResultMsg, m.RegDt, m.BankSendDt,
		m.StopDt, m.MemberName, string(m.ServiceCd), m.BankCd, m.AccountNo, m.AccountName,
		m.IDNo, m.HpNo, m.Email, m.ServiceName, m.CardNo, m.ValYn, int(m.CusType),
		m.CusOffNo, m.UserDefine, m.RegisteredAt.UTC().Format(time.RFC3339Nano),
	}
}

func (r *MemberRepo) Insert(ctx context.Context, m *domain.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		memberArgs(m)...,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// insertMembers inserts members within tx, skipping ones that already
// exist, and returns the number of new rows.
func insertMembers(ctx context.Context, tx *sql.Tx, members []domain.Member) (int, error) {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO members (`+memberColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range members {
		res, err := stmt.ExecContext(ctx, memberArgs(&members[i])...)
		if err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}
	return inserted, nil
}

func (r *MemberRepo) Get(ctx context.Context, serviceID, memberID string) (*domain.Member, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE service_id = ? AND member_id = ?",
		serviceID, memberID,
	)
	return scanMember(row)
}

// Update overwrites every mutable column of an existing member.
func (r *MemberRepo) Update(ctx context.Context, m *domain.Member) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET status = ?, bank_result_msg = ?, bank_send_dt = ?, stop_dt = ?,
			member_name = ?, hp_no = ?, email = ?, service_name = ?, user_define = ?
		WHERE service_id = ? AND member_id = ?`,
		int(m.Status), m.BankResultMsg, m.BankSendDt, m.StopDt,
		m.MemberName, m.HpNo, m.Email, m.ServiceName, m.UserDefine,
		m.ServiceID, m.MemberID,
	)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MemberRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members").Scan(&count)
	return count, err
}

type MemberFilter struct {
	ServiceID string
	ServiceCd string
	Status    *domain.MemberStatus
	Page
}

func (r *MemberRepo) List(ctx context.Context, f MemberFilter) ([]domain.Member, int, error) {
	var clauses []string
	var args []any
	if f.ServiceID != "" {
		clauses = append(clauses, "service_id = ?")
		args = append(args, f.ServiceID)
	}
	if f.ServiceCd != "" {
		clauses = append(clauses, "service_cd = ?")
		args = append(args, f.ServiceCd)
	}
	if f.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, int(*f.Status))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	limit, offset := f.Page.normalize()
	q := "SELECT " + memberColumns + " FROM members" + where + " ORDER BY registered_at DESC, member_id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		members = append(members, *m)
	}
	return members, total, rows.Err()
}

func scanMember(s scanner) (*domain.Member, error) {
	var m domain.Member
	var status, cusType int
	var serviceCd, registeredAt string

	err := s.Scan(
		&m.ServiceID, &m.MemberID, &status, &m.BankResultMsg, &m.RegDt, &m.BankSendDt,
		&m.StopDt, &m.MemberName, &serviceCd, &m.BankCd, &m.AccountNo, &m.AccountName,
		&m.IDNo, &m.HpNo, &m.Email, &m.ServiceName, &m.CardNo, &m.ValYn, &cusType,
		&m.CusOffNo, &m.UserDefine, &registeredAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	m.Status = domain.MemberStatus(status)
	m.CusType = domain.CashReceiptType(cusType)
	m.ServiceCd = domain.ServiceCode(serviceCd)
	m.RegisteredAt, _ = time.Parse(time.RFC3339Nano, registeredAt)
	return &m, nil
}
