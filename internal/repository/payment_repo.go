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

type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

const paymentColumns = `service_id, send_dt, message_no, member_id, bank_result_cd, bank_result_msg,
	status, member_name, account_desc, req_amt, cash_rcp_yn, service_cd, app_dt, app_no,
	cancel_dt, user_define, fee, registered_at`

func (r *PaymentRepo) Insert(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ServiceID, p.SendDt, p.MessageNo, p.MemberID, p.BankResultCd, p.BankResultMsg,
		int(p.Status), p.MemberName, p.AccountDesc, p.ReqAmt, p.CashRcpYn, string(p.ServiceCd),
		p.AppDt, p.AppNo, p.CancelDt, p.UserDefine, p.Fee,
		p.RegisteredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) Get(ctx context.Context, serviceID, sendDt, messageNo string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE service_id = ? AND send_dt = ? AND message_no = ?",
		serviceID, sendDt, messageNo,
	)
	return scanPayment(row)
}

// Update persists the processing outcome of a payment.
func (r *PaymentRepo) Update(ctx context.Context, p *domain.Payment) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, bank_result_cd = ?, bank_result_msg = ?,
			app_dt = ?, app_no = ?, cancel_dt = ?, fee = ?
		WHERE service_id = ? AND send_dt = ? AND message_no = ?`,
		int(p.Status), p.BankResultCd, p.BankResultMsg, p.AppDt, p.AppNo, p.CancelDt, p.Fee,
		p.ServiceID, p.SendDt, p.MessageNo,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PaymentRepo) Delete(ctx context.Context, serviceID, sendDt, messageNo string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM payments WHERE service_id = ? AND send_dt = ? AND message_no = ?",
		serviceID, sendDt, messageNo,
	)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PaymentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payments").Scan(&count)
	return count, err
}

// ListBySendDate returns every withdrawal of a service for one send date.
func (r *PaymentRepo) ListBySendDate(ctx context.Context, serviceID, sendDt string) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE service_id = ? AND send_dt = ? ORDER BY message_no",
		serviceID, sendDt,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

type PaymentFilter struct {
	ServiceID string
	MemberID  string
	SendDt    string
	Status    *domain.PaymentStatus
	Page
}

func (r *PaymentRepo) List(ctx context.Context, f PaymentFilter) ([]domain.Payment, int, error) {
	var clauses []string
	var args []any
	if f.ServiceID != "" {
		clauses = append(clauses, "service_id = ?")
		args = append(args, f.ServiceID)
	}
	if f.MemberID != "" {
		clauses = append(clauses, "member_id = ?")
		args = append(args, f.MemberID)
	}
	if f.SendDt != "" {
		clauses = append(clauses, "send_dt = ?")
		args = append(args, f.SendDt)
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
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payments"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	limit, offset := f.Page.normalize()
	q := "SELECT " + paymentColumns + " FROM payments" + where + " ORDER BY send_dt DESC, message_no LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, total, rows.Err()
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	var status int
	var serviceCd, registeredAt string

	err := s.Scan(
		&p.ServiceID, &p.SendDt, &p.MessageNo, &p.MemberID, &p.BankResultCd, &p.BankResultMsg,
		&status, &p.MemberName, &p.AccountDesc, &p.ReqAmt, &p.CashRcpYn, &serviceCd,
		&p.AppDt, &p.AppNo, &p.CancelDt, &p.UserDefine, &p.Fee, &registeredAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Status = domain.PaymentStatus(status)
	p.ServiceCd = domain.ServiceCode(serviceCd)
	p.RegisteredAt, _ = time.Parse(time.RFC3339Nano, registeredAt)
	return &p, nil
}
