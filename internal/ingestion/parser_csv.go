package ingestion

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paycms/console/internal/domain"
)

// csvColumns maps header names to the record field they fill. Column order
// in the file is free; member_id, member_name and service_cd are mandatory.
var csvColumns = map[string]func(*MemberRecord, string) error{
	"member_id":    func(r *MemberRecord, v string) error { r.MemberID = v; return nil },
	"member_name":  func(r *MemberRecord, v string) error { r.MemberName = v; return nil },
	"bank_cd":      func(r *MemberRecord, v string) error { r.BankCd = v; return nil },
	"account_no":   func(r *MemberRecord, v string) error { r.AccountNo = v; return nil },
	"account_name": func(r *MemberRecord, v string) error { r.AccountName = v; return nil },
	"id_no":        func(r *MemberRecord, v string) error { r.IDNo = v; return nil },
	"hp_no":        func(r *MemberRecord, v string) error { r.HpNo = v; return nil },
	"email":        func(r *MemberRecord, v string) error { r.Email = v; return nil },
	"service_name": func(r *MemberRecord, v string) error { r.ServiceName = v; return nil },
	"card_no":      func(r *MemberRecord, v string) error { r.CardNo = v; return nil },
	"val_yn":       func(r *MemberRecord, v string) error { r.ValYn = v; return nil },
	"cus_off_no":   func(r *MemberRecord, v string) error { r.CusOffNo = v; return nil },
	"user_define":  func(r *MemberRecord, v string) error { r.UserDefine = v; return nil },
	"service_cd": func(r *MemberRecord, v string) error {
		r.ServiceCd = domain.ServiceCode(strings.ToUpper(v))
		return nil
	},
	"cus_type": func(r *MemberRecord, v string) error {
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("cus_type: %w", err)
		}
		r.CusType = domain.CashReceiptType(n)
		return nil
	},
}

// ParseMembersCSV parses a member batch file with a header row, e.g.
//
//	member_id,member_name,service_cd,bank_cd,account_no,account_name,id_no,hp_no
func ParseMembersCSV(data []byte) ([]MemberRecord, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	setters := make([]func(*MemberRecord, string) error, len(header))
	seen := make(map[string]bool)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		setters[i] = csvColumns[name]
		seen[name] = true
	}
	for _, required := range []string{"member_id", "member_name", "service_cd"} {
		if !seen[required] {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var records []MemberRecord
	lineNum := 1
	for {
		lineNum++
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		rec := MemberRecord{Line: lineNum}
		for i, v := range row {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			if err := setters[i](&rec, strings.TrimSpace(v)); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
