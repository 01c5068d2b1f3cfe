package domain

import (
	"strings"
	"time"
)

type MemberStatus int

const (
	MemberPending   MemberStatus = 0
	MemberActive    MemberStatus = 1
	MemberFailed    MemberStatus = 2
	MemberCancelled MemberStatus = 3
)

// CashReceiptType selects how a cash receipt is issued for a member.
type CashReceiptType int

const (
	CashReceiptDeduction CashReceiptType = 1
	CashReceiptProof     CashReceiptType = 2
)

// MemberRequest is the registration (and modification) payload for a member.
type MemberRequest struct {
	MemberName  string          `json:"memberName"`
	ServiceCd   ServiceCode     `json:"serviceCd"`
	BankCd      string          `json:"bankCd,omitempty"`
	AccountNo   string          `json:"accountNo,omitempty"`
	AccountName string          `json:"accountName,omitempty"`
	IDNo        string          `json:"idNo,omitempty"`
	HpNo        string          `json:"hpNo"`
	Email       string          `json:"email,omitempty"`
	ServiceName string          `json:"serviceName,omitempty"`
	CardNo      string          `json:"cardNo,omitempty"`
	ValYn       string          `json:"valYn,omitempty"`
	CusType     CashReceiptType `json:"cusType,omitempty"`
	CusOffNo    string          `json:"cusOffNo,omitempty"`
	UserDefine  string          `json:"userDefine,omitempty"`
}

type Member struct {
	ServiceID     string          `json:"-"`
	MemberID      string          `json:"-"`
	Status        MemberStatus    `json:"status"`
	BankResultMsg string          `json:"bankResultMsg"`
	RegDt         string          `json:"regDt"`
	BankSendDt    string          `json:"bankSendDt"`
	StopDt        string          `json:"stopDt,omitempty"`
	MemberName    string          `json:"memberName"`
	ServiceCd     ServiceCode     `json:"serviceCd"`
	BankCd        string          `json:"bankCd,omitempty"`
	AccountNo     string          `json:"accountNo,omitempty"`
	AccountName   string          `json:"accountName,omitempty"`
	IDNo          string          `json:"idNo,omitempty"`
	HpNo          string          `json:"hpNo"`
	Email         string          `json:"email,omitempty"`
	ServiceName   string          `json:"serviceName,omitempty"`
	CardNo        string          `json:"cardNo,omitempty"`
	ValYn         string          `json:"valYn,omitempty"`
	CusType       CashReceiptType `json:"cusType,omitempty"`
	CusOffNo      string          `json:"cusOffNo,omitempty"`
	UserDefine    string          `json:"userDefine,omitempty"`
	RegisteredAt  time.Time       `json:"-"`
}

// ChangeHistory is one entry of the member change/cancellation feed.
type ChangeHistory struct {
	ServiceID    string `json:"serviceId"`
	Status       string `json:"status"`
	CauseType    string `json:"causeType,omitempty"`
	MemberCd     string `json:"memberCd"`
	OldBankCd    string `json:"oldBankCd"`
	OldAccountNo string `json:"oldAccountNo"`
	NewBankCd    string `json:"newBankCd,omitempty"`
	NewAccountNo string `json:"newAccountNo,omitempty"`
}

// MissingFields lists the required registration fields that are empty for
// the request's service code.
func (r MemberRequest) MissingFields() []string {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("memberName", r.MemberName)
	switch r.ServiceCd {
	case ServiceBank:
		check("bankCd", r.BankCd)
		check("accountNo", r.AccountNo)
		check("accountName", r.AccountName)
		check("idNo", r.IDNo)
	case ServiceCard:
		check("cardNo", r.CardNo)
		check("valYn", r.ValYn)
	default:
		missing = append(missing, "serviceCd")
	}
	return missing
}
