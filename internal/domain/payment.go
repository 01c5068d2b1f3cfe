package domain

import "time"

type PaymentStatus int

const (
	PaymentPending         PaymentStatus = 0
	PaymentSucceeded       PaymentStatus = 1
	PaymentFailed          PaymentStatus = 2
	PaymentCancelRequested PaymentStatus = 3
	PaymentCancelled       PaymentStatus = 4
)

// WorkType distinguishes a withdrawal request from a card approval cancel.
type WorkType string

const (
	WorkWithdrawal WorkType = "N"
	WorkCardCancel WorkType = "C"
)

type DivisionItem struct {
	ItemCd  string `json:"itemCd"`
	DealWon string `json:"dealWon"`
}

// PaymentRequest is the body of a withdrawal registration.
type PaymentRequest struct {
	MemberID    string         `json:"memberId"`
	MemberName  string         `json:"memberName"`
	AccountDesc string         `json:"accountDesc,omitempty"`
	ReqAmt      string         `json:"reqAmt"`
	CashRcpYn   string         `json:"cashRcpYn,omitempty"`
	ServiceCd   ServiceCode    `json:"serviceCd"`
	UserDefine  string         `json:"userDefine,omitempty"`
	WorkType    WorkType       `json:"workType,omitempty"`
	CancelDt    string         `json:"cancelDt,omitempty"`
	DivItemList []DivisionItem `json:"divItemList,omitempty"`
}

type Payment struct {
	ServiceID     string        `json:"-"`
	MemberID      string        `json:"-"`
	SendDt        string        `json:"sendDt"`
	BankResultCd  string        `json:"bankResultCd,omitempty"`
	BankResultMsg string        `json:"bankResultMsg"`
	Status        PaymentStatus `json:"status"`
	MessageNo     string        `json:"messageNo"`
	MemberName    string        `json:"memberName"`
	AccountDesc   string        `json:"accountDesc,omitempty"`
	ReqAmt        string        `json:"reqAmt"`
	CashRcpYn     string        `json:"cashRcpYn"`
	ServiceCd     ServiceCode   `json:"serviceCd"`
	AppDt         string        `json:"appDt,omitempty"`
	AppNo         string        `json:"appNo,omitempty"`
	CancelDt      string        `json:"cancelDt,omitempty"`
	UserDefine    string        `json:"userDefine,omitempty"`
	Fee           string        `json:"fee,omitempty"`
	RegisteredAt  time.Time     `json:"-"`
}

// SettlementStatus is the provider-side settlement state of a send date.
type SettlementStatus int

const (
	SettlementPending        SettlementStatus = 0
	SettlementCompleted      SettlementStatus = 1
	SettlementBusinessClosed SettlementStatus = 6
	SettlementPaymentHalted  SettlementStatus = 7
	SettlementLimitExceeded  SettlementStatus = 8
	SettlementFeeUnsettled   SettlementStatus = 9
)
