package domain

import "fmt"

// ServiceCode identifies the payment method a member or withdrawal uses.
type ServiceCode string

const (
	ServiceBank ServiceCode = "BANK"
	ServiceCard ServiceCode = "CARD"
)

// Valid reports whether c is one of the known service codes.
func (c ServiceCode) Valid() bool {
	return c == ServiceBank || c == ServiceCard
}

// ParseServiceCode converts raw request input into a ServiceCode.
func ParseServiceCode(s string) (ServiceCode, error) {
	c := ServiceCode(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown service code: %q", s)
	}
	return c, nil
}

// BankCodes maps the three-digit bank codes accepted for BANK members to the
// institution name.
var BankCodes = map[string]string{
	"002": "KDB Industrial Bank",
	"003": "IBK Industrial Bank",
	"004": "KB Kookmin Bank",
	"005": "KEB",
	"007": "Suhyup",
	"011": "NongHyup",
	"020": "Woori Bank",
	"023": "SC First Bank",
	"027": "Citibank Korea",
	"031": "Daegu Bank",
	"032": "Busan Bank",
	"034": "Gwangju Bank",
	"035": "Jeju Bank",
	"037": "Jeonbuk Bank",
	"039": "Kyongnam Bank",
	"045": "MG Saemaul",
	"048": "Shinhyup",
	"071": "Korea Post",
	"081": "Hana Bank",
	"088": "Shinhan Bank",
	"089": "K Bank",
	"090": "Kakao Bank",
	"092": "Toss Bank",
}
