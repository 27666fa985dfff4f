package enums

import "fmt"

// BalanceType marks which side of the ledger a balance sits on. A debit
// balance means the client owes the business.
type BalanceType string

const (
	BalanceTypeDebit  BalanceType = "debit"
	BalanceTypeCredit BalanceType = "credit"
)

var validBalanceTypes = []BalanceType{
	BalanceTypeDebit,
	BalanceTypeCredit,
}

// String implements fmt.Stringer.
func (b BalanceType) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BalanceType.
func (b BalanceType) IsValid() bool {
	for _, candidate := range validBalanceTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBalanceType converts raw input into a BalanceType.
func ParseBalanceType(value string) (BalanceType, error) {
	for _, candidate := range validBalanceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid balance type %q", value)
}
