package enums

import "fmt"

// DepositSettlement records how a reservation deposit is reconciled at sale time.
type DepositSettlement string

const (
	DepositSettlementIncluded DepositSettlement = "included"
	DepositSettlementRefund   DepositSettlement = "refund"
)

var validDepositSettlements = []DepositSettlement{
	DepositSettlementIncluded,
	DepositSettlementRefund,
}

// String implements fmt.Stringer.
func (d DepositSettlement) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DepositSettlement.
func (d DepositSettlement) IsValid() bool {
	for _, candidate := range validDepositSettlements {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDepositSettlement converts raw input into a DepositSettlement.
func ParseDepositSettlement(value string) (DepositSettlement, error) {
	for _, candidate := range validDepositSettlements {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deposit settlement %q", value)
}
