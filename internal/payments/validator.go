package payments

import (
	"strconv"
	"strings"

	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatedesk-backend/pkg/errors"
)

const (
	ReasonNoPaymentMethodSelected = "NoPaymentMethodSelected"
	ReasonUnknownPaymentMethod    = "UnknownPaymentMethod"
	ReasonMissingCashAmount       = "MissingCashAmount"
	ReasonMissingTransferDetails  = "MissingTransferDetails"
	ReasonMissingCheckAmount      = "MissingCheckAmount"
	ReasonMissingBuyerName        = "MissingBuyerName"
	ReasonInvalidPhone            = "InvalidPhone"
	ReasonAmountTooLarge          = "AmountTooLarge"
)

const phoneDigits = 10

// MaxAmount bounds every single payment amount. Three components at the cap
// still sum well inside int64.
const MaxAmount int64 = 1_000_000_000_000_000

// Input is the raw payment section of the sale form. Amounts arrive as free text.
type Input struct {
	Methods           []string
	CashAmount        string
	TransferBankName  string
	TransferAmount    string
	TransferReference string
	CheckBankName     string
	CheckNumber       string
	CheckAmount       string
}

// Buyer holds the new owner's contact details.
type Buyer struct {
	Name  string
	Phone string
}

// Validate checks the payment section and buyer details and returns the normalized
// breakdown. Rules run in a fixed order and the first failure wins.
func Validate(in Input, buyer Buyer) (Breakdown, Buyer, error) {
	selected, err := selectedMethods(in.Methods)
	if err != nil {
		return Breakdown{}, Buyer{}, err
	}

	var b Breakdown
	if selected[enums.PaymentMethodCash] {
		amount, err := requireAmount(in.CashAmount, ReasonMissingCashAmount, "cash_amount", "cash amount is required")
		if err != nil {
			return Breakdown{}, Buyer{}, err
		}
		b.cash = &Cash{Amount: amount}
	}
	if selected[enums.PaymentMethodTransfer] {
		const msg = "transfer bank name and amount are required"
		bank := strings.TrimSpace(in.TransferBankName)
		if bank == "" {
			return Breakdown{}, Buyer{}, pkgerrors.Invalid(ReasonMissingTransferDetails, "transfer_bank_name", msg)
		}
		amount, err := requireAmount(in.TransferAmount, ReasonMissingTransferDetails, "transfer_amount", msg)
		if err != nil {
			return Breakdown{}, Buyer{}, err
		}
		b.transfer = &Transfer{
			Amount:    amount,
			BankName:  bank,
			Reference: strings.TrimSpace(in.TransferReference),
		}
	}
	if selected[enums.PaymentMethodCertifiedCheck] {
		amount, err := requireAmount(in.CheckAmount, ReasonMissingCheckAmount, "check_amount", "certified check amount is required")
		if err != nil {
			return Breakdown{}, Buyer{}, err
		}
		b.check = &CertifiedCheck{
			Amount:      amount,
			BankName:    strings.TrimSpace(in.CheckBankName),
			CheckNumber: strings.TrimSpace(in.CheckNumber),
		}
	}

	normalized, err := validateBuyer(buyer)
	if err != nil {
		return Breakdown{}, Buyer{}, err
	}
	return b, normalized, nil
}

func selectedMethods(raw []string) (map[enums.PaymentMethod]bool, error) {
	selected := make(map[enums.PaymentMethod]bool, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" {
				continue
			}
			method, err := enums.ParsePaymentMethod(name)
			if err != nil {
				return nil, pkgerrors.Invalid(ReasonUnknownPaymentMethod, "payment_methods", "unknown payment method "+strconv.Quote(name))
			}
			selected[method] = true
		}
	}
	if len(selected) == 0 {
		return nil, pkgerrors.Invalid(ReasonNoPaymentMethodSelected, "payment_methods", "select at least one payment method")
	}
	return selected, nil
}

func validateBuyer(buyer Buyer) (Buyer, error) {
	phone := strings.TrimSpace(buyer.Phone)
	if phone != "" && !isPhone(phone) {
		return Buyer{}, pkgerrors.Invalid(ReasonInvalidPhone, "buyer_phone", "buyer phone must be exactly 10 digits")
	}
	name := strings.TrimSpace(buyer.Name)
	if name == "" {
		return Buyer{}, pkgerrors.Invalid(ReasonMissingBuyerName, "buyer_name", "buyer name is required")
	}
	return Buyer{Name: name, Phone: phone}, nil
}

func isPhone(value string) bool {
	if len(value) != phoneDigits {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// requireAmount parses a selected method's amount. Zero or missing input
// fails with the method's reason; anything above MaxAmount fails with
// ReasonAmountTooLarge on the same field.
func requireAmount(raw, reason, field, msg string) (int64, error) {
	amount, ok := parseDigits(raw)
	if !ok || amount > MaxAmount {
		return 0, pkgerrors.Invalid(ReasonAmountTooLarge, field, "amount is too large")
	}
	if amount <= 0 {
		return 0, pkgerrors.Invalid(reason, field, msg)
	}
	return amount, nil
}

// ParseAmount drops every non-digit character and parses what is left.
// Empty or overflowing input yields 0.
func ParseAmount(raw string) int64 {
	amount, ok := parseDigits(raw)
	if !ok {
		return 0
	}
	return amount
}

// parseDigits reports false only when the digits overflow int64.
func parseDigits(raw string) (int64, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return 0, true
	}
	amount, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}
