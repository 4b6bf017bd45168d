package payments

import (
	"testing"

	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatedesk-backend/pkg/errors"
)

var validBuyer = Buyer{Name: "Layla Haddad", Phone: "0501234567"}

func TestValidateCashOnly(t *testing.T) {
	b, buyer, err := Validate(Input{Methods: []string{"cash"}, CashAmount: "150000"}, validBuyer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Total() != 150000 {
		t.Fatalf("expected total 150000, got %d", b.Total())
	}
	if b.MethodList() != "cash" {
		t.Fatalf("expected method list cash, got %q", b.MethodList())
	}
	if buyer.Name != "Layla Haddad" {
		t.Fatalf("unexpected buyer %+v", buyer)
	}
	cols := b.Columns()
	if cols.CashAmount == nil || *cols.CashAmount != 150000 {
		t.Fatalf("expected cash column set")
	}
	if cols.TransferAmount != nil || cols.TransferBankName != nil || cols.CheckAmount != nil {
		t.Fatalf("unselected method columns must stay nil: %+v", cols)
	}
}

func TestValidateTransferPlusCheck(t *testing.T) {
	b, _, err := Validate(Input{
		Methods:           []string{"certified_check", "transfer"},
		TransferBankName:  "Alpha Bank",
		TransferAmount:    "200000",
		TransferReference: "REF-1",
		CheckBankName:     "Beta Bank",
		CheckNumber:       "CHK-9",
		CheckAmount:       "50000",
	}, validBuyer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Total() != 250000 {
		t.Fatalf("expected total 250000, got %d", b.Total())
	}
	if b.MethodList() != "transfer,certified_check" {
		t.Fatalf("unexpected method list %q", b.MethodList())
	}
	transfer, ok := b.Transfer()
	if !ok || transfer.BankName != "Alpha Bank" || transfer.Reference != "REF-1" {
		t.Fatalf("unexpected transfer %+v", transfer)
	}
	check, ok := b.CertifiedCheck()
	if !ok || check.CheckNumber != "CHK-9" || check.BankName != "Beta Bank" {
		t.Fatalf("unexpected check %+v", check)
	}
	if _, ok := b.Cash(); ok {
		t.Fatalf("cash was not selected")
	}
}

func TestValidateAcceptsCommaSeparatedMethods(t *testing.T) {
	b, _, err := Validate(Input{Methods: []string{"cash, transfer"}, CashAmount: "1", TransferBankName: "X", TransferAmount: "2"}, validBuyer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.Methods(); len(got) != 2 || got[0] != enums.PaymentMethodCash || got[1] != enums.PaymentMethodTransfer {
		t.Fatalf("unexpected methods %v", got)
	}
}

func TestValidateRuleOrder(t *testing.T) {
	tests := []struct {
		name   string
		in     Input
		buyer  Buyer
		reason string
		field  string
	}{
		{
			name:   "nothing selected",
			in:     Input{},
			buyer:  validBuyer,
			reason: ReasonNoPaymentMethodSelected,
			field:  "payment_methods",
		},
		{
			name:   "blank entries only",
			in:     Input{Methods: []string{" ", ","}},
			buyer:  validBuyer,
			reason: ReasonNoPaymentMethodSelected,
			field:  "payment_methods",
		},
		{
			name:   "unknown method",
			in:     Input{Methods: []string{"crypto"}},
			buyer:  validBuyer,
			reason: ReasonUnknownPaymentMethod,
			field:  "payment_methods",
		},
		{
			name:   "cash without amount",
			in:     Input{Methods: []string{"cash"}, CashAmount: "abc"},
			buyer:  validBuyer,
			reason: ReasonMissingCashAmount,
			field:  "cash_amount",
		},
		{
			name:   "cash checked before transfer",
			in:     Input{Methods: []string{"transfer", "cash"}},
			buyer:  validBuyer,
			reason: ReasonMissingCashAmount,
			field:  "cash_amount",
		},
		{
			name:   "transfer without bank",
			in:     Input{Methods: []string{"transfer"}, TransferAmount: "100"},
			buyer:  validBuyer,
			reason: ReasonMissingTransferDetails,
			field:  "transfer_bank_name",
		},
		{
			name:   "transfer without amount",
			in:     Input{Methods: []string{"transfer"}, TransferBankName: "Alpha Bank", TransferAmount: "0"},
			buyer:  validBuyer,
			reason: ReasonMissingTransferDetails,
			field:  "transfer_amount",
		},
		{
			name:   "check without amount",
			in:     Input{Methods: []string{"certified_check"}, CheckNumber: "CHK-1"},
			buyer:  validBuyer,
			reason: ReasonMissingCheckAmount,
			field:  "check_amount",
		},
		{
			name:   "phone too short",
			in:     Input{Methods: []string{"cash"}, CashAmount: "10"},
			buyer:  Buyer{Name: "A", Phone: "12345"},
			reason: ReasonInvalidPhone,
			field:  "buyer_phone",
		},
		{
			name:   "phone with separators",
			in:     Input{Methods: []string{"cash"}, CashAmount: "10"},
			buyer:  Buyer{Name: "A", Phone: "050-123-4567"},
			reason: ReasonInvalidPhone,
			field:  "buyer_phone",
		},
		{
			name:   "payment checked before phone",
			in:     Input{Methods: []string{"cash"}},
			buyer:  Buyer{Name: "A", Phone: "1"},
			reason: ReasonMissingCashAmount,
			field:  "cash_amount",
		},
		{
			name:   "cash above the cap",
			in:     Input{Methods: []string{"cash"}, CashAmount: "1000000000000000001"},
			buyer:  validBuyer,
			reason: ReasonAmountTooLarge,
			field:  "cash_amount",
		},
		{
			name:   "cash overflowing int64 with a transfer",
			in:     Input{Methods: []string{"cash", "transfer"}, CashAmount: "9223372036854775807", TransferBankName: "Alpha", TransferAmount: "1"},
			buyer:  validBuyer,
			reason: ReasonAmountTooLarge,
			field:  "cash_amount",
		},
		{
			name:   "transfer digits beyond int64",
			in:     Input{Methods: []string{"transfer"}, TransferBankName: "Alpha", TransferAmount: "99999999999999999999"},
			buyer:  validBuyer,
			reason: ReasonAmountTooLarge,
			field:  "transfer_amount",
		},
		{
			name:   "check above the cap",
			in:     Input{Methods: []string{"certified_check"}, CheckAmount: "2,000,000,000,000,000"},
			buyer:  validBuyer,
			reason: ReasonAmountTooLarge,
			field:  "check_amount",
		},
		{
			name:   "missing buyer name",
			in:     Input{Methods: []string{"cash"}, CashAmount: "10"},
			buyer:  Buyer{Name: "  "},
			reason: ReasonMissingBuyerName,
			field:  "buyer_name",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Validate(tc.in, tc.buyer)
			if err == nil {
				t.Fatalf("expected %s", tc.reason)
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := pkgerrors.Reason(err); got != tc.reason {
				t.Fatalf("expected reason %s, got %s", tc.reason, got)
			}
			details := typed.Details().(map[string]any)
			if details["field"] != tc.field {
				t.Fatalf("expected field %s, got %v", tc.field, details["field"])
			}
		})
	}
}

func TestValidateOptionalPhone(t *testing.T) {
	_, buyer, err := Validate(Input{Methods: []string{"cash"}, CashAmount: "5"}, Buyer{Name: "Omar"})
	if err != nil {
		t.Fatalf("empty phone should be accepted: %v", err)
	}
	if buyer.Phone != "" {
		t.Fatalf("expected empty phone, got %q", buyer.Phone)
	}
}

func TestParseAmount(t *testing.T) {
	tests := map[string]int64{
		"150000":                     150000,
		"150,000":                    150000,
		"SAR 1 200":                  1200,
		"":                           0,
		"n/a":                        0,
		"-50":                        50,
		"99999999999999999999999999": 0,
	}
	for raw, want := range tests {
		if got := ParseAmount(raw); got != want {
			t.Errorf("ParseAmount(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestTotalMatchesSelectedComponents(t *testing.T) {
	inputs := []Input{
		{Methods: []string{"cash"}, CashAmount: "700"},
		{Methods: []string{"transfer"}, TransferBankName: "B", TransferAmount: "1,250"},
		{Methods: []string{"certified_check"}, CheckAmount: "33"},
		{Methods: []string{"cash", "transfer", "certified_check"}, CashAmount: "1", TransferBankName: "B", TransferAmount: "2", CheckAmount: "3"},
	}
	for _, in := range inputs {
		b, _, err := Validate(in, validBuyer)
		if err != nil {
			t.Fatalf("unexpected error for %+v: %v", in, err)
		}
		var sum int64
		for _, c := range b.Components() {
			sum += c.Total()
		}
		if sum != b.Total() {
			t.Fatalf("total %d differs from component sum %d", b.Total(), sum)
		}
		cols := b.Columns()
		if _, ok := b.Transfer(); ok && (cols.TransferBankName == nil || cols.TransferAmount == nil) {
			t.Fatalf("selected transfer must populate bank and amount columns")
		}
		if _, ok := b.Cash(); ok && cols.CashAmount == nil {
			t.Fatalf("selected cash must populate amount column")
		}
		if _, ok := b.CertifiedCheck(); ok && cols.CheckAmount == nil {
			t.Fatalf("selected check must populate amount column")
		}
	}
}

func TestWithCheckImage(t *testing.T) {
	b, _, err := Validate(Input{Methods: []string{"certified_check"}, CheckAmount: "10"}, validBuyer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated := b.WithCheckImage("https://storage.example/check.png")
	check, _ := updated.CertifiedCheck()
	if check.ImageURL != "https://storage.example/check.png" {
		t.Fatalf("expected image url on copy, got %q", check.ImageURL)
	}
	original, _ := b.CertifiedCheck()
	if original.ImageURL != "" {
		t.Fatalf("original breakdown must not change")
	}

	cashOnly, _, _ := Validate(Input{Methods: []string{"cash"}, CashAmount: "1"}, validBuyer)
	if got := cashOnly.WithCheckImage("x").Columns().CheckImageURL; got != nil {
		t.Fatalf("no check selected, image must stay nil")
	}
}

func TestValidateTotalAtCap(t *testing.T) {
	b, _, err := Validate(Input{
		Methods:          []string{"cash", "transfer", "certified_check"},
		CashAmount:       "1000000000000000",
		TransferBankName: "Alpha Bank",
		TransferAmount:   "1000000000000000",
		CheckAmount:      "1000000000000000",
	}, validBuyer)
	if err != nil {
		t.Fatalf("amounts at the cap should pass: %v", err)
	}
	if b.Total() != 3*MaxAmount {
		t.Fatalf("expected total %d, got %d", 3*MaxAmount, b.Total())
	}
}
