package payments

import (
	"strings"

	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// Component is one selected payment method with its amount.
type Component interface {
	Method() enums.PaymentMethod
	Total() int64
}

type Cash struct {
	Amount int64
}

type Transfer struct {
	Amount    int64
	BankName  string
	Reference string
}

type CertifiedCheck struct {
	Amount      int64
	BankName    string
	CheckNumber string
	ImageURL    string
}

func (c Cash) Method() enums.PaymentMethod { return enums.PaymentMethodCash }
func (c Cash) Total() int64                { return c.Amount }

func (t Transfer) Method() enums.PaymentMethod { return enums.PaymentMethodTransfer }
func (t Transfer) Total() int64                { return t.Amount }

func (c CertifiedCheck) Method() enums.PaymentMethod { return enums.PaymentMethodCertifiedCheck }
func (c CertifiedCheck) Total() int64                { return c.Amount }

// Breakdown is a validated, non-empty set of payment components with at most one
// component per method. Build it through Validate.
type Breakdown struct {
	cash     *Cash
	transfer *Transfer
	check    *CertifiedCheck
}

// Components returns the selected components in cash, transfer, certified check order.
func (b Breakdown) Components() []Component {
	out := make([]Component, 0, 3)
	if b.cash != nil {
		out = append(out, *b.cash)
	}
	if b.transfer != nil {
		out = append(out, *b.transfer)
	}
	if b.check != nil {
		out = append(out, *b.check)
	}
	return out
}

// Total is the sale price: the sum of every selected component. Validate
// caps each component at MaxAmount, so the sum cannot overflow.
func (b Breakdown) Total() int64 {
	var sum int64
	for _, c := range b.Components() {
		sum += c.Total()
	}
	return sum
}

// Methods returns the selected methods in canonical order.
func (b Breakdown) Methods() []enums.PaymentMethod {
	comps := b.Components()
	out := make([]enums.PaymentMethod, 0, len(comps))
	for _, c := range comps {
		out = append(out, c.Method())
	}
	return out
}

// MethodList is the comma-joined method set stored on units and sales.
func (b Breakdown) MethodList() string {
	methods := b.Methods()
	parts := make([]string, 0, len(methods))
	for _, m := range methods {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, ",")
}

func (b Breakdown) IsEmpty() bool {
	return b.cash == nil && b.transfer == nil && b.check == nil
}

func (b Breakdown) Cash() (Cash, bool) {
	if b.cash == nil {
		return Cash{}, false
	}
	return *b.cash, true
}

func (b Breakdown) Transfer() (Transfer, bool) {
	if b.transfer == nil {
		return Transfer{}, false
	}
	return *b.transfer, true
}

func (b Breakdown) CertifiedCheck() (CertifiedCheck, bool) {
	if b.check == nil {
		return CertifiedCheck{}, false
	}
	return *b.check, true
}

// WithCheckImage returns a copy whose certified check component points at url.
// It is a no-op when no check was selected.
func (b Breakdown) WithCheckImage(url string) Breakdown {
	if b.check == nil {
		return b
	}
	check := *b.check
	check.ImageURL = url
	b.check = &check
	return b
}

// Columns flattens the breakdown into nullable per-method columns. Columns of
// methods that were not selected stay nil.
type Columns struct {
	Methods           string
	CashAmount        *int64
	TransferBankName  *string
	TransferAmount    *int64
	TransferReference *string
	CheckBankName     *string
	CheckNumber       *string
	CheckAmount       *int64
	CheckImageURL     *string
}

func (b Breakdown) Columns() Columns {
	cols := Columns{Methods: b.MethodList()}
	if b.cash != nil {
		cols.CashAmount = int64Ptr(b.cash.Amount)
	}
	if b.transfer != nil {
		cols.TransferBankName = stringPtr(b.transfer.BankName)
		cols.TransferAmount = int64Ptr(b.transfer.Amount)
		cols.TransferReference = optionalString(b.transfer.Reference)
	}
	if b.check != nil {
		cols.CheckBankName = optionalString(b.check.BankName)
		cols.CheckNumber = optionalString(b.check.CheckNumber)
		cols.CheckAmount = int64Ptr(b.check.Amount)
		cols.CheckImageURL = optionalString(b.check.ImageURL)
	}
	return cols
}

func int64Ptr(v int64) *int64 {
	return &v
}

func stringPtr(v string) *string {
	return &v
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
