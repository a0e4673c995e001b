package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodMobileWallet PaymentMethod = "mobile_wallet"
	MethodCard         PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodMobileWallet, MethodCard:
		return true
	}
	return false
}

type PaymentState string

const (
	PaymentComplete PaymentState = "COMPLETE"
	PaymentPartial  PaymentState = "PARTIAL"
	PaymentPending  PaymentState = "PENDING"
)

// maxAmount is the largest value numeric(10,2) can hold.
var maxAmount = decimal.RequireFromString("99999999.99")

type Payment struct {
	AppointmentID uuid.UUID
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	Method        PaymentMethod
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PaymentStatus struct {
	BalanceDue decimal.Decimal
	State      PaymentState
}

// BalanceDue is negative when the patient overpaid.
func BalanceDue(total, paid decimal.Decimal) decimal.Decimal {
	return total.Sub(paid)
}

// ClassifyPayment checks the balance before the paid amount, so a zero
// charge with nothing paid is COMPLETE.
func ClassifyPayment(total, paid decimal.Decimal) PaymentState {
	if BalanceDue(total, paid).LessThanOrEqual(decimal.Zero) {
		return PaymentComplete
	}
	if paid.GreaterThan(decimal.Zero) {
		return PaymentPartial
	}
	return PaymentPending
}

func (p Payment) BalanceDue() decimal.Decimal {
	return BalanceDue(p.TotalAmount, p.PaidAmount)
}

func (p Payment) State() PaymentState {
	return ClassifyPayment(p.TotalAmount, p.PaidAmount)
}

func (p Payment) Status() PaymentStatus {
	return PaymentStatus{BalanceDue: p.BalanceDue(), State: p.State()}
}

// validAmount accepts non-negative amounts with at most two decimals that fit
// the storage column.
func validAmount(d decimal.Decimal) bool {
	if d.IsNegative() || d.GreaterThan(maxAmount) {
		return false
	}
	return d.Equal(d.Round(2))
}
