package entity

import "github.com/uptrace/bun"

// Payment methods.
const (
	PaymentMethodCreditCard     = "credit_card"
	PaymentMethodDebitCard      = "debit_card"
	PaymentMethodPaypal         = "paypal"
	PaymentMethodBankTransfer   = "bank_transfer"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

// PaymentMethods lists every payment method in draw order.
var PaymentMethods = []string{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodPaypal,
	PaymentMethodBankTransfer,
	PaymentMethodCashOnDelivery,
}

// Payment statuses.
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// PaymentStatuses lists every payment status in draw order.
var PaymentStatuses = []string{
	PaymentStatusCompleted,
	PaymentStatusPending,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

// Payment settles exactly one order; ID equals OrderID.
type Payment struct {
	bun.BaseModel `bun:"table:payments" csv:"-"`

	ID      int64     `bun:"payment_id,pk" csv:"payment_id"`
	OrderID int64     `bun:"order_id" csv:"order_id"`
	PaidAt  Timestamp `bun:"paid_at" csv:"paid_at"`
	Amount  Money     `bun:"amount" csv:"amount"`
	Method  string    `bun:"method" csv:"method"`
	Status  string    `bun:"status" csv:"status"`
	TxnID   string    `bun:"txn_id" csv:"txn_id"`
}
