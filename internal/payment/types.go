package payment

import "github.com/shopspring/decimal"

// StatusSucceeded is the only payment state that can be refunded.
const StatusSucceeded = "succeeded"

// Payment is a payment intent as reported by the processor.
type Payment struct {
	ID       string
	Status   string
	Amount   decimal.Decimal
	Currency string
}

func (p Payment) Refundable() bool {
	return p.Status == StatusSucceeded
}

type Refund struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentIntent string          `json:"payment_intent,omitempty"`
}

type RefundRequest struct {
	PaymentReference string
	Reason           string
	Metadata         map[string]string
	// IdempotencyKey makes retried refund requests return the first refund.
	IdempotencyKey string
}

// Amounts on the wire are integer minor units.
type wirePayment struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type wireRefund struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	PaymentIntent string `json:"payment_intent"`
}

type wireError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// zeroDecimalCurrencies have no minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"jpy": true, "krw": true, "vnd": true, "clp": true, "pyg": true, "ugx": true,
}

func fromMinorUnits(amount int64, currency string) decimal.Decimal {
	if zeroDecimalCurrencies[currency] {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}
