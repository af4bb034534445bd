package domain

import "time"

// PaymentStatus is the client-side state of one mobile-money payment attempt.
type PaymentStatus string

const (
	PaymentIdle    PaymentStatus = "idle"
	PaymentPending PaymentStatus = "pending"
	PaymentPolling PaymentStatus = "polling"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Terminal reports whether no further automatic transition occurs from s.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// PaymentAttempt is one journaled mobile-money charge. The gateway reference
// is opaque; Status tracks the attempt as last observed by this client. An
// attempt that timed out client-side stays unresolved: the charge is approved
// out-of-band and may still complete server-side.
type PaymentAttempt struct {
	ID          string
	OrderID     string
	PhoneNumber string
	Reference   string
	Amount      float64
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentInitiation is the server response to a pay request.
type PaymentInitiation struct {
	PaymentID string  `json:"paymentId"`
	Reference string  `json:"paypackRef"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	Message   string  `json:"message"`
}

// Gateway-reported terminal statuses for a poll tick.
const (
	GatewayStatusSuccessful = "successful"
	GatewayStatusFailed     = "failed"
)
