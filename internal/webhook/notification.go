package webhook

import (
	"encoding/json"
	"time"
)

type Kind int

const (
	KindUnrecognized Kind = iota
	KindPaid
	KindFailed
	KindCancelled
	KindPartialCancelled
	KindInitiated
)

func (k Kind) String() string {
	switch k {
	case KindPaid:
		return "paid"
	case KindFailed:
		return "failed"
	case KindCancelled:
		return "cancelled"
	case KindPartialCancelled:
		return "partial_cancelled"
	case KindInitiated:
		return "initiated"
	default:
		return "unrecognized"
	}
}

var kindByType = map[string]Kind{
	"Transaction.Paid":                 KindPaid,
	"Transaction.Failed":               KindFailed,
	"Transaction.Cancelled":            KindCancelled,
	"Transaction.PartialCancelled":     KindPartialCancelled,
	"Transaction.Ready":                KindInitiated,
	"Transaction.PayPending":           KindInitiated,
	"Transaction.VirtualAccountIssued": KindInitiated,
	"Transaction.CancelPending":        KindInitiated,
}

// Notification is a decoded delivery. Downstream code switches on Kind and
// never looks at the raw payload again.
type Notification struct {
	Kind          Kind
	Type          string
	PaymentID     string
	StoreID       string
	TransactionID string
	OccurredAt    time.Time
}

func (n Notification) HasPayment() bool { return n.PaymentID != "" }

type payload struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		PaymentID     string `json:"paymentId"`
		StoreID       string `json:"storeId"`
		TransactionID string `json:"transactionId"`
	} `json:"data"`
}

// Decode parses a provider payload. Bodies that are not JSON, or whose type is
// unknown, decode to KindUnrecognized; a payment id is kept when present.
func Decode(body []byte) Notification {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Notification{Kind: KindUnrecognized}
	}

	n := Notification{
		Kind:          kindByType[p.Type],
		Type:          p.Type,
		PaymentID:     p.Data.PaymentID,
		StoreID:       p.Data.StoreID,
		TransactionID: p.Data.TransactionID,
	}
	if ts, err := time.Parse(time.RFC3339Nano, p.Timestamp); err == nil {
		n.OccurredAt = ts
	}
	return n
}
