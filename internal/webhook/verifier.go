// Package webhook authenticates payment provider deliveries and decodes them
// into a closed set of notification kinds.
//
// Deliveries follow the Standard Webhooks binding: the signed content is
// "<webhook-id>.<webhook-timestamp>.<body>", authenticated with HMAC-SHA256.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderID        = "webhook-id"
	HeaderSignature = "webhook-signature"
	HeaderTimestamp = "webhook-timestamp"

	DefaultTolerance = 5 * time.Minute

	secretPrefix     = "whsec_"
	signatureVersion = "v1"
)

var (
	ErrMissingHeaders   = errors.New("missing webhook-id, webhook-signature or webhook-timestamp")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Delivery is one inbound notification as it arrived on the wire.
type Delivery struct {
	ID        string
	Signature string
	Timestamp string
	Body      []byte
}

type Verifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier builds a verifier for the given endpoint secret. A "whsec_"
// prefixed secret is base64-decoded; anything that is not valid base64 is used
// as raw key bytes.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{key: decodeSecret(secret), tolerance: tolerance, now: time.Now}
}

// WithClock replaces the verifier clock. Used by tests.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

func decodeSecret(secret string) []byte {
	trimmed := strings.TrimPrefix(secret, secretPrefix)
	if key, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(key) > 0 {
		return key
	}
	return []byte(trimmed)
}

// Verify checks the timestamp binding and signature of d and, on success,
// decodes the body. It has no side effects.
func (v *Verifier) Verify(d Delivery) (Notification, error) {
	if d.ID == "" || d.Signature == "" || d.Timestamp == "" {
		return Notification{}, ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(d.Timestamp, 10, 64)
	if err != nil {
		return Notification{}, ErrStaleTimestamp
	}
	skew := v.now().Unix() - ts
	if math.Abs(float64(skew)) > v.tolerance.Seconds() {
		return Notification{}, ErrStaleTimestamp
	}

	expected := v.Sign(d.ID, d.Timestamp, d.Body)
	if !matchesAny(d.Signature, expected) {
		return Notification{}, ErrInvalidSignature
	}

	return Decode(d.Body), nil
}

// Sign returns the base64 signature for the given delivery parts, without the
// version prefix.
func (v *Verifier) Sign(id, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(id))
	mac.Write([]byte{'.'})
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// matchesAny scans a space separated "v1,<sig> v1,<sig>" header.
func matchesAny(header, expected string) bool {
	for _, part := range strings.Fields(header) {
		version, sig, ok := strings.Cut(part, ",")
		if !ok || version != signatureVersion {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return true
		}
	}
	return false
}
