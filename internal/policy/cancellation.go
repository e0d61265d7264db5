// Package policy computes cancellation deadlines for stays.
//
// Every function here is pure. Inputs and outputs are absolute instants; Korea
// Standard Time is used only to resolve calendar dates and for display.
// Check-in values are calendar dates: only their year, month and day (in their
// own location) are read.
package policy

import "time"

// KST is Korea Standard Time. It has no daylight saving.
var KST = time.FixedZone("KST", 9*60*60)

const (
	DefaultLeadDays = 5

	GraceWindow   = 24 * time.Hour
	NearTermLimit = 48 * time.Hour
)

// CheckInStart is the KST midnight that opens the check-in date.
func CheckInStart(checkIn time.Time) time.Time {
	y, m, d := checkIn.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, KST)
}

// StandardDeadline returns 23:59:59 KST on the date leadDays before check-in.
// Cancellations strictly before the returned instant are free.
func StandardDeadline(checkIn time.Time, leadDays int) time.Time {
	if leadDays <= 0 {
		leadDays = DefaultLeadDays
	}
	y, m, d := checkIn.Date()
	return time.Date(y, m, d-leadDays, 23, 59, 59, 0, KST).UTC()
}

// nearTerm reports whether check-in opens less than 48 hours after createdAt.
func nearTerm(createdAt, checkIn time.Time) bool {
	return CheckInStart(checkIn).Sub(createdAt) < NearTermLimit
}

// GraceDeadline returns the end of the 24 hour free-cancellation window that
// follows booking creation. ok is false for near-term stays, which get no grace.
func GraceDeadline(createdAt, checkIn time.Time) (deadline time.Time, ok bool) {
	if nearTerm(createdAt, checkIn) {
		return time.Time{}, false
	}
	return createdAt.Add(GraceWindow).UTC(), true
}

// SpecialRateDeadline is the free-cancellation deadline of the non-refundable
// special rate: 24 hours after creation, collapsing to the creation instant
// itself when check-in is less than 48 hours away.
func SpecialRateDeadline(createdAt, checkIn time.Time) time.Time {
	if nearTerm(createdAt, checkIn) {
		return createdAt.UTC()
	}
	return createdAt.Add(GraceWindow).UTC()
}

// Nights counts calendar nights between check-in and check-out.
func Nights(checkIn, checkOut time.Time) int {
	in, out := CheckInStart(checkIn), CheckInStart(checkOut)
	if !out.After(in) {
		return 0
	}
	return int(out.Sub(in) / (24 * time.Hour))
}

// FormatKST renders t in KST as RFC 3339.
func FormatKST(t time.Time) string {
	return t.In(KST).Format(time.RFC3339)
}
