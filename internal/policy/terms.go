package policy

import "time"

type RatePlan string

const (
	RateStandard      RatePlan = "standard"
	RateNonRefundable RatePlan = "non_refundable_special"
)

// Stay is the input to Evaluate.
type Stay struct {
	CheckIn   time.Time
	CreatedAt time.Time
	RatePlan  RatePlan
}

// Terms are the cancellation terms of one booking.
type Terms struct {
	RatePlan         RatePlan
	Deadline         time.Time
	StandardDeadline time.Time
	GraceDeadline    *time.Time
}

// FreeAt reports whether cancelling at t is free of charge.
func (t Terms) FreeAt(at time.Time) bool {
	return at.Before(t.Deadline)
}

// Policy evaluates terms with a configured lead time.
type Policy struct {
	LeadDays int
}

func New(leadDays int) Policy {
	if leadDays <= 0 {
		leadDays = DefaultLeadDays
	}
	return Policy{LeadDays: leadDays}
}

// Evaluate returns the effective cancellation terms of a stay. The standard
// rate is free until the later of the lead-time deadline and the booking grace
// deadline; the special rate only has its own short window.
func (p Policy) Evaluate(s Stay) Terms {
	terms := Terms{
		RatePlan:         s.RatePlan,
		StandardDeadline: StandardDeadline(s.CheckIn, p.LeadDays),
	}

	if s.RatePlan == RateNonRefundable {
		terms.Deadline = SpecialRateDeadline(s.CreatedAt, s.CheckIn)
		return terms
	}

	terms.Deadline = terms.StandardDeadline
	if grace, ok := GraceDeadline(s.CreatedAt, s.CheckIn); ok {
		terms.GraceDeadline = &grace
		if grace.After(terms.Deadline) {
			terms.Deadline = grace
		}
	}
	return terms
}

// PlanFor maps the booking flag onto a rate plan.
func PlanFor(nonRefundableSpecial bool) RatePlan {
	if nonRefundableSpecial {
		return RateNonRefundable
	}
	return RateStandard
}
