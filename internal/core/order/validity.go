package order

import "strings"

// Validity accumulates the reasons an order failed validation. Once a reason
// has been recorded the order stays invalid.
type Validity struct {
	reasons []string
}

// Ensure records reason when ok is false and reports ok.
func (v *Validity) Ensure(ok bool, reason string) bool {
	if !ok {
		v.reasons = append(v.reasons, reason)
	}
	return ok
}

// Fail records reason unconditionally.
func (v *Validity) Fail(reason string) {
	v.reasons = append(v.reasons, reason)
}

// Valid reports whether no failure has been recorded.
func (v *Validity) Valid() bool {
	return len(v.reasons) == 0
}

// Reasons returns a copy of the recorded failure reasons in order.
func (v *Validity) Reasons() []string {
	out := make([]string, len(v.reasons))
	copy(out, v.reasons)
	return out
}

// Has reports whether reason was recorded.
func (v *Validity) Has(reason string) bool {
	for _, r := range v.reasons {
		if r == reason {
			return true
		}
	}
	return false
}

// String joins the reasons for diagnostics.
func (v *Validity) String() string {
	if v.Valid() {
		return "valid"
	}
	return strings.Join(v.reasons, "; ")
}
