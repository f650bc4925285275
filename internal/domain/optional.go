package domain

// Optional is a numeric field that may be absent. Absent is distinct from
// zero: aggregations exclude absent values from count/sum/mean denominators
// instead of coercing them to 0.
type Optional struct {
	value   float64
	present bool
}

// Present creates an Optional holding v.
func Present(v float64) Optional { return Optional{value: v, present: true} }

// Absent creates an empty Optional.
func Absent() Optional { return Optional{} }

// Get returns the value and whether it is present.
func (o Optional) Get() (float64, bool) { return o.value, o.present }

// IsPresent reports whether a value is present.
func (o Optional) IsPresent() bool { return o.present }

// Or returns the value if present, otherwise def.
func (o Optional) Or(def float64) float64 {
	if o.present {
		return o.value
	}
	return def
}
