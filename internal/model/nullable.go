package model

import "math"

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T { return &v }

// Clone returns a pointer to a copy of *p, or nil.
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Pct returns 100*num/den rounded to two decimals, or nil when den is zero.
func Pct(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := Round(100*float64(num)/float64(den), 2)
	return &v
}

// Mean returns sum/n rounded to the given places, or nil when n is zero.
func Mean(sum float64, n int, places int) *float64 {
	if n == 0 {
		return nil
	}
	v := Round(sum/float64(n), places)
	return &v
}

// IntOr dereferences p, falling back to def when p is nil.
func IntOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
