// Package timeunit converts between display time units and the canonical
// day-based unit the scheduling engine computes in.
package timeunit

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit names a display time unit.
type Unit string

const (
	Hours  Unit = "hours"
	Days   Unit = "days"
	Weeks  Unit = "weeks"
	Months Unit = "months"
	Years  Unit = "years"
)

// units holds the menu-canonical order.
var units = []Unit{Hours, Days, Weeks, Months, Years}

// factors maps each unit to its length in days.
var factors = map[Unit]float64{
	Hours:  1.0 / 24.0,
	Days:   1,
	Weeks:  7,
	Months: 30,
	Years:  365,
}

// Default is the unit used when none is configured.
const Default = Days

// Units returns all units in canonical order.
func Units() []Unit {
	return append([]Unit(nil), units...)
}

// Parse resolves a unit name, case-insensitively.
func Parse(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := factors[u]; !ok {
		return "", fmt.Errorf("unknown time unit %q", s)
	}
	return u, nil
}

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	_, ok := factors[u]
	return ok
}

// Factor returns the unit's length in days. Unknown units behave as days.
func (u Unit) Factor() float64 {
	if f, ok := factors[u]; ok {
		return f
	}
	return 1
}

// ToCanonical converts a value in this unit to days.
func (u Unit) ToCanonical(v float64) float64 {
	return v * u.Factor()
}

// FromCanonical converts a value in days to this unit.
func (u Unit) FromCanonical(v float64) float64 {
	return v / u.Factor()
}

// ConvertVariance converts a variance in days² to this unit's square.
func (u Unit) ConvertVariance(v float64) float64 {
	f := u.Factor()
	return v / (f * f)
}

// Format renders a canonical value in this unit with the unit name appended.
func (u Unit) Format(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(u.FromCanonical(v), 'f', decimals, 64) + " " + string(u)
}

// String implements fmt.Stringer.
func (u Unit) String() string {
	return string(u)
}
