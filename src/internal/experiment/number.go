package experiment

import (
	"fmt"
	"strconv"
	"strings"
)

// Number is a numeric parameter value that keeps the literal text it was
// written with. The simulator receives exactly that text on its command line,
// so "50.0" and "50" are different values here even though they compare equal.
type Number struct {
	Value float64
	Text  string
}

// Int returns an integer-valued Number ("5").
func Int(v int) Number {
	return Number{Value: float64(v), Text: strconv.Itoa(v)}
}

// Float returns a Number formatted the way a float literal is usually written:
// integral values keep a trailing ".0" ("50.0"), others use the shortest
// representation ("0.1").
func Float(v float64) Number {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return Number{Value: v, Text: s}
}

// ParseNumber parses a literal, keeping its text verbatim.
func ParseNumber(s string) (Number, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return Number{Value: v, Text: s}, nil
}

func (n Number) String() string {
	if n.Text != "" {
		return n.Text
	}
	return Float(n.Value).Text
}

// Ints builds a slice of integer Numbers.
func Ints(vs ...int) []Number {
	out := make([]Number, len(vs))
	for i, v := range vs {
		out[i] = Int(v)
	}
	return out
}

// Floats builds a slice of float Numbers.
func Floats(vs ...float64) []Number {
	out := make([]Number, len(vs))
	for i, v := range vs {
		out[i] = Float(v)
	}
	return out
}
