package analyzer

import (
	"fmt"
	"strings"
)

// Dimension is one of the 5W1H keys.
type Dimension string

const (
	Who   Dimension = "who"
	What  Dimension = "what"
	When  Dimension = "when"
	Where Dimension = "where"
	Why   Dimension = "why"
	How   Dimension = "how"
)

var dimensionOrder = [...]Dimension{Who, What, When, Where, Why, How}

// Dimensions returns the 5W1H keys in their fixed output order.
func Dimensions() []Dimension {
	out := make([]Dimension, len(dimensionOrder))
	copy(out, dimensionOrder[:])
	return out
}

// Valid reports whether d is one of the six known keys.
func (d Dimension) Valid() bool {
	return d.index() >= 0
}

// Label is the upper-case form used in user-facing hints.
func (d Dimension) Label() string {
	return strings.ToUpper(string(d))
}

func (d Dimension) index() int {
	for i, key := range dimensionOrder {
		if key == d {
			return i
		}
	}
	return -1
}

// ParseDimension normalizes and validates a dimension key.
func ParseDimension(raw string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown dimension %q", raw)
	}
	return d, nil
}

// Category classifies a phrase catalog entry.
type Category string

const (
	CategoryAmbiguous Category = "ambiguous"
	CategoryNegative  Category = "negative"
)

// Valid reports whether c is a known phrase category.
func (c Category) Valid() bool {
	return c == CategoryAmbiguous || c == CategoryNegative
}
