package card

import (
	"fmt"
	"strconv"
)

// RatingScale is an inclusive integer range used by a rating control.
type RatingScale struct {
	Min, Max int
}

var (
	// MoodScale is the 1..5 star mood of the classic card.
	MoodScale = RatingScale{Min: 1, Max: 5}
	// IntensityScale is the 1..10 intensity of the zine card.
	IntensityScale = RatingScale{Min: 1, Max: 10}
)

// Clamp limits v to the scale.
func (s RatingScale) Clamp(v int) int {
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// Validate returns an error when v is outside the scale.
func (s RatingScale) Validate(v int) error {
	if v < s.Min || v > s.Max {
		return fmt.Errorf("rating %d out of range [%d,%d]", v, s.Min, s.Max)
	}
	return nil
}

// Format renders v as "v/max", e.g. "7/10".
func (s RatingScale) Format(v int) string {
	return strconv.Itoa(v) + "/" + strconv.Itoa(s.Max)
}
