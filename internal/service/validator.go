package service

import (
	"strconv"
	"strings"

	"controlling_motor/internal/models"
)

// parseIntOrZero returns the integer in raw, or 0 when raw is not one.
func parseIntOrZero(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return v
}

// ClampSpeed bounds rpm to the envelope of m.
func ClampSpeed(rpm int, m models.Model) int {
	min, max := RangeFor(m)
	if rpm < min {
		return min
	}
	if rpm > max {
		return max
	}
	return rpm
}

// ValidateSpeed turns free-form input into an in-envelope speed.
// Unparsable input counts as 0 and is then clamped, so it never fails.
func ValidateSpeed(raw string, m models.Model) int {
	return ClampSpeed(parseIntOrZero(raw), m)
}

// parseAcceleration reports the RPM/s value in raw and whether it is an integer.
func parseAcceleration(raw string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}
