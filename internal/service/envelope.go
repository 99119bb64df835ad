package service

import (
	"strings"

	"controlling_motor/internal/models"
)

// Speed envelopes (RPM, inclusive).
const (
	DefaultMinRPM = 0
	DefaultMaxRPM = 9000
)

var envelopes = map[models.Model]models.Envelope{
	models.ModelP: {Model: models.ModelP, MinRPM: 200, MaxRPM: 9000},
	models.ModelS: {Model: models.ModelS, MinRPM: 10, MaxRPM: 5000},
}

// RangeFor returns the inclusive speed range of m. Unknown models get [0, 9000].
func RangeFor(m models.Model) (min, max int) {
	if e, ok := envelopes[m]; ok {
		return e.MinRPM, e.MaxRPM
	}
	return DefaultMinRPM, DefaultMaxRPM
}

// EnvelopeFor is RangeFor in struct form.
func EnvelopeFor(m models.Model) models.Envelope {
	min, max := RangeFor(m)
	return models.Envelope{Model: m, MinRPM: min, MaxRPM: max}
}

// KnownModels lists the models with their own envelope, P first.
func KnownModels() []models.Envelope {
	return []models.Envelope{envelopes[models.ModelP], envelopes[models.ModelS]}
}

// ParseModel trims an operator-supplied identifier. Matching is exact: any
// other spelling, including a different case, is an unranged model.
func ParseModel(raw string) models.Model {
	return models.Model(strings.TrimSpace(raw))
}
