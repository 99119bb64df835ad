package models

// Model identifies a motor variant. Unknown identifiers are valid values and
// fall back to the default envelope.
type Model string

const (
	ModelP Model = "SCK-300P"
	ModelS Model = "SCK-300S"

	// DefaultModel is selected when a session opens.
	DefaultModel = ModelS
)

// Known reports whether m has its own envelope.
func (m Model) Known() bool {
	return m == ModelP || m == ModelS
}

// Envelope is the inclusive [MinRPM, MaxRPM] speed range of a model.
type Envelope struct {
	Model  Model `json:"model"`
	MinRPM int   `json:"min_rpm"`
	MaxRPM int   `json:"max_rpm"`
}
