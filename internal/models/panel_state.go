package models

import "time"

// PanelState is the snapshot of one control session as the operator sees it.
type PanelState struct {
	SessionID      string    `json:"session_id"`
	OperatorID     int       `json:"operator_id,omitempty"`
	Model          Model     `json:"model"`
	MinRPM         int       `json:"min_rpm"`
	MaxRPM         int       `json:"max_rpm"`
	Running        bool      `json:"running"`
	SpeedInput     string    `json:"speed_input"`   // corrected value of the speed field
	AccelInput     string    `json:"accel_input"`   // RPM/s
	SpeedReadout   string    `json:"speed_readout"` // "1200 RPM" or the ramp placeholder
	CurrentRPM     int       `json:"current_rpm"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	ElapsedText    string    `json:"elapsed_text"` // HH:MM:SS
	Ramp           string    `json:"ramp,omitempty"`
	RampStep       int       `json:"ramp_step,omitempty"`
	RampSteps      int       `json:"ramp_steps,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}
