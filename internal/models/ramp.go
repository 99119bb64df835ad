package models

import "time"

// RampStep holds a speed to reach and how long to stay there.
type RampStep struct {
	Step     int `json:"step"`
	SpeedRPM int `json:"speed_rpm"`
	DwellSec int `json:"dwell_sec"`
}

type RampSequence struct {
	Name      string     `json:"name"`
	Steps     []RampStep `json:"steps"`
	UpdatedAt time.Time  `json:"updated_at"`
}
