package controlling_motor

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error" example:"session not found"`
}

// StatusResponse is returned by the health check and by session teardown.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// CommandResponse wraps a panel snapshot with the status of the action that produced it.
type CommandResponse struct {
	Status string `json:"status" example:"started"` // opened | model_set | speed_set | ...
	Panel  any    `json:"panel"`
}

// TokenResponse is returned by sign-in.
type TokenResponse struct {
	Token string `json:"token"`
}

// EventsResponse is returned by the journal listing.
type EventsResponse struct {
	Count  int `json:"count"`
	Events any `json:"events"`
}
