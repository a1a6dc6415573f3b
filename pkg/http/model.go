package http

// APIResponse represents standard API response.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// HealthStatus is the body of the ops health endpoint.
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}
