package api

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

// AuthResponse wraps register/login results.
type AuthResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

// CreateLogRequest is the request body for adding a log entry.
type CreateLogRequest struct {
	UserID  int64    `json:"user_id"`
	Content string   `json:"content"`
	Type    string   `json:"type"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
}

// ConnectionCheckRequest carries ad-hoc provider credentials for a probe.
type ConnectionCheckRequest struct {
	ModelType string `json:"model_type"`
	ModelName string `json:"model_name"`
	APIKey    string `json:"api_key"`
}

// GenerateSummaryRequest runs the weekly-summary path directly against a
// provider, bypassing persistence.
type GenerateSummaryRequest struct {
	ModelType string               `json:"model_type"`
	ModelName string               `json:"model_name"`
	APIKey    string               `json:"api_key"`
	Logs      []GenerateLogPayload `json:"logs"`
}

// GenerateLogPayload is one log item in a generate-summary request.
// Only the fields used for prompt rendering are read.
type GenerateLogPayload struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Content   string `json:"content"`
}

// AggregateResponse reports a manual aggregation run.
type AggregateResponse struct {
	Success   bool   `json:"success"`
	SummaryID int64  `json:"summary_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ModelConfigRequest is the request body for saving a user's model config.
type ModelConfigRequest struct {
	UserID    int64  `json:"user_id"`
	Provider  string `json:"provider"`
	ModelName string `json:"model_name"`
	APIKey    string `json:"api_key"`
}
