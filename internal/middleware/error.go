package middleware

// ErrorResponse is the shape middleware-level failures are returned in.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}
