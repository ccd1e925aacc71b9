// Package dto holds the request and response bodies that do not map
// directly onto a domain type.
package dto

// RegisterRequest is the body of POST /api/auth/register/{siteId}.
type RegisterRequest struct {
	Username string `json:"username"`
	RealName string `json:"realName"`
	Email    string `json:"email"`
	// Avatar picks the avatar source: "account", "email" or "default".
	// Blank falls back to "account".
	Avatar string `json:"avatar"`
}

// ValidationResult is the body of the validate endpoints. Status is "valid"
// or "invalid"; Message explains either way.
type ValidationResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Valid builds a passing ValidationResult.
func Valid(message string) ValidationResult {
	return ValidationResult{Status: "valid", Message: message}
}

// Invalid builds a failing ValidationResult.
func Invalid(message string) ValidationResult {
	return ValidationResult{Status: "invalid", Message: message}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}
