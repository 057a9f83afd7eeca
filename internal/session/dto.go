package session

import "errors"

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"user_name"`
	Password string `json:"password"`
}

// RestoreDTO carries a previously issued session token for restore after a
// page reload.
type RestoreDTO struct {
	Token string `json:"token"`
}

// AccessRequestDTO identifies the blocked user asking for renewed same-day access.
type AccessRequestDTO struct {
	Username string `json:"user_name"`
}

// AccessDecisionDTO is the admin-side grant/reject payload.
type AccessDecisionDTO struct {
	Username string `json:"user_name"`
}

// LogFilterDTO narrows the administrative session-log listing.
type LogFilterDTO struct {
	Username string `json:"user_name"`
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d LoginDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "user_name is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

func (d RestoreDTO) Validate() error {
	if d.Token == "" {
		return ValidationError{Msg: "token is required"}
	}
	return nil
}

func (d AccessRequestDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "user_name is required"}
	}
	return nil
}

func (d AccessDecisionDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "user_name is required"}
	}
	return nil
}

// Domain errors. InvalidCredentials and AccessDenied are reported distinctly
// so the caller can offer the access-request flow only in the latter case.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccessDenied       = errors.New("daily access limit reached")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrRecordNotFound     = errors.New("session record not found")
	ErrNoPendingRequest   = errors.New("no pending access request")
)
