// FILE: haystackauth/src/internal/core/types.go
package core

// Credentials are the user-supplied secrets for one prober run.
// Password must never reach a log line.
type Credentials struct {
	Username string
	Password string
}

// Redacted returns a copy safe for structured logging.
func (c Credentials) Redacted() map[string]any {
	return map[string]any{
		"username":     c.Username,
		"has_password": c.Password != "",
	}
}
