package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultDisplayName is shown when the auth collaborator returns no name for a user.
const DefaultDisplayName = "User"

// User is the identity supplied by the auth collaborator. It is read-only to the client core.
type User struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// DisplayName returns the user's name or the default placeholder.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return DefaultDisplayName
}

// Username derives the public handle from the local part of the email address.
func (u User) Username() string {
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// Initial returns the upper-cased first rune of the name, falling back to the email.
func (u User) Initial() string {
	source := strings.TrimSpace(u.Name)
	if source == "" {
		source = strings.TrimSpace(u.Email)
	}
	if source == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(source)
	return string(unicode.ToUpper(r))
}

// SessionStatus enumerates the states of the session gate.
type SessionStatus string

const (
	SessionLoading         SessionStatus = "loading"
	SessionUnauthenticated SessionStatus = "unauthenticated"
	SessionAuthenticated   SessionStatus = "authenticated"
)

// Session is a snapshot of the session gate. User is present iff Status is authenticated.
type Session struct {
	Status              SessionStatus `json:"status"`
	User                *User         `json:"user,omitempty"`
	PendingVerification bool          `json:"pending_verification"`
	PendingEmail        string        `json:"pending_email,omitempty"`
	ExpiresAt           *time.Time    `json:"expires_at,omitempty"`
	LastError           string        `json:"last_error,omitempty"`
}

// PendingVerification acknowledges a registration awaiting email confirmation.
type PendingVerification struct {
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
}
