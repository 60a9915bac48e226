package authapi

import "fmt"

// Kind classifies collaborator failures.
type Kind string

const (
	KindInvalidCredentials Kind = "invalid_credentials"
	KindEmailNotVerified   Kind = "email_not_verified"
	KindValidation         Kind = "validation"
	KindServer             Kind = "server"
	KindNetwork            Kind = "network"
	KindCanceled           Kind = "canceled"
)

// Error describes a failed collaborator call.
type Error struct {
	Action  Action
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("auth %s failed (%d): %s", e.Action, e.Status, e.Message)
	}
	return fmt.Sprintf("auth %s failed: %s", e.Action, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
