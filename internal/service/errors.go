package service

import (
	"errors"

	"github.com/noah-isme/socium-go/internal/observability"
)

var (
	// ErrEmptyContent indicates text input that is blank after trimming or sanitization.
	ErrEmptyContent = errors.New("content must not be empty")
	// ErrPostNotFound indicates an unknown post id.
	ErrPostNotFound = errors.New("post not found")
	// ErrUserNotFound indicates an unknown user id in search results.
	ErrUserNotFound = errors.New("user not found")
	// ErrChannelNotFound indicates an unknown channel id.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrConversationNotFound indicates an unknown conversation id.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrNoConversationSelected indicates a send without an active conversation.
	ErrNoConversationSelected = errors.New("no conversation selected")
	// ErrUnsupportedMedia indicates an attachment kind other than image or audio.
	ErrUnsupportedMedia = errors.New("unsupported media kind")
	// ErrMediaTooLarge indicates an upload above the configured limit.
	ErrMediaTooLarge = errors.New("media exceeds maximum allowed size")
	// ErrMediaStorageUnavailable indicates uploads without a configured storage collaborator.
	ErrMediaStorageUnavailable = errors.New("media storage not configured")
	// ErrLocationUnavailable wraps geolocation denials and failures.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrNotChannelCreator indicates a role mutation by someone other than the channel creator.
	ErrNotChannelCreator = errors.New("only the channel creator can manage roles")
	// ErrRoleNotFound indicates a role id that does not exist on the channel.
	ErrRoleNotFound = errors.New("role not found on channel")
	// ErrMemberNotFound indicates an unknown channel member.
	ErrMemberNotFound = errors.New("member not found in channel")
	// ErrSelfRoleChange indicates an attempt to change one's own role.
	ErrSelfRoleChange = errors.New("members cannot change their own role")
	// ErrEmptyName indicates a blank channel or role name.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrNotAuthenticated indicates a section intent without an authenticated session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// IsValidationError reports whether err is a local rejection that leaves state unchanged.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrEmptyContent, ErrPostNotFound, ErrUserNotFound, ErrChannelNotFound,
		ErrConversationNotFound, ErrNoConversationSelected, ErrUnsupportedMedia, ErrMediaTooLarge,
		ErrNotChannelCreator, ErrRoleNotFound, ErrMemberNotFound, ErrSelfRoleChange, ErrEmptyName,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func recordIntent(section, action string, err error) {
	outcome := "applied"
	switch {
	case err == nil:
	case IsValidationError(err):
		outcome = "rejected"
	default:
		outcome = "failed"
	}
	observability.Intents().WithLabelValues(section, action, outcome).Inc()
}
