package service

import (
	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/models"
)

// ProfileService presents the current user's identity. Logging out from the profile goes
// through the session gate.
type ProfileService interface {
	Snapshot() dto.ProfileSnapshot
}

type profileService struct {
	user models.User
}

// NewProfileService constructs the profile controller.
func NewProfileService(user models.User) ProfileService {
	return &profileService{user: user}
}

func (s *profileService) Snapshot() dto.ProfileSnapshot {
	return dto.ProfileSnapshot{
		UserID:      s.user.ID,
		DisplayName: s.user.DisplayName(),
		Username:    s.user.Username(),
		Email:       s.user.Email,
		Initial:     s.user.Initial(),
	}
}
