package service

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/internal/repository"
)

// WorkspaceDeps are the collaborators shared by every workspace the shell builds.
type WorkspaceDeps struct {
	Dataset   repository.Dataset
	Media     MediaStorage
	Messages  MessagesConfig
	Publisher EventPublisher
	Logger    zerolog.Logger
}

// Workspace is the per-user application state: the router and the five section controllers.
// It is built when a user authenticates and discarded on logout, so mock state never leaks
// between sessions.
type Workspace struct {
	User     models.User
	Router   *ViewRouter
	Feed     FeedService
	Search   SearchService
	Messages MessagesService
	Channels ChannelsService
	Profile  ProfileService
}

// NewWorkspace builds a workspace for user from fresh copies of the dataset.
func NewWorkspace(user models.User, deps WorkspaceDeps) *Workspace {
	dataset := deps.Dataset
	if dataset == nil {
		dataset = repository.NewMockDataset()
	}
	logger := deps.Logger.With().Uint("user_id", user.ID).Logger()

	ws := &Workspace{
		User:     user,
		Feed:     NewFeedService(user, dataset, deps.Publisher, logger),
		Search:   NewSearchService(user, dataset, deps.Publisher, logger),
		Messages: NewMessagesService(user, dataset, deps.Media, deps.Messages, deps.Publisher, logger),
		Channels: NewChannelsService(user, dataset, deps.Publisher, logger),
		Profile:  NewProfileService(user),
	}

	ws.Router = NewViewRouter(user.ID, map[models.Section]Renderer{
		models.SectionFeed:     RendererFunc(func() interface{} { return ws.Feed.Snapshot() }),
		models.SectionSearch:   RendererFunc(func() interface{} { return ws.Search.Snapshot() }),
		models.SectionMessages: RendererFunc(func() interface{} { return ws.Messages.Snapshot() }),
		models.SectionProfile:  RendererFunc(func() interface{} { return ws.Profile.Snapshot() }),
		models.SectionChannels: RendererFunc(func() interface{} { return ws.Channels.Snapshot() }),
	}, deps.Publisher)

	return ws
}

// Close releases asynchronous work owned by the workspace.
func (w *Workspace) Close() {
	w.Messages.Close()
}

// Shell owns the session gate and the workspace of the authenticated user.
type Shell struct {
	gate   *SessionGate
	deps   WorkspaceDeps
	logger zerolog.Logger

	mu          sync.RWMutex
	workspace   *Workspace
	unsubscribe func()
}

// NewShell wires the shell to gate transitions.
func NewShell(gate *SessionGate, deps WorkspaceDeps, logger zerolog.Logger) *Shell {
	shell := &Shell{
		gate:   gate,
		deps:   deps,
		logger: logger.With().Str("component", "shell").Logger(),
	}
	shell.unsubscribe = gate.Subscribe(shell.onSessionChange)

	if user, ok := gate.CurrentUser(); ok {
		shell.workspace = NewWorkspace(user, deps)
	}
	return shell
}

// Gate returns the session gate.
func (s *Shell) Gate() *SessionGate {
	return s.gate
}

// Workspace returns the current user's workspace or ErrNotAuthenticated.
func (s *Shell) Workspace() (*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.workspace == nil {
		return nil, ErrNotAuthenticated
	}
	return s.workspace, nil
}

// Close detaches from the gate and discards the workspace.
func (s *Shell) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.mu.Lock()
	ws := s.workspace
	s.workspace = nil
	s.mu.Unlock()
	if ws != nil {
		ws.Close()
	}
}

func (s *Shell) onSessionChange(previous, current models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current.Status == models.SessionAuthenticated && current.User != nil {
		if s.workspace != nil && s.workspace.User.ID == current.User.ID {
			return
		}
		if s.workspace != nil {
			s.workspace.Close()
		}
		s.workspace = NewWorkspace(*current.User, s.deps)
		s.logger.Info().Uint("user_id", current.User.ID).Msg("workspace mounted")
		return
	}

	if s.workspace != nil {
		s.workspace.Close()
		s.workspace = nil
		s.logger.Info().Str("status", string(current.Status)).Msg("workspace discarded")
	}
}
