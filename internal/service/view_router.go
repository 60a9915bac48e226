package service

import (
	"context"
	"sync"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/models"
)

// Renderer produces the view model of one section.
type Renderer interface {
	Render() interface{}
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func() interface{}

// Render implements Renderer.
func (f RendererFunc) Render() interface{} { return f() }

// ViewRouter tracks the active section and dispatches render requests to its controller.
type ViewRouter struct {
	userID    uint
	renderers map[models.Section]Renderer
	publisher EventPublisher

	mu     sync.Mutex
	active models.Section
}

// NewViewRouter constructs a router starting on the feed.
func NewViewRouter(userID uint, renderers map[models.Section]Renderer, publisher EventPublisher) *ViewRouter {
	return &ViewRouter{
		userID:    userID,
		renderers: renderers,
		publisher: publisherOrNop(publisher),
		active:    models.SectionFeed,
	}
}

// ActiveSection returns the section currently shown.
func (r *ViewRouter) ActiveSection() models.Section {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// SetActiveSection switches sections; unknown names select the feed.
func (r *ViewRouter) SetActiveSection(ctx context.Context, name string) models.Section {
	section := models.ParseSection(name)

	r.mu.Lock()
	changed := r.active != section
	r.active = section
	r.mu.Unlock()

	recordIntent("view", "navigate", nil)
	if changed {
		r.publisher.Publish(ctx, NewEvent(EventSectionChanged, section, r.userID, map[string]string{"section": string(section)}))
	}
	return section
}

// Render returns the active section's snapshot.
func (r *ViewRouter) Render() dto.RenderResponse {
	section := r.ActiveSection()
	response := dto.RenderResponse{Section: section}
	if renderer, ok := r.renderers[section]; ok && renderer != nil {
		response.Data = renderer.Render()
	}
	return response
}
