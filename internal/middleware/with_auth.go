package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/socium-go/internal/service"
	"github.com/noah-isme/socium-go/internal/utils"
)

const workspaceLocal = "workspace"

// WorkspaceProvider resolves the workspace of the authenticated user.
type WorkspaceProvider interface {
	Workspace() (*service.Workspace, error)
}

// WithSession rejects requests while no user is authenticated and exposes the user's workspace
// to downstream handlers.
func WithSession(provider WorkspaceProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws, err := provider.Workspace()
		if err != nil || ws == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", fiber.Map{"kind": "unauthenticated"})
		}

		c.Locals(workspaceLocal, ws)
		c.Locals("user_id", ws.User.ID)
		return c.Next()
	}
}

// WorkspaceFromContext returns the workspace bound by WithSession.
func WorkspaceFromContext(c *fiber.Ctx) (*service.Workspace, bool) {
	ws, ok := c.Locals(workspaceLocal).(*service.Workspace)
	return ws, ok && ws != nil
}
