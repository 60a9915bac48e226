package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/middleware"
	"github.com/noah-isme/socium-go/internal/service"
	"github.com/noah-isme/socium-go/internal/utils"
)

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func workspaceFrom(c *fiber.Ctx) (*service.Workspace, error) {
	ws, ok := middleware.WorkspaceFromContext(c)
	if !ok {
		return nil, service.ErrNotAuthenticated
	}
	return ws, nil
}

// bindJSON parses and validates the request body into target.
func bindJSON(c *fiber.Ctx, validate *validator.Validate, target interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(target); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
	}
	if validate == nil {
		return nil
	}
	return validate.Struct(target)
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) fiber.Map {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return fiber.Map{"fields": fields}
}

var authKindStatus = map[service.AuthErrorKind]int{
	service.AuthValidation:         fiber.StatusBadRequest,
	service.AuthInvalidCredentials: fiber.StatusUnauthorized,
	service.AuthEmailNotVerified:   fiber.StatusForbidden,
	service.AuthSuperseded:         fiber.StatusConflict,
	service.AuthNetwork:            fiber.StatusServiceUnavailable,
	service.AuthServer:             fiber.StatusBadGateway,
}

// respondError maps controller failures onto the bridge envelope.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		status, ok := authKindStatus[authErr.Kind]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		return utils.Fail(c, status, authErr.Message, fiber.Map{"kind": authErr.Kind, "op": authErr.Op})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return utils.SendError(c, fiberErr.Code, fiberErr.Message)
	}

	if isValidationError(err) {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotChannelCreator), errors.Is(err, service.ErrSelfRoleChange):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPostNotFound), errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrChannelNotFound), errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrRoleNotFound), errors.Is(err, service.ErrMemberNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrMediaTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUnsupportedMedia):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrMediaStorageUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrLocationUnavailable):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrEmptyContent), errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrNoConversationSelected):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	requestLogger(logger, c).Error().Err(err).Msg("unexpected failure")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal error")
}
