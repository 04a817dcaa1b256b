package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/api/dto"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/events"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/ml"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/repository"
)

// ModelsHandler exposes the model registry.
type ModelsHandler struct {
	registry   *ml.Registry
	versions   repository.ModelVersionRepository
	dispatcher events.Dispatcher
}

// NewModelsHandler constructs handler.
func NewModelsHandler(registry *ml.Registry, versions repository.ModelVersionRepository, dispatcher events.Dispatcher) *ModelsHandler {
	return &ModelsHandler{registry: registry, versions: versions, dispatcher: dispatcher}
}

// List GET /admin/models.
func (h *ModelsHandler) List(c *fiber.Ctx) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	versions, err := h.versions.List(c.UserContext(), c.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	items := make([]dto.ModelVersionResponse, 0, len(versions))
	for i := range versions {
		items = append(items, modelVersionResponse(&versions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Active GET /admin/models/active.
func (h *ModelsHandler) Active(c *fiber.Ctx) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	model, err := h.registry.Active()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": modelVersionResponse(&model.Version)})
}

// Activate POST /admin/models/:version/activate. Rolls the pipeline onto a
// previously trained version.
func (h *ModelsHandler) Activate(c *fiber.Ctx) error {
	if err := requireAdmin(c); err != nil {
		return err
	}
	version, err := h.registry.ActivateVersion(c.UserContext(), c.Params("version"))
	if err != nil {
		return err
	}
	adminID := c.Get(headerAdminID)
	_ = h.dispatcher.Publish(c.UserContext(), events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventModelActivated,
		Actor:     events.Actor{Type: events.ActorAdmin, ID: &adminID},
		Timestamp: time.Now().UTC(),
		Payload: events.ModelActivatedPayload{
			Version:   version.Version,
			ModelKind: version.ModelKind,
			Accuracy:  version.Accuracy,
		},
	})
	return c.JSON(fiber.Map{"data": modelVersionResponse(version)})
}
