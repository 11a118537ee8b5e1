package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/terminal-bench/capacities/internal/middleware"
	"github.com/terminal-bench/capacities/internal/repository"
	"github.com/terminal-bench/capacities/internal/validation"
	"github.com/terminal-bench/capacities/pkg/utils"
)

// IDParam is the route parameter holding a capacity ID
const IDParam = "capacityId"

const msgIncoherentID = "Incoherent capacity ID between request param and payload"

// CapacityHandler handles capacity requests
type CapacityHandler struct {
	repo      *repository.CapacityRepository
	validator *validation.Validator
	log       logrus.FieldLogger
}

// NewCapacityHandler creates a new capacity handler
func NewCapacityHandler(repo *repository.CapacityRepository, validator *validation.Validator, log logrus.FieldLogger) *CapacityHandler {
	return &CapacityHandler{
		repo:      repo,
		validator: validator,
		log:       log,
	}
}

// List returns every capacity
func (h *CapacityHandler) List(c *gin.Context) {
	capacities, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, capacities)
}

// Get returns a single capacity
func (h *CapacityHandler) Get(c *gin.Context) {
	raw := c.Param(IDParam)
	id, ok := utils.ParseID(raw)
	if !ok {
		h.notFound(c, raw)
		return
	}

	capacity, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.notFound(c, raw)
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, capacity)
}

// Create stores a new capacity under the next free ID
func (h *CapacityHandler) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.internalError(c, err)
		return
	}

	label, err := h.validator.Create(body)
	if err != nil {
		h.invalidPayload(c, err)
		return
	}

	capacity, err := h.repo.Create(c.Request.Context(), label)
	if err != nil {
		h.internalError(c, err)
		return
	}

	h.entry(c).WithField("capacity_id", capacity.ID).Debug("capacity created")
	c.JSON(http.StatusCreated, capacity)
}

// Replace overwrites a capacity with the request payload
func (h *CapacityHandler) Replace(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.internalError(c, err)
		return
	}

	payload, err := h.validator.Update(body)
	if err != nil {
		h.invalidPayload(c, err)
		return
	}

	raw := c.Param(IDParam)
	id, ok := utils.ParseID(raw)
	if !ok {
		// an unparseable path ID can never equal the payload ID
		h.idMismatch(c, raw, payload.ID)
		return
	}

	capacity, err := h.repo.Replace(c.Request.Context(), id, payload)
	switch {
	case errors.Is(err, repository.ErrIDMismatch):
		h.idMismatch(c, raw, payload.ID)
		return
	case errors.Is(err, repository.ErrNotFound):
		h.notFound(c, raw)
		return
	case err != nil:
		h.internalError(c, err)
		return
	}

	h.entry(c).WithField("capacity_id", capacity.ID).Debug("capacity replaced")
	c.JSON(http.StatusOK, capacity)
}

// Delete removes a capacity
func (h *CapacityHandler) Delete(c *gin.Context) {
	raw := c.Param(IDParam)
	id, ok := utils.ParseID(raw)
	if !ok {
		h.notFound(c, raw)
		return
	}

	err := h.repo.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.notFound(c, raw)
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	h.entry(c).WithField("capacity_id", id).Debug("capacity deleted")
	c.Status(http.StatusNoContent)
}

func (h *CapacityHandler) entry(c *gin.Context) *logrus.Entry {
	return h.log.WithField("request_id", middleware.GetRequestID(c))
}

func (h *CapacityHandler) notFound(c *gin.Context, raw string) {
	h.entry(c).WithField("capacity_id", raw).Info("capacity not found")
	c.String(http.StatusNotFound, "Capacity '%s' not found", raw)
}

func (h *CapacityHandler) idMismatch(c *gin.Context, raw string, payloadID int) {
	h.entry(c).WithFields(logrus.Fields{
		"path_id":    raw,
		"payload_id": payloadID,
	}).Info("capacity id mismatch")
	c.String(http.StatusBadRequest, msgIncoherentID)
}

func (h *CapacityHandler) invalidPayload(c *gin.Context, err error) {
	var verr *validation.ValidationError
	if !errors.As(err, &verr) {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"statusCode": http.StatusBadRequest,
		"error":      http.StatusText(http.StatusBadRequest),
		"message":    verr.Message,
		"validation": verr,
	})
}

func (h *CapacityHandler) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
