package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	entassignment "github.com/jordanlanch/territorydb/ent/assignment"
	"github.com/jordanlanch/territorydb/pkg/assignment"
	"github.com/jordanlanch/territorydb/pkg/models"
)

// AssignmentHandler handles entity-keyed assignment lookups and removals.
type AssignmentHandler struct {
	service *assignment.Service
}

// NewAssignmentHandler creates a new assignment handler.
func NewAssignmentHandler(service *assignment.Service) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// MatchResponse reports the territory a dry-run match resolves to.
type MatchResponse struct {
	Matched       bool   `json:"matched"`
	TerritoryID   int    `json:"territory_id,omitempty"`
	TerritoryName string `json:"territory_name,omitempty"`
}

// GetByEntity godoc
// @Summary Get an entity's assignment
// @Description Look up which territory an entity is assigned to
// @Tags Assignments
// @Produce json
// @Param entity_type path string true "Entity type" Enums(contact, company, deal)
// @Param entity_id path int true "Entity ID"
// @Success 200 {object} assignment.AssignmentResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/assignments/{entity_type}/{entity_id} [get]
func (h *AssignmentHandler) GetByEntity(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	entityType, entityID, ok := entityParams(c)
	if !ok {
		return nil
	}

	result, err := h.service.FindByEntity(ctx, entityType, entityID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, result)
}

// Unassign godoc
// @Summary Remove an entity's assignment
// @Description Delete the entity's assignment if present; succeeds either way
// @Tags Assignments
// @Produce json
// @Param entity_type path string true "Entity type" Enums(contact, company, deal)
// @Param entity_id path int true "Entity ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/assignments/{entity_type}/{entity_id} [delete]
func (h *AssignmentHandler) Unassign(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	entityType, entityID, ok := entityParams(c)
	if !ok {
		return nil
	}

	if err := h.service.Unassign(ctx, entityType, entityID); err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Assignment removed",
	})
}

// Match godoc
// @Summary Preview territory match
// @Description Report which territory the rules resolve the entity to, without writing
// @Tags Assignments
// @Produce json
// @Param entity_type path string true "Entity type" Enums(contact, company, deal)
// @Param entity_id path int true "Entity ID"
// @Success 200 {object} MatchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/assignments/{entity_type}/{entity_id}/match [get]
func (h *AssignmentHandler) Match(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	entityType, entityID, ok := entityParams(c)
	if !ok {
		return nil
	}

	matched, err := h.service.MatchTerritory(ctx, entityType, entityID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}

	resp := MatchResponse{}
	if matched != nil {
		resp.Matched = true
		resp.TerritoryID = matched.ID
		resp.TerritoryName = matched.Name
	}

	return c.JSON(http.StatusOK, resp)
}

// entityParams parses the :entity_type/:entity_id path pair. On a bad pair it
// writes the 400 response itself and reports ok=false.
func entityParams(c echo.Context) (entassignment.EntityType, int, bool) {
	entityType := entassignment.EntityType(c.Param("entity_type"))
	switch entityType {
	case entassignment.EntityTypeContact, entassignment.EntityTypeCompany, entassignment.EntityTypeDeal:
	default:
		_ = c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_entity_type",
			Message: "Entity type must be contact, company or deal",
		})
		return "", 0, false
	}

	entityID, err := strconv.Atoi(c.Param("entity_id"))
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_entity_id",
			Message: "Entity ID must be a valid number",
		})
		return "", 0, false
	}

	return entityType, entityID, true
}
