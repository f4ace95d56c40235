package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	entassignment "github.com/jordanlanch/territorydb/ent/assignment"
	apierrors "github.com/jordanlanch/territorydb/pkg/api/errors"
	"github.com/jordanlanch/territorydb/pkg/assignment"
	"github.com/jordanlanch/territorydb/pkg/export"
	"github.com/jordanlanch/territorydb/pkg/metrics"
	"github.com/jordanlanch/territorydb/pkg/models"
	"github.com/jordanlanch/territorydb/pkg/territory"
)

// TerritoryHandler handles territory management operations.
type TerritoryHandler struct {
	service     *territory.Service
	assignments *assignment.Service
	exports     *export.Service
	metrics     *metrics.Metrics
	validator   *validator.Validate
}

// NewTerritoryHandler creates a new territory handler.
func NewTerritoryHandler(service *territory.Service, assignments *assignment.Service, exports *export.Service, m *metrics.Metrics) *TerritoryHandler {
	return &TerritoryHandler{
		service:     service,
		assignments: assignments,
		exports:     exports,
		metrics:     m,
		validator:   validator.New(),
	}
}

// AssignEntityRequest represents a manual assignment request.
type AssignEntityRequest struct {
	EntityType   string `json:"entity_type" validate:"required,oneof=contact company deal"`
	EntityID     int    `json:"entity_id" validate:"required,gt=0"`
	AutoAssigned bool   `json:"auto_assigned"`
}

// AutoAssignRequest selects the entity type for a batch run.
type AutoAssignRequest struct {
	EntityType string `json:"entity_type" validate:"required,oneof=contact company deal"`
}

// CreateTerritory godoc
// @Summary Create new territory
// @Description Create a new sales territory with a conjunctive rule set
// @Tags Territories
// @Accept json
// @Produce json
// @Param body body territory.CreateTerritoryRequest true "Territory details"
// @Success 201 {object} territory.TerritoryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/territories [post]
func (h *TerritoryHandler) CreateTerritory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req territory.CreateTerritoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	result, err := h.service.CreateTerritory(ctx, req)
	if err != nil {
		if strings.Contains(err.Error(), "invalid rules") || strings.Contains(err.Error(), "required") {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_rules",
				Message: err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}

	h.metrics.RecordTerritoryCreated()

	return c.JSON(http.StatusCreated, result)
}

// UpdateTerritory godoc
// @Summary Update territory
// @Description Update an existing territory's details; only provided fields change
// @Tags Territories
// @Accept json
// @Produce json
// @Param id path int true "Territory ID"
// @Param body body territory.UpdateTerritoryRequest true "Updated territory fields"
// @Success 200 {object} territory.TerritoryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/territories/{id} [patch]
func (h *TerritoryHandler) UpdateTerritory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	territoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_territory_id",
			Message: "Territory ID must be a valid number",
		})
	}

	var req territory.UpdateTerritoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	result, err := h.service.UpdateTerritory(ctx, territoryID, req)
	if err != nil {
		return territoryError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// GetTerritory godoc
// @Summary Get territory details
// @Description Get a territory with its assignments grouped by entity type
// @Tags Territories
// @Produce json
// @Param id path int true "Territory ID"
// @Success 200 {object} territory.TerritoryDetailResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/territories/{id} [get]
func (h *TerritoryHandler) GetTerritory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	territoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_territory_id",
			Message: "Territory ID must be a valid number",
		})
	}

	result, err := h.service.GetTerritory(ctx, territoryID)
	if err != nil {
		return territoryError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// ListTerritories godoc
// @Summary List territories
// @Description List territories in match order with their current counters
// @Tags Territories
// @Produce json
// @Param include_inactive query bool false "Include inactive territories"
// @Success 200 {array} territory.TerritoryResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/territories [get]
func (h *TerritoryHandler) ListTerritories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	includeInactive := c.QueryParam("include_inactive") == "true"

	result, err := h.service.ListTerritories(ctx, includeInactive)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, result)
}

// DeleteTerritory godoc
// @Summary Delete territory
// @Description Delete a territory, removing all its assignments first
// @Tags Territories
// @Produce json
// @Param id path int true "Territory ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/territories/{id} [delete]
func (h *TerritoryHandler) DeleteTerritory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	territoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_territory_id",
			Message: "Territory ID must be a valid number",
		})
	}

	if err := h.service.DeleteTerritory(ctx, territoryID); err != nil {
		return territoryError(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Territory deleted",
	})
}

// StatsByRegion godoc
// @Summary Territory stats grouped by region
// @Description Aggregate territory counters grouped by each territory's region rule
// @Tags Territories
// @Produce json
// @Success 200 {array} territory.RegionStats
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/territories/stats/by-region [get]
func (h *TerritoryHandler) StatsByRegion(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	result, err := h.service.StatsByRegion(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, result)
}

// AssignEntity godoc
// @Summary Assign an entity to a territory
// @Description Create or re-point the entity's assignment; counters recompute synchronously
// @Tags Territories
// @Accept json
// @Produce json
// @Param id path int true "Territory ID"
// @Param body body AssignEntityRequest true "Entity reference"
// @Success 200 {object} assignment.AssignmentResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/territories/{id}/assign [post]
func (h *TerritoryHandler) AssignEntity(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	territoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_territory_id",
			Message: "Territory ID must be a valid number",
		})
	}

	var req AssignEntityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	result, err := h.assignments.Assign(ctx, territoryID, entassignment.EntityType(req.EntityType), req.EntityID, req.AutoAssigned)
	if err != nil {
		return territoryError(c, err)
	}

	h.metrics.RecordAssignment(req.EntityType, req.AutoAssigned)

	return c.JSON(http.StatusOK, result)
}

// AutoAssign godoc
// @Summary Batch auto-assignment
// @Description Run the rule matcher over every entity of a type and assign matches
// @Tags Territories
// @Accept json
// @Produce json
// @Param body body AutoAssignRequest true "Entity type"
// @Success 200 {object} assignment.AutoAssignResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/territories/auto-assign [post]
func (h *TerritoryHandler) AutoAssign(c echo.Context) error {
	// Batch runs scan whole entity tables; allow more than the request default.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	var req AutoAssignRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	result, err := h.assignments.AutoAssignAll(ctx, entassignment.EntityType(req.EntityType))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}

	h.metrics.RecordAutoAssignRun(result.Assigned)

	return c.JSON(http.StatusOK, result)
}

// Recompute godoc
// @Summary Recompute territory counters
// @Description Re-derive a territory's cached counters from its assignment rows
// @Tags Territories
// @Produce json
// @Param id path int true "Territory ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/territories/{id}/recompute [post]
func (h *TerritoryHandler) Recompute(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	territoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_territory_id",
			Message: "Territory ID must be a valid number",
		})
	}

	if err := h.assignments.RecomputeCounters(ctx, territoryID); err != nil {
		return territoryError(c, err)
	}

	h.metrics.RecordCountersRecomputed()

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Counters recomputed",
	})
}

// Export godoc
// @Summary Export territory assignments
// @Description Download the territory's assignments as an Excel workbook
// @Tags Territories
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Territory ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/territories/{id}/export [get]
func (h *TerritoryHandler) Export(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	territoryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_territory_id",
			Message: "Territory ID must be a valid number",
		})
	}

	buf, filename, err := h.exports.TerritoryAssignments(ctx, territoryID)
	if err != nil {
		return territoryError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// territoryError maps service errors onto HTTP statuses.
func territoryError(c echo.Context, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: msg,
		})
	case strings.Contains(msg, "invalid rules"):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_rules",
			Message: msg,
		})
	default:
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "server_error",
			Message: msg,
		})
	}
}
