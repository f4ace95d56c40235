// Package assignment implements the territory assignment engine: the unique
// entity→territory mapping, the rule matcher over active territories, the
// denormalized counter maintenance and the batch auto-assigner.
package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/jordanlanch/territorydb/ent"
	"github.com/jordanlanch/territorydb/ent/assignment"
	"github.com/jordanlanch/territorydb/ent/territory"
	"github.com/jordanlanch/territorydb/pkg/cache"
	"github.com/jordanlanch/territorydb/pkg/entities"
)

// Service handles assignment and counter maintenance operations.
type Service struct {
	client   *ent.Client
	entities *entities.Service
	cache    *cache.Client

	// ChunkSize bounds how many entities AutoAssignAll loads per page.
	// Zero means the default of 200.
	ChunkSize int
}

// NewService creates a new assignment service.
func NewService(client *ent.Client, entitiesSvc *entities.Service, cacheClient *cache.Client) *Service {
	return &Service{
		client:   client,
		entities: entitiesSvc,
		cache:    cacheClient,
	}
}

// AssignmentResponse represents one assignment record.
type AssignmentResponse struct {
	ID           int       `json:"id"`
	TerritoryID  int       `json:"territory_id"`
	EntityType   string    `json:"entity_type"`
	EntityID     int       `json:"entity_id"`
	AutoAssigned bool      `json:"auto_assigned"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// Assign places an entity into a territory. If the entity already has an
// assignment the existing record is re-pointed (same record id, fresh
// assigned_at) rather than duplicated. Both the new territory's counters and,
// on reassignment, the vacated territory's are recomputed.
func (s *Service) Assign(ctx context.Context, territoryID int, entityType assignment.EntityType, entityID int, autoAssigned bool) (*AssignmentResponse, error) {
	// Preconditions before any mutation.
	exists, err := s.client.Territory.Query().Where(territory.ID(territoryID)).Exist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check territory: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("territory not found")
	}

	exists, err = s.entities.Exists(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to check entity: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%s not found", entityType)
	}

	rec, prevTerritoryID, err := s.upsert(ctx, territoryID, entityType, entityID, autoAssigned)
	if err != nil {
		return nil, err
	}

	if err := s.RecomputeCounters(ctx, territoryID); err != nil {
		return nil, err
	}
	if prevTerritoryID != 0 && prevTerritoryID != territoryID {
		if err := s.RecomputeCounters(ctx, prevTerritoryID); err != nil {
			return nil, err
		}
	}

	return toAssignmentResponse(rec), nil
}

// upsert writes the assignment row without touching counters. Callers own
// recomputation; the batch assigner defers it to a single end-of-run pass.
// Returns the record and the territory id it previously pointed at (0 for a
// fresh assignment).
func (s *Service) upsert(ctx context.Context, territoryID int, entityType assignment.EntityType, entityID int, autoAssigned bool) (*ent.Assignment, int, error) {
	existing, err := s.client.Assignment.Query().
		Where(
			assignment.EntityTypeEQ(entityType),
			assignment.EntityID(entityID),
		).
		Only(ctx)
	if err != nil && !ent.IsNotFound(err) {
		return nil, 0, fmt.Errorf("failed to look up assignment: %w", err)
	}

	if existing != nil {
		updated, err := existing.Update().
			SetTerritoryID(territoryID).
			SetAutoAssigned(autoAssigned).
			SetAssignedAt(time.Now()).
			Save(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to update assignment: %w", err)
		}
		return updated, existing.TerritoryID, nil
	}

	created, err := s.client.Assignment.Create().
		SetTerritoryID(territoryID).
		SetEntityType(entityType).
		SetEntityID(entityID).
		SetAutoAssigned(autoAssigned).
		Save(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create assignment: %w", err)
	}
	return created, 0, nil
}

// Unassign removes an entity's assignment if present (no-op otherwise) and
// recomputes the vacated territory's counters.
func (s *Service) Unassign(ctx context.Context, entityType assignment.EntityType, entityID int) error {
	existing, err := s.client.Assignment.Query().
		Where(
			assignment.EntityTypeEQ(entityType),
			assignment.EntityID(entityID),
		).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to look up assignment: %w", err)
	}

	if err := s.client.Assignment.DeleteOne(existing).Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	return s.RecomputeCounters(ctx, existing.TerritoryID)
}

// ListByTerritory returns every assignment currently pointing at a territory.
func (s *Service) ListByTerritory(ctx context.Context, territoryID int) ([]*AssignmentResponse, error) {
	rows, err := s.client.Assignment.Query().
		Where(assignment.TerritoryID(territoryID)).
		Order(ent.Asc(assignment.FieldID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	result := make([]*AssignmentResponse, len(rows))
	for i, r := range rows {
		result[i] = toAssignmentResponse(r)
	}
	return result, nil
}

// FindByEntity returns the assignment for an entity.
func (s *Service) FindByEntity(ctx context.Context, entityType assignment.EntityType, entityID int) (*AssignmentResponse, error) {
	rec, err := s.client.Assignment.Query().
		Where(
			assignment.EntityTypeEQ(entityType),
			assignment.EntityID(entityID),
		).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("assignment not found")
		}
		return nil, fmt.Errorf("failed to look up assignment: %w", err)
	}
	return toAssignmentResponse(rec), nil
}

// RecomputeCounters re-derives a territory's cached counters from its live
// assignment rows: one counted partition per entity type plus the summed
// amount of assigned deals. It is a full re-derivation, never a delta, so
// re-running it is always safe and a lost race only leaves a counter stale
// until the next run. Deals deleted since assignment contribute zero.
func (s *Service) RecomputeCounters(ctx context.Context, territoryID int) error {
	rows, err := s.client.Assignment.Query().
		Where(assignment.TerritoryID(territoryID)).
		All(ctx)
	if err != nil {
		return fmt.Errorf("failed to list assignments: %w", err)
	}

	var contacts, companies, deals int
	var totalValue float64

	for _, r := range rows {
		switch r.EntityType {
		case assignment.EntityTypeContact:
			contacts++
		case assignment.EntityTypeCompany:
			companies++
		case assignment.EntityTypeDeal:
			deals++
			amount, _, err := s.entities.DealAmount(ctx, r.EntityID)
			if err != nil {
				return fmt.Errorf("failed to fetch deal amount: %w", err)
			}
			totalValue += amount
		}
	}

	err = s.client.Territory.UpdateOneID(territoryID).
		SetAssignedContacts(contacts).
		SetAssignedCompanies(companies).
		SetAssignedDeals(deals).
		SetTotalDealValue(totalValue).
		SetUpdatedAt(time.Now()).
		Exec(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			// Territory deleted under us; nothing left to reconcile.
			return nil
		}
		return fmt.Errorf("failed to update territory counters: %w", err)
	}

	// Cached territory listings now carry stale counters.
	_ = s.cache.DeletePattern(ctx, "territories:*")

	return nil
}

func toAssignmentResponse(r *ent.Assignment) *AssignmentResponse {
	return &AssignmentResponse{
		ID:           r.ID,
		TerritoryID:  r.TerritoryID,
		EntityType:   string(r.EntityType),
		EntityID:     r.EntityID,
		AutoAssigned: r.AutoAssigned,
		AssignedAt:   r.AssignedAt,
	}
}
