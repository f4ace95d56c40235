package assignment

import (
	"context"
	"log"

	"github.com/jordanlanch/territorydb/ent/assignment"
	"github.com/jordanlanch/territorydb/pkg/rules"
)

const defaultChunkSize = 200

// AutoAssignResult summarizes a batch auto-assignment run.
type AutoAssignResult struct {
	Assigned int `json:"assigned"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// AutoAssignAll runs the matcher over every entity of the given type and
// writes assignments for the matches. Entities are processed in bounded
// chunks, per-entity failures are logged and counted rather than aborting the
// run, and counter recomputation is deferred to a single end-of-run pass over
// every active territory so the final state is consistent even if the run is
// interrupted and retried.
//
// Manual assignments are never overwritten: only rows with auto_assigned=true
// are re-pointed when the match changes. Entities whose current auto
// assignment still matches are left untouched, which makes back-to-back runs
// over unchanged data produce identical assignments and counters.
func (s *Service) AutoAssignAll(ctx context.Context, entityType assignment.EntityType) (*AutoAssignResult, error) {
	territories, err := s.activeTerritories(ctx)
	if err != nil {
		return nil, err
	}

	result := &AutoAssignResult{}
	if len(territories) == 0 {
		return result, nil
	}

	chunk := s.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}

	err = s.entities.IterateByType(ctx, entityType, chunk, func(entityID int, get rules.FieldValue) error {
		matched := findMatchingTerritory(get, territories)
		if matched == nil {
			return nil
		}

		existing, err := s.FindByEntity(ctx, entityType, entityID)
		if err != nil && err.Error() != "assignment not found" {
			log.Printf("[AUTO-ASSIGN] lookup failed for %s %d: %v", entityType, entityID, err)
			result.Failed++
			return nil
		}

		if existing != nil {
			if !existing.AutoAssigned {
				// Placed by an operator; the batch never clobbers it.
				result.Skipped++
				return nil
			}
			if existing.TerritoryID == matched.ID {
				return nil
			}
		}

		if _, _, err := s.upsert(ctx, matched.ID, entityType, entityID, true); err != nil {
			log.Printf("[AUTO-ASSIGN] assign failed for %s %d: %v", entityType, entityID, err)
			result.Failed++
			return nil
		}
		result.Assigned++
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Final consistency pass: recompute every active territory, not just the
	// touched ones, continuing past individual failures.
	for _, t := range territories {
		if err := s.RecomputeCounters(ctx, t.ID); err != nil {
			log.Printf("[AUTO-ASSIGN] recompute failed for territory %d: %v", t.ID, err)
		}
	}

	return result, nil
}

// RecomputeAll re-derives counters for every territory, active or not. The
// nightly reconciliation sweep uses it to self-heal any recompute call missed
// by a crashed mutation path.
func (s *Service) RecomputeAll(ctx context.Context) error {
	ids, err := s.client.Territory.Query().IDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.RecomputeCounters(ctx, id); err != nil {
			log.Printf("[RECONCILE] recompute failed for territory %d: %v", id, err)
		}
	}
	return nil
}
