package assignment

import (
	"context"
	"fmt"

	"github.com/jordanlanch/territorydb/ent"
	"github.com/jordanlanch/territorydb/ent/assignment"
	"github.com/jordanlanch/territorydb/ent/territory"
	"github.com/jordanlanch/territorydb/pkg/rules"
)

// findMatchingTerritory returns the first territory in the given order whose
// full rule set matches the entity, or nil. First match wins; overlapping
// rule sets are resolved purely by the caller-supplied ordering.
func findMatchingTerritory(get rules.FieldValue, territories []*ent.Territory) *ent.Territory {
	for _, t := range territories {
		if rules.MatchRules(t.Rules, get) {
			return t
		}
	}
	return nil
}

// activeTerritories lists active territories in match order. Ordering is
// deterministic: priority ascending, then id as the tie-break.
func (s *Service) activeTerritories(ctx context.Context) ([]*ent.Territory, error) {
	list, err := s.client.Territory.Query().
		Where(territory.Active(true)).
		Order(ent.Asc(territory.FieldPriority), ent.Asc(territory.FieldID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active territories: %w", err)
	}
	return list, nil
}

// MatchTerritory reports which territory would own the entity under the
// current rule sets, without writing anything. Returns nil when no active
// territory matches.
func (s *Service) MatchTerritory(ctx context.Context, entityType assignment.EntityType, entityID int) (*ent.Territory, error) {
	get, err := s.entities.FieldValue(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	territories, err := s.activeTerritories(ctx)
	if err != nil {
		return nil, err
	}

	return findMatchingTerritory(get, territories), nil
}
