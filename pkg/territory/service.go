package territory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jordanlanch/territorydb/ent"
	"github.com/jordanlanch/territorydb/ent/assignment"
	"github.com/jordanlanch/territorydb/ent/territory"
	"github.com/jordanlanch/territorydb/pkg/cache"
	"github.com/jordanlanch/territorydb/pkg/rules"
)

// Service handles territory management operations.
type Service struct {
	client *ent.Client
	cache  *cache.Client
}

// NewService creates a new territory service.
func NewService(client *ent.Client, cacheClient *cache.Client) *Service {
	return &Service{client: client, cache: cacheClient}
}

// TerritoryResponse represents a territory with its details.
type TerritoryResponse struct {
	ID                int          `json:"id"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	Color             string       `json:"color"`
	OwnerUserID       *int         `json:"owner_user_id,omitempty"`
	Rules             []rules.Rule `json:"rules"`
	Priority          int          `json:"priority"`
	Active            bool         `json:"active"`
	AssignedContacts  int          `json:"assigned_contacts"`
	AssignedCompanies int          `json:"assigned_companies"`
	AssignedDeals     int          `json:"assigned_deals"`
	TotalDealValue    float64      `json:"total_deal_value"`
	CreatedAt         string       `json:"created_at"`
	UpdatedAt         string       `json:"updated_at"`
}

// AssignmentSummary is one assignment row inside a territory detail response.
type AssignmentSummary struct {
	ID           int       `json:"id"`
	EntityID     int       `json:"entity_id"`
	AutoAssigned bool      `json:"auto_assigned"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// TerritoryDetailResponse is a territory plus its assignments grouped by
// entity type.
type TerritoryDetailResponse struct {
	TerritoryResponse
	Assignments map[string][]AssignmentSummary `json:"assignments"`
}

// RegionStats aggregates territories that share a region rule.
type RegionStats struct {
	Region         string  `json:"region"`
	Territories    int     `json:"territories"`
	TotalContacts  int     `json:"total_contacts"`
	TotalCompanies int     `json:"total_companies"`
	TotalDeals     int     `json:"total_deals"`
	TotalValue     float64 `json:"total_value"`
}

// CreateTerritoryRequest represents a request to create a territory.
type CreateTerritoryRequest struct {
	Name        string       `json:"name" validate:"required"`
	Description string       `json:"description"`
	Color       string       `json:"color"`
	OwnerUserID *int         `json:"owner_user_id"`
	Rules       []rules.Rule `json:"rules"`
	Priority    int          `json:"priority"`
	Active      *bool        `json:"active"`
}

// UpdateTerritoryRequest represents a partial territory update.
type UpdateTerritoryRequest struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Color       *string       `json:"color"`
	OwnerUserID *int          `json:"owner_user_id"`
	Rules       *[]rules.Rule `json:"rules"`
	Priority    *int          `json:"priority"`
	Active      *bool         `json:"active"`
}

// CreateTerritory creates a new territory. Rule definitions are validated
// here so a typo'd field or operator is rejected instead of silently never
// matching.
func (s *Service) CreateTerritory(ctx context.Context, req CreateTerritoryRequest) (*TerritoryResponse, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("territory name is required")
	}
	if err := rules.ValidateAll(req.Rules); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	builder := s.client.Territory.
		Create().
		SetName(req.Name).
		SetPriority(req.Priority)

	if req.Description != "" {
		builder.SetDescription(req.Description)
	}

	if req.Color != "" {
		builder.SetColor(req.Color)
	}

	if req.OwnerUserID != nil {
		builder.SetOwnerUserID(*req.OwnerUserID)
	}

	if len(req.Rules) > 0 {
		builder.SetRules(req.Rules)
	}

	if req.Active != nil {
		builder.SetActive(*req.Active)
	}

	t, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create territory: %w", err)
	}

	s.invalidateCache(ctx)

	return toTerritoryResponse(t), nil
}

// UpdateTerritory updates a territory. Only the provided fields change.
func (s *Service) UpdateTerritory(ctx context.Context, territoryID int, req UpdateTerritoryRequest) (*TerritoryResponse, error) {
	// Verify territory exists
	exists, err := s.client.Territory.Query().Where(territory.ID(territoryID)).Exist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check territory: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("territory not found")
	}

	if req.Rules != nil {
		if err := rules.ValidateAll(*req.Rules); err != nil {
			return nil, fmt.Errorf("invalid rules: %w", err)
		}
	}

	builder := s.client.Territory.UpdateOneID(territoryID)

	if req.Name != nil {
		builder.SetName(*req.Name)
	}

	if req.Description != nil {
		builder.SetDescription(*req.Description)
	}

	if req.Color != nil {
		builder.SetColor(*req.Color)
	}

	if req.OwnerUserID != nil {
		builder.SetOwnerUserID(*req.OwnerUserID)
	}

	if req.Rules != nil {
		builder.SetRules(*req.Rules)
	}

	if req.Priority != nil {
		builder.SetPriority(*req.Priority)
	}

	if req.Active != nil {
		builder.SetActive(*req.Active)
	}

	t, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update territory: %w", err)
	}

	s.invalidateCache(ctx)

	return toTerritoryResponse(t), nil
}

// DeleteTerritory removes a territory. Its assignment rows are deleted first
// so no assignment can point at a missing territory.
func (s *Service) DeleteTerritory(ctx context.Context, territoryID int) error {
	exists, err := s.client.Territory.Query().Where(territory.ID(territoryID)).Exist(ctx)
	if err != nil {
		return fmt.Errorf("failed to check territory: %w", err)
	}
	if !exists {
		return fmt.Errorf("territory not found")
	}

	_, err = s.client.Assignment.Delete().
		Where(assignment.TerritoryID(territoryID)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete assignments: %w", err)
	}

	if err := s.client.Territory.DeleteOneID(territoryID).Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete territory: %w", err)
	}

	s.invalidateCache(ctx)

	return nil
}

// GetTerritory retrieves a territory with its assignments grouped by entity
// type.
func (s *Service) GetTerritory(ctx context.Context, territoryID int) (*TerritoryDetailResponse, error) {
	t, err := s.client.Territory.Get(ctx, territoryID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("territory not found")
		}
		return nil, fmt.Errorf("failed to get territory: %w", err)
	}

	rows, err := s.client.Assignment.Query().
		Where(assignment.TerritoryID(territoryID)).
		Order(ent.Asc(assignment.FieldID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	grouped := map[string][]AssignmentSummary{
		string(assignment.EntityTypeContact): {},
		string(assignment.EntityTypeCompany): {},
		string(assignment.EntityTypeDeal):    {},
	}
	for _, r := range rows {
		grouped[string(r.EntityType)] = append(grouped[string(r.EntityType)], AssignmentSummary{
			ID:           r.ID,
			EntityID:     r.EntityID,
			AutoAssigned: r.AutoAssigned,
			AssignedAt:   r.AssignedAt,
		})
	}

	return &TerritoryDetailResponse{
		TerritoryResponse: *toTerritoryResponse(t),
		Assignments:       grouped,
	}, nil
}

// ListTerritories retrieves territories in match order (priority, then id),
// counters included. Responses are cached briefly; any mutation or counter
// recompute invalidates the cache.
func (s *Service) ListTerritories(ctx context.Context, includeInactive bool) ([]*TerritoryResponse, error) {
	cacheKey := "territories:list:active"
	if includeInactive {
		cacheKey = "territories:list:all"
	}

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
		var result []*TerritoryResponse
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return result, nil
		}
	}

	query := s.client.Territory.Query()
	if !includeInactive {
		query = query.Where(territory.Active(true))
	}

	territories, err := query.
		Order(ent.Asc(territory.FieldPriority), ent.Asc(territory.FieldID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list territories: %w", err)
	}

	result := make([]*TerritoryResponse, len(territories))
	for i, t := range territories {
		result[i] = toTerritoryResponse(t)
	}

	if payload, err := json.Marshal(result); err == nil {
		_ = s.cache.Set(ctx, cacheKey, payload, 5*time.Minute)
	}

	return result, nil
}

// StatsByRegion groups territories by the value of their region/equals rule
// and sums their counters per group. Territories without such a rule land in
// the "other" bucket.
func (s *Service) StatsByRegion(ctx context.Context) ([]*RegionStats, error) {
	const cacheKey = "territories:stats:region"

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
		var result []*RegionStats
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return result, nil
		}
	}

	territories, err := s.client.Territory.Query().All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list territories: %w", err)
	}

	byRegion := make(map[string]*RegionStats)
	for _, t := range territories {
		region := regionOf(t.Rules)
		stats, ok := byRegion[region]
		if !ok {
			stats = &RegionStats{Region: region}
			byRegion[region] = stats
		}
		stats.Territories++
		stats.TotalContacts += t.AssignedContacts
		stats.TotalCompanies += t.AssignedCompanies
		stats.TotalDeals += t.AssignedDeals
		stats.TotalValue += t.TotalDealValue
	}

	result := make([]*RegionStats, 0, len(byRegion))
	for _, stats := range byRegion {
		result = append(result, stats)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Region < result[j].Region })

	if payload, err := json.Marshal(result); err == nil {
		_ = s.cache.Set(ctx, cacheKey, payload, 5*time.Minute)
	}

	return result, nil
}

// regionOf extracts the territory's region from its first region/equals rule.
func regionOf(ruleSet []rules.Rule) string {
	for _, r := range ruleSet {
		if r.Field == rules.FieldRegion && r.Operator == rules.OpEquals {
			if region, ok := r.Value.(string); ok && region != "" {
				return region
			}
		}
	}
	return "other"
}

func (s *Service) invalidateCache(ctx context.Context) {
	_ = s.cache.DeletePattern(ctx, "territories:*")
}

// Helper function to convert entity to response
func toTerritoryResponse(t *ent.Territory) *TerritoryResponse {
	ruleSet := t.Rules
	if ruleSet == nil {
		ruleSet = []rules.Rule{}
	}

	return &TerritoryResponse{
		ID:                t.ID,
		Name:              t.Name,
		Description:       t.Description,
		Color:             t.Color,
		OwnerUserID:       t.OwnerUserID,
		Rules:             ruleSet,
		Priority:          t.Priority,
		Active:            t.Active,
		AssignedContacts:  t.AssignedContacts,
		AssignedCompanies: t.AssignedCompanies,
		AssignedDeals:     t.AssignedDeals,
		TotalDealValue:    t.TotalDealValue,
		CreatedAt:         t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:         t.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
