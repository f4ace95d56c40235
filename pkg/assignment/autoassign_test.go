package assignment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/territorydb/ent/assignment"
	"github.com/jordanlanch/territorydb/pkg/rules"
)

func westRules() []rules.Rule {
	return []rules.Rule{
		{ID: "r1", Field: rules.FieldRegion, Operator: rules.OpEquals, Value: "West"},
	}
}

func TestAutoAssignAll_AssignsMatches(t *testing.T) {
	service, client := setupTestService(t)
	defer client.Close()
	ctx := context.Background()

	tr := createTestTerritory(t, client, "West", 0, westRules())
	createTestCompany(t, client, "Acme", "West", "CA", "51-200")
	createTestCompany(t, client, "Globex", "West", "OR", "201-500")
	createTestCompany(t, client, "Eastern Co", "East", "NY", "51-200")

	result, err := service.AutoAssignAll(ctx, assignment.EntityTypeCompany)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Assigned)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)

	updated, err := client.Territory.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.AssignedCompanies)

	rows, err := client.Assignment.Query().All(ctx)
	require.NoError(t, err)
	for _, r := range rows {
		assert.True(t, r.AutoAssigned)
	}
}

func TestAutoAssignAll_NeverOverwritesManual(t *testing.T) {
	service, client := setupTestService(t)
	defer client.Close()
	ctx := context.Background()

	manual := createTestTerritory(t, client, "Manual Holding", 0, nil)
	west := createTestTerritory(t, client, "West", 1, westRules())
	company := createTestCompany(t, client, "Acme", "West", "CA", "51-200")

	// Operator placed this company by hand
	_, err := service.Assign(ctx, manual.ID, assignment.EntityTypeCompany, company.ID, false)
	require.NoError(t, err)

	result, err := service.AutoAssignAll(ctx, assignment.EntityTypeCompany)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Assigned)
	assert.Equal(t, 1, result.Skipped)

	existing, err := service.FindByEntity(ctx, assignment.EntityTypeCompany, company.ID)
	require.NoError(t, err)
	assert.Equal(t, manual.ID, existing.TerritoryID)
	assert.False(t, existing.AutoAssigned)

	w, err := client.Territory.Get(ctx, west.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, w.AssignedCompanies)
}

func TestAutoAssignAll_RepointsStaleAutoAssignments(t *testing.T) {
	service, client := setupTestService(t)
	defer client.Close()
	ctx := context.Background()

	old := createTestTerritory(t, client, "Old Owner", 5, nil)
	west := createTestTerritory(t, client, "West", 0, westRules())
	company := createTestCompany(t, client, "Acme", "West", "CA", "51-200")

	// Auto-assigned previously, but the rules now resolve elsewhere
	_, err := service.Assign(ctx, old.ID, assignment.EntityTypeCompany, company.ID, true)
	require.NoError(t, err)

	result, err := service.AutoAssignAll(ctx, assignment.EntityTypeCompany)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Assigned)

	existing, err := service.FindByEntity(ctx, assignment.EntityTypeCompany, company.ID)
	require.NoError(t, err)
	assert.Equal(t, west.ID, existing.TerritoryID)

	o, err := client.Territory.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, o.AssignedCompanies)
}

func TestAutoAssignAll_IsIdempotent(t *testing.T) {
	service, client := setupTestService(t)
	defer client.Close()
	ctx := context.Background()

	tr := createTestTerritory(t, client, "West", 0, westRules())
	createTestCompany(t, client, "Acme", "West", "CA", "51-200")
	createTestCompany(t, client, "Globex", "West", "OR", "201-500")

	first, err := service.AutoAssignAll(ctx, assignment.EntityTypeCompany)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Assigned)

	// Back-to-back run over unchanged data writes nothing
	second, err := service.AutoAssignAll(ctx, assignment.EntityTypeCompany)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Assigned)
	assert.Equal(t, 0, second.Skipped)
	assert.Equal(t, 0, second.Failed)

	count, err := client.Assignment.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	updated, err := client.Territory.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.AssignedCompanies)
}

func TestAutoAssignAll_NoActiveTerritories(t *testing.T) {
	service, client := setupTestService(t)
	defer client.Close()

	createTestCompany(t, client, "Acme", "West", "CA", "51-200")

	result, err := service.AutoAssignAll(context.Background(), assignment.EntityTypeCompany)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Assigned)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)
}

func TestAutoAssignAll_SmallChunksCoverAllEntities(t *testing.T) {
	service, client := setupTestService(t)
	defer client.Close()
	ctx := context.Background()

	tr := createTestTerritory(t, client, "West", 0, westRules())
	for i := 0; i < 7; i++ {
		createTestCompany(t, client, "Company", "West", "CA", "51-200")
	}

	service.ChunkSize = 3

	result, err := service.AutoAssignAll(ctx, assignment.EntityTypeCompany)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Assigned)

	updated, err := client.Territory.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.AssignedCompanies)
}

func TestRecomputeAll_HealsDriftedCounters(t *testing.T) {
	service, client := setupTestService(t)
	defer client.Close()
	ctx := context.Background()

	tr := createTestTerritory(t, client, "West", 0, westRules())
	company := createTestCompany(t, client, "Acme", "West", "CA", "51-200")

	_, err := service.Assign(ctx, tr.ID, assignment.EntityTypeCompany, company.ID, false)
	require.NoError(t, err)

	// Simulate counter drift from a crashed mutation path
	_, err = client.Territory.UpdateOneID(tr.ID).SetAssignedCompanies(99).Save(ctx)
	require.NoError(t, err)

	require.NoError(t, service.RecomputeAll(ctx))

	updated, err := client.Territory.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.AssignedCompanies)
}
