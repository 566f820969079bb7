package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-console-api/internal/models"
	appErrors "github.com/noah-isme/student-console-api/pkg/errors"
)

type mockLister struct {
	records []models.Record
	err     error
	calls   int
}

func (m *mockLister) List(ctx context.Context) ([]models.Record, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func TestLoadReplacesWorkingSet(t *testing.T) {
	lister := &mockLister{records: []models.Record{{ID: "u1", Name: "Jo"}, {ID: "u2", Name: "Sam"}}}
	orch := NewOrchestrator(lister, nil)

	require.NoError(t, orch.Load(context.Background()))
	assert.Len(t, orch.Records(), 2)

	lister.records = []models.Record{{ID: "u2", Name: "Sam"}}
	require.NoError(t, orch.Load(context.Background()))
	assert.Len(t, orch.Records(), 1)
}

func TestLoadFailureKeepsPreviousWorkingSet(t *testing.T) {
	lister := &mockLister{records: []models.Record{{ID: "u1"}}}
	orch := NewOrchestrator(lister, nil)
	require.NoError(t, orch.Load(context.Background()))

	lister.err = appErrors.Clone(appErrors.ErrStoreUnavailable, "")
	require.Error(t, orch.Load(context.Background()))
	assert.Len(t, orch.Records(), 1, "failed refresh leaves the set intact")
}

func TestOnMutationCompletedRefetches(t *testing.T) {
	lister := &mockLister{records: []models.Record{{ID: "u1"}}}
	orch := NewOrchestrator(lister, nil)
	require.NoError(t, orch.Load(context.Background()))

	lister.records = []models.Record{{ID: "u1"}, {ID: "u2"}}
	orch.OnMutationCompleted(context.Background())
	assert.Len(t, orch.Records(), 2)
	assert.Equal(t, 2, lister.calls)
}

func TestSelectionOperations(t *testing.T) {
	lister := &mockLister{records: []models.Record{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}}}
	orch := NewOrchestrator(lister, nil)
	require.NoError(t, orch.Load(context.Background()))

	assert.True(t, orch.ToggleSelect("u2"))
	assert.Equal(t, []string{"u2"}, orch.Selected())
	assert.False(t, orch.ToggleSelect("u2"))
	assert.Empty(t, orch.Selected())

	orch.SelectAll()
	assert.Equal(t, []string{"u1", "u2", "u3"}, orch.Selected())

	orch.ClearSelection()
	assert.Empty(t, orch.Selected())
}

func TestLoadPrunesStaleSelection(t *testing.T) {
	lister := &mockLister{records: []models.Record{{ID: "u1"}, {ID: "u2"}}}
	orch := NewOrchestrator(lister, nil)
	require.NoError(t, orch.Load(context.Background()))
	orch.SelectAll()

	lister.records = []models.Record{{ID: "u2"}}
	require.NoError(t, orch.Load(context.Background()))
	assert.Equal(t, []string{"u2"}, orch.Selected())
}

func TestRegistryIsolatesSessions(t *testing.T) {
	lister := &mockLister{records: []models.Record{{ID: "u1"}}}
	registry := NewRegistry(lister, nil)

	a := registry.For("op-a")
	b := registry.For("op-b")
	require.NotSame(t, a, b)
	assert.Same(t, a, registry.For("op-a"))

	require.NoError(t, a.Load(context.Background()))
	a.SelectAll()
	assert.Empty(t, b.Selected(), "selection state is per session")

	registry.Drop("op-a")
	assert.NotSame(t, a, registry.For("op-a"))
}
