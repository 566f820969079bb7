// Package roster owns the list view's working set of records and its
// selection state. It performs no validation and mutates nothing in the
// store: dialogs do the mutating, the roster only reacts to their
// completion signal by refetching.
package roster

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/internal/models"
)

// Lister is the slice of the store gateway the roster needs.
type Lister interface {
	List(ctx context.Context) ([]models.Record, error)
}

// Orchestrator holds one operator's working set and selected ids.
type Orchestrator struct {
	mu       sync.Mutex
	gateway  Lister
	logger   *zap.Logger
	records  []models.Record
	selected map[string]struct{}
}

// NewOrchestrator builds an empty orchestrator.
func NewOrchestrator(gateway Lister, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		gateway:  gateway,
		logger:   logger,
		selected: make(map[string]struct{}),
	}
}

// Load replaces the working set wholesale from the store. On failure
// the previous working set is left untouched.
func (o *Orchestrator) Load(ctx context.Context) error {
	records, err := o.gateway.List(ctx)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = records

	// drop selections pointing at records that no longer exist
	known := make(map[string]struct{}, len(records))
	for _, r := range records {
		known[r.ID] = struct{}{}
	}
	for id := range o.selected {
		if _, ok := known[id]; !ok {
			delete(o.selected, id)
		}
	}
	return nil
}

// OnMutationCompleted invalidates and refetches the working set. The
// refresh is idempotent: it simply reflects current store contents.
func (o *Orchestrator) OnMutationCompleted(ctx context.Context) {
	if err := o.Load(ctx); err != nil {
		o.logger.Warn("roster refresh after mutation failed", zap.Error(err))
	}
}

// Records returns a copy of the working set.
func (o *Orchestrator) Records() []models.Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Record, len(o.records))
	copy(out, o.records)
	return out
}

// ToggleSelect flips the selection of one record and reports whether
// it is now selected.
func (o *Orchestrator) ToggleSelect(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.selected[id]; ok {
		delete(o.selected, id)
		return false
	}
	o.selected[id] = struct{}{}
	return true
}

// SelectAll marks every record in the working set as selected.
func (o *Orchestrator) SelectAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, r := range o.records {
		o.selected[r.ID] = struct{}{}
	}
}

// ClearSelection empties the selected set.
func (o *Orchestrator) ClearSelection() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.selected = make(map[string]struct{})
}

// Selected returns the selected ids in working-set order.
func (o *Orchestrator) Selected() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.selected))
	for _, r := range o.records {
		if _, ok := o.selected[r.ID]; ok {
			out = append(out, r.ID)
		}
	}
	return out
}
