// Package dialog implements the per-record dialog state machine. One
// controller instance backs one open dialog: it owns a disposable
// working copy of the record, runs validation before any mutation, and
// reconciles results back to the roster through a completion signal.
package dialog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/internal/models"
	appErrors "github.com/noah-isme/student-console-api/pkg/errors"
)

// Mode selects what an open dialog is for.
type Mode int

const (
	ModeView Mode = iota
	ModeEdit
	ModeDelete
	ModeCreate
)

func (m Mode) String() string {
	switch m {
	case ModeView:
		return "view"
	case ModeEdit:
		return "edit"
	case ModeDelete:
		return "delete"
	case ModeCreate:
		return "create"
	}
	return "unknown"
}

// State of the dialog machine.
type State int

const (
	StateClosed State = iota
	StateLoading
	StateReady
	StateSubmitting
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// Gateway is the slice of the store client the dialog needs.
type Gateway interface {
	FetchByID(ctx context.Context, id string) (models.Record, error)
	Create(ctx context.Context, draft models.Record) (models.Record, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// Validator guards mutations.
type Validator interface {
	Validate(candidate models.Record) map[string]string
}

// Auditor records completed mutations. Implementations must tolerate
// failure without affecting the mutation itself.
type Auditor interface {
	RecordMutation(ctx context.Context, actor, action, recordID string)
}

// Controller is the dialog state machine. At most one store call is in
// flight per instance; a generation counter turns completions that
// arrive after Close into no-ops so a closed dialog cannot resurrect.
type Controller struct {
	mu          sync.Mutex
	state       State
	mode        Mode
	recordID    string
	working     models.Record
	fieldErrors map[string]string
	notice      string
	generation  uint64

	gateway  Gateway
	validate Validator
	auditor  Auditor
	logger   *zap.Logger
	actor    string
	onDone   func(ctx context.Context)
}

// Factory builds controllers sharing the same collaborators.
type Factory struct {
	gateway  Gateway
	validate Validator
	auditor  Auditor
	logger   *zap.Logger
}

// NewFactory wires the shared dialog collaborators.
func NewFactory(gateway Gateway, validate Validator, auditor Auditor, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{gateway: gateway, validate: validate, auditor: auditor, logger: logger}
}

// New creates a closed controller for one dialog instance. onDone fires
// after every successful mutation so the roster can refresh; nil is
// allowed for view dialogs.
func (f *Factory) New(mode Mode, actor string, onDone func(ctx context.Context)) *Controller {
	return &Controller{
		state:       StateClosed,
		mode:        mode,
		fieldErrors: make(map[string]string),
		gateway:     f.gateway,
		validate:    f.validate,
		auditor:     f.auditor,
		logger:      f.logger,
		actor:       actor,
		onDone:      onDone,
	}
}

// Open transitions Closed -> Loading -> Ready, fetching the record for
// view/edit/delete. Create mode skips the fetch and opens directly on
// an empty draft.
func (c *Controller) Open(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return appErrors.Clone(appErrors.ErrConflict, "dialog already open")
	}

	if c.mode == ModeCreate {
		c.state = StateReady
		c.working = models.Record{}
		c.fieldErrors = make(map[string]string)
		c.notice = ""
		c.mu.Unlock()
		return nil
	}

	if id == "" {
		c.mu.Unlock()
		return appErrors.Clone(appErrors.ErrValidation, "record id is required")
	}

	c.state = StateLoading
	c.recordID = id
	gen := c.generation
	c.mu.Unlock()

	record, err := c.gateway.FetchByID(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		// dialog was closed while the fetch ran; drop the result
		c.logger.Debug("discarding stale fetch", zap.String("record_id", id))
		return nil
	}

	if err != nil {
		c.state = StateErrored
		if appErrors.HasCode(err, appErrors.ErrNotFound) {
			c.notice = "record not found"
		} else {
			c.notice = appErrors.FromError(err).Message
		}
		return err
	}

	c.state = StateReady
	c.working = record
	c.fieldErrors = make(map[string]string)
	c.notice = ""
	return nil
}

// SetField updates the working copy in edit/create mode. Any error
// previously recorded for that field is cleared immediately; the new
// value is not re-validated until submit.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return appErrors.Clone(appErrors.ErrConflict, "dialog is not accepting input")
	}
	if c.mode != ModeEdit && c.mode != ModeCreate {
		return appErrors.Clone(appErrors.ErrConflict, "dialog is read-only")
	}
	if err := c.working.SetField(name, value); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown field")
	}
	delete(c.fieldErrors, name)
	return nil
}

// Submit validates the working copy and pushes it to the store. On
// validation failure the dialog stays Ready with the errors attached
// and nothing is sent. On store failure the working copy and errors
// are preserved so the operator loses no input. A submit while another
// submission is in flight is ignored.
func (c *Controller) Submit(ctx context.Context) (models.Record, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return models.Record{}, appErrors.Clone(appErrors.ErrConflict, "submission already in flight")
	}
	if c.state != StateReady {
		c.mu.Unlock()
		return models.Record{}, appErrors.Clone(appErrors.ErrConflict, "dialog is not ready to submit")
	}
	if c.mode != ModeEdit && c.mode != ModeCreate {
		c.mu.Unlock()
		return models.Record{}, appErrors.Clone(appErrors.ErrConflict, "dialog mode does not submit")
	}

	candidate := c.working
	if errs := c.validate.Validate(candidate); len(errs) > 0 {
		c.fieldErrors = errs
		c.mu.Unlock()
		return models.Record{}, appErrors.WithFields(errs)
	}

	c.state = StateSubmitting
	c.notice = ""
	gen := c.generation
	mode := c.mode
	recordID := c.recordID
	c.mu.Unlock()

	var (
		result models.Record
		err    error
	)
	if mode == ModeCreate {
		result, err = c.gateway.Create(ctx, candidate)
	} else {
		result = candidate
		err = c.gateway.Update(ctx, recordID, candidate.FieldMap())
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		c.logger.Debug("discarding stale submission", zap.String("mode", mode.String()))
		return models.Record{}, nil
	}

	if err != nil {
		c.state = StateReady
		c.notice = appErrors.FromError(err).Message
		c.mu.Unlock()
		return models.Record{}, err
	}

	c.state = StateClosed
	c.working = models.Record{}
	c.fieldErrors = make(map[string]string)
	c.generation++
	c.mu.Unlock()

	action := models.AuditActionRecordUpdate
	if mode == ModeCreate {
		action = models.AuditActionRecordCreate
	}
	c.audit(ctx, action, result.ID)
	c.signalDone(ctx)
	return result, nil
}

// ConfirmDelete drives the delete flow: Ready -> Submitting -> Closed
// on success, back to Ready with a notice on store failure.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return appErrors.Clone(appErrors.ErrConflict, "submission already in flight")
	}
	if c.state != StateReady || c.mode != ModeDelete {
		c.mu.Unlock()
		return appErrors.Clone(appErrors.ErrConflict, "dialog is not confirming a delete")
	}

	c.state = StateSubmitting
	c.notice = ""
	gen := c.generation
	recordID := c.recordID
	c.mu.Unlock()

	err := c.gateway.Delete(ctx, recordID)

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		c.logger.Debug("discarding stale delete", zap.String("record_id", recordID))
		return nil
	}

	if err != nil {
		c.state = StateReady
		c.notice = appErrors.FromError(err).Message
		c.mu.Unlock()
		return err
	}

	c.state = StateClosed
	c.working = models.Record{}
	c.generation++
	c.mu.Unlock()

	c.audit(ctx, models.AuditActionRecordDelete, recordID)
	c.signalDone(ctx)
	return nil
}

// Close discards the working copy unconditionally from any state. An
// in-flight call keeps running and its completion is dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
	c.working = models.Record{}
	c.fieldErrors = make(map[string]string)
	c.notice = ""
	c.generation++
}

// State reports the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Working returns a copy of the dialog's working record.
func (c *Controller) Working() models.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.working
}

// FieldErrors returns a copy of the recorded field errors.
func (c *Controller) FieldErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.fieldErrors))
	for k, v := range c.fieldErrors {
		out[k] = v
	}
	return out
}

// Notice returns the current failure notice, if any.
func (c *Controller) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

func (c *Controller) audit(ctx context.Context, action, recordID string) {
	if c.auditor == nil {
		return
	}
	c.auditor.RecordMutation(ctx, c.actor, action, recordID)
}

func (c *Controller) signalDone(ctx context.Context) {
	if c.onDone != nil {
		c.onDone(ctx)
	}
}
