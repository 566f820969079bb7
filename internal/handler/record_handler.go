package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/internal/dialog"
	"github.com/noah-isme/student-console-api/internal/models"
	"github.com/noah-isme/student-console-api/internal/roster"
	appErrors "github.com/noah-isme/student-console-api/pkg/errors"
	"github.com/noah-isme/student-console-api/pkg/response"
)

// RecordHandler drives the record lifecycle over HTTP. Every mutation
// runs through a dialog controller so the validate-before-write and
// refresh-after-write rules hold no matter which endpoint was hit.
type RecordHandler struct {
	dialogs *dialog.Factory
	rosters *roster.Registry
	logger  *zap.Logger
}

// NewRecordHandler creates a new handler.
func NewRecordHandler(dialogs *dialog.Factory, rosters *roster.Registry, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{dialogs: dialogs, rosters: rosters, logger: logger}
}

// RecordPayload carries record fields on create and update requests.
// Absent fields stay untouched on update; the closed schema means an
// unknown key is simply never bound.
type RecordPayload struct {
	AdmissionDate  *string `json:"admissionDate"`
	BloodGroup     *string `json:"bloodGroup"`
	RollNo         *string `json:"rollNo"`
	Section        *string `json:"section"`
	Class          *string `json:"class"`
	Name           *string `json:"name"`
	ContactNumber  *string `json:"contactNumber"`
	GuardianName   *string `json:"guardianName"`
	GuardianNumber *string `json:"guardianNumber"`
	DateOfBirth    *string `json:"dateOfBirth"`
	Email          *string `json:"email"`
}

func (p RecordPayload) fields() map[string]string {
	out := make(map[string]string)
	set := func(name string, v *string) {
		if v != nil {
			out[name] = *v
		}
	}
	set("admissionDate", p.AdmissionDate)
	set("bloodGroup", p.BloodGroup)
	set("rollNo", p.RollNo)
	set("section", p.Section)
	set("class", p.Class)
	set("name", p.Name)
	set("contactNumber", p.ContactNumber)
	set("guardianName", p.GuardianName)
	set("guardianNumber", p.GuardianNumber)
	set("dateOfBirth", p.DateOfBirth)
	set("email", p.Email)
	return out
}

// List refreshes and returns the caller's working set. When the store
// is unreachable the previous working set is served with a notice so
// the operator keeps what they had.
func (h *RecordHandler) List(c *gin.Context) {
	o := h.rosters.For(actorFromContext(c))

	meta := map[string]interface{}{}
	if err := o.Load(c.Request.Context()); err != nil {
		records := o.Records()
		if len(records) == 0 {
			response.Error(c, err)
			return
		}
		h.logger.Warn("roster refresh failed, serving previous working set", zap.Error(err))
		meta["notice"] = appErrors.FromError(err).Message
	}

	meta["selected"] = o.Selected()
	response.JSON(c, http.StatusOK, o.Records(), meta)
}

// Get opens a view dialog on one record.
func (h *RecordHandler) Get(c *gin.Context) {
	ctrl := h.dialogs.New(dialog.ModeView, actorFromContext(c), nil)
	if err := ctrl.Open(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	record := ctrl.Working()
	ctrl.Close()

	response.JSON(c, http.StatusOK, record)
}

// Create runs the create dialog: empty draft, supplied fields, submit.
func (h *RecordHandler) Create(c *gin.Context) {
	var payload RecordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid record payload"))
		return
	}

	o := h.rosters.For(actorFromContext(c))
	ctrl := h.dialogs.New(dialog.ModeCreate, actorFromContext(c), o.OnMutationCompleted)
	if err := ctrl.Open(c.Request.Context(), ""); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.applyFields(ctrl, payload); err != nil {
		response.Error(c, err)
		return
	}

	record, err := ctrl.Submit(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update runs the edit dialog: fetch, apply supplied fields, submit.
func (h *RecordHandler) Update(c *gin.Context) {
	var payload RecordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid record payload"))
		return
	}

	o := h.rosters.For(actorFromContext(c))
	ctrl := h.dialogs.New(dialog.ModeEdit, actorFromContext(c), o.OnMutationCompleted)
	if err := ctrl.Open(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.applyFields(ctrl, payload); err != nil {
		response.Error(c, err)
		return
	}

	record, err := ctrl.Submit(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Delete runs the delete dialog: fetch, confirm, remove.
func (h *RecordHandler) Delete(c *gin.Context) {
	o := h.rosters.For(actorFromContext(c))
	ctrl := h.dialogs.New(dialog.ModeDelete, actorFromContext(c), o.OnMutationCompleted)
	if err := ctrl.Open(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	if err := ctrl.ConfirmDelete(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ToggleSelection flips one record in or out of the caller's selection.
func (h *RecordHandler) ToggleSelection(c *gin.Context) {
	o := h.rosters.For(actorFromContext(c))
	selected := o.ToggleSelect(c.Param("id"))
	response.JSON(c, http.StatusOK, gin.H{"selected": selected, "selection": o.Selected()})
}

// SelectAll marks the whole working set selected.
func (h *RecordHandler) SelectAll(c *gin.Context) {
	o := h.rosters.For(actorFromContext(c))
	o.SelectAll()
	response.JSON(c, http.StatusOK, gin.H{"selection": o.Selected()})
}

// ClearSelection empties the caller's selection.
func (h *RecordHandler) ClearSelection(c *gin.Context) {
	o := h.rosters.For(actorFromContext(c))
	o.ClearSelection()
	response.NoContent(c)
}

// applyFields feeds payload fields into the dialog in schema order.
func (h *RecordHandler) applyFields(ctrl *dialog.Controller, payload RecordPayload) error {
	fields := payload.fields()
	for _, name := range models.FieldNames {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if err := ctrl.SetField(name, value); err != nil {
			return err
		}
	}
	return nil
}
