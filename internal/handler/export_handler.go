package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/internal/models"
	"github.com/noah-isme/student-console-api/internal/roster"
	appErrors "github.com/noah-isme/student-console-api/pkg/errors"
	"github.com/noah-isme/student-console-api/pkg/export"
	"github.com/noah-isme/student-console-api/pkg/response"
)

// ExportHandler renders the caller's working set as a downloadable
// file. When a selection is active only the selected records are
// exported.
type ExportHandler struct {
	rosters *roster.Registry
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportHandler creates a new handler.
func NewExportHandler(rosters *roster.Registry, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{rosters: rosters, csv: csv, pdf: pdf, logger: logger}
}

// Export streams the working set in the requested format (csv or pdf).
func (h *ExportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	o := h.rosters.For(actorFromContext(c))
	if len(o.Records()) == 0 {
		if err := o.Load(c.Request.Context()); err != nil {
			response.Error(c, err)
			return
		}
	}

	dataset := buildDataset(o)
	filename := fmt.Sprintf("student-records-%s", time.Now().UTC().Format("2006-01-02"))

	switch format {
	case "csv":
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(dataset, "Student Records")
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
	}
}

func buildDataset(o *roster.Orchestrator) export.Dataset {
	records := o.Records()

	if selected := o.Selected(); len(selected) > 0 {
		keep := make(map[string]struct{}, len(selected))
		for _, id := range selected {
			keep[id] = struct{}{}
		}
		filtered := records[:0:0]
		for _, r := range records {
			if _, ok := keep[r.ID]; ok {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	headers := append([]string{"id"}, models.FieldNames...)
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		row := make(map[string]string, len(headers))
		row["id"] = r.ID
		for _, name := range models.FieldNames {
			value, _ := r.Field(name)
			row[name] = value
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
