package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openlearn/openlearn-api/internal/dto"
	"github.com/openlearn/openlearn-api/internal/models"
	appErrors "github.com/openlearn/openlearn-api/pkg/errors"
	"github.com/openlearn/openlearn-api/pkg/export"
)

type auditListReader interface {
	List(ctx context.Context, filter models.BulkAuditFilter) ([]models.BulkAuditRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.BulkAuditRecord, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// AuditTrailService exposes the bulk operation audit trail for operational
// querying and export.
type AuditTrailService struct {
	audits auditListReader
	csv    datasetRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewAuditTrailService builds the service.
func NewAuditTrailService(audits auditListReader, csv datasetRenderer, pdf pdfRenderer, logger *zap.Logger) *AuditTrailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditTrailService{audits: audits, csv: csv, pdf: pdf, logger: logger}
}

// List returns audit records with decoded metadata, newest first.
func (s *AuditTrailService) List(ctx context.Context, filter models.BulkAuditFilter) ([]dto.AuditRecordView, *models.Pagination, error) {
	records, total, err := s.audits.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit records")
	}

	views := make([]dto.AuditRecordView, 0, len(records))
	for _, record := range records {
		views = append(views, s.toView(record))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return views, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one audit record by ID.
func (s *AuditTrailService) Get(ctx context.Context, id string) (*dto.AuditRecordView, error) {
	record, err := s.audits.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "audit record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit record")
	}
	view := s.toView(*record)
	return &view, nil
}

// ExportCSV renders the filtered audit trail as CSV.
func (s *AuditTrailService) ExportCSV(ctx context.Context, filter models.BulkAuditFilter) ([]byte, string, error) {
	dataset, err := s.dataset(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	raw, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return raw, exportFilename("csv"), nil
}

// ExportPDF renders the filtered audit trail as a tabular PDF.
func (s *AuditTrailService) ExportPDF(ctx context.Context, filter models.BulkAuditFilter) ([]byte, string, error) {
	dataset, err := s.dataset(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	raw, err := s.pdf.Render(dataset, "Bulk Assignment Audit Trail")
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return raw, exportFilename("pdf"), nil
}

// exportPageSize bounds one List call during export; dataset pages until the
// filtered trail is exhausted.
const exportPageSize = 100

func (s *AuditTrailService) dataset(ctx context.Context, filter models.BulkAuditFilter) (export.Dataset, error) {
	dataset := export.Dataset{
		Headers: []string{"ID", "Performed By", "Operation", "Status", "Total", "Created", "Skipped", "Failed", "Started At", "Duration (s)"},
	}

	filter.Page = 1
	filter.PageSize = exportPageSize
	for {
		records, _, err := s.audits.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit records")
		}
		for _, record := range records {
			duration := ""
			if record.DurationSeconds != nil {
				duration = strconv.FormatFloat(*record.DurationSeconds, 'f', 3, 64)
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"ID":           record.ID,
				"Performed By": record.PerformedBy,
				"Operation":    string(record.OperationType),
				"Status":       string(record.Status),
				"Total":        strconv.Itoa(record.TotalItems),
				"Created":      strconv.Itoa(record.CreatedCount),
				"Skipped":      strconv.Itoa(record.SkippedCount),
				"Failed":       strconv.Itoa(record.FailedCount),
				"Started At":   record.StartedAt.Format(time.RFC3339),
				"Duration (s)": duration,
			})
		}
		if len(records) < exportPageSize {
			return dataset, nil
		}
		filter.Page++
	}
}

func (s *AuditTrailService) toView(record models.BulkAuditRecord) dto.AuditRecordView {
	view := dto.AuditRecordView{BulkAuditRecord: record}
	meta, err := record.DecodeMetadata()
	if err != nil {
		s.logger.Warn("failed to decode audit metadata", zap.String("audit_id", record.ID), zap.Error(err))
	}
	view.Metadata = meta
	items, err := record.DecodeFailedItems()
	if err != nil {
		s.logger.Warn("failed to decode failed items", zap.String("audit_id", record.ID), zap.Error(err))
	}
	view.FailedItems = items
	return view
}

func exportFilename(ext string) string {
	return fmt.Sprintf("bulk-audit-%s.%s", time.Now().UTC().Format("20060102-150405"), ext)
}
