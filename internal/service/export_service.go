package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/orkestre/orkestre-api/internal/models"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
	"github.com/orkestre/orkestre-api/pkg/export"
)

// ExportFormat enumerates supported agenda export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered agenda document.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders an establishment's day agenda as a downloadable
// document.
type ExportService struct {
	appointments appointmentStore
	services     serviceReader
	csv          csvRenderer
	pdf          pdfRenderer
	logger       *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(appointments appointmentStore, services serviceReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{appointments: appointments, services: services, csv: csv, pdf: pdf, logger: logger}
}

var agendaHeaders = []string{"Start", "End", "Service", "Customer", "Phone", "Status"}

// DayAgenda renders every appointment of the establishment on the given date.
func (s *ExportService) DayAgenda(ctx context.Context, establishmentID int64, date string, format ExportFormat) (*ExportResult, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "appointment_date must be YYYY-MM-DD")
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	appts, _, err := s.appointments.List(ctx, models.AppointmentFilter{
		EstablishmentID: establishmentID,
		Date:            &day,
		Page:            1,
		PageSize:        100,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agenda")
	}

	dataset := export.Dataset{Headers: agendaHeaders, Rows: make([]map[string]string, 0, len(appts))}
	serviceNames := map[int64]string{}
	for _, appt := range appts {
		name, ok := serviceNames[appt.ServiceID]
		if !ok {
			if svc, err := s.services.FindByID(ctx, appt.ServiceID); err == nil {
				name = svc.Name
			}
			serviceNames[appt.ServiceID] = name
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Start":    appt.StartTime.Format("15:04"),
			"End":      appt.EndTime.Format("15:04"),
			"Service":  name,
			"Customer": appt.CustomerName,
			"Phone":    appt.CustomerPhone,
			"Status":   string(appt.Status),
		})
	}

	result := &ExportResult{Filename: fmt.Sprintf("agenda-%s.%s", date, format)}
	switch format {
	case ExportFormatCSV:
		result.ContentType = "text/csv"
		result.Payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		result.ContentType = "application/pdf"
		result.Payload, err = s.pdf.Render(dataset, "Agenda "+date)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render agenda export")
	}

	s.logger.Info("agenda exported",
		zap.Int64("establishment_id", establishmentID),
		zap.String("date", date),
		zap.String("format", string(format)),
		zap.Int("appointments", len(appts)),
	)
	return result, nil
}
