package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"referral-intake-service/internal/repository"
)

// Service is a tiny façade over the referral repository that produces
// XLSX bytes for exports.
type Service struct {
	repo   repository.ReferralRepository
	logger *slog.Logger
}

func NewService(repo repository.ReferralRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportReferralsXLSX returns an XLSX workbook (as bytes) listing every
// referral newest-first, one row per record.
func (s *Service) ExportReferralsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query referrals: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Referrals"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Referral ID",
		"Patient Name",
		"Referred By",
		"Referred To",
		"Diagnosis",
		"Date of Birth",
		"Referral Date",
		"Status",
		"Received",
		"Notes",
		"Document",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.ID)
		write(2, r.PatientName)
		write(3, r.ReferredBy)
		write(4, r.ReferredTo)
		write(5, r.Diagnosis)
		write(6, r.DOB)
		write(7, r.ReferralDate)
		write(8, string(r.Status))
		if !r.CreatedAt.IsZero() {
			write(9, r.CreatedAt.UTC().Format("2006-01-02 15:04"))
		} else {
			write(9, "")
		}
		write(10, truncate(r.Notes, 140))

		// Data URLs embed the whole document; keep the workbook readable.
		doc := r.FilePath
		if len(doc) > 80 {
			doc = fmt.Sprintf("(embedded %s, %d bytes)", r.MimeType, len(r.FilePath))
		}
		write(11, doc)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 20) // id
	_ = f.SetColWidth(sheet, "B", "B", 24) // patient
	_ = f.SetColWidth(sheet, "C", "D", 24) // referred by/to
	_ = f.SetColWidth(sheet, "E", "E", 28) // diagnosis
	_ = f.SetColWidth(sheet, "F", "G", 14) // dates
	_ = f.SetColWidth(sheet, "H", "H", 10) // status
	_ = f.SetColWidth(sheet, "I", "I", 18) // received
	_ = f.SetColWidth(sheet, "J", "J", 48) // notes
	_ = f.SetColWidth(sheet, "K", "K", 40) // document

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
