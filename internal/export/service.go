// Package export produces operator-facing XLSX reports of the queue contents.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/akdino27/invoice-poc/constants"
	"github.com/akdino27/invoice-poc/internal/repository"
)

// Service is a tiny façade over the job repository that produces XLSX bytes.
type Service struct {
	jobs   repository.JobRepository
	logger *slog.Logger
}

func NewService(jobs repository.JobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, logger: logger}
}

// ExportJobsXLSX returns an XLSX workbook (as bytes) listing up to limit jobs,
// newest first, optionally filtered by status. Malformed payloads still get a
// row; their file columns stay blank.
func (s *Service) ExportJobsXLSX(ctx context.Context, status constants.JobStatus, limit int32) ([]byte, error) {
	start := time.Now()

	rows, err := s.jobs.ListJobs(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Jobs"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Job ID",
		"Type",
		"Status",
		"File",
		"MIME Type",
		"Size",
		"Retries",
		"Locked By",
		"Error",
		"Created",
		"Updated",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range rows {
		var payload struct {
			OriginalName string `json:"originalName"`
			MimeType     string `json:"mimeType"`
			FileSize     int64  `json:"fileSize"`
		}
		_ = json.Unmarshal(r.PayloadJSON, &payload)

		lockedBy := ""
		if r.LockedBy != nil {
			lockedBy = *r.LockedBy
		}
		errMsg := ""
		if r.ErrorMessage != nil {
			errMsg = *r.ErrorMessage
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.ID)
		write(2, r.JobType)
		write(3, r.Status)
		write(4, payload.OriginalName)
		write(5, payload.MimeType)
		if payload.FileSize > 0 {
			write(6, payload.FileSize)
		}
		write(7, r.RetryCount)
		write(8, lockedBy)
		write(9, truncate(errMsg, 140))
		write(10, r.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		write(11, r.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // job id
	_ = f.SetColWidth(sheet, "B", "C", 22)
	_ = f.SetColWidth(sheet, "D", "D", 32) // file name
	_ = f.SetColWidth(sheet, "I", "I", 48) // error
	_ = f.SetColWidth(sheet, "J", "K", 20) // timestamps

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"status_filter", string(status),
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
