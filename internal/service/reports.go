package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jdelrosario/kiosk-server/internal/export"
	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/jdelrosario/kiosk-server/internal/report"
)

// ReportSummary aggregates approved transactions in the optional
// inclusive date range: count, grand total, average, and a per-day
// breakdown.
func (s *DefaultService) ReportSummary(ctx context.Context, from, to *time.Time) (*models.ReportSummaryResponse, error) {
	from, to = report.DayBounds(from, to)

	txs, err := s.repo.ListApprovedTransactions(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("error listing approved transactions: %w", err)
	}

	txIDs := make([]string, len(txs))
	for i, tx := range txs {
		txIDs[i] = tx.ID
	}

	totals, err := s.repo.GetDetailTotals(ctx, txIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading detail totals: %w", err)
	}

	summary := report.Aggregate(txs, totals, from, to)

	return &models.ReportSummaryResponse{
		Status:  "success",
		Count:   summary.Count,
		Total:   summary.Total,
		Average: summary.Average,
		Daily:   summary.Daily,
	}, nil
}

// CategoryReport breaks one calendar month of approved transactions
// down by service category.
func (s *DefaultService) CategoryReport(ctx context.Context, year int, month time.Month) (*models.CategoryReportResponse, error) {
	if year < 2000 || year > 2200 {
		return nil, fmt.Errorf("%w: year %d out of range", ErrValidation, year)
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d out of range", ErrValidation, int(month))
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	txs, err := s.repo.ListApprovedTransactions(ctx, &start, &end)
	if err != nil {
		return nil, fmt.Errorf("error listing approved transactions: %w", err)
	}

	txIDs := make([]string, len(txs))
	for i, tx := range txs {
		txIDs[i] = tx.ID
	}

	details, err := s.repo.GetDetails(ctx, txIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading transaction details: %w", err)
	}

	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing services: %w", err)
	}

	byID := make(map[int]models.ServiceType, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	return &models.CategoryReportResponse{
		Status:     "success",
		Year:       year,
		Month:      int(month),
		Categories: report.CategoryBreakdown(details, byID),
	}, nil
}

// ExportApproved renders the approved-transactions listing as an XLSX
// workbook.
func (s *DefaultService) ExportApproved(ctx context.Context, from, to *time.Time) ([]byte, error) {
	rows, err := s.approvedRows(ctx, from, to)
	if err != nil {
		return nil, err
	}

	data, err := export.ApprovedWorkbook(rows)
	if err != nil {
		return nil, fmt.Errorf("error building workbook: %w", err)
	}

	return data, nil
}
