package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/jdelrosario/kiosk-server/internal/notify"
	"github.com/jdelrosario/kiosk-server/internal/queue"
	"github.com/jdelrosario/kiosk-server/internal/report"
	"go.uber.org/zap"
)

// SchoolYearFor returns the academic year label for a timestamp. The
// year rolls over in August.
func SchoolYearFor(t time.Time) string {
	year := t.Year()
	if t.Month() < time.August {
		return fmt.Sprintf("%d-%d", year-1, year)
	}
	return fmt.Sprintf("%d-%d", year, year+1)
}

// TermFor returns the academic term label for a timestamp.
func TermFor(t time.Time) string {
	switch {
	case t.Month() >= time.August:
		return "1st Term"
	case t.Month() <= time.March:
		return "2nd Term"
	default:
		return "3rd Term"
	}
}

func toQueueInput(pending []models.Transaction) []queue.PendingTransaction {
	input := make([]queue.PendingTransaction, len(pending))
	for i, tx := range pending {
		input[i] = queue.PendingTransaction{
			ID:          tx.ID,
			RequesterID: tx.UserID,
			CreatedAt:   tx.DateTime,
		}
	}
	return input
}

// SubmitTransaction records a new pending service request. Prices come
// from the catalog, never from the client.
func (s *DefaultService) SubmitTransaction(ctx context.Context, userID string, req models.SubmitTransactionRequest) (*models.SubmitTransactionResponse, error) {
	if len(req.Services) == 0 {
		return nil, fmt.Errorf("%w: at least one service is required", ErrValidation)
	}

	ids := make([]int, 0, len(req.Services))
	for _, line := range req.Services {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
		ids = append(ids, line.ServiceID)
	}

	catalog, err := s.repo.GetServicesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading services: %w", err)
	}

	items := make(models.LineItems, 0, len(req.Services))
	var total float64
	for _, line := range req.Services {
		svc, ok := catalog[line.ServiceID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown service %d", ErrValidation, line.ServiceID)
		}

		lineTotal := report.Round2(svc.UnitPrice * float64(line.Quantity))
		items = append(items, models.LineItem{
			ServiceID: line.ServiceID,
			Quantity:  line.Quantity,
			Total:     lineTotal,
		})
		total += lineTotal
	}
	total = report.Round2(total)

	now := s.now()
	tx := &models.Transaction{
		UserID:     userID,
		DateTime:   now,
		SchoolYear: SchoolYearFor(now),
		Term:       TermFor(now),
		Status:     models.StatusPending,
	}
	detail := &models.TransactionDetail{
		Services:    items,
		TotalAmount: total,
	}

	if err := s.repo.CreateTransaction(ctx, tx, detail); err != nil {
		return nil, fmt.Errorf("error creating transaction: %w", err)
	}

	pending, err := s.repo.ListPendingTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing pending transactions: %w", err)
	}

	pos := queue.ComputePosition(toQueueInput(pending), userID)

	return &models.SubmitTransactionResponse{
		Status:        "success",
		TransactionID: tx.ID,
		TotalAmount:   total,
		QueuePosition: pos.Rank,
		PendingCount:  len(pending),
	}, nil
}

// GetQueueStatus reports where a requester stands in the live queue.
// Positions are recomputed from a fresh snapshot on every call.
func (s *DefaultService) GetQueueStatus(ctx context.Context, userID string) (*models.QueueStatusResponse, error) {
	pending, err := s.repo.ListPendingTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing pending transactions: %w", err)
	}

	pos := queue.ComputePosition(toQueueInput(pending), userID)

	ownPending := 0
	for _, tx := range pending {
		if tx.UserID == userID {
			ownPending++
		}
	}

	all, err := s.repo.ListUserTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing user transactions: %w", err)
	}

	return &models.QueueStatusResponse{
		Status:           "success",
		InQueue:          pos.Found,
		Position:         pos.Rank,
		PendingCount:     len(pending),
		TransactionCount: len(all),
		PendingOwnCount:  ownPending,
	}, nil
}

// GetPendingQueue is the approver view of the whole queue.
func (s *DefaultService) GetPendingQueue(ctx context.Context) (*models.PendingQueueResponse, error) {
	pending, err := s.repo.ListPendingTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing pending transactions: %w", err)
	}

	txIDs := make([]string, len(pending))
	userIDs := make([]string, len(pending))
	for i, tx := range pending {
		txIDs[i] = tx.ID
		userIDs[i] = tx.UserID
	}

	users, err := s.repo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading users: %w", err)
	}

	totals, err := s.repo.GetDetailTotals(ctx, txIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading detail totals: %w", err)
	}

	entries := make([]models.QueueEntry, len(pending))
	for i, tx := range pending {
		name := tx.UserID
		if u, ok := users[tx.UserID]; ok {
			name = u.FullName()
		}
		entries[i] = models.QueueEntry{
			TransactionID: tx.ID,
			UserID:        tx.UserID,
			Name:          name,
			DateTime:      tx.DateTime,
			TotalAmount:   totals[tx.ID],
			Position:      i + 1,
		}
	}

	return &models.PendingQueueResponse{
		Status:  "success",
		Entries: entries,
		Count:   len(entries),
	}, nil
}

func (s *DefaultService) buildDetailLines(ctx context.Context, detail *models.TransactionDetail) ([]models.DetailLine, error) {
	ids := make([]int, len(detail.Services))
	for i, item := range detail.Services {
		ids[i] = item.ServiceID
	}

	catalog, err := s.repo.GetServicesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading services: %w", err)
	}

	lines := make([]models.DetailLine, len(detail.Services))
	for i, item := range detail.Services {
		line := models.DetailLine{
			ServiceID: item.ServiceID,
			Quantity:  item.Quantity,
			Total:     item.Total,
		}
		if svc, ok := catalog[item.ServiceID]; ok {
			line.ServiceName = svc.Name
			line.UnitPrice = svc.UnitPrice
		}
		lines[i] = line
	}
	return lines, nil
}

// GetTransactionDetail returns one transaction with its line items.
// Requesters may only view their own transactions; approvers see all.
func (s *DefaultService) GetTransactionDetail(ctx context.Context, viewer *models.User, transactionID string) (*models.TransactionDetailResponse, error) {
	tx, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("error getting transaction: %w", err)
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, transactionID)
	}

	if !models.IsApprover(viewer.Role) && tx.UserID != viewer.ID {
		return nil, fmt.Errorf("%w: not your transaction", ErrForbidden)
	}

	detail, err := s.repo.GetTransactionDetail(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("error getting transaction detail: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("%w: transaction detail %s", ErrNotFound, transactionID)
	}

	owner, err := s.repo.GetUserByID(ctx, tx.UserID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	lines, err := s.buildDetailLines(ctx, detail)
	if err != nil {
		return nil, err
	}

	resp := &models.TransactionDetailResponse{
		Status:      "success",
		Transaction: *tx,
		Lines:       lines,
		TotalAmount: detail.TotalAmount,
	}
	if owner != nil {
		resp.UserName = owner.FullName()
		resp.UserEmail = owner.Email
	}
	return resp, nil
}

// ListUserTransactions returns a requester's history, newest first.
func (s *DefaultService) ListUserTransactions(ctx context.Context, userID string) (*models.UserTransactionsResponse, error) {
	txs, err := s.repo.ListUserTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing user transactions: %w", err)
	}

	txIDs := make([]string, len(txs))
	for i, tx := range txs {
		txIDs[i] = tx.ID
	}

	details, err := s.repo.GetDetails(ctx, txIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading transaction details: %w", err)
	}

	byID := make(map[string]models.TransactionDetail, len(details))
	for _, d := range details {
		byID[d.TransactionID] = d
	}

	result := make([]models.TransactionWithDetail, len(txs))
	for i, tx := range txs {
		entry := models.TransactionWithDetail{Transaction: tx}
		if d, ok := byID[tx.ID]; ok {
			lines, err := s.buildDetailLines(ctx, &d)
			if err != nil {
				return nil, err
			}
			entry.Lines = lines
			entry.TotalAmount = d.TotalAmount
		}
		result[i] = entry
	}

	return &models.UserTransactionsResponse{
		Status:       "success",
		Transactions: result,
	}, nil
}

// FinalizeTransaction moves a transaction from Pending to Approved
// exactly once. The status update is a conditional write; losing the
// race surfaces as a conflict, not a second approval. Notification is
// sent after the update succeeds and its failure does not undo the
// approval.
func (s *DefaultService) FinalizeTransaction(ctx context.Context, approverID, transactionID string, req models.FinalizeTransactionRequest) (*models.FinalizeResponse, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: confirmation code is required", ErrValidation)
	}

	tx, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("error getting transaction: %w", err)
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, transactionID)
	}
	if tx.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: transaction %s already approved", ErrConflict, transactionID)
	}

	won, err := s.repo.ApproveTransaction(ctx, transactionID, approverID, code)
	if err != nil {
		return nil, fmt.Errorf("error approving transaction: %w", err)
	}
	if !won {
		// Another approver got there between our read and our write.
		return nil, fmt.Errorf("%w: transaction %s already approved", ErrConflict, transactionID)
	}

	s.audit(ctx, approverID, fmt.Sprintf("Approved transaction %s", transactionID))

	resp := &models.FinalizeResponse{
		Status:        "success",
		TransactionID: transactionID,
		EmailSent:     true,
	}

	if err := s.sendApprovalNotice(ctx, tx, code); err != nil {
		s.logger.Warn("approval notice failed",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		resp.EmailSent = false
		resp.Warning = "transaction approved but the notification could not be sent"
	}

	return resp, nil
}

func (s *DefaultService) sendApprovalNotice(ctx context.Context, tx *models.Transaction, code string) error {
	requester, err := s.repo.GetUserByID(ctx, tx.UserID)
	if err != nil {
		return fmt.Errorf("error getting requester: %w", err)
	}
	if requester == nil {
		return fmt.Errorf("requester %s not found", tx.UserID)
	}

	detail, err := s.repo.GetTransactionDetail(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("error getting transaction detail: %w", err)
	}

	notice := notify.ApprovalNotice{
		RecipientName:  requester.FullName(),
		RecipientEmail: requester.Email,
		TransactionID:  tx.ID,
		Code:           code,
	}

	if detail != nil {
		notice.TotalAmount = detail.TotalAmount
		lines, err := s.buildDetailLines(ctx, detail)
		if err != nil {
			return err
		}
		for _, line := range lines {
			notice.LineSummary = append(notice.LineSummary,
				fmt.Sprintf("%s x%d = %.2f", line.ServiceName, line.Quantity, line.Total))
		}
	}

	return s.notifier.NotifyApproval(ctx, notice)
}

// ListApproved returns approved transactions, optionally filtered by
// an inclusive date range.
func (s *DefaultService) ListApproved(ctx context.Context, from, to *time.Time) (*models.ApprovedListResponse, error) {
	rows, err := s.approvedRows(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return &models.ApprovedListResponse{
		Status: "success",
		Rows:   rows,
	}, nil
}

func (s *DefaultService) approvedRows(ctx context.Context, from, to *time.Time) ([]models.ApprovedRow, error) {
	from, to = report.DayBounds(from, to)

	txs, err := s.repo.ListApprovedTransactions(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("error listing approved transactions: %w", err)
	}

	txIDs := make([]string, len(txs))
	userIDs := make([]string, 0, len(txs)*2)
	for i, tx := range txs {
		txIDs[i] = tx.ID
		userIDs = append(userIDs, tx.UserID)
		if tx.ProcessedBy != nil {
			userIDs = append(userIDs, *tx.ProcessedBy)
		}
	}

	users, err := s.repo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading users: %w", err)
	}

	totals, err := s.repo.GetDetailTotals(ctx, txIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading detail totals: %w", err)
	}

	rows := make([]models.ApprovedRow, len(txs))
	for i, tx := range txs {
		row := models.ApprovedRow{
			TransactionID: tx.ID,
			UserID:        tx.UserID,
			DateTime:      tx.DateTime,
			TotalAmount:   totals[tx.ID],
		}
		if tx.Code != nil {
			row.Code = *tx.Code
		}
		if u, ok := users[tx.UserID]; ok {
			row.Name = u.FullName()
		}
		if tx.ProcessedBy != nil {
			row.ProcessedBy = *tx.ProcessedBy
			if u, ok := users[*tx.ProcessedBy]; ok {
				row.ProcessedBy = u.FullName()
			}
		}
		rows[i] = row
	}
	return rows, nil
}
