package notify

import (
	"context"

	"go.uber.org/zap"
)

// ApprovalNotice is the message sent to a requester after an approver
// finalizes their transaction.
type ApprovalNotice struct {
	RecipientName  string
	RecipientEmail string
	TransactionID  string
	Code           string
	TotalAmount    float64
	LineSummary    []string
}

// Notifier delivers an approval notice to the requester. Delivery is
// best effort; a failed send never rolls back the approval.
type Notifier interface {
	NotifyApproval(ctx context.Context, notice ApprovalNotice) error
}

// LogNotifier writes notices to the application log instead of an
// outbound channel. It stands in wherever a mail transport is not
// configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyApproval(_ context.Context, notice ApprovalNotice) error {
	n.logger.Info("approval notice",
		zap.String("recipient", notice.RecipientEmail),
		zap.String("transaction_id", notice.TransactionID),
		zap.String("code", notice.Code),
		zap.Float64("total_amount", notice.TotalAmount),
		zap.Strings("lines", notice.LineSummary),
	)
	return nil
}
