package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/jdelrosario/kiosk-server/internal/notify"
	"github.com/jdelrosario/kiosk-server/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// User administration
	CreateUser(ctx context.Context, req models.SaveUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, userID string, req models.SaveUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]models.User, error)

	// Service catalog
	ListServices(ctx context.Context) ([]models.ServiceType, error)
	CreateService(ctx context.Context, req models.SaveServiceRequest) (*models.ServiceType, error)
	UpdateService(ctx context.Context, serviceID int, req models.SaveServiceRequest) (*models.ServiceType, error)
	DeleteService(ctx context.Context, serviceID int) error

	// Transactions and queue
	SubmitTransaction(ctx context.Context, userID string, req models.SubmitTransactionRequest) (*models.SubmitTransactionResponse, error)
	GetQueueStatus(ctx context.Context, userID string) (*models.QueueStatusResponse, error)
	GetPendingQueue(ctx context.Context) (*models.PendingQueueResponse, error)
	GetTransactionDetail(ctx context.Context, viewer *models.User, transactionID string) (*models.TransactionDetailResponse, error)
	ListUserTransactions(ctx context.Context, userID string) (*models.UserTransactionsResponse, error)
	FinalizeTransaction(ctx context.Context, approverID, transactionID string, req models.FinalizeTransactionRequest) (*models.FinalizeResponse, error)
	ListApproved(ctx context.Context, from, to *time.Time) (*models.ApprovedListResponse, error)

	// Reports
	ReportSummary(ctx context.Context, from, to *time.Time) (*models.ReportSummaryResponse, error)
	CategoryReport(ctx context.Context, year int, month time.Month) (*models.CategoryReportResponse, error)
	ExportApproved(ctx context.Context, from, to *time.Time) ([]byte, error)

	// Audit log
	ListAuditEntries(ctx context.Context, limit int) ([]models.AuditLog, error)
	TrimAuditEntries(ctx context.Context, retention time.Duration) (int64, error)
	PendingDepth(ctx context.Context) (int, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	notifier      notify.Notifier
	logger        *zap.Logger
	jwtSecret     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, notifier notify.Notifier, logger *zap.Logger, jwtSecret string, tokenTTL time.Duration) *DefaultService {
	return &DefaultService{
		repo:          repo,
		notifier:      notifier,
		logger:        logger,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: tokenTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Authentication methods
func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	s.audit(ctx, user.ID, "User logged in")

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.FullName(),
		Role:      user.Role,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

func (s *DefaultService) Logout(ctx context.Context, userID string) error {
	s.audit(ctx, userID, "User logged out")
	return nil
}

func (s *DefaultService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	return user, nil
}

// Audit log methods
func (s *DefaultService) ListAuditEntries(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}

	entries, err := s.repo.ListAuditEntries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing audit entries: %w", err)
	}

	return entries, nil
}

func (s *DefaultService) TrimAuditEntries(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)

	removed, err := s.repo.DeleteAuditEntriesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error trimming audit entries: %w", err)
	}

	return removed, nil
}

func (s *DefaultService) PendingDepth(ctx context.Context) (int, error) {
	pending, err := s.repo.ListPendingTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing pending transactions: %w", err)
	}
	return len(pending), nil
}

// audit appends an entry without failing the caller. A lost audit row
// is logged, not surfaced.
func (s *DefaultService) audit(ctx context.Context, userID, action string) {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Timestamp: s.now(),
	}

	if err := s.repo.AddAuditEntry(ctx, entry); err != nil {
		s.logger.Warn("audit entry failed",
			zap.String("user_id", userID),
			zap.String("action", action),
			zap.Error(err))
	}
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := s.now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": user.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": s.now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
