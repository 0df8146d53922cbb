package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/jdelrosario/kiosk-server/internal/repository"
)

// MemoryRepository is an in-memory repository.Repository used by the
// API tests. All methods are safe for concurrent use, and
// ApproveTransaction has the same only-one-winner semantics as the
// conditional update in the Postgres implementation.
type MemoryRepository struct {
	mu             sync.Mutex
	users          map[string]models.User
	services       map[int]models.ServiceType
	nextServiceID  int
	transactions   map[string]models.Transaction
	details        map[string]models.TransactionDetail
	audit          []models.AuditLog
	nextAuditID    int
	pendingListErr error
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:         make(map[string]models.User),
		services:      make(map[int]models.ServiceType),
		nextServiceID: 1,
		transactions:  make(map[string]models.Transaction),
		details:       make(map[string]models.TransactionDetail),
		nextAuditID:   1,
	}
}

func (r *MemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *MemoryRepository) ListUsers(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].LastName != users[j].LastName {
			return users[i].LastName < users[j].LastName
		}
		return users[i].GivenName < users[j].GivenName
	})
	return users, nil
}

func (r *MemoryRepository) GetUsersByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func (r *MemoryRepository) UpdateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRepository) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Same restriction the transactions foreign keys enforce in Postgres.
	for _, tx := range r.transactions {
		if tx.UserID == id || (tx.ProcessedBy != nil && *tx.ProcessedBy == id) {
			return fmt.Errorf("%w: user %s", repository.ErrReferenced, id)
		}
	}

	delete(r.users, id)
	return nil
}

func (r *MemoryRepository) ListServices(_ context.Context) ([]models.ServiceType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	services := make([]models.ServiceType, 0, len(r.services))
	for _, s := range r.services {
		services = append(services, s)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services, nil
}

func (r *MemoryRepository) GetServicesByIDs(_ context.Context, ids []int) (map[int]models.ServiceType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make(map[int]models.ServiceType, len(ids))
	for _, id := range ids {
		if s, ok := r.services[id]; ok {
			result[id] = s
		}
	}
	return result, nil
}

func (r *MemoryRepository) CreateService(_ context.Context, svc *models.ServiceType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc.ID = r.nextServiceID
	r.nextServiceID++
	r.services[svc.ID] = *svc
	return nil
}

func (r *MemoryRepository) UpdateService(_ context.Context, svc *models.ServiceType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.services[svc.ID]; !ok {
		return sql.ErrNoRows
	}
	r.services[svc.ID] = *svc
	return nil
}

func (r *MemoryRepository) DeleteService(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.services, id)
	return nil
}

func (r *MemoryRepository) CreateTransaction(_ context.Context, tx *models.Transaction, detail *models.TransactionDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.DateTime.IsZero() {
		tx.DateTime = time.Now().UTC()
	}
	detail.TransactionID = tx.ID
	r.transactions[tx.ID] = *tx
	r.details[tx.ID] = *detail
	return nil
}

func (r *MemoryRepository) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tx, ok := r.transactions[id]; ok {
		return &tx, nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetTransactionDetail(_ context.Context, id string) (*models.TransactionDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.details[id]; ok {
		return &d, nil
	}
	return nil, nil
}

// FailNextPendingList makes the next ListPendingTransactions call
// return err.
func (r *MemoryRepository) FailNextPendingList(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingListErr = err
}

func (r *MemoryRepository) ListPendingTransactions(_ context.Context) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pendingListErr != nil {
		err := r.pendingListErr
		r.pendingListErr = nil
		return nil, err
	}

	var pending []models.Transaction
	for _, tx := range r.transactions {
		if tx.Status == models.StatusPending {
			pending = append(pending, tx)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].DateTime.Equal(pending[j].DateTime) {
			return pending[i].DateTime.Before(pending[j].DateTime)
		}
		return pending[i].ID < pending[j].ID
	})
	return pending, nil
}

func (r *MemoryRepository) ListApprovedTransactions(_ context.Context, from, to *time.Time) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var approved []models.Transaction
	for _, tx := range r.transactions {
		if tx.Status != models.StatusApproved {
			continue
		}
		if from != nil && tx.DateTime.Before(*from) {
			continue
		}
		if to != nil && tx.DateTime.After(*to) {
			continue
		}
		approved = append(approved, tx)
	}
	sort.Slice(approved, func(i, j int) bool { return approved[i].DateTime.After(approved[j].DateTime) })
	return approved, nil
}

func (r *MemoryRepository) ListUserTransactions(_ context.Context, userID string) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var txs []models.Transaction
	for _, tx := range r.transactions {
		if tx.UserID == userID {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].DateTime.After(txs[j].DateTime) })
	return txs, nil
}

func (r *MemoryRepository) GetDetailTotals(_ context.Context, txIDs []string) (map[string]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make(map[string]float64, len(txIDs))
	for _, id := range txIDs {
		if d, ok := r.details[id]; ok {
			result[id] = d.TotalAmount
		}
	}
	return result, nil
}

func (r *MemoryRepository) GetDetails(_ context.Context, txIDs []string) ([]models.TransactionDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var details []models.TransactionDetail
	for _, id := range txIDs {
		if d, ok := r.details[id]; ok {
			details = append(details, d)
		}
	}
	return details, nil
}

func (r *MemoryRepository) ApproveTransaction(_ context.Context, id, approverID, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.transactions[id]
	if !ok || tx.Status != models.StatusPending {
		return false, nil
	}
	tx.Status = models.StatusApproved
	tx.ProcessedBy = &approverID
	tx.Code = &code
	r.transactions[id] = tx
	return true, nil
}

func (r *MemoryRepository) AddAuditEntry(_ context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.ID = r.nextAuditID
	r.nextAuditID++
	r.audit = append(r.audit, *entry)
	return nil
}

func (r *MemoryRepository) ListAuditEntries(_ context.Context, limit int) ([]models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]models.AuditLog, len(r.audit))
	copy(entries, r.audit)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *MemoryRepository) DeleteAuditEntriesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []models.AuditLog
	var removed int64
	for _, e := range r.audit {
		if e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.audit = kept
	return removed, nil
}
