package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrReferenced reports a delete that was blocked because other rows
// still reference the target.
var ErrReferenced = errors.New("row is referenced by other records")

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error

	// Service catalog operations
	ListServices(ctx context.Context) ([]models.ServiceType, error)
	GetServicesByIDs(ctx context.Context, ids []int) (map[int]models.ServiceType, error)
	CreateService(ctx context.Context, svc *models.ServiceType) error
	UpdateService(ctx context.Context, svc *models.ServiceType) error
	DeleteService(ctx context.Context, id int) error

	// Transaction operations
	CreateTransaction(ctx context.Context, tx *models.Transaction, detail *models.TransactionDetail) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	GetTransactionDetail(ctx context.Context, id string) (*models.TransactionDetail, error)
	ListPendingTransactions(ctx context.Context) ([]models.Transaction, error)
	ListApprovedTransactions(ctx context.Context, from, to *time.Time) ([]models.Transaction, error)
	ListUserTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	GetDetailTotals(ctx context.Context, txIDs []string) (map[string]float64, error)
	GetDetails(ctx context.Context, txIDs []string) ([]models.TransactionDetail, error)
	ApproveTransaction(ctx context.Context, id, approverID, code string) (bool, error)

	// Audit log operations
	AddAuditEntry(ctx context.Context, entry *models.AuditLog) error
	ListAuditEntries(ctx context.Context, limit int) ([]models.AuditLog, error)
	DeleteAuditEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (user_id, given_name, middle_name, last_name, email_address,
			password, role, program, year, department, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.GivenName, user.MiddleName, user.LastName, user.Email,
		user.Password, user.Role, user.Program, user.Year, user.Department,
		user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email_address = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE user_id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT * FROM users ORDER BY last_name, given_name`

	var users []models.User
	err := r.db.SelectContext(ctx, &users, query)
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *PostgresRepository) GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	result := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM users WHERE user_id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, err
	}

	for _, user := range users {
		result[user.ID] = user
	}
	return result, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET given_name = $2, middle_name = $3, last_name = $4, email_address = $5,
			role = $6, program = $7, year = $8, department = $9, updated_at = $10
		WHERE user_id = $1
	`

	user.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.GivenName, user.MiddleName, user.LastName, user.Email,
		user.Role, user.Program, user.Year, user.Department, user.UpdatedAt)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return fmt.Errorf("%w: user %s", ErrReferenced, id)
	}
	return err
}

// Service catalog repository methods
func (r *PostgresRepository) ListServices(ctx context.Context) ([]models.ServiceType, error) {
	query := `SELECT * FROM service_type ORDER BY service_id ASC`

	var services []models.ServiceType
	err := r.db.SelectContext(ctx, &services, query)
	if err != nil {
		return nil, err
	}

	return services, nil
}

func (r *PostgresRepository) GetServicesByIDs(ctx context.Context, ids []int) (map[int]models.ServiceType, error) {
	result := make(map[int]models.ServiceType, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM service_type WHERE service_id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var services []models.ServiceType
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, err
	}

	for _, svc := range services {
		result[svc.ID] = svc
	}
	return result, nil
}

func (r *PostgresRepository) CreateService(ctx context.Context, svc *models.ServiceType) error {
	query := `
		INSERT INTO service_type (servicename, unitprice)
		VALUES ($1, $2)
		RETURNING service_id
	`

	return r.db.QueryRowContext(ctx, query, svc.Name, svc.UnitPrice).Scan(&svc.ID)
}

func (r *PostgresRepository) UpdateService(ctx context.Context, svc *models.ServiceType) error {
	query := `UPDATE service_type SET servicename = $2, unitprice = $3 WHERE service_id = $1`

	res, err := r.db.ExecContext(ctx, query, svc.ID, svc.Name, svc.UnitPrice)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) DeleteService(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM service_type WHERE service_id = $1`, id)
	return err
}

// Transaction repository methods

// CreateTransaction inserts the transaction and its detail row in one
// database transaction so a request is never half-recorded.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, tx *models.Transaction, detail *models.TransactionDetail) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
			return
		}
	}()

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.DateTime.IsZero() {
		tx.DateTime = time.Now().UTC()
	}

	query := `
		INSERT INTO transactions (transaction_id, user_id, date_time, school_year,
			term, status, transaction_code, processed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = dbTx.ExecContext(ctx, query,
		tx.ID, tx.UserID, tx.DateTime, tx.SchoolYear,
		tx.Term, tx.Status, tx.Code, tx.ProcessedBy)
	if err != nil {
		return err
	}

	detail.TransactionID = tx.ID

	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO transaction_detail (transaction_id, services, total_amount) VALUES ($1, $2, $3)`,
		detail.TransactionID, detail.Services, detail.TotalAmount)
	if err != nil {
		return err
	}

	return dbTx.Commit()
}

func (r *PostgresRepository) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT * FROM transactions WHERE transaction_id = $1`

	var tx models.Transaction
	err := r.db.GetContext(ctx, &tx, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Transaction not found
		}
		return nil, err
	}

	return &tx, nil
}

func (r *PostgresRepository) GetTransactionDetail(ctx context.Context, id string) (*models.TransactionDetail, error) {
	query := `SELECT * FROM transaction_detail WHERE transaction_id = $1`

	var detail models.TransactionDetail
	err := r.db.GetContext(ctx, &detail, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &detail, nil
}

// ListPendingTransactions returns the live queue in arrival order.
// The id tie-break keeps positions stable for rows sharing a
// timestamp.
func (r *PostgresRepository) ListPendingTransactions(ctx context.Context) ([]models.Transaction, error) {
	query := `
		SELECT * FROM transactions
		WHERE status = $1
		ORDER BY date_time ASC, transaction_id ASC
	`

	var txs []models.Transaction
	err := r.db.SelectContext(ctx, &txs, query, models.StatusPending)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *PostgresRepository) ListApprovedTransactions(ctx context.Context, from, to *time.Time) ([]models.Transaction, error) {
	query := `SELECT * FROM transactions WHERE status = $1`
	args := []interface{}{models.StatusApproved}

	if from != nil {
		args = append(args, *from)
		query += ` AND date_time >= $2`
	}
	if to != nil {
		args = append(args, *to)
		if from != nil {
			query += ` AND date_time <= $3`
		} else {
			query += ` AND date_time <= $2`
		}
	}

	query += ` ORDER BY date_time DESC`

	var txs []models.Transaction
	err := r.db.SelectContext(ctx, &txs, query, args...)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *PostgresRepository) ListUserTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	query := `SELECT * FROM transactions WHERE user_id = $1 ORDER BY date_time DESC`

	var txs []models.Transaction
	err := r.db.SelectContext(ctx, &txs, query, userID)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *PostgresRepository) GetDetailTotals(ctx context.Context, txIDs []string) (map[string]float64, error) {
	result := make(map[string]float64, len(txIDs))
	if len(txIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(
		`SELECT transaction_id, total_amount FROM transaction_detail WHERE transaction_id IN (?)`, txIDs)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var total float64
		if err := rows.Scan(&id, &total); err != nil {
			return nil, err
		}
		result[id] = total
	}
	return result, rows.Err()
}

func (r *PostgresRepository) GetDetails(ctx context.Context, txIDs []string) ([]models.TransactionDetail, error) {
	if len(txIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM transaction_detail WHERE transaction_id IN (?)`, txIDs)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var details []models.TransactionDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, err
	}

	return details, nil
}

// ApproveTransaction performs the conditional Pending -> Approved
// update. It returns false when the row was already processed by
// another approver; callers report that as a conflict rather than
// overwriting the winner's result.
func (r *PostgresRepository) ApproveTransaction(ctx context.Context, id, approverID, code string) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $2, processed_by = $3, transaction_code = $4
		WHERE transaction_id = $1 AND status = $5
	`

	res, err := r.db.ExecContext(ctx, query, id, models.StatusApproved, approverID, code, models.StatusPending)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// Audit log repository methods
func (r *PostgresRepository) AddAuditEntry(ctx context.Context, entry *models.AuditLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_log (user_id, action_taken, log_timestamp)
		VALUES ($1, $2, $3)
		RETURNING audit_id
	`

	return r.db.QueryRowContext(ctx, query, entry.UserID, entry.Action, entry.Timestamp).Scan(&entry.ID)
}

func (r *PostgresRepository) ListAuditEntries(ctx context.Context, limit int) ([]models.AuditLog, error) {
	query := `SELECT * FROM audit_log ORDER BY log_timestamp DESC LIMIT $1`

	var entries []models.AuditLog
	err := r.db.SelectContext(ctx, &entries, query, limit)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *PostgresRepository) DeleteAuditEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM audit_log WHERE log_timestamp < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
