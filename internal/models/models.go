package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User roles. Students and instructors submit requests; admins and
// super admins finalize them.
const (
	RoleStudent    = "Student"
	RoleInstructor = "Instructor"
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "Super Admin"
)

// Transaction statuses. The only transition is Pending -> Approved.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
)

// IsApprover reports whether the role may finalize transactions.
func IsApprover(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// IsRequester reports whether the role submits service requests.
func IsRequester(role string) bool {
	return role == RoleStudent || role == RoleInstructor
}

// IsSuperAdmin reports whether the role may manage accounts.
func IsSuperAdmin(role string) bool {
	return role == RoleSuperAdmin
}

// User represents a kiosk account
type User struct {
	ID         string    `db:"user_id" json:"userId"`
	GivenName  string    `db:"given_name" json:"givenName"`
	MiddleName *string   `db:"middle_name" json:"middleName,omitempty"`
	LastName   string    `db:"last_name" json:"lastName"`
	Email      string    `db:"email_address" json:"emailAddress"`
	Password   string    `db:"password" json:"-"` // bcrypt hash, never returned
	Role       string    `db:"role" json:"role"`
	Program    *string   `db:"program" json:"program,omitempty"`
	Year       *string   `db:"year" json:"year,omitempty"`
	Department *string   `db:"department" json:"department,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// FullName joins the name parts, skipping an absent middle name.
func (u *User) FullName() string {
	if u.MiddleName != nil && *u.MiddleName != "" {
		return u.GivenName + " " + *u.MiddleName + " " + u.LastName
	}
	return u.GivenName + " " + u.LastName
}

// ServiceType represents a priced catalog entry (prints, fines, etc.)
type ServiceType struct {
	ID        int     `db:"service_id" json:"serviceId"`
	Name      string  `db:"servicename" json:"serviceName"`
	UnitPrice float64 `db:"unitprice" json:"unitPrice"`
}

// Transaction represents a submitted service request. Code and
// ProcessedBy stay null until an approver finalizes it.
type Transaction struct {
	ID          string    `db:"transaction_id" json:"transactionId"`
	UserID      string    `db:"user_id" json:"userId"`
	DateTime    time.Time `db:"date_time" json:"dateTime"`
	SchoolYear  string    `db:"school_year" json:"schoolYear"`
	Term        string    `db:"term" json:"term"`
	Status      string    `db:"status" json:"status"`
	Code        *string   `db:"transaction_code" json:"transactionCode,omitempty"`
	ProcessedBy *string   `db:"processed_by" json:"processedBy,omitempty"`
}

// LineItem is a single priced service within a transaction.
type LineItem struct {
	ServiceID int     `json:"service_id"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
}

// LineItems is stored as a JSONB column.
type LineItems []LineItem

// Value implements driver.Valuer.
func (li LineItems) Value() (driver.Value, error) {
	return json.Marshal(li)
}

// Scan implements sql.Scanner.
func (li *LineItems) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, li)
	case string:
		return json.Unmarshal([]byte(v), li)
	case nil:
		*li = nil
		return nil
	default:
		return fmt.Errorf("unsupported line items type %T", src)
	}
}

// TransactionDetail holds the line items and total for a transaction.
// Immutable after creation.
type TransactionDetail struct {
	TransactionID string    `db:"transaction_id" json:"transactionId"`
	Services      LineItems `db:"services" json:"services"`
	TotalAmount   float64   `db:"total_amount" json:"totalAmount"`
}

// AuditLog is an append-only record of a user action (login, logout,
// approval).
type AuditLog struct {
	ID        int       `db:"audit_id" json:"auditId"`
	UserID    string    `db:"user_id" json:"userId"`
	Action    string    `db:"action_taken" json:"actionTaken"`
	Timestamp time.Time `db:"log_timestamp" json:"logTimestamp"`
}
