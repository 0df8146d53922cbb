package models

import "time"

// Request models
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SubmitLineItem struct {
	ServiceID int `json:"serviceId" binding:"required"`
	Quantity  int `json:"quantity" binding:"required,min=1"`
}

type SubmitTransactionRequest struct {
	Services []SubmitLineItem `json:"services" binding:"required"`
}

type FinalizeTransactionRequest struct {
	Code string `json:"code"`
}

type SaveServiceRequest struct {
	Name      string  `json:"serviceName" binding:"required"`
	UnitPrice float64 `json:"unitPrice" binding:"min=0"`
}

type SaveUserRequest struct {
	GivenName  string  `json:"givenName" binding:"required"`
	MiddleName *string `json:"middleName"`
	LastName   string  `json:"lastName" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password"`
	Role       string  `json:"role" binding:"required"`
	Program    *string `json:"program"`
	Year       *string `json:"year"`
	Department *string `json:"department"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type SubmitTransactionResponse struct {
	Status        string  `json:"status"`
	TransactionID string  `json:"transactionId"`
	TotalAmount   float64 `json:"totalAmount"`
	QueuePosition int     `json:"queuePosition"`
	PendingCount  int     `json:"pendingCount"`
}

// QueueEntry is one row of the admin pending-queue view.
type QueueEntry struct {
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	DateTime      time.Time `json:"dateTime"`
	TotalAmount   float64   `json:"totalAmount"`
	Position      int       `json:"position"`
}

type PendingQueueResponse struct {
	Status  string       `json:"status"`
	Entries []QueueEntry `json:"entries"`
	Count   int          `json:"count"`
}

// QueueStatusResponse is the requester-facing "you are in line" view.
type QueueStatusResponse struct {
	Status           string `json:"status"`
	InQueue          bool   `json:"inQueue"`
	Position         int    `json:"position,omitempty"`
	PendingCount     int    `json:"pendingCount"`
	TransactionCount int    `json:"transactionCount"`
	PendingOwnCount  int    `json:"pendingOwnCount"`
}

// DetailLine is a line item joined to its catalog entry.
type DetailLine struct {
	ServiceID   int     `json:"serviceId"`
	ServiceName string  `json:"serviceName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

type TransactionDetailResponse struct {
	Status      string       `json:"status"`
	Transaction Transaction  `json:"transaction"`
	UserName    string       `json:"userName"`
	UserEmail   string       `json:"userEmail"`
	Lines       []DetailLine `json:"lines"`
	TotalAmount float64      `json:"totalAmount"`
}

type UserTransactionsResponse struct {
	Status       string                  `json:"status"`
	Transactions []TransactionWithDetail `json:"transactions"`
}

type TransactionWithDetail struct {
	Transaction Transaction  `json:"transaction"`
	Lines       []DetailLine `json:"lines"`
	TotalAmount float64      `json:"totalAmount"`
}

// FinalizeResponse reports the lifecycle outcome. Approved-with-failed
// email is still a success; Warning carries the distinction.
type FinalizeResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	EmailSent     bool   `json:"emailSent"`
	Warning       string `json:"warning,omitempty"`
}

// ApprovedRow is one row of the approved-transactions listing/export.
type ApprovedRow struct {
	TransactionID string    `json:"transactionId"`
	Code          string    `json:"transactionCode"`
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	DateTime      time.Time `json:"dateTime"`
	ProcessedBy   string    `json:"processedBy"`
	TotalAmount   float64   `json:"totalAmount"`
}

type ApprovedListResponse struct {
	Status string        `json:"status"`
	Rows   []ApprovedRow `json:"rows"`
}

type DayTotal struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Total float64 `json:"total"`
}

type ReportSummaryResponse struct {
	Status  string     `json:"status"`
	Count   int        `json:"count"`
	Total   float64    `json:"total"`
	Average float64    `json:"average"`
	Daily   []DayTotal `json:"daily"`
}

type CategoryCount struct {
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Amount   float64 `json:"amount"`
}

type CategoryReportResponse struct {
	Status     string          `json:"status"`
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Categories []CategoryCount `json:"categories"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
