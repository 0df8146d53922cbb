package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jdelrosario/kiosk-server/internal/api/testutils"
	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitTransaction(t *testing.T, testCtx *testutils.TestContext, token string, lines []models.SubmitLineItem) models.SubmitTransactionResponse {
	t.Helper()

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/transactions",
		models.SubmitTransactionRequest{Services: lines},
		testutils.AuthHeaders(token),
	)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.SubmitTransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSubmitTransaction(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	resp := submitTransaction(t, testCtx, testCtx.StudentJWT, []models.SubmitLineItem{
		{ServiceID: testCtx.ServiceBW.ID, Quantity: 5},
		{ServiceID: testCtx.ServiceColor.ID, Quantity: 2},
	})

	// Prices come from the catalog: 5*2.00 + 2*10.00
	assert.Equal(t, 30.00, resp.TotalAmount)
	assert.Equal(t, 1, resp.QueuePosition)
	assert.Equal(t, 1, resp.PendingCount)
	assert.NotEmpty(t, resp.TransactionID)
}

func TestSubmitTransactionValidation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Unknown service
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/transactions",
		models.SubmitTransactionRequest{Services: []models.SubmitLineItem{{ServiceID: 999, Quantity: 1}}},
		testutils.AuthHeaders(testCtx.StudentJWT),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Empty line items
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/transactions",
		models.SubmitTransactionRequest{},
		testutils.AuthHeaders(testCtx.StudentJWT),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitTransactionRequiresRequesterRole(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/transactions",
		models.SubmitTransactionRequest{Services: []models.SubmitLineItem{{ServiceID: testCtx.ServiceBW.ID, Quantity: 1}}},
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestQueuePositionLatestPendingWins(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	line := []models.SubmitLineItem{{ServiceID: testCtx.ServiceBW.ID, Quantity: 1}}

	// Arrival order: student, student2, student again.
	submitTransaction(t, testCtx, testCtx.StudentJWT, line)
	submitTransaction(t, testCtx, testCtx.Student2JWT, line)
	submitTransaction(t, testCtx, testCtx.StudentJWT, line)

	// The first student holds positions 1 and 3; the displayed
	// position is that of the latest submission.
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/queue/status",
		nil,
		testutils.AuthHeaders(testCtx.StudentJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var status models.QueueStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.InQueue)
	assert.Equal(t, 3, status.Position)
	assert.Equal(t, 3, status.PendingCount)
	assert.Equal(t, 2, status.PendingOwnCount)
	assert.Equal(t, 2, status.TransactionCount)

	// The second student is in the middle.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/queue/status",
		nil,
		testutils.AuthHeaders(testCtx.Student2JWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 2, status.Position)
}

func TestQueueStatusEmptyQueue(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/queue/status",
		nil,
		testutils.AuthHeaders(testCtx.StudentJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var status models.QueueStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.InQueue)
	assert.Equal(t, 0, status.Position)
	assert.Equal(t, 0, status.PendingCount)
}

func TestPendingQueueAdminView(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	line := []models.SubmitLineItem{{ServiceID: testCtx.ServiceColor.ID, Quantity: 1}}
	first := submitTransaction(t, testCtx, testCtx.StudentJWT, line)
	second := submitTransaction(t, testCtx, testCtx.Student2JWT, line)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/queue",
		nil,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PendingQueueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, first.TransactionID, resp.Entries[0].TransactionID)
	assert.Equal(t, 1, resp.Entries[0].Position)
	assert.Equal(t, "Juan Dela Cruz", resp.Entries[0].Name)
	assert.Equal(t, 10.00, resp.Entries[0].TotalAmount)
	assert.Equal(t, second.TransactionID, resp.Entries[1].TransactionID)
	assert.Equal(t, 2, resp.Entries[1].Position)

	// Students cannot see the whole queue.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/queue",
		nil,
		testutils.AuthHeaders(testCtx.StudentJWT),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTransactionDetailAccess(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	resp := submitTransaction(t, testCtx, testCtx.StudentJWT, []models.SubmitLineItem{
		{ServiceID: testCtx.ServiceBW.ID, Quantity: 3},
	})

	// Owner sees the detail with joined catalog data.
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/transactions/"+resp.TransactionID,
		nil,
		testutils.AuthHeaders(testCtx.StudentJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var detail models.TransactionDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Juan Dela Cruz", detail.UserName)
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, "Black & White Print", detail.Lines[0].ServiceName)
	assert.Equal(t, 3, detail.Lines[0].Quantity)
	assert.Equal(t, 6.00, detail.Lines[0].Total)
	assert.Equal(t, 6.00, detail.TotalAmount)

	// Another requester cannot.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/transactions/"+resp.TransactionID,
		nil,
		testutils.AuthHeaders(testCtx.Student2JWT),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An approver can.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/transactions/"+resp.TransactionID,
		nil,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	// Unknown id.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/transactions/does-not-exist",
		nil,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMyTransactions(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	line := []models.SubmitLineItem{{ServiceID: testCtx.ServiceBW.ID, Quantity: 1}}
	submitTransaction(t, testCtx, testCtx.StudentJWT, line)
	submitTransaction(t, testCtx, testCtx.StudentJWT, line)
	submitTransaction(t, testCtx, testCtx.Student2JWT, line)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/me/transactions",
		nil,
		testutils.AuthHeaders(testCtx.StudentJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.UserTransactionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Transactions, 2)
	for _, tx := range resp.Transactions {
		assert.Equal(t, testCtx.StudentID, tx.Transaction.UserID)
		assert.Equal(t, models.StatusPending, tx.Transaction.Status)
		assert.Equal(t, 2.00, tx.TotalAmount)
	}
}
