package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jdelrosario/kiosk-server/internal/api/testutils"
	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Test case 1: Successful login
	loginReq := models.LoginRequest{
		Email:    "juan@example.com",
		Password: "testpassword",
	}

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		loginReq,
		nil,
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, testCtx.StudentID, resp.UserID)
	assert.Equal(t, models.RoleStudent, resp.Role)
	assert.NotEmpty(t, resp.Token)

	// Test case 2: Wrong password
	loginReq.Password = "wrongpassword"
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		loginReq,
		nil,
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 3: Unknown email
	loginReq = models.LoginRequest{Email: "nobody@example.com", Password: "testpassword"}
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		loginReq,
		nil,
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 4: Missing fields
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		models.LoginRequest{Email: "juan@example.com"},
		nil,
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginWritesAuditEntry(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		models.LoginRequest{Email: "juan@example.com", Password: "testpassword"},
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)

	entries, err := testCtx.Repository.ListAuditEntries(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, testCtx.StudentID, entries[0].UserID)
	assert.Equal(t, "User logged in", entries[0].Action)
}

func TestLogout(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/logout",
		nil,
		testutils.AuthHeaders(testCtx.StudentJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	entries, err := testCtx.Repository.ListAuditEntries(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "User logged out", entries[0].Action)
}

func TestMe(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/me",
		nil,
		testutils.AuthHeaders(testCtx.StudentJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string      `json:"status"`
		User   models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, testCtx.StudentID, resp.User.ID)
	assert.Empty(t, resp.User.Password)
}

func TestAuthRequired(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// No token
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/me",
		nil,
		nil,
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Malformed token
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/me",
		nil,
		testutils.AuthHeaders("not-a-token"),
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
