package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/jdelrosario/kiosk-server/internal/api/testutils"
	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCatalogCRUD(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Anyone authenticated can read the catalog.
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/services",
		nil,
		testutils.AuthHeaders(testCtx.StudentJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Status   string               `json:"status"`
		Services []models.ServiceType `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp.Services, 3)

	// Only approvers can modify it.
	createReq := models.SaveServiceRequest{Name: "Lamination", UnitPrice: 25.00}
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/services",
		createReq,
		testutils.AuthHeaders(testCtx.StudentJWT),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/services",
		createReq,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	var createResp struct {
		Status  string             `json:"status"`
		Service models.ServiceType `json:"service"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	assert.Equal(t, "Lamination", createResp.Service.Name)
	assert.NotZero(t, createResp.Service.ID)

	// Update
	updateReq := models.SaveServiceRequest{Name: "Lamination", UnitPrice: 30.00}
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		fmt.Sprintf("/api/services/%d", createResp.Service.ID),
		updateReq,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	// Update of a missing service
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		"/api/services/999",
		updateReq,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Delete
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		fmt.Sprintf("/api/services/%d", createResp.Service.ID),
		nil,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserAdministration(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Create
	createReq := models.SaveUserRequest{
		GivenName: "Ana",
		LastName:  "Lopez",
		Email:     "ana@example.com",
		Password:  "secret123",
		Role:      models.RoleInstructor,
	}
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/users",
		createReq,
		testutils.AuthHeaders(testCtx.SuperAdminJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var createResp struct {
		Status string      `json:"status"`
		User   models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	assert.Equal(t, models.RoleInstructor, createResp.User.Role)
	assert.Empty(t, createResp.User.Password)

	// Duplicate email
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/users",
		createReq,
		testutils.AuthHeaders(testCtx.SuperAdminJWT),
	)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown role
	badReq := createReq
	badReq.Email = "other@example.com"
	badReq.Role = "Janitor"
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/users",
		badReq,
		testutils.AuthHeaders(testCtx.SuperAdminJWT),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// List includes the new user.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/users",
		nil,
		testutils.AuthHeaders(testCtx.SuperAdminJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Status string        `json:"status"`
		Users  []models.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp.Users, 5)

	// Update
	updateReq := createReq
	updateReq.Department = ptr("Engineering")
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		"/api/users/"+createResp.User.ID,
		updateReq,
		testutils.AuthHeaders(testCtx.SuperAdminJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	// Delete
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/users/"+createResp.User.ID,
		nil,
		testutils.AuthHeaders(testCtx.SuperAdminJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	// Neither students nor plain admins can manage accounts.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/users",
		nil,
		testutils.AuthHeaders(testCtx.StudentJWT),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/users",
		nil,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteUserWithTransactionHistory(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	submitTransaction(t, testCtx, testCtx.StudentJWT, []models.SubmitLineItem{
		{ServiceID: testCtx.ServiceBW.ID, Quantity: 1},
	})

	// The transaction rows reference the user, so the delete is refused.
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/users/"+testCtx.StudentID,
		nil,
		testutils.AuthHeaders(testCtx.SuperAdminJWT),
	)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// The account is untouched.
	user, err := testCtx.Repository.GetUserByID(context.Background(), testCtx.StudentID)
	require.NoError(t, err)
	require.NotNil(t, user)
}

func TestAuditEndpoint(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Generate a couple of entries.
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		models.LoginRequest{Email: "juan@example.com", Password: "testpassword"},
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/audit?limit=5",
		nil,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status  string            `json:"status"`
		Entries []models.AuditLog `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Entries)

	// Students cannot read the audit log.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/audit",
		nil,
		testutils.AuthHeaders(testCtx.StudentJWT),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func ptr(s string) *string { return &s }
