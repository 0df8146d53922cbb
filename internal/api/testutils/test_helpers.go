package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jdelrosario/kiosk-server/internal/api"
	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/jdelrosario/kiosk-server/internal/notify"
	"github.com/jdelrosario/kiosk-server/internal/service"
	"github.com/jdelrosario/kiosk-server/internal/ws"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key"

// StubNotifier records approval notices instead of sending them. Set
// FailNext to make the next send fail.
type StubNotifier struct {
	mu       sync.Mutex
	FailNext bool
	Sent     []notify.ApprovalNotice
}

func (n *StubNotifier) NotifyApproval(_ context.Context, notice notify.ApprovalNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.FailNext {
		n.FailNext = false
		return fmt.Errorf("notifier unavailable")
	}
	n.Sent = append(n.Sent, notice)
	return nil
}

// SentCount returns how many notices were delivered.
func (n *StubNotifier) SentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Sent)
}

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository *MemoryRepository
	Service    service.Service
	Notifier   *StubNotifier
	Hub        *ws.Hub

	StudentID     string
	StudentJWT    string
	Student2ID    string
	Student2JWT   string
	AdminID       string
	AdminJWT      string
	SuperAdminID  string
	SuperAdminJWT string
	ServiceBW     models.ServiceType
	ServiceColor  models.ServiceType
	ServiceFine   models.ServiceType
}

// SetupTestContext creates a router wired to an in-memory repository,
// seeded with two students, an admin, a super admin, and a small
// service catalog.
func SetupTestContext(t *testing.T) *TestContext {
	repo := NewMemoryRepository()
	notifier := &StubNotifier{}
	logger := zap.NewNop()

	svc := service.NewDefaultService(repo, notifier, logger, testJWTSecret, 24*time.Hour)

	hub := ws.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	handler := api.NewHandler(svc, hub, logger, testJWTSecret)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.SetupRoutes(router)

	ctx := &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		Notifier:   notifier,
		Hub:        hub,
	}

	ctx.StudentID, ctx.StudentJWT = createTestUser(t, repo, "juan@example.com", "Juan", "Dela Cruz", models.RoleStudent)
	ctx.Student2ID, ctx.Student2JWT = createTestUser(t, repo, "pedro@example.com", "Pedro", "Reyes", models.RoleStudent)
	ctx.AdminID, ctx.AdminJWT = createTestUser(t, repo, "maria@example.com", "Maria", "Santos", models.RoleAdmin)
	ctx.SuperAdminID, ctx.SuperAdminJWT = createTestUser(t, repo, "carlos@example.com", "Carlos", "Ramos", models.RoleSuperAdmin)

	ctx.ServiceBW = createTestService(t, repo, "Black & White Print", 2.00)
	ctx.ServiceColor = createTestService(t, repo, "Colored Print", 10.00)
	ctx.ServiceFine = createTestService(t, repo, "Library Fine", 50.00)

	return ctx
}

// Helper functions
func createTestUser(t *testing.T, repo *MemoryRepository, email, given, last, role string) (string, string) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		GivenName: given,
		LastName:  last,
		Email:     email,
		Password:  string(hashedPassword),
		Role:      role,
	}

	err = repo.CreateUser(context.Background(), user)
	require.NoError(t, err, "Failed to create test user")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

func createTestService(t *testing.T, repo *MemoryRepository, name string, price float64) models.ServiceType {
	svc := &models.ServiceType{Name: name, UnitPrice: price}
	err := repo.CreateService(context.Background(), svc)
	require.NoError(t, err, "Failed to create test service")
	return *svc
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
