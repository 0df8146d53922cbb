package api_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/jdelrosario/kiosk-server/internal/api/testutils"
	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two admins racing to approve the same pending transaction: exactly
// one wins, the rest observe a conflict, and only one notice is sent.
func TestConcurrentFinalizeSingleWinner(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	sub := submitTransaction(t, testCtx, testCtx.StudentJWT, []models.SubmitLineItem{
		{ServiceID: testCtx.ServiceBW.ID, Quantity: 1},
	})

	const attempts = 10
	codes := make([]int, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := testutils.PerformRequest(
				testCtx.Router,
				http.MethodPost,
				"/api/transactions/"+sub.TransactionID+"/approve",
				models.FinalizeTransactionRequest{Code: "OR-RACE"},
				testutils.AuthHeaders(testCtx.AdminJWT),
			)
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			wins++
		case http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}

	require.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, testCtx.Notifier.SentCount())
}
