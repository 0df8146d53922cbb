package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestApprovedWorkbook(t *testing.T) {
	rows := []models.ApprovedRow{
		{
			TransactionID: "tx-1",
			Code:          "CODE-1",
			UserID:        "u-1",
			Name:          "Juan Dela Cruz",
			DateTime:      time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
			ProcessedBy:   "Maria Santos",
			TotalAmount:   125.50,
		},
	}

	data, err := ApprovedWorkbook(rows)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(approvedSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Transaction ID", header)

	id, err := f.GetCellValue(approvedSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", id)

	name, err := f.GetCellValue(approvedSheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, "Juan Dela Cruz", name)
}

func TestApprovedWorkbookEmpty(t *testing.T) {
	data, err := ApprovedWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(approvedSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1) // header only
}
