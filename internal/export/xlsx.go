// Package export renders report data as XLSX workbooks for download.
package export

import (
	"fmt"

	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/xuri/excelize/v2"
)

const approvedSheet = "Approved Transactions"

// ApprovedWorkbook builds a one-sheet workbook listing approved
// transactions and returns the serialized file.
func ApprovedWorkbook(rows []models.ApprovedRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(approvedSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Transaction ID", "Code", "User ID", "Name", "Date", "Processed By", "Total Amount"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(approvedSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, r := range rows {
		row := i + 2
		f.SetCellValue(approvedSheet, fmt.Sprintf("A%d", row), r.TransactionID)
		f.SetCellValue(approvedSheet, fmt.Sprintf("B%d", row), r.Code)
		f.SetCellValue(approvedSheet, fmt.Sprintf("C%d", row), r.UserID)
		f.SetCellValue(approvedSheet, fmt.Sprintf("D%d", row), r.Name)
		f.SetCellValue(approvedSheet, fmt.Sprintf("E%d", row), r.DateTime.Format("2006-01-02 15:04"))
		f.SetCellValue(approvedSheet, fmt.Sprintf("F%d", row), r.ProcessedBy)
		f.SetCellValue(approvedSheet, fmt.Sprintf("G%d", row), r.TotalAmount)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
