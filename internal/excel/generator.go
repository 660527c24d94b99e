package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurmak/signflow/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the contract summary and participant roster to an xlsx
// workbook.
func (g *Generator) Generate(contract *model.Contract) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "계약 현황"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "계약 번호")
	set("B1", contract.ContractNumber)
	set("A2", "계약명")
	set("B2", contract.Title)
	set("A3", "상태")
	set("B3", contract.Status.Display())
	set("A4", "진행률")
	set("B4", fmt.Sprintf("%.0f%%", contract.Progress*100))
	set("A5", "계약 기간")
	set("B5", fmt.Sprintf("%s ~ %s", formatDate(contract.StartDate), formatDate(contract.ExpiryDate)))
	set("A6", "보증보험 기간")
	set("B6", fmt.Sprintf("%s ~ %s", formatDate(contract.InsuranceStart), formatDate(contract.InsuranceEnd)))

	tableRow := 8
	headers := []string{
		"이름",
		"이메일",
		"연락처",
		"발송 채널",
		"상태",
		"서명 일시",
		"승인자",
		"승인 일시",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i := range contract.Participants {
		p := &contract.Participants[i]
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), p.Name)
		set(fmt.Sprintf("B%d", row), p.Email)
		set(fmt.Sprintf("C%d", row), p.Phone)
		set(fmt.Sprintf("D%d", row), string(p.Channel))
		set(fmt.Sprintf("E%d", row), p.Status.Display())
		set(fmt.Sprintf("F%d", row), formatTimePtr(p.SignedAt))
		set(fmt.Sprintf("G%d", row), formatStringPtr(p.ApprovedBy))
		set(fmt.Sprintf("H%d", row), formatTimePtr(p.ApprovedAt))
	}

	_ = file.SetColWidth(sheet, "A", "A", 20)
	_ = file.SetColWidth(sheet, "B", "B", 32)
	_ = file.SetColWidth(sheet, "C", "D", 16)
	_ = file.SetColWidth(sheet, "E", "E", 14)
	_ = file.SetColWidth(sheet, "F", "H", 20)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatTimePtr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatStringPtr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
