package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"sams_go/models"
)

// ReportService renders attendance data as Excel workbooks.
type ReportService struct {
	DB      *gorm.DB
	Batches *BatchService
}

func NewReportService(db *gorm.DB, batches *BatchService) *ReportService {
	return &ReportService{DB: db, Batches: batches}
}

// BatchAttendanceReport builds an .xlsx attendance sheet for one batch and
// returns the suggested file name with the workbook bytes.
func (s *ReportService) BatchAttendanceReport(batchID uint) (string, []byte, error) {
	batch, err := s.Batches.findBatchByID(s.DB, batchID)
	if err != nil {
		return "", nil, err
	}

	var students []models.Student
	if err := s.DB.Where("batch_id = ?", batch.ID).Order("roll_number").Find(&students).Error; err != nil {
		return "", nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Attendance"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Roll Number", "Name", "Status", "Check-In", "Check-Out", "Hours Present"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	const timeLayout = "2006-01-02 15:04:05"
	for row, student := range students {
		values := []interface{}{
			student.RollNumber,
			student.Sname,
			student.Status,
			"",
			"",
			student.HoursPresent(),
		}
		if student.Intime != nil {
			values[3] = student.Intime.Format(timeLayout)
		}
		if student.Outtime != nil {
			values[4] = student.Outtime.Format(timeLayout)
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	summaryRow := len(students) + 3
	summary, err := s.Batches.GetBatchSummary(batch.ID)
	if err != nil {
		return "", nil, err
	}
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "Present today")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow), summary.TotalPresentToday)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow+1), "Absent today")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow+1), summary.TotalAbsentToday)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow+2), "Attendance %")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow+2), summary.AttendancePercentage)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", nil, err
	}

	logrus.WithFields(logrus.Fields{
		"batch_code": batch.BatchCode,
		"students":   len(students),
	}).Info("Batch attendance report generated")

	name := fmt.Sprintf("attendance_%s.xlsx", batch.BatchCode)
	return name, buf.Bytes(), nil
}
