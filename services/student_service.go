package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sams_go/models"
)

// StudentRequest carries the editable fields of a student. A nil BatchID on
// update removes the student from its batch.
type StudentRequest struct {
	Sname      string `json:"sname" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"omitempty,email,max=50"`
	Phone      string `json:"phone" validate:"max=20"`
	RollNumber string `json:"roll_number" validate:"required,max=50"`
	BatchID    *uint  `json:"batch_id"`
}

// StudentResponse is the student projection returned by every student operation.
type StudentResponse struct {
	Sid          uint       `json:"sid"`
	Sname        string     `json:"sname"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	RollNumber   string     `json:"roll_number"`
	Intime       *time.Time `json:"intime"`
	Outtime      *time.Time `json:"outtime"`
	Status       string     `json:"status"`
	HoursPresent float64    `json:"hours_present"`
	CheckedIn    bool       `json:"checked_in"`
	CreatedAt    time.Time  `json:"created_at"`
	BatchID      *uint      `json:"batch_id,omitempty"`
	BatchName    string     `json:"batch_name,omitempty"`
	BatchCode    string     `json:"batch_code,omitempty"`
}

// AttendanceSummary aggregates one student's attendance statistics.
//
// The data model keeps only the latest status per student, so these "day"
// counts are row counts over the current status snapshot, exactly as the
// system has always computed them; they are not a dated history.
type AttendanceSummary struct {
	Sid                  uint    `json:"sid"`
	Sname                string  `json:"sname"`
	RollNumber           string  `json:"roll_number"`
	TotalDaysPresent     int64   `json:"total_days_present"`
	TotalDaysAbsent      int64   `json:"total_days_absent"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// AttendanceEvent is broadcast to live feed subscribers on check-in/out.
type AttendanceEvent struct {
	Event      string     `json:"event"`
	Sid        uint       `json:"sid"`
	Sname      string     `json:"sname"`
	RollNumber string     `json:"roll_number"`
	Status     string     `json:"status"`
	Intime     *time.Time `json:"intime,omitempty"`
	Outtime    *time.Time `json:"outtime,omitempty"`
}

// AttendanceBroadcaster publishes attendance events to live subscribers.
type AttendanceBroadcaster interface {
	BroadcastAttendance(event AttendanceEvent)
}

// StudentService implements student CRUD, the check-in/check-out state
// machine and capacity-guarded batch assignment.
type StudentService struct {
	DB      *gorm.DB
	Batches *BatchService
	Feed    AttendanceBroadcaster

	// now is swappable in tests; defaults to time.Now.
	now func() time.Time
}

func NewStudentService(db *gorm.DB, batches *BatchService) *StudentService {
	return &StudentService{DB: db, Batches: batches, now: time.Now}
}

// SetFeed attaches the live attendance feed. Optional; check-in and
// check-out work without one.
func (s *StudentService) SetFeed(feed AttendanceBroadcaster) {
	s.Feed = feed
}

// lateArrival reports whether a check-in instant is strictly after the
// 09:00:00 cutoff of its own day.
func lateArrival(t time.Time) bool {
	cutoff := time.Date(t.Year(), t.Month(), t.Day(), models.LateThresholdHour, 0, 0, 0, t.Location())
	return t.After(cutoff)
}

// CreateStudent persists a new student, optionally assigning a batch when
// the batch still has room.
func (s *StudentService) CreateStudent(req *StudentRequest) (*StudentResponse, error) {
	logrus.WithField("roll_number", req.RollNumber).Info("Creating new student")

	var resp *StudentResponse
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing int64
		tx.Model(&models.Student{}).Where("roll_number = ?", req.RollNumber).Count(&existing)
		if existing > 0 {
			return duplicatef("Student with roll number %s already exists", req.RollNumber)
		}

		student := models.Student{
			Sname:      req.Sname,
			Email:      req.Email,
			Phone:      req.Phone,
			RollNumber: req.RollNumber,
			Status:     models.AttendanceAbsent,
		}

		if req.BatchID != nil {
			batch, err := s.Batches.findBatchByID(tx, *req.BatchID)
			if err != nil {
				return err
			}
			if batch.IsFull(s.Batches.StudentCount(tx, batch.ID)) {
				return invalidOpf("Batch %s is full. Maximum capacity: %d", batch.BatchCode, batch.MaxCount)
			}
			student.BatchID = &batch.ID
			logrus.WithField("batch_code", batch.BatchCode).Info("Student assigned to batch")
		}

		if err := tx.Create(&student).Error; err != nil {
			return err
		}
		resp = s.mapToResponse(tx, &student)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithField("sid", resp.Sid).Info("Student created successfully")
	return resp, nil
}

// GetStudentByID returns one student projection.
func (s *StudentService) GetStudentByID(id uint) (*StudentResponse, error) {
	student, err := s.findStudentByID(s.DB, id)
	if err != nil {
		return nil, err
	}
	return s.mapToResponse(s.DB, student), nil
}

// GetAllStudents returns every student.
func (s *StudentService) GetAllStudents() ([]StudentResponse, error) {
	var students []models.Student
	if err := s.DB.Preload("Batch").Find(&students).Error; err != nil {
		return nil, err
	}
	return s.mapAll(students), nil
}

// CheckIn opens a student's attendance window. A student who is already
// checked in, or whose latest completed window started today, is rejected.
// Check-ins strictly after 09:00:00 are marked LATE.
func (s *StudentService) CheckIn(id uint) (*StudentResponse, error) {
	logrus.WithField("sid", id).Info("Processing check-in")

	var resp *StudentResponse
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		student, err := s.findStudentByID(tx, id)
		if err != nil {
			return err
		}

		if student.IsCheckedIn() {
			return invalidOpf("Student is already checked in")
		}

		now := s.now()
		todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if student.Intime != nil && !student.Intime.Before(todayStart) && student.Outtime != nil {
			return invalidOpf("Student has already completed attendance for today")
		}

		student.Intime = &now
		student.Outtime = nil // reset checkout time

		if lateArrival(now) {
			student.Status = models.AttendanceLate
			logrus.WithFields(logrus.Fields{"sid": id, "intime": now}).Warn("Student checked in late")
		} else {
			student.Status = models.AttendancePresent
		}

		if err := tx.Save(student).Error; err != nil {
			return err
		}
		resp = s.mapToResponse(tx, student)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("checkin", resp)
	logrus.WithField("sid", id).Info("Student checked in successfully")
	return resp, nil
}

// CheckOut closes a student's attendance window; hours present become
// derivable immediately.
func (s *StudentService) CheckOut(id uint) (*StudentResponse, error) {
	logrus.WithField("sid", id).Info("Processing check-out")

	var resp *StudentResponse
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		student, err := s.findStudentByID(tx, id)
		if err != nil {
			return err
		}

		if !student.IsCheckedIn() {
			return invalidOpf("Student must check in before checking out")
		}

		now := s.now()
		student.Outtime = &now

		if err := tx.Save(student).Error; err != nil {
			return err
		}
		resp = s.mapToResponse(tx, student)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("checkout", resp)
	logrus.WithFields(logrus.Fields{"sid": id, "hours": resp.HoursPresent}).Info("Student checked out successfully")
	return resp, nil
}

// UpdateStudent mutates student details, including batch transfer. A new
// batch is capacity-checked; a nil BatchID clears the association without
// any capacity check.
func (s *StudentService) UpdateStudent(id uint, req *StudentRequest) (*StudentResponse, error) {
	var resp *StudentResponse
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		student, err := s.findStudentByID(tx, id)
		if err != nil {
			return err
		}

		if student.RollNumber != req.RollNumber {
			var clash int64
			tx.Model(&models.Student{}).
				Where("roll_number = ? AND id != ?", req.RollNumber, student.ID).
				Count(&clash)
			if clash > 0 {
				return duplicatef("Roll number already exists")
			}
		}

		student.Sname = req.Sname
		student.Email = req.Email
		student.Phone = req.Phone
		student.RollNumber = req.RollNumber

		if req.BatchID != nil {
			if student.BatchID == nil || *student.BatchID != *req.BatchID {
				newBatch, err := s.Batches.findBatchByID(tx, *req.BatchID)
				if err != nil {
					return err
				}
				if newBatch.IsFull(s.Batches.StudentCount(tx, newBatch.ID)) {
					return invalidOpf("Batch %s is full", newBatch.BatchCode)
				}
				logrus.WithFields(logrus.Fields{"sid": id, "batch_code": newBatch.BatchCode}).Info("Transferring student to batch")
				student.BatchID = &newBatch.ID
				student.Batch = nil
			}
		} else if student.BatchID != nil {
			logrus.WithField("sid", id).Info("Removing student from batch")
			student.BatchID = nil
			student.Batch = nil
		}

		if err := tx.Save(student).Error; err != nil {
			return err
		}
		resp = s.mapToResponse(tx, student)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithField("sid", id).Info("Student updated successfully")
	return resp, nil
}

// DeleteStudent removes a student.
func (s *StudentService) DeleteStudent(id uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		student, err := s.findStudentByID(tx, id)
		if err != nil {
			return err
		}
		return tx.Delete(student).Error
	})
	if err != nil {
		return err
	}
	logrus.WithField("sid", id).Info("Student deleted successfully")
	return nil
}

// SearchByName returns students whose name contains the term, case-insensitive.
func (s *StudentService) SearchByName(name string) ([]StudentResponse, error) {
	var students []models.Student
	err := s.DB.Preload("Batch").
		Where("LOWER(sname) LIKE LOWER(?)", "%"+name+"%").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return s.mapAll(students), nil
}

// GetCurrentlyCheckedIn returns students with an open attendance window.
func (s *StudentService) GetCurrentlyCheckedIn() ([]StudentResponse, error) {
	var students []models.Student
	err := s.DB.Preload("Batch").
		Where("intime IS NOT NULL AND outtime IS NULL").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return s.mapAll(students), nil
}

// GetPresentToday returns students whose latest check-in falls on the
// current calendar day.
func (s *StudentService) GetPresentToday() ([]StudentResponse, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var students []models.Student
	err := s.DB.Preload("Batch").
		Where("intime >= ? AND intime < ?", dayStart, dayEnd).
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return s.mapAll(students), nil
}

// GetStudentsByBatch returns the batch's roster. The batch must exist.
func (s *StudentService) GetStudentsByBatch(batchID uint) ([]StudentResponse, error) {
	if _, err := s.Batches.findBatchByID(s.DB, batchID); err != nil {
		return nil, err
	}

	var students []models.Student
	if err := s.DB.Preload("Batch").Where("batch_id = ?", batchID).Find(&students).Error; err != nil {
		return nil, err
	}
	return s.mapAll(students), nil
}

// GetAttendanceSummary computes the student's present/absent counts and
// attendance percentage from the status snapshot (see AttendanceSummary).
func (s *StudentService) GetAttendanceSummary(id uint) (*AttendanceSummary, error) {
	student, err := s.findStudentByID(s.DB, id)
	if err != nil {
		return nil, err
	}

	presentDays := s.countByStatus(student.ID, models.AttendancePresent) +
		s.countByStatus(student.ID, models.AttendanceLate)
	absentDays := s.countByStatus(student.ID, models.AttendanceAbsent)
	totalDays := presentDays + absentDays

	percentage := 0.0
	if totalDays > 0 {
		percentage = float64(presentDays) * 100.0 / float64(totalDays)
	}

	return &AttendanceSummary{
		Sid:                  student.ID,
		Sname:                student.Sname,
		RollNumber:           student.RollNumber,
		TotalDaysPresent:     presentDays,
		TotalDaysAbsent:      absentDays,
		AttendancePercentage: percentage,
	}, nil
}

func (s *StudentService) countByStatus(sid uint, status string) int64 {
	var count int64
	s.DB.Model(&models.Student{}).Where("id = ? AND status = ?", sid, status).Count(&count)
	return count
}

func (s *StudentService) broadcast(event string, resp *StudentResponse) {
	if s.Feed == nil {
		return
	}
	s.Feed.BroadcastAttendance(AttendanceEvent{
		Event:      event,
		Sid:        resp.Sid,
		Sname:      resp.Sname,
		RollNumber: resp.RollNumber,
		Status:     resp.Status,
		Intime:     resp.Intime,
		Outtime:    resp.Outtime,
	})
}

func (s *StudentService) findStudentByID(tx *gorm.DB, id uint) (*models.Student, error) {
	var student models.Student
	if err := tx.First(&student, id).Error; err != nil {
		return nil, notFoundf("Student not found with ID: %d", id)
	}
	return &student, nil
}

func (s *StudentService) mapAll(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for i := range students {
		responses = append(responses, *s.mapToResponse(s.DB, &students[i]))
	}
	return responses
}

func (s *StudentService) mapToResponse(tx *gorm.DB, student *models.Student) *StudentResponse {
	resp := &StudentResponse{
		Sid:          student.ID,
		Sname:        student.Sname,
		Email:        student.Email,
		Phone:        student.Phone,
		RollNumber:   student.RollNumber,
		Intime:       student.Intime,
		Outtime:      student.Outtime,
		Status:       student.Status,
		HoursPresent: student.HoursPresent(),
		CheckedIn:    student.IsCheckedIn(),
		CreatedAt:    student.CreatedAt,
		BatchID:      student.BatchID,
	}

	if student.BatchID != nil {
		batch := student.Batch
		if batch == nil {
			var b models.Batch
			if err := tx.First(&b, *student.BatchID).Error; err == nil {
				batch = &b
			}
		}
		if batch != nil {
			resp.BatchName = batch.BatchName
			resp.BatchCode = batch.BatchCode
		}
	}

	return resp
}
