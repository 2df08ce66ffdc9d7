package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Batch statuses
const (
	BatchStatusActive    = "ACTIVE"
	BatchStatusInactive  = "INACTIVE"
	BatchStatusCompleted = "COMPLETED"
	BatchStatusUpcoming  = "UPCOMING"
)

// Attendance statuses
const (
	AttendancePresent = "PRESENT"
	AttendanceAbsent  = "ABSENT"
	AttendanceLate    = "LATE"
	AttendanceExcused = "EXCUSED"
)

// User roles
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

// LateThresholdHour is the local hour after which a check-in counts as late.
const LateThresholdHour = 9

// IsValidBatchStatus checks if a batch status is valid
func IsValidBatchStatus(status string) bool {
	switch status {
	case BatchStatusActive, BatchStatusInactive, BatchStatusCompleted, BatchStatusUpcoming:
		return true
	}
	return false
}

// IsValidAttendanceStatus checks if an attendance status is valid
func IsValidAttendanceStatus(status string) bool {
	switch status {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// IsValidRole checks if a user role is valid
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// Batch model - a cohort of students sharing a code, capacity and schedule window
type Batch struct {
	BaseModel
	BatchName   string     `json:"batch_name" gorm:"size:100;not null"`
	BatchCode   string     `json:"batch_code" gorm:"size:20;not null;uniqueIndex"`
	MaxCount    int        `json:"max_count" gorm:"not null"`
	Description string     `json:"description" gorm:"size:255"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Status      string     `json:"status" gorm:"size:20;not null;default:'ACTIVE'"` // ACTIVE, INACTIVE, COMPLETED, UPCOMING

	// Relationships
	Students []Student `json:"students,omitempty" gorm:"foreignKey:BatchID"`
}

// AvailableSlots returns the unused capacity given the live student count.
// The count must come from the database; the loaded Students slice may be
// partial and would under-report.
func (b *Batch) AvailableSlots(currentCount int64) int {
	return b.MaxCount - int(currentCount)
}

// IsFull reports whether the batch is at or over capacity for the given
// live student count.
func (b *Batch) IsFull(currentCount int64) bool {
	return int(currentCount) >= b.MaxCount
}

// Student model - holds the latest check-in/check-out pair and status
type Student struct {
	BaseModel
	Sname      string     `json:"sname" gorm:"size:100;not null;index"`
	Email      string     `json:"email" gorm:"size:50"`
	Phone      string     `json:"phone" gorm:"size:20"`
	RollNumber string     `json:"roll_number" gorm:"size:50;not null;uniqueIndex"`
	Intime     *time.Time `json:"intime" gorm:"index"`
	Outtime    *time.Time `json:"outtime"`
	Status     string     `json:"status" gorm:"size:20;not null;default:'ABSENT'"` // PRESENT, ABSENT, LATE, EXCUSED
	BatchID    *uint      `json:"batch_id"`

	// Relationships
	Batch *Batch `json:"batch,omitempty" gorm:"foreignKey:BatchID"`
}

// IsCheckedIn reports whether the student has an open attendance window.
func (s *Student) IsCheckedIn() bool {
	return s.Intime != nil && s.Outtime == nil
}

// HoursPresent returns the length of the latest completed attendance window
// in hours, or 0 when the window is open or never started.
func (s *Student) HoursPresent() float64 {
	if s.Intime == nil || s.Outtime == nil {
		return 0.0
	}
	return s.Outtime.Sub(*s.Intime).Minutes() / 60.0
}

// User model - authentication principal, not part of the attendance core
type User struct {
	BaseModel
	Username  string     `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password  string     `json:"-" gorm:"size:255;not null"`
	Email     string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Role      string     `json:"role" gorm:"size:20;not null;default:'STUDENT'"` // ADMIN, TEACHER, STUDENT
	Enabled   bool       `json:"enabled" gorm:"default:true"`
	StudentID *uint      `json:"student_id"`
	LastLogin *time.Time `json:"last_login"`

	// Relationships
	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
