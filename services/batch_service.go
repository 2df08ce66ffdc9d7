package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sams_go/models"
)

// BatchRequest carries the editable fields of a batch.
type BatchRequest struct {
	BatchName   string     `json:"batch_name" validate:"required,min=2,max=100"`
	BatchCode   string     `json:"batch_code" validate:"required,min=2,max=20"`
	MaxCount    int        `json:"max_count" validate:"required,min=1"`
	Description string     `json:"description" validate:"max=255"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// BatchResponse is the batch projection returned by every batch operation.
// Capacity fields are always recomputed from a live student count.
type BatchResponse struct {
	BatchID        uint       `json:"batch_id"`
	BatchName      string     `json:"batch_name"`
	BatchCode      string     `json:"batch_code"`
	MaxCount       int        `json:"max_count"`
	CurrentCount   int        `json:"current_count"`
	AvailableSlots int        `json:"available_slots"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	IsFull         bool       `json:"is_full"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	CreatedAt      time.Time  `json:"created_at"`
}

// BatchSummary aggregates today's attendance for one batch.
type BatchSummary struct {
	BatchID              uint    `json:"batch_id"`
	BatchName            string  `json:"batch_name"`
	BatchCode            string  `json:"batch_code"`
	MaxCount             int     `json:"max_count"`
	CurrentCount         int     `json:"current_count"`
	AvailableSlots       int     `json:"available_slots"`
	TotalPresentToday    int64   `json:"total_present_today"`
	TotalAbsentToday     int64   `json:"total_absent_today"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// BatchService implements batch CRUD with capacity enforcement.
type BatchService struct {
	DB *gorm.DB
}

func NewBatchService(db *gorm.DB) *BatchService {
	return &BatchService{DB: db}
}

// StudentCount returns the authoritative number of students assigned to a
// batch, straight from the database. The preloaded Students association may
// be partially loaded and must never be used for capacity checks.
func (s *BatchService) StudentCount(tx *gorm.DB, batchID uint) int64 {
	var count int64
	tx.Model(&models.Student{}).Where("batch_id = ?", batchID).Count(&count)
	return count
}

// CreateBatch persists a new batch with status ACTIVE.
func (s *BatchService) CreateBatch(req *BatchRequest) (*BatchResponse, error) {
	logrus.WithField("batch_code", req.BatchCode).Info("Creating new batch")

	var resp *BatchResponse
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing int64
		tx.Model(&models.Batch{}).Where("batch_code = ?", req.BatchCode).Count(&existing)
		if existing > 0 {
			return duplicatef("Batch with code %s already exists", req.BatchCode)
		}

		batch := models.Batch{
			BatchName:   req.BatchName,
			BatchCode:   req.BatchCode,
			MaxCount:    req.MaxCount,
			Description: req.Description,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Status:      models.BatchStatusActive,
		}
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}
		resp = s.mapToResponse(tx, &batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithField("batch_id", resp.BatchID).Info("Batch created successfully")
	return resp, nil
}

// GetBatchByID returns one batch projection.
func (s *BatchService) GetBatchByID(id uint) (*BatchResponse, error) {
	batch, err := s.findBatchByID(s.DB, id)
	if err != nil {
		return nil, err
	}
	return s.mapToResponse(s.DB, batch), nil
}

// GetAllBatches returns every batch.
func (s *BatchService) GetAllBatches() ([]BatchResponse, error) {
	var batches []models.Batch
	if err := s.DB.Find(&batches).Error; err != nil {
		return nil, err
	}
	return s.mapAll(batches), nil
}

// UpdateBatch mutates all editable fields. The capacity may not be reduced
// below the current enrollment.
func (s *BatchService) UpdateBatch(id uint, req *BatchRequest) (*BatchResponse, error) {
	var resp *BatchResponse
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		batch, err := s.findBatchByID(tx, id)
		if err != nil {
			return err
		}

		if req.BatchCode != batch.BatchCode {
			var clash int64
			tx.Model(&models.Batch{}).
				Where("batch_code = ? AND id != ?", req.BatchCode, batch.ID).
				Count(&clash)
			if clash > 0 {
				return duplicatef("Batch code already exists")
			}
		}

		currentCount := s.StudentCount(tx, batch.ID)
		if int64(req.MaxCount) < currentCount {
			return invalidArgf("Cannot reduce max count below current student count (%d)", currentCount)
		}

		batch.BatchName = req.BatchName
		batch.BatchCode = req.BatchCode
		batch.MaxCount = req.MaxCount
		batch.Description = req.Description
		batch.StartDate = req.StartDate
		batch.EndDate = req.EndDate

		if err := tx.Save(batch).Error; err != nil {
			return err
		}
		resp = s.mapToResponse(tx, batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithField("batch_id", id).Info("Batch updated successfully")
	return resp, nil
}

// DeleteBatch removes an empty batch. Deletion never cascades to students;
// a batch with enrolled students cannot be deleted.
func (s *BatchService) DeleteBatch(id uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		batch, err := s.findBatchByID(tx, id)
		if err != nil {
			return err
		}
		if s.StudentCount(tx, batch.ID) > 0 {
			return invalidArgf("Cannot delete batch with enrolled students. Remove students first.")
		}
		return tx.Delete(batch).Error
	})
	if err != nil {
		return err
	}
	logrus.WithField("batch_id", id).Info("Batch deleted successfully")
	return nil
}

// UpdateStatus applies a status transition. Any valid status value is
// accepted; there is no transition matrix.
func (s *BatchService) UpdateStatus(id uint, status string) (*BatchResponse, error) {
	if !models.IsValidBatchStatus(status) {
		return nil, invalidArgf("Invalid batch status: %s", status)
	}

	var resp *BatchResponse
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		batch, err := s.findBatchByID(tx, id)
		if err != nil {
			return err
		}
		batch.Status = status
		if err := tx.Save(batch).Error; err != nil {
			return err
		}
		resp = s.mapToResponse(tx, batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"batch_id": id, "status": status}).Info("Batch status updated")
	return resp, nil
}

// GetActiveBatches returns batches with status ACTIVE.
func (s *BatchService) GetActiveBatches() ([]BatchResponse, error) {
	var batches []models.Batch
	if err := s.DB.Where("status = ?", models.BatchStatusActive).Find(&batches).Error; err != nil {
		return nil, err
	}
	return s.mapAll(batches), nil
}

// GetBatchesWithAvailableSlots returns active batches that still have room.
func (s *BatchService) GetBatchesWithAvailableSlots() ([]BatchResponse, error) {
	var batches []models.Batch
	err := s.DB.
		Where("status = ?", models.BatchStatusActive).
		Where("max_count > (SELECT COUNT(*) FROM students WHERE students.batch_id = batches.id AND students.deleted_at IS NULL)").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return s.mapAll(batches), nil
}

// SearchByName returns batches whose name contains the term, case-insensitive.
func (s *BatchService) SearchByName(name string) ([]BatchResponse, error) {
	var batches []models.Batch
	if err := s.DB.Where("LOWER(batch_name) LIKE LOWER(?)", "%"+name+"%").Find(&batches).Error; err != nil {
		return nil, err
	}
	return s.mapAll(batches), nil
}

// GetBatchSummary aggregates the batch's attendance snapshot: students whose
// status is PRESENT or LATE count as present, ABSENT as absent.
func (s *BatchService) GetBatchSummary(id uint) (*BatchSummary, error) {
	batch, err := s.findBatchByID(s.DB, id)
	if err != nil {
		return nil, err
	}

	var presentToday, absentToday, total int64
	s.DB.Model(&models.Student{}).
		Where("batch_id = ? AND status IN ?", batch.ID, []string{models.AttendancePresent, models.AttendanceLate}).
		Count(&presentToday)
	s.DB.Model(&models.Student{}).
		Where("batch_id = ? AND status = ?", batch.ID, models.AttendanceAbsent).
		Count(&absentToday)
	s.DB.Model(&models.Student{}).Where("batch_id = ?", batch.ID).Count(&total)

	percentage := 0.0
	if total > 0 {
		percentage = float64(presentToday) * 100.0 / float64(total)
	}

	return &BatchSummary{
		BatchID:              batch.ID,
		BatchName:            batch.BatchName,
		BatchCode:            batch.BatchCode,
		MaxCount:             batch.MaxCount,
		CurrentCount:         int(total),
		AvailableSlots:       batch.AvailableSlots(total),
		TotalPresentToday:    presentToday,
		TotalAbsentToday:     absentToday,
		AttendancePercentage: percentage,
	}, nil
}

func (s *BatchService) findBatchByID(tx *gorm.DB, id uint) (*models.Batch, error) {
	var batch models.Batch
	if err := tx.First(&batch, id).Error; err != nil {
		return nil, notFoundf("Batch not found with ID: %d", id)
	}
	return &batch, nil
}

func (s *BatchService) mapAll(batches []models.Batch) []BatchResponse {
	responses := make([]BatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, *s.mapToResponse(s.DB, &batches[i]))
	}
	return responses
}

func (s *BatchService) mapToResponse(tx *gorm.DB, batch *models.Batch) *BatchResponse {
	currentCount := s.StudentCount(tx, batch.ID)
	return &BatchResponse{
		BatchID:        batch.ID,
		BatchName:      batch.BatchName,
		BatchCode:      batch.BatchCode,
		MaxCount:       batch.MaxCount,
		CurrentCount:   int(currentCount),
		AvailableSlots: batch.AvailableSlots(currentCount),
		Description:    batch.Description,
		Status:         batch.Status,
		IsFull:         batch.IsFull(currentCount),
		StartDate:      batch.StartDate,
		EndDate:        batch.EndDate,
		CreatedAt:      batch.CreatedAt,
	}
}
