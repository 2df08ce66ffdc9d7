package services

import (
	"errors"
	"testing"

	"sams_go/models"
)

func TestCreateBatchDefaultsToActive(t *testing.T) {
	svc := NewBatchService(newTestDB(t))

	resp := mustCreateBatch(t, svc, "Morning Batch", "B1", 30)
	if resp.Status != models.BatchStatusActive {
		t.Fatalf("expected new batch status ACTIVE, got %s", resp.Status)
	}
	if resp.CurrentCount != 0 || resp.AvailableSlots != 30 || resp.IsFull {
		t.Fatalf("expected empty capacity projection, got %+v", resp)
	}
}

func TestCreateBatchDuplicateCode(t *testing.T) {
	svc := NewBatchService(newTestDB(t))
	mustCreateBatch(t, svc, "Morning Batch", "B1", 30)

	_, err := svc.CreateBatch(&BatchRequest{BatchName: "Evening Batch", BatchCode: "B1", MaxCount: 20})
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	svc := NewBatchService(newTestDB(t))

	_, err := svc.GetBatchByID(99)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdateBatchCannotShrinkBelowEnrollment(t *testing.T) {
	db := newTestDB(t)
	batchSvc := NewBatchService(db)
	studentSvc := NewStudentService(db, batchSvc)

	batch := mustCreateBatch(t, batchSvc, "Morning Batch", "B1", 5)
	mustCreateStudent(t, studentSvc, "Asha", "R1", &batch.BatchID)
	mustCreateStudent(t, studentSvc, "Ravi", "R2", &batch.BatchID)

	_, err := batchSvc.UpdateBatch(batch.BatchID, &BatchRequest{BatchName: "Morning Batch", BatchCode: "B1", MaxCount: 1})
	var inv *InvalidArgumentError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidArgumentError, got %v", err)
	}

	// Shrinking to exactly the enrollment is allowed.
	resp, err := batchSvc.UpdateBatch(batch.BatchID, &BatchRequest{BatchName: "Morning Batch", BatchCode: "B1", MaxCount: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsFull || resp.AvailableSlots != 0 {
		t.Fatalf("expected batch to be exactly full, got %+v", resp)
	}
}

func TestUpdateBatchCodeClash(t *testing.T) {
	svc := NewBatchService(newTestDB(t))
	mustCreateBatch(t, svc, "Morning Batch", "B1", 30)
	other := mustCreateBatch(t, svc, "Evening Batch", "B2", 30)

	_, err := svc.UpdateBatch(other.BatchID, &BatchRequest{BatchName: "Evening Batch", BatchCode: "B1", MaxCount: 30})
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
}

func TestDeleteBatchWithStudents(t *testing.T) {
	db := newTestDB(t)
	batchSvc := NewBatchService(db)
	studentSvc := NewStudentService(db, batchSvc)

	batch := mustCreateBatch(t, batchSvc, "Morning Batch", "B1", 5)
	student := mustCreateStudent(t, studentSvc, "Asha", "R1", &batch.BatchID)

	err := batchSvc.DeleteBatch(batch.BatchID)
	var inv *InvalidArgumentError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidArgumentError, got %v", err)
	}

	if err := studentSvc.DeleteStudent(student.Sid); err != nil {
		t.Fatalf("failed to remove student: %v", err)
	}
	if err := batchSvc.DeleteBatch(batch.BatchID); err != nil {
		t.Fatalf("expected empty batch to delete, got %v", err)
	}
	if _, err := batchSvc.GetBatchByID(batch.BatchID); err == nil {
		t.Fatal("expected deleted batch to be gone")
	}
}

func TestUpdateStatus(t *testing.T) {
	svc := NewBatchService(newTestDB(t))
	batch := mustCreateBatch(t, svc, "Morning Batch", "B1", 30)

	resp, err := svc.UpdateStatus(batch.BatchID, models.BatchStatusCompleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != models.BatchStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", resp.Status)
	}

	_, err = svc.UpdateStatus(batch.BatchID, "ARCHIVED")
	var inv *InvalidArgumentError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidArgumentError for unknown status, got %v", err)
	}
}

func TestGetBatchesWithAvailableSlots(t *testing.T) {
	db := newTestDB(t)
	batchSvc := NewBatchService(db)
	studentSvc := NewStudentService(db, batchSvc)

	full := mustCreateBatch(t, batchSvc, "Tiny Batch", "B1", 1)
	open := mustCreateBatch(t, batchSvc, "Big Batch", "B2", 30)
	inactive := mustCreateBatch(t, batchSvc, "Paused Batch", "B3", 30)

	mustCreateStudent(t, studentSvc, "Asha", "R1", &full.BatchID)
	if _, err := batchSvc.UpdateStatus(inactive.BatchID, models.BatchStatusInactive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := batchSvc.GetBatchesWithAvailableSlots()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].BatchID != open.BatchID {
		t.Fatalf("expected only the open active batch, got %+v", got)
	}
}

func TestSearchBatchesByName(t *testing.T) {
	svc := NewBatchService(newTestDB(t))
	mustCreateBatch(t, svc, "Morning Java", "B1", 30)
	mustCreateBatch(t, svc, "Evening Java", "B2", 30)
	mustCreateBatch(t, svc, "Weekend Python", "B3", 30)

	got, err := svc.SearchByName("java")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches for case-insensitive search, got %d", len(got))
	}
}

func TestGetBatchSummary(t *testing.T) {
	db := newTestDB(t)
	batchSvc := NewBatchService(db)

	batch := mustCreateBatch(t, batchSvc, "Morning Batch", "B1", 10)

	seed := []models.Student{
		{Sname: "Asha", RollNumber: "R1", Status: models.AttendancePresent, BatchID: &batch.BatchID},
		{Sname: "Ravi", RollNumber: "R2", Status: models.AttendancePresent, BatchID: &batch.BatchID},
		{Sname: "Kiran", RollNumber: "R3", Status: models.AttendanceLate, BatchID: &batch.BatchID},
		{Sname: "Mira", RollNumber: "R4", Status: models.AttendanceAbsent, BatchID: &batch.BatchID},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("failed to seed student: %v", err)
		}
	}

	summary, err := batchSvc.GetBatchSummary(batch.BatchID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalPresentToday != 3 {
		t.Fatalf("expected 3 present (PRESENT and LATE), got %d", summary.TotalPresentToday)
	}
	if summary.TotalAbsentToday != 1 {
		t.Fatalf("expected 1 absent, got %d", summary.TotalAbsentToday)
	}
	if summary.AttendancePercentage != 75.0 {
		t.Fatalf("expected 75.0%%, got %v", summary.AttendancePercentage)
	}
	if summary.CurrentCount != 4 || summary.AvailableSlots != 6 {
		t.Fatalf("unexpected capacity fields: %+v", summary)
	}
}

func TestGetBatchSummaryEmptyBatch(t *testing.T) {
	svc := NewBatchService(newTestDB(t))
	batch := mustCreateBatch(t, svc, "Morning Batch", "B1", 10)

	summary, err := svc.GetBatchSummary(batch.BatchID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.AttendancePercentage != 0.0 {
		t.Fatalf("expected 0.0%% for empty batch, got %v", summary.AttendancePercentage)
	}
}
