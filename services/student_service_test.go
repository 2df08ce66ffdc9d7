package services

import (
	"errors"
	"testing"
	"time"

	"sams_go/models"
)

type recordingFeed struct {
	events []AttendanceEvent
}

func (f *recordingFeed) BroadcastAttendance(event AttendanceEvent) {
	f.events = append(f.events, event)
}

func TestLateArrival(t *testing.T) {
	day := func(hour, min, sec int) time.Time {
		return time.Date(2024, 3, 4, hour, min, sec, 0, time.Local)
	}

	tests := []struct {
		name string
		at   time.Time
		exp  bool
	}{
		{name: "early morning", at: day(7, 45, 0), exp: false},
		{name: "just before cutoff", at: day(8, 59, 59), exp: false},
		{name: "exactly on cutoff", at: day(9, 0, 0), exp: false},
		{name: "second past cutoff", at: day(9, 0, 1), exp: true},
		{name: "late afternoon", at: day(14, 30, 0), exp: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := lateArrival(tc.at); got != tc.exp {
				t.Fatalf("lateArrival(%v) = %v, expected %v", tc.at, got, tc.exp)
			}
		})
	}
}

func TestCreateStudentDuplicateRoll(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))

	mustCreateStudent(t, svc, "Asha", "R1", nil)
	_, err := svc.CreateStudent(&StudentRequest{Sname: "Ravi", RollNumber: "R1"})
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
}

func TestCreateStudentStartsAbsent(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))

	resp := mustCreateStudent(t, svc, "Asha", "R1", nil)
	if resp.Status != models.AttendanceAbsent {
		t.Fatalf("expected new student status ABSENT, got %s", resp.Status)
	}
	if resp.CheckedIn {
		t.Fatal("expected new student to not be checked in")
	}
}

func TestCreateStudentBatchFull(t *testing.T) {
	db := newTestDB(t)
	batchSvc := NewBatchService(db)
	svc := NewStudentService(db, batchSvc)

	batch := mustCreateBatch(t, batchSvc, "Tiny Batch", "B1", 1)
	mustCreateStudent(t, svc, "Asha", "R1", &batch.BatchID)

	_, err := svc.CreateStudent(&StudentRequest{Sname: "Ravi", RollNumber: "R2", BatchID: &batch.BatchID})
	var inv *InvalidOperationError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidOperationError for full batch, got %v", err)
	}
}

func TestCreateStudentUnknownBatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))

	missing := uint(42)
	_, err := svc.CreateStudent(&StudentRequest{Sname: "Asha", RollNumber: "R1", BatchID: &missing})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCheckInOnTime(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))
	student := mustCreateStudent(t, svc, "Asha", "R1", nil)

	at := time.Date(2024, 3, 4, 8, 55, 0, 0, time.Local)
	fixedClock(svc, at)

	resp, err := svc.CheckIn(student.Sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != models.AttendancePresent {
		t.Fatalf("expected PRESENT, got %s", resp.Status)
	}
	if resp.Intime == nil || !resp.Intime.Equal(at) {
		t.Fatalf("expected intime %v, got %v", at, resp.Intime)
	}
	if resp.Outtime != nil || !resp.CheckedIn {
		t.Fatalf("expected open attendance window, got %+v", resp)
	}
}

func TestCheckInLate(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))
	student := mustCreateStudent(t, svc, "Asha", "R1", nil)

	fixedClock(svc, time.Date(2024, 3, 4, 9, 0, 1, 0, time.Local))

	resp, err := svc.CheckIn(student.Sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != models.AttendanceLate {
		t.Fatalf("expected LATE, got %s", resp.Status)
	}
}

func TestDoubleCheckIn(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))
	student := mustCreateStudent(t, svc, "Asha", "R1", nil)

	fixedClock(svc, time.Date(2024, 3, 4, 8, 0, 0, 0, time.Local))
	if _, err := svc.CheckIn(student.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.CheckIn(student.Sid)
	var inv *InvalidOperationError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidOperationError for double check-in, got %v", err)
	}
}

func TestCheckInAfterCompletedToday(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))
	student := mustCreateStudent(t, svc, "Asha", "R1", nil)

	fixedClock(svc, time.Date(2024, 3, 4, 8, 0, 0, 0, time.Local))
	if _, err := svc.CheckIn(student.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fixedClock(svc, time.Date(2024, 3, 4, 15, 0, 0, 0, time.Local))
	if _, err := svc.CheckOut(student.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fixedClock(svc, time.Date(2024, 3, 4, 16, 0, 0, 0, time.Local))
	_, err := svc.CheckIn(student.Sid)
	var inv *InvalidOperationError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidOperationError for same-day re-check-in, got %v", err)
	}

	// The next day the student can check in again.
	fixedClock(svc, time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local))
	resp, err := svc.CheckIn(student.Sid)
	if err != nil {
		t.Fatalf("expected next-day check-in to succeed, got %v", err)
	}
	if resp.Outtime != nil {
		t.Fatal("expected checkout time to be reset on new check-in")
	}
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))
	student := mustCreateStudent(t, svc, "Asha", "R1", nil)

	_, err := svc.CheckOut(student.Sid)
	var inv *InvalidOperationError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidOperationError, got %v", err)
	}
}

func TestCheckOutComputesHours(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))
	student := mustCreateStudent(t, svc, "Asha", "R1", nil)

	fixedClock(svc, time.Date(2024, 3, 4, 9, 0, 0, 0, time.Local))
	if _, err := svc.CheckIn(student.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fixedClock(svc, time.Date(2024, 3, 4, 17, 30, 0, 0, time.Local))
	resp, err := svc.CheckOut(student.Sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.HoursPresent != 8.5 {
		t.Fatalf("expected 8.5 hours present, got %v", resp.HoursPresent)
	}
	if resp.CheckedIn {
		t.Fatal("expected window to be closed after check-out")
	}
}

func TestCheckInBroadcastsToFeed(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))
	feed := &recordingFeed{}
	svc.SetFeed(feed)
	student := mustCreateStudent(t, svc, "Asha", "R1", nil)

	fixedClock(svc, time.Date(2024, 3, 4, 8, 0, 0, 0, time.Local))
	if _, err := svc.CheckIn(student.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fixedClock(svc, time.Date(2024, 3, 4, 17, 0, 0, 0, time.Local))
	if _, err := svc.CheckOut(student.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(feed.events) != 2 {
		t.Fatalf("expected 2 feed events, got %d", len(feed.events))
	}
	if feed.events[0].Event != "checkin" || feed.events[1].Event != "checkout" {
		t.Fatalf("unexpected event order: %+v", feed.events)
	}
	if feed.events[0].Sid != student.Sid || feed.events[0].RollNumber != "R1" {
		t.Fatalf("unexpected event payload: %+v", feed.events[0])
	}
}

func TestUpdateStudentTransferToFullBatch(t *testing.T) {
	db := newTestDB(t)
	batchSvc := NewBatchService(db)
	svc := NewStudentService(db, batchSvc)

	full := mustCreateBatch(t, batchSvc, "Tiny Batch", "B1", 1)
	own := mustCreateBatch(t, batchSvc, "Solo Batch", "B2", 1)
	mustCreateStudent(t, svc, "Asha", "R1", &full.BatchID)
	mover := mustCreateStudent(t, svc, "Ravi", "R2", &own.BatchID)

	_, err := svc.UpdateStudent(mover.Sid, &StudentRequest{Sname: "Ravi", RollNumber: "R2", BatchID: &full.BatchID})
	var inv *InvalidOperationError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidOperationError for transfer to full batch, got %v", err)
	}

	// Keeping the same batch must not trip the capacity check even when
	// that batch is at capacity.
	resp, err := svc.UpdateStudent(mover.Sid, &StudentRequest{Sname: "Ravi Kumar", RollNumber: "R2", BatchID: &own.BatchID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Sname != "Ravi Kumar" {
		t.Fatalf("expected updated name, got %s", resp.Sname)
	}
}

func TestUpdateStudentRemovesBatch(t *testing.T) {
	db := newTestDB(t)
	batchSvc := NewBatchService(db)
	svc := NewStudentService(db, batchSvc)

	batch := mustCreateBatch(t, batchSvc, "Morning Batch", "B1", 5)
	student := mustCreateStudent(t, svc, "Asha", "R1", &batch.BatchID)

	resp, err := svc.UpdateStudent(student.Sid, &StudentRequest{Sname: "Asha", RollNumber: "R1", BatchID: nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.BatchID != nil {
		t.Fatalf("expected batch association cleared, got %v", *resp.BatchID)
	}

	got, err := batchSvc.GetBatchByID(batch.BatchID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CurrentCount != 0 {
		t.Fatalf("expected batch emptied, got count %d", got.CurrentCount)
	}
}

func TestUpdateStudentRollClash(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))

	mustCreateStudent(t, svc, "Asha", "R1", nil)
	other := mustCreateStudent(t, svc, "Ravi", "R2", nil)

	_, err := svc.UpdateStudent(other.Sid, &StudentRequest{Sname: "Ravi", RollNumber: "R1"})
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
}

func TestGetCurrentlyCheckedIn(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))

	in := mustCreateStudent(t, svc, "Asha", "R1", nil)
	done := mustCreateStudent(t, svc, "Ravi", "R2", nil)
	mustCreateStudent(t, svc, "Kiran", "R3", nil)

	fixedClock(svc, time.Date(2024, 3, 4, 8, 0, 0, 0, time.Local))
	if _, err := svc.CheckIn(in.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CheckIn(done.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CheckOut(done.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetCurrentlyCheckedIn()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Sid != in.Sid {
		t.Fatalf("expected only the open window student, got %+v", got)
	}
}

func TestGetPresentToday(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))

	today := mustCreateStudent(t, svc, "Asha", "R1", nil)
	yesterday := mustCreateStudent(t, svc, "Ravi", "R2", nil)

	fixedClock(svc, time.Date(2024, 3, 3, 8, 0, 0, 0, time.Local))
	if _, err := svc.CheckIn(yesterday.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CheckOut(yesterday.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fixedClock(svc, time.Date(2024, 3, 4, 8, 0, 0, 0, time.Local))
	if _, err := svc.CheckIn(today.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetPresentToday()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Sid != today.Sid {
		t.Fatalf("expected only today's check-in, got %+v", got)
	}
}

func TestGetStudentsByBatch(t *testing.T) {
	db := newTestDB(t)
	batchSvc := NewBatchService(db)
	svc := NewStudentService(db, batchSvc)

	batch := mustCreateBatch(t, batchSvc, "Morning Batch", "B1", 5)
	mustCreateStudent(t, svc, "Asha", "R1", &batch.BatchID)
	mustCreateStudent(t, svc, "Ravi", "R2", &batch.BatchID)
	mustCreateStudent(t, svc, "Kiran", "R3", nil)

	got, err := svc.GetStudentsByBatch(batch.BatchID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 students in batch, got %d", len(got))
	}
	for _, s := range got {
		if s.BatchCode != "B1" {
			t.Fatalf("expected batch code on roster entry, got %+v", s)
		}
	}

	_, err = svc.GetStudentsByBatch(99)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError for unknown batch, got %v", err)
	}
}

func TestGetAttendanceSummary(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))

	student := mustCreateStudent(t, svc, "Asha", "R1", nil)

	// A fresh student's snapshot reads ABSENT.
	summary, err := svc.GetAttendanceSummary(student.Sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalDaysPresent != 0 || summary.TotalDaysAbsent != 1 {
		t.Fatalf("unexpected fresh summary: %+v", summary)
	}
	if summary.AttendancePercentage != 0.0 {
		t.Fatalf("expected 0.0%%, got %v", summary.AttendancePercentage)
	}

	fixedClock(svc, time.Date(2024, 3, 4, 8, 0, 0, 0, time.Local))
	if _, err := svc.CheckIn(student.Sid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err = svc.GetAttendanceSummary(student.Sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalDaysPresent != 1 || summary.TotalDaysAbsent != 0 {
		t.Fatalf("unexpected post-check-in summary: %+v", summary)
	}
	if summary.AttendancePercentage != 100.0 {
		t.Fatalf("expected 100.0%%, got %v", summary.AttendancePercentage)
	}
}

func TestSearchStudentsByName(t *testing.T) {
	db := newTestDB(t)
	svc := NewStudentService(db, NewBatchService(db))

	mustCreateStudent(t, svc, "Asha Sharma", "R1", nil)
	mustCreateStudent(t, svc, "Ravi Sharma", "R2", nil)
	mustCreateStudent(t, svc, "Kiran Patel", "R3", nil)

	got, err := svc.SearchByName("sharma")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
}
