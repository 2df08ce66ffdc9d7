package services

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sams_go/models"
)

func init() {
	logrus.SetOutput(io.Discard)
}

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A single connection keeps the :memory: database alive for the
	// whole test.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Batch{}, &models.Student{}, &models.User{}, &models.ActivityLog{}); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return db
}

func mustCreateBatch(t *testing.T, svc *BatchService, name, code string, maxCount int) *BatchResponse {
	t.Helper()
	resp, err := svc.CreateBatch(&BatchRequest{BatchName: name, BatchCode: code, MaxCount: maxCount})
	if err != nil {
		t.Fatalf("failed to create batch %s: %v", code, err)
	}
	return resp
}

func mustCreateStudent(t *testing.T, svc *StudentService, name, roll string, batchID *uint) *StudentResponse {
	t.Helper()
	resp, err := svc.CreateStudent(&StudentRequest{Sname: name, RollNumber: roll, BatchID: batchID})
	if err != nil {
		t.Fatalf("failed to create student %s: %v", roll, err)
	}
	return resp
}

// fixedClock pins a service's notion of now for deterministic late checks.
func fixedClock(svc *StudentService, at time.Time) {
	svc.now = func() time.Time { return at }
}
