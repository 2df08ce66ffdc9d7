package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sams_go/config"
	"sams_go/models"
)

// LogArchiveService flushes Redis-cached activity logs into the database and
// archives old rows to S3 as zipped JSON.
type LogArchiveService struct {
	db          *gorm.DB
	redisClient *redis.Client
	awsConfig   aws.Config
	cron        *cron.Cron
}

// archivedLog is the representation stored inside archive files.
type archivedLog struct {
	ID         uint           `json:"id"`
	UserID     uint           `json:"user_id"`
	Username   string         `json:"username,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID uint           `json:"resource_id"`
	Details    map[string]any `json:"details,omitempty"`
	IPAddress  string         `json:"ip_address"`
	CreatedAt  time.Time      `json:"created_at"`
}

func NewLogArchiveService(db *gorm.DB, redisClient *redis.Client) *LogArchiveService {
	cfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(config.AppConfig.AWSRegion))
	if err != nil {
		logrus.WithError(err).Warn("Failed to load AWS config; archive uploads disabled until configured")
	}

	return &LogArchiveService{
		db:          db,
		redisClient: redisClient,
		awsConfig:   cfg,
	}
}

// FlushCachedLogs moves activity logs past their cache window from Redis into
// the database.
func (s *LogArchiveService) FlushCachedLogs() error {
	if s.redisClient == nil {
		return fmt.Errorf("redis client not available")
	}

	ctx := context.Background()
	cutoff := time.Now().Add(-24 * time.Hour)

	keys, err := s.redisClient.ZRangeByScore(ctx, "logs:queue", &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", cutoff.Unix()),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read log queue: %v", err)
	}

	var flushed, failed int
	for _, key := range keys {
		payload, err := s.redisClient.Get(ctx, key).Result()
		if err != nil {
			if err != redis.Nil {
				logrus.WithError(err).Errorf("Failed to read cached log %s", key)
				failed++
			}
			continue
		}

		var entry models.ActivityLog
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			logrus.WithError(err).Errorf("Failed to decode cached log %s", key)
			failed++
			continue
		}

		if err := s.db.Create(&entry).Error; err != nil {
			logrus.WithError(err).Error("Failed to persist cached activity log")
			failed++
			continue
		}

		pipe := s.redisClient.Pipeline()
		pipe.Del(ctx, key)
		pipe.ZRem(ctx, "logs:queue", key)
		if _, err := pipe.Exec(ctx); err != nil {
			logrus.WithError(err).Errorf("Failed to evict cached log %s", key)
		}
		flushed++
	}

	if flushed > 0 || failed > 0 {
		logrus.Infof("Flushed %d cached activity logs to database, %d errors", flushed, failed)
	}
	return nil
}

// ArchiveOldLogs uploads activity logs older than daysOld to S3 and deletes
// them from the database.
func (s *LogArchiveService) ArchiveOldLogs(daysOld int) error {
	if daysOld < 7 {
		return fmt.Errorf("minimum archive age is 7 days")
	}

	cutoff := time.Now().AddDate(0, 0, -daysOld)

	const batchSize = 1000
	var archived []archivedLog
	for offset := 0; ; offset += batchSize {
		var rows []models.ActivityLog
		err := s.db.
			Preload("User").
			Where("created_at < ?", cutoff).
			Limit(batchSize).
			Offset(offset).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to fetch logs for archiving: %v", err)
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			entry := archivedLog{
				ID:         row.ID,
				UserID:     row.UserID,
				Action:     row.Action,
				Resource:   row.Resource,
				ResourceID: row.ResourceID,
				IPAddress:  row.IPAddress,
				CreatedAt:  row.CreatedAt,
			}
			if len(row.Details) > 0 {
				var details map[string]any
				if err := json.Unmarshal(row.Details, &details); err == nil {
					entry.Details = details
				}
			}
			if row.User.ID > 0 {
				entry.Username = row.User.Username
			}
			archived = append(archived, entry)
		}
	}

	if len(archived) == 0 {
		logrus.Info("No activity logs old enough to archive")
		return nil
	}

	fileName := fmt.Sprintf("activity_logs_%s.zip", cutoff.Format("2006-01-02"))
	archive, err := s.buildArchive(archived, fileName)
	if err != nil {
		return fmt.Errorf("failed to build archive: %v", err)
	}

	s3Key := fmt.Sprintf("logs/archived/%d/%02d/%s", cutoff.Year(), cutoff.Month(), fileName)
	if err := s.uploadToS3(s3Key, archive); err != nil {
		return fmt.Errorf("failed to upload archive to S3: %v", err)
	}
	logrus.Infof("Uploaded %d archived activity logs to s3://%s/%s", len(archived), config.AppConfig.ArchiveBucket, s3Key)

	result := s.db.Unscoped().Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete archived logs: %v", result.Error)
	}
	logrus.Infof("Deleted %d archived activity logs from database", result.RowsAffected)

	return nil
}

func (s *LogArchiveService) buildArchive(logs []archivedLog, fileName string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	logsFile, err := zw.Create("activity_logs.json")
	if err != nil {
		return nil, err
	}
	encoder := json.NewEncoder(logsFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(map[string]any{
		"export_date":  time.Now().UTC(),
		"record_count": len(logs),
		"logs":         logs,
	}); err != nil {
		return nil, err
	}

	metaFile, err := zw.Create("metadata.json")
	if err != nil {
		return nil, err
	}
	if err := json.NewEncoder(metaFile).Encode(map[string]any{
		"file_name":    fileName,
		"created_at":   time.Now().UTC(),
		"record_count": len(logs),
		"date_range": map[string]any{
			"start": logs[0].CreatedAt,
			"end":   logs[len(logs)-1].CreatedAt,
		},
	}); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *LogArchiveService) uploadToS3(key string, data *bytes.Buffer) error {
	if s.awsConfig.Region == "" || config.AppConfig.ArchiveBucket == "" {
		return fmt.Errorf("archive bucket not configured")
	}

	client := s3.NewFromConfig(s.awsConfig)
	_, err := client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(config.AppConfig.ArchiveBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data.Bytes()),
		ContentType: aws.String("application/zip"),
	})
	return err
}

// StartScheduler runs log maintenance on a cron schedule. Flushes run hourly,
// archiving runs nightly at 02:30.
func (s *LogArchiveService) StartScheduler() {
	s.cron = cron.New()

	s.cron.AddFunc("@hourly", func() {
		if err := s.FlushCachedLogs(); err != nil {
			logrus.WithError(err).Warn("Scheduled log flush failed")
		}
	})

	s.cron.AddFunc("30 2 * * *", func() {
		if err := s.ArchiveOldLogs(config.AppConfig.LogRetentionDays); err != nil {
			logrus.WithError(err).Warn("Scheduled log archive failed")
		}
	})

	s.cron.Start()
	logrus.Info("Log maintenance scheduler started")
}

// StopScheduler halts scheduled maintenance jobs.
func (s *LogArchiveService) StopScheduler() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
