package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore backs the quiz store with a relational database through GORM.
// Both SQLite and Postgres are supported; the driver is chosen from config.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm connects using the named driver ("sqlite" or "postgres") and
// migrates the schema.
func OpenGorm(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if err := db.AutoMigrate(&QuizRecord{}); err != nil {
		return nil, fmt.Errorf("migrate quiz schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Create(ctx context.Context, rec *QuizRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

func (s *GormStore) GetByID(ctx context.Context, id uint) (*QuizRecord, error) {
	var rec QuizRecord
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz %d: %w", id, err)
	}
	return &rec, nil
}

func (s *GormStore) Lookup(ctx context.Context, urlFingerprint, contentFingerprint string) (*QuizRecord, error) {
	var rec QuizRecord
	err := s.db.WithContext(ctx).
		Where("url_fingerprint = ? AND content_fingerprint = ?", urlFingerprint, contentFingerprint).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup quiz: %w", err)
	}
	return &rec, nil
}

func (s *GormStore) List(ctx context.Context, page, pageSize int) ([]QuizRecord, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&QuizRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count quizzes: %w", err)
	}

	var recs []QuizRecord
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list quizzes: %w", err)
	}
	return recs, total, nil
}
