package postgres

import (
	"PIVOT-Backend/internal/domain"
	"PIVOT-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStorage implements repository.Storage on top of GORM/PostgreSQL.
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// SaveLink persists a new link. The existence pre-check makes the common
// collision cheap; the unique index on code remains the authoritative
// guard for the race between two concurrent claims.
func (s *PostgresStorage) SaveLink(ctx context.Context, link *domain.Link) error {
	var existing domain.Link
	err := s.db.WithContext(ctx).Where("code = ?", link.Code).First(&existing).Error
	if err == nil {
		return repository.ErrCodeExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error("failed to check code existence", zap.String("code", link.Code), zap.Error(err))
		return fmt.Errorf("failed to check code: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrCodeExists
		}
		s.log.Error("failed to save link", zap.String("code", link.Code), zap.Error(err))
		return fmt.Errorf("failed to save link: %w", err)
	}

	s.log.Info("saved new link", zap.String("code", link.Code))
	return nil
}

// GetLink returns the link by code without recording a visit.
func (s *PostgresStorage) GetLink(ctx context.Context, code string) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).Where("code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrCodeNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

// CodeExists reports whether a link with the code exists.
func (s *PostgresStorage) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Link{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check code existence", zap.String("code", code), zap.Error(err))
		return false, fmt.Errorf("failed to check code: %w", err)
	}

	return count > 0, nil
}

// FindLinkAndCountClick performs the lookup and the click increment as one
// statement (UPDATE ... RETURNING), so concurrent resolutions of the same
// code never lose increments. The returned row carries the post-increment
// counter.
func (s *PostgresStorage) FindLinkAndCountClick(ctx context.Context, code string) (*domain.Link, error) {
	var link domain.Link

	result := s.db.WithContext(ctx).
		Model(&link).
		Clauses(clause.Returning{}).
		Where("code = ?", code).
		UpdateColumn("clicks", gorm.Expr("clicks + 1"))
	if result.Error != nil {
		s.log.Error("failed to count click", zap.String("code", code), zap.Error(result.Error))
		return nil, fmt.Errorf("failed to count click: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrCodeNotFound
	}

	return &link, nil
}

// DeactivateLink soft-disables the link; it stays in the table but must
// never redirect again.
func (s *PostgresStorage) DeactivateLink(ctx context.Context, code string) error {
	result := s.db.WithContext(ctx).Model(&domain.Link{}).Where("code = ?", code).Update("is_active", false)
	if result.Error != nil {
		s.log.Error("failed to deactivate link", zap.String("code", code), zap.Error(result.Error))
		return fmt.Errorf("failed to deactivate link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrCodeNotFound
	}

	s.log.Info("deactivated link", zap.String("code", code))
	return nil
}
