package database

import (
	"context"
	"errors"

	"lkrserver/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecordStore はGameRecordをPostgreSQLへアーカイブするストアです。
type RecordStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRecordStore(db *gorm.DB, logger *zap.Logger) *RecordStore {
	return &RecordStore{db: db, logger: logger}
}

// Create は記録を1件保存します。RoomIDのユニーク制約が二重保存の最後の砦になります。
func (s *RecordStore) Create(ctx context.Context, record *models.GameRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logger.Error("Failed to create game record", zap.String("roomID", record.RoomID), zap.Error(err))
		return err
	}
	return nil
}

// ByRoomID はルームIDで記録を探します。存在しない場合は (nil, nil) を返します。
func (s *RecordStore) ByRoomID(ctx context.Context, roomID string) (*models.GameRecord, error) {
	var record models.GameRecord
	err := s.db.WithContext(ctx).Where("room_id = ?", roomID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// All は全記録を返します（玩家の通算成績の集計用）。
func (s *RecordStore) All(ctx context.Context) ([]models.GameRecord, error) {
	var records []models.GameRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
