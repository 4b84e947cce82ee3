// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/idlerpg/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormSave{}, &models.GormProgressRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveSnapshot upserts the player's jsonb snapshot row.
func (p *GormPostgreSQL) SaveSnapshot(playerID string, state *models.PlayerState) error {
	snapshot, err := toSnapshot(state)
	if err != nil {
		return err
	}

	var save models.GormSave
	result := p.db.Where("player_id = ?", playerID).First(&save)

	if result.Error == gorm.ErrRecordNotFound {
		save = models.GormSave{
			PlayerID: playerID,
			Snapshot: snapshot,
			Version:  1,
		}
		return p.db.Create(&save).Error
	} else if result.Error != nil {
		return result.Error
	}

	save.Snapshot = snapshot
	save.Version++
	return p.db.Save(&save).Error
}

// LoadSnapshot rebuilds the snapshot from its jsonb row. A row that will not
// round-trip reports ErrSnapshotCorrupt so the caller can fall back to a
// fresh state.
func (p *GormPostgreSQL) LoadSnapshot(playerID string) (*models.PlayerState, error) {
	var save models.GormSave
	if err := p.db.Where("player_id = ?", playerID).First(&save).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return fromSnapshot(save.Snapshot)
}

// RecordProgress appends one milestone row for the admin surface.
func (p *GormPostgreSQL) RecordProgress(playerID, kind string, detail map[string]interface{}) error {
	record := models.GormProgressRecord{
		PlayerID: playerID,
		Kind:     kind,
		Detail:   detail,
	}
	return p.db.Create(&record).Error
}

// ListProgress summarizes every stored save, most-recently-updated first.
func (p *GormPostgreSQL) ListProgress(limit int) ([]models.ProgressSummary, error) {
	var saves []models.GormSave
	if err := p.db.Order("updated_at desc").Limit(limit).Find(&saves).Error; err != nil {
		return nil, err
	}

	summaries := make([]models.ProgressSummary, 0, len(saves))
	for _, save := range saves {
		state, err := fromSnapshot(save.Snapshot)
		if err != nil {
			continue
		}
		summaries = append(summaries, summarize(save.PlayerID, state))
	}
	return summaries, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// toSnapshot flattens the typed state into the jsonb column shape.
func toSnapshot(state *models.PlayerState) (map[string]interface{}, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var snapshot map[string]interface{}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// fromSnapshot is the inverse of toSnapshot. Timestamps round-trip as
// RFC 3339 strings, so no sub-second precision is lost.
func fromSnapshot(snapshot map[string]interface{}) (*models.PlayerState, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, ErrSnapshotCorrupt
	}
	var state models.PlayerState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, ErrSnapshotCorrupt
	}
	return normalizeState(&state)
}

func summarize(playerID string, state *models.PlayerState) models.ProgressSummary {
	return models.ProgressSummary{
		PlayerID:  playerID,
		Level:     state.Level,
		Zone:      state.Zone,
		Coins:     state.Coins,
		Deaths:    state.Stats.Deaths,
		Prestiges: state.Stats.Prestiges,
	}
}
