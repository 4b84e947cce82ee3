// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormSave 存档数据模型 (one row per player, jsonb snapshot)
type GormSave struct {
	gorm.Model
	PlayerID string                 `gorm:"uniqueIndex;not null"`
	Snapshot map[string]interface{} `gorm:"type:jsonb;not null"`
	Version  int                    `gorm:"default:1"`
}

// GormProgressRecord keeps one row per prestige/defeat milestone for the
// admin stats queries.
type GormProgressRecord struct {
	gorm.Model
	PlayerID string                 `gorm:"index;not null"`
	Kind     string                 `gorm:"not null"` // prestige/defeat/zone
	Detail   map[string]interface{} `gorm:"type:jsonb"`
}

// ProgressSummary 玩家进度概要 (returned by the rpc surface)
type ProgressSummary struct {
	PlayerID  string `json:"player_id"`
	Level     int    `json:"level"`
	Zone      int    `json:"zone"`
	Coins     int64  `json:"coins"`
	Deaths    int64  `json:"deaths"`
	Prestiges int64  `json:"prestiges"`
}
