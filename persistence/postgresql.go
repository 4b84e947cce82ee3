// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/idlerpg/models"
)

// PostgreSQL is the raw database/sql Store used where gorm is too heavy
// (the offline migration tooling and the shadow writer).
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			id SERIAL PRIMARY KEY,
			player_id TEXT UNIQUE NOT NULL,
			snapshot JSONB NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS progress_records (
			id SERIAL PRIMARY KEY,
			player_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			detail JSONB,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_progress_player ON progress_records (player_id)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (p *PostgreSQL) SaveSnapshot(playerID string, state *models.PlayerState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(`
		INSERT INTO saves (player_id, snapshot, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (player_id)
		DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = NOW()`,
		playerID, raw)
	return err
}

func (p *PostgreSQL) LoadSnapshot(playerID string) (*models.PlayerState, error) {
	var raw []byte
	err := p.db.QueryRow(`SELECT snapshot FROM saves WHERE player_id = $1`, playerID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	var state models.PlayerState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, ErrSnapshotCorrupt
	}
	return normalizeState(&state)
}

func (p *PostgreSQL) RecordProgress(playerID, kind string, detail map[string]interface{}) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(`INSERT INTO progress_records (player_id, kind, detail) VALUES ($1, $2, $3)`,
		playerID, kind, raw)
	return err
}

func (p *PostgreSQL) ListProgress(limit int) ([]models.ProgressSummary, error) {
	rows, err := p.db.Query(`SELECT player_id, snapshot FROM saves ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.ProgressSummary
	for rows.Next() {
		var playerID string
		var raw []byte
		if err := rows.Scan(&playerID, &raw); err != nil {
			return nil, err
		}
		var state models.PlayerState
		if err := json.Unmarshal(raw, &state); err != nil {
			continue
		}
		summaries = append(summaries, summarize(playerID, &state))
	}
	return summaries, rows.Err()
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
