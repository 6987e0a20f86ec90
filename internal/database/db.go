package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Alias1177/ChainGuard/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Record is a stored detection result
type Record struct {
	ID       string
	BatchID  string
	Position int
	models.AnomalyResult
}

// New creates a new PostgreSQL connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)
	return Open(ctx, "postgres", connStr)
}

// Open connects with the given driver ("postgres" or "sqlite") and creates tables
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// sqlite serializes writers; an in-memory database also lives on a single connection
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	// Check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS anomaly_results (
			id TEXT PRIMARY KEY,
			batch_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			is_anomaly BOOLEAN NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			distance DOUBLE PRECISION NOT NULL,
			attack_type TEXT,
			cluster_label INTEGER,
			blockchain_size DOUBLE PRECISION NOT NULL,
			hash_rate DOUBLE PRECISION NOT NULL,
			difficulty DOUBLE PRECISION NOT NULL,
			transaction_volume DOUBLE PRECISION NOT NULL,
			median_confirmation_time DOUBLE PRECISION NOT NULL,
			avg_block_size DOUBLE PRECISION NOT NULL,
			unique_transactions DOUBLE PRECISION NOT NULL,
			detected_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_anomaly_results_detected_at ON anomaly_results (detected_at)`,
		`CREATE INDEX IF NOT EXISTS idx_anomaly_results_attack_type ON anomaly_results (attack_type)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

// SaveResults stores a detection pass under batchID in one transaction
func (db *DB) SaveResults(ctx context.Context, batchID string, results []models.AnomalyResult) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO anomaly_results (
			id, batch_id, position, is_anomaly, confidence, distance, attack_type, cluster_label,
			blockchain_size, hash_rate, difficulty, transaction_volume,
			median_confirmation_time, avg_block_size, unique_transactions, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range results {
		var attackType sql.NullString
		if r.AttackType != "" {
			attackType = sql.NullString{String: string(r.AttackType), Valid: true}
		}
		var clusterLabel sql.NullInt64
		if r.ClusterLabel != nil {
			clusterLabel = sql.NullInt64{Int64: int64(*r.ClusterLabel), Valid: true}
		}

		f := r.Features
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), batchID, i, r.IsAnomaly, r.Confidence, r.Distance, attackType, clusterLabel,
			f.BlockchainSize, f.HashRate, f.Difficulty, f.TransactionVolume,
			f.MedianConfirmationTime, f.AvgBlockSize, f.UniqueTransactions, r.Timestamp.UTC(),
		); err != nil {
			return fmt.Errorf("inserting result %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// RecentAnomalies returns the latest flagged results, newest first
func (db *DB) RecentAnomalies(ctx context.Context, limit int) ([]Record, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			id, batch_id, position, is_anomaly, confidence, distance, attack_type, cluster_label,
			blockchain_size, hash_rate, difficulty, transaction_volume,
			median_confirmation_time, avg_block_size, unique_transactions, detected_at
		FROM anomaly_results
		WHERE is_anomaly = $1
		ORDER BY detected_at DESC, position DESC
		LIMIT $2
	`, true, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var attackType sql.NullString
		var clusterLabel sql.NullInt64
		var detectedAt time.Time
		f := &rec.Features

		if err := rows.Scan(
			&rec.ID, &rec.BatchID, &rec.Position, &rec.IsAnomaly, &rec.Confidence, &rec.Distance, &attackType, &clusterLabel,
			&f.BlockchainSize, &f.HashRate, &f.Difficulty, &f.TransactionVolume,
			&f.MedianConfirmationTime, &f.AvgBlockSize, &f.UniqueTransactions, &detectedAt,
		); err != nil {
			return nil, err
		}

		if attackType.Valid {
			rec.AttackType = models.AttackType(attackType.String)
		}
		if clusterLabel.Valid {
			label := int(clusterLabel.Int64)
			rec.ClusterLabel = &label
		}
		rec.Timestamp = detectedAt

		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountByAttack returns the number of stored anomalies per attack type
func (db *DB) CountByAttack(ctx context.Context) (map[models.AttackType]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT attack_type, COUNT(*)
		FROM anomaly_results
		WHERE is_anomaly = $1
		GROUP BY attack_type
	`, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.AttackType]int)
	for rows.Next() {
		var attackType sql.NullString
		var count int
		if err := rows.Scan(&attackType, &count); err != nil {
			return nil, err
		}
		counts[models.AttackType(attackType.String)] = count
	}

	return counts, rows.Err()
}
