// Package database persists per-peer RIB statistics to PostgreSQL and
// tracks already-processed dumps in Redis.
package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/hervehildenbrand/peer-stats/pkg/models"
)

// One row per (date, collector, peer). Re-running a dump is a no-op.
const createTableSQL = `
	CREATE TABLE IF NOT EXISTS peer_stats (
		date TEXT,
		collector TEXT,
		ip TEXT,
		asn BIGINT,
		num_v4_pfxs INTEGER,
		num_v6_pfxs INTEGER,
		num_connected_asns INTEGER,
		PRIMARY KEY (date, collector, ip)
	)`

const createIndexSQL = `
	CREATE INDEX IF NOT EXISTS peer_stats_date_idx ON peer_stats (date DESC)`

// StatsWriter writes summary reports into the peer_stats table.
type StatsWriter struct {
	db *sql.DB
}

// NewStatsWriter connects to PostgreSQL and ensures the schema exists.
func NewStatsWriter(databaseURL string) (*StatsWriter, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	w := &StatsWriter{db: db}
	if err := w.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("Connected to PostgreSQL database")
	return w, nil
}

func (w *StatsWriter) ensureSchema() error {
	if _, err := w.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("create peer_stats table: %w", err)
	}
	if _, err := w.db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("create peer_stats index: %w", err)
	}
	return nil
}

// WriteReport inserts one row per peer in a single transaction. Rows
// already present for the same (date, collector, ip) are left untouched.
// Returns the number of rows actually inserted.
func (w *StatsWriter) WriteReport(report models.SummaryReport) (int, error) {
	date, err := DateFromDumpURL(report.RIBDumpURL)
	if err != nil {
		return 0, fmt.Errorf("derive date from %q: %w", report.RIBDumpURL, err)
	}

	tx, err := w.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for ip, peer := range report.Peers {
		res, err := tx.Exec(`
			INSERT INTO peer_stats (date, collector, ip, asn, num_v4_pfxs, num_v6_pfxs, num_connected_asns)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (date, collector, ip) DO NOTHING
		`, date, report.Collector, ip, peer.ASN, peer.NumV4Pfxs, peer.NumV6Pfxs, peer.NumConnectedASN)
		if err != nil {
			return inserted, fmt.Errorf("insert peer %s: %w", ip, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// Close releases the database connection.
func (w *StatsWriter) Close() error {
	return w.db.Close()
}

// DateFromDumpURL extracts the dump date from a RIB dump name such as
// "rib.20220205.1800.bz2", yielding "2022-02-05". The date is the
// third-from-last dot-separated part of the name.
func DateFromDumpURL(url string) (string, error) {
	parts := strings.Split(url, ".")
	if len(parts) < 3 {
		return "", fmt.Errorf("too few parts in %q", url)
	}

	dateStr := parts[len(parts)-3]
	if len(dateStr) != 8 {
		return "", fmt.Errorf("date part %q is not yyyymmdd", dateStr)
	}
	for _, c := range dateStr {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("date part %q is not numeric", dateStr)
		}
	}

	return dateStr[0:4] + "-" + dateStr[4:6] + "-" + dateStr[6:8], nil
}
