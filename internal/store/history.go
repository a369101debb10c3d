package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	_ "github.com/glebarez/go-sqlite"
)

// MemoryPath keeps run history for the lifetime of the process only.
const MemoryPath = ":memory:"

// HistoryStore is the append-only log of completed runs.
type HistoryStore struct {
	DB *sql.DB
}

func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	if dbPath == "" {
		dbPath = MemoryPath
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if dbPath == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			text TEXT,
			goal TEXT,
			artifacts TEXT,
			created_at INTEGER
		);`,
	}
	for _, q := range queries {
		_, err = db.Exec(q)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	return &HistoryStore{DB: db}, nil
}

// Add appends a record. Records are never updated.
func (h *HistoryStore) Add(ctx context.Context, rec RunRecord) error {
	if rec.ID == "" {
		return errors.New("run record has no id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.Meta.Artifacts == nil {
		rec.Meta.Artifacts = []string{}
	}
	artifacts, err := json.Marshal(rec.Meta.Artifacts)
	if err != nil {
		return err
	}

	query := `INSERT INTO runs (id, text, goal, artifacts, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := h.DB.ExecContext(ctx, query, rec.ID, rec.Text, rec.Meta.Goal, string(artifacts), rec.CreatedAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to store run %s: %w", rec.ID, err)
	}
	return nil
}

// QueryRecent returns up to k records, newest first.
func (h *HistoryStore) QueryRecent(ctx context.Context, k int) ([]RunRecord, error) {
	if k <= 0 {
		return nil, nil
	}
	query := `SELECT id, text, goal, artifacts, created_at FROM runs ORDER BY seq DESC LIMIT ?`
	rows, err := h.DB.QueryContext(ctx, query, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get looks up one record by id.
func (h *HistoryStore) Get(ctx context.Context, id string) (RunRecord, error) {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return RunRecord{}, err
	}

	query := `SELECT id, text, goal, artifacts, created_at FROM runs WHERE id = ?`
	row := h.DB.QueryRowContext(ctx, query, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, errbuilder.NotFoundErr(errbuilder.GenericErr("run not found: "+id, nil))
	}
	return rec, err
}

func (h *HistoryStore) Close() error {
	return h.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (RunRecord, error) {
	var rec RunRecord
	var artifacts string
	var created int64
	if err := s.Scan(&rec.ID, &rec.Text, &rec.Meta.Goal, &artifacts, &created); err != nil {
		return RunRecord{}, err
	}
	if err := json.Unmarshal([]byte(artifacts), &rec.Meta.Artifacts); err != nil {
		return RunRecord{}, fmt.Errorf("corrupt artifact list for run %s: %w", rec.ID, err)
	}
	rec.CreatedAt = time.Unix(0, created)
	return rec, nil
}
