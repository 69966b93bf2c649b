// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library maintains a local SQLite catalog of downloaded papers
// so repeated sessions can see what is already on disk.
package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

const dbFile = "library.db"

// ErrNotFound is returned when a paper is not in the catalog.
var ErrNotFound = errors.New("paper not in library")

// Record is one cataloged download.
type Record struct {
	Paper        types.Paper
	PDFPath      string
	DownloadedAt time.Time
}

// Store manages the paper catalog database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database at dir/library.db,
// creating the schema if it does not exist.
func Open(cfg types.LibraryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS papers (
		id TEXT PRIMARY KEY,
		title TEXT,
		authors TEXT,
		categories TEXT,
		abstract TEXT,
		pdf_url TEXT,
		pdf_path TEXT NOT NULL,
		downloaded_at TEXT NOT NULL
	)`)
	return err
}

// Add catalogs a downloaded paper, replacing any previous record with
// the same ID.
func (s *Store) Add(paper types.Paper, pdfPath string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO papers
		 (id, title, authors, categories, abstract, pdf_url, pdf_path, downloaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		paper.ID,
		paper.Title,
		strings.Join(paper.Authors, "; "),
		strings.Join(paper.Categories, ","),
		paper.Abstract,
		paper.PDFURL,
		pdfPath,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting paper %s: %w", paper.ID, err)
	}
	return nil
}

// Get returns the catalog record for a paper ID.
func (s *Store) Get(id string) (Record, error) {
	row := s.db.QueryRow(
		`SELECT id, title, authors, categories, abstract, pdf_url, pdf_path, downloaded_at
		 FROM papers WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("querying paper %s: %w", id, err)
	}
	return rec, nil
}

// List returns all cataloged papers, most recently downloaded first.
func (s *Store) List() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, title, authors, categories, abstract, pdf_url, pdf_path, downloaded_at
		 FROM papers ORDER BY downloaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var rec Record
	var authors, categories, downloadedAt string

	err := sc.Scan(
		&rec.Paper.ID,
		&rec.Paper.Title,
		&authors,
		&categories,
		&rec.Paper.Abstract,
		&rec.Paper.PDFURL,
		&rec.PDFPath,
		&downloadedAt,
	)
	if err != nil {
		return Record{}, err
	}

	if authors != "" {
		rec.Paper.Authors = strings.Split(authors, "; ")
	}
	if categories != "" {
		rec.Paper.Categories = strings.Split(categories, ",")
		rec.Paper.PrimaryCategory = rec.Paper.Categories[0]
	}
	if t, parseErr := time.Parse(time.RFC3339, downloadedAt); parseErr == nil {
		rec.DownloadedAt = t
	}
	return rec, nil
}
