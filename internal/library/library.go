// Package library stores converted songs in a local SQLite songbook.
// Song rows carry metadata; source and converted text live in a
// content-addressed blob table, compressed and deduplicated by digest.
package library

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/DesigningLevers0/tab-to-notes/core/errors"
	"github.com/DesigningLevers0/tab-to-notes/internal/logging"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS songs (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		source_hash TEXT NOT NULL,
		result_hash TEXT NOT NULL,
		transpose   INTEGER NOT NULL,
		flats       INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS blobs (
		hash TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`,
}

// Song is one songbook row.
type Song struct {
	ID         string
	Title      string
	CreatedAt  time.Time
	SourceHash string
	ResultHash string
	Transpose  int
	Flats      bool
}

// Entry is a song with its stored texts loaded.
type Entry struct {
	Song   Song
	Source []byte
	Result []byte
}

// Library is an open songbook database.
type Library struct {
	db   *sql.DB
	path string
}

// DriverType reports which SQLite implementation this build uses,
// "purego" or "cgo".
func DriverType() string {
	return driverType
}

// Open opens (creating if needed) the songbook at path.
func Open(ctx context.Context, path string) (*Library, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewIO("create directory", dir, err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewIO("open database", path, err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, errors.NewIO("create schema", path, err)
		}
	}
	return &Library{db: db, path: path}, nil
}

// Close closes the underlying database.
func (l *Library) Close() error {
	return l.db.Close()
}

// Add stores a song with its source and converted texts and returns the
// new row. Texts are stored content-addressed, so re-adding the same tab
// writes no new blob.
func (l *Library) Add(ctx context.Context, title string, transpose int, flats bool, source, result []byte) (*Song, error) {
	sourceHash, err := l.putBlob(ctx, source)
	if err != nil {
		return nil, err
	}
	resultHash, err := l.putBlob(ctx, result)
	if err != nil {
		return nil, err
	}

	song := &Song{
		ID:         uuid.NewString(),
		Title:      title,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		SourceHash: sourceHash,
		ResultHash: resultHash,
		Transpose:  transpose,
		Flats:      flats,
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO songs (id, title, created_at, source_hash, result_hash, transpose, flats)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		song.ID, song.Title, song.CreatedAt.Format(time.RFC3339),
		song.SourceHash, song.ResultHash, song.Transpose, boolInt(song.Flats))
	if err != nil {
		return nil, errors.NewIO("insert song", l.path, err)
	}

	logging.LibraryEvent("add", song.ID, "title", song.Title)
	return song, nil
}

// List returns all songs, oldest first.
func (l *Library) List(ctx context.Context) ([]Song, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, title, created_at, source_hash, result_hash, transpose, flats
		 FROM songs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, errors.NewIO("list songs", l.path, err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("list songs", l.path, err)
	}
	return songs, nil
}

// Get loads one song and both of its stored texts.
func (l *Library) Get(ctx context.Context, id string) (*Entry, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, source_hash, result_hash, transpose, flats
		 FROM songs WHERE id = ?`, id)
	song, err := scanSong(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("song", id)
		}
		return nil, err
	}

	source, err := l.getBlob(ctx, song.SourceHash)
	if err != nil {
		return nil, err
	}
	result, err := l.getBlob(ctx, song.ResultHash)
	if err != nil {
		return nil, err
	}
	return &Entry{Song: *song, Source: source, Result: result}, nil
}

// Remove deletes a song row. Blobs stay: content addressing shares them
// across songs, so orphans are harmless and re-adding is free.
func (l *Library) Remove(ctx context.Context, id string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return errors.NewIO("remove song", l.path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewIO("remove song", l.path, err)
	}
	if n == 0 {
		return errors.NewNotFound("song", id)
	}
	logging.LibraryEvent("remove", id)
	return nil
}

// putBlob stores content by digest. Existing digests are left untouched.
func (l *Library) putBlob(ctx context.Context, data []byte) (string, error) {
	hash := hashContent(data)
	packed, err := compress(data)
	if err != nil {
		return "", err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO blobs (hash, data) VALUES (?, ?)`, hash, packed)
	if err != nil {
		return "", errors.NewIO("insert blob", l.path, err)
	}
	return hash, nil
}

// getBlob loads and verifies content by digest.
func (l *Library) getBlob(ctx context.Context, hash string) ([]byte, error) {
	var packed []byte
	err := l.db.QueryRowContext(ctx,
		`SELECT data FROM blobs WHERE hash = ?`, hash).Scan(&packed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("blob", hash)
	}
	if err != nil {
		return nil, errors.NewIO("load blob", l.path, err)
	}

	data, err := decompress(packed)
	if err != nil {
		return nil, err
	}
	if hashContent(data) != hash {
		return nil, errors.NewIO("verify blob", hash, errors.ErrInvalidInput)
	}
	return data, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (*Song, error) {
	var song Song
	var createdAt string
	var flats int
	err := row.Scan(&song.ID, &song.Title, &createdAt,
		&song.SourceHash, &song.ResultHash, &song.Transpose, &flats)
	if err != nil {
		return nil, err
	}
	song.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, errors.NewParse("song row", song.ID, "bad created_at "+createdAt)
	}
	song.Flats = flats != 0
	return &song, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
