// Package store provides the content-addressed image store: rendered images
// live under {dir}/images/{hash}.{ext} and an SQLite index maps each
// (hash, ext) pair to its path.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/alnah/go-texhtml/internal/fileutil"
)

// IndexFile is the name of the SQLite index inside the store directory.
const IndexFile = "index.db"

// Sentinel errors for store operations.
var (
	ErrEmptyDir    = errors.New("store directory cannot be empty")
	ErrInvalidHash = errors.New("invalid content hash")
)

var hexHash = regexp.MustCompile(`^[0-9a-f]{16,128}$`)

// Store is the image store handle. Safe for concurrent use.
type Store struct {
	DB  *sql.DB
	dir string
	now func() time.Time
}

// Open opens (or creates) the store rooted at dir and applies the schema.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, ErrEmptyDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving store directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, "images"), 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dsn := filepath.Join(abs, IndexFile) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Single connection so concurrent writers never see SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{DB: db, dir: abs, now: time.Now}, nil
}

// Dir returns the absolute store directory.
func (s *Store) Dir() string { return s.dir }

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// ResolveOrRegister returns the path registered for (hash, ext), registering
// a new one under the images directory when none exists. The file itself is
// written by the caller.
func (s *Store) ResolveOrRegister(ctx context.Context, hash, ext string) (string, error) {
	if !hexHash.MatchString(hash) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}
	if err := fileutil.ValidateExtension(ext); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, "images", hash+"."+ext)
	if _, err := s.DB.ExecContext(ctx,
		`INSERT INTO images (hash, ext, path, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(hash, ext) DO NOTHING`,
		hash, ext, path, s.now().UnixMilli(),
	); err != nil {
		return "", fmt.Errorf("register image: %w", err)
	}

	var registered string
	err := s.DB.QueryRowContext(ctx,
		`SELECT path FROM images WHERE hash = ? AND ext = ?`, hash, ext,
	).Scan(&registered)
	if err != nil {
		return "", fmt.Errorf("resolve image: %w", err)
	}
	return registered, nil
}

// Lookup returns the registered path for (hash, ext), or "" if none.
func (s *Store) Lookup(ctx context.Context, hash, ext string) (string, error) {
	var path string
	err := s.DB.QueryRowContext(ctx,
		`SELECT path FROM images WHERE hash = ? AND ext = ?`, hash, ext,
	).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup image: %w", err)
	}
	return path, nil
}

// Count returns the number of registered images.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}
