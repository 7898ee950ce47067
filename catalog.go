package badapple

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bodgit/badapple/frame"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog records every clip that has been converted.
type Catalog struct {
	db *sql.DB
}

// Clip is a single catalog entry.
type Clip struct {
	ID        string
	Name      string
	Hash      string
	Geometry  frame.Geometry
	Frames    int
	Keyframes int
	Bytes     int64
	Created   time.Time
}

// OpenCatalog opens, creating if necessary, the catalog stored in file.
func OpenCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS clip (id TEXT PRIMARY KEY NOT NULL, name TEXT NOT NULL, hash TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL, frames INTEGER NOT NULL, keyframes INTEGER NOT NULL, bytes INTEGER NOT NULL, created INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the catalog.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Hash returns the content hash used to identify a raw clip.
func Hash(clip []byte) string {
	return fmt.Sprintf("%016X", xxhash.Sum64(clip))
}

// Add records a conversion of the raw clip. Converting the same content again
// replaces the name and statistics but keeps the original ID.
func (c *Catalog) Add(name string, clip []byte, g frame.Geometry, stats Stats) (*Clip, error) {
	hash := Hash(clip)

	var id string
	switch err := c.db.QueryRow("SELECT id FROM clip WHERE hash = ?", hash).Scan(&id); err {
	case sql.ErrNoRows:
		id = uuid.New().String()
	case nil:
	default:
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	if _, err := c.db.Exec("INSERT OR REPLACE INTO clip (id, name, hash, width, height, frames, keyframes, bytes, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", id, name, hash, g.Width, g.Height, stats.Frames, stats.Keyframes, stats.Bytes, now.Unix()); err != nil {
		return nil, err
	}

	return &Clip{
		ID:        id,
		Name:      name,
		Hash:      hash,
		Geometry:  g,
		Frames:    stats.Frames,
		Keyframes: stats.Keyframes,
		Bytes:     stats.Bytes,
		Created:   now,
	}, nil
}

func scanClip(s interface{ Scan(...interface{}) error }) (*Clip, error) {
	var clip Clip
	var created int64
	if err := s.Scan(&clip.ID, &clip.Name, &clip.Hash, &clip.Geometry.Width, &clip.Geometry.Height, &clip.Frames, &clip.Keyframes, &clip.Bytes, &created); err != nil {
		return nil, err
	}
	clip.Created = time.Unix(created, 0).UTC()
	return &clip, nil
}

// FindByHash returns the clip with the given content hash, or nil if there
// isn't one.
func (c *Catalog) FindByHash(hash string) (*Clip, error) {
	clip, err := scanClip(c.db.QueryRow("SELECT id, name, hash, width, height, frames, keyframes, bytes, created FROM clip WHERE hash = ?", hash))
	switch err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return clip, nil
	default:
		return nil, err
	}
}

// List returns every clip ordered by name.
func (c *Catalog) List() ([]*Clip, error) {
	rows, err := c.db.Query("SELECT id, name, hash, width, height, frames, keyframes, bytes, created FROM clip ORDER BY name, created")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}
