// Package sqlite persists the vector index in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/tread-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tread-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// Store is a SQLite-backed index store. Entries and build metadata are
// written in a single transaction so readers never observe a partial
// index.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.tread/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tread", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode for better concurrency between the chat loop and rebuilds.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies any pending schema migrations from the embedded FS.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue
		}

		sqlBytes, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(sqlBytes)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}

		logger.Debug("applied migration %s", name)
	}

	return nil
}

// Replace atomically swaps the persisted index for the given entries.
// The delete, metadata upsert, and inserts share one transaction, so a
// failure leaves the previous index intact.
func (s *Store) Replace(ctx context.Context, entries []domain.IndexEntry, meta domain.IndexMetadata) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_entries"); err != nil {
		return fmt.Errorf("clearing index entries: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, embedding_model, dimensions, segment_count, built_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			embedding_model = excluded.embedding_model,
			dimensions = excluded.dimensions,
			segment_count = excluded.segment_count,
			built_at = excluded.built_at
	`, meta.EmbeddingModel, meta.Dimensions, meta.SegmentCount, meta.BuiltAt); err != nil {
		return fmt.Errorf("saving index metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_entries
			(segment_id, product_id, product_name, sequence, content, char_start, char_end, catalog_order, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		seg := entry.Segment
		if _, err := stmt.ExecContext(ctx,
			seg.ID, seg.ProductID, seg.ProductName, seg.Sequence, seg.Text,
			seg.CharStart, seg.CharEnd, seg.CatalogOrder,
			float32SliceToBytes(entry.Vector),
		); err != nil {
			return fmt.Errorf("saving entry %s: %w", seg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	logger.Debug("persisted %d index entries (model %s)", len(entries), meta.EmbeddingModel)
	return nil
}

// Load reads back all persisted entries and metadata. Returns
// domain.ErrIndexNotLoaded when no index has been persisted yet.
func (s *Store) Load(ctx context.Context) ([]domain.IndexEntry, domain.IndexMetadata, error) {
	var meta domain.IndexMetadata

	row := s.db.QueryRowContext(ctx, `
		SELECT embedding_model, dimensions, segment_count, built_at
		FROM index_meta WHERE id = 1
	`)
	if err := row.Scan(&meta.EmbeddingModel, &meta.Dimensions, &meta.SegmentCount, &meta.BuiltAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.IndexMetadata{}, domain.ErrIndexNotLoaded
		}
		return nil, domain.IndexMetadata{}, fmt.Errorf("loading index metadata: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT segment_id, product_id, product_name, sequence, content, char_start, char_end, catalog_order, embedding
		FROM index_entries
		ORDER BY catalog_order, sequence
	`)
	if err != nil {
		return nil, domain.IndexMetadata{}, fmt.Errorf("querying index entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.IndexEntry, 0, meta.SegmentCount)
	for rows.Next() {
		var seg domain.TextSegment
		var blob []byte
		if err := rows.Scan(
			&seg.ID, &seg.ProductID, &seg.ProductName, &seg.Sequence, &seg.Text,
			&seg.CharStart, &seg.CharEnd, &seg.CatalogOrder, &blob,
		); err != nil {
			return nil, domain.IndexMetadata{}, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, domain.IndexEntry{
			Segment: seg,
			Vector:  bytesToFloat32Slice(blob),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.IndexMetadata{}, fmt.Errorf("iterating entries: %w", err)
	}

	return entries, meta, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
