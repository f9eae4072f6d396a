package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/icetype/icetype/internal/migrate"
)

const defaultDir = "migrations"

var fileNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9-_.]`)

// Store persists migrations as JSON files with a sha256 sidecar per file,
// so a chain read back for merging is known to be intact.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	if strings.TrimSpace(dir) == "" {
		dir = defaultDir
	}
	return &Store{dir: dir}
}

// Directory returns the configured migrations directory.
func (s *Store) Directory() string {
	return s.dir
}

// Save writes the migration and its checksum sidecar, returning the
// migration file path.
func (s *Store) Save(m *migrate.Migration) (string, error) {
	if m == nil {
		return "", fmt.Errorf("migration cannot be nil")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create migrations directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode migration: %w", err)
	}

	name := sanitizeName(fmt.Sprintf("v%s_%s", m.ToVersion, m.ID)) + ".json"
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write migration: %w", err)
	}

	checksum := sha256.Sum256(data)
	sidecar := path + ".sha256"
	if err := os.WriteFile(sidecar, []byte(hex.EncodeToString(checksum[:])+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write checksum: %w", err)
	}

	return path, nil
}

// Load reads one migration file, verifying it against its sidecar when one
// exists. A missing sidecar is tolerated for hand-written migrations.
func (s *Store) Load(path string) (*migrate.Migration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration file: %w", err)
	}

	if expected, err := readSidecar(path + ".sha256"); err == nil {
		actual := sha256.Sum256(data)
		if hex.EncodeToString(actual[:]) != expected {
			return nil, fmt.Errorf("checksum mismatch for %s", path)
		}
	}

	var m migrate.Migration
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse migration %s: %w", path, err)
	}
	return &m, nil
}

// List reads every migration in the directory sorted by version span, the
// order Merge expects. A missing directory is an empty list.
func (s *Store) List() ([]*migrate.Migration, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []*migrate.Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		m, err := s.Load(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}

	sort.SliceStable(migrations, func(i, j int) bool {
		if !migrations[i].FromVersion.Equal(migrations[j].FromVersion) {
			return migrations[i].FromVersion.Less(migrations[j].FromVersion)
		}
		return migrations[i].ToVersion.Less(migrations[j].ToVersion)
	})

	return migrations, nil
}

// LoadChain is List with the additional guarantee that the result is
// non-empty, for callers about to merge.
func (s *Store) LoadChain() ([]*migrate.Migration, error) {
	migrations, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(migrations) == 0 {
		return nil, fmt.Errorf("no migrations found in %s", s.dir)
	}
	return migrations, nil
}

func readSidecar(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func sanitizeName(input string) string {
	cleaned := fileNameSanitizer.ReplaceAllString(input, "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return "migration"
	}
	return cleaned
}
