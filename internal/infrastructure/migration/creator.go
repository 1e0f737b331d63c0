package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)
	unsafeNameChars      = regexp.MustCompile(`[^a-z0-9]+`)
)

// Migration is one versioned up/down pair on disk
type Migration struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes an empty up/down pair numbered after the highest
// existing version in dir.
func CreateMigration(dir, name string) (*Migration, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("invalid migration name %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(dir)
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if len(existing) > 0 {
		next = existing[len(existing)-1].Version + 1
	}

	base := fmt.Sprintf("%06d_%s", next, slug)
	mg := &Migration{
		Version:  next,
		Name:     slug,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	if err := writeNew(mg.UpPath, fmt.Sprintf("-- %s\n\n", slug)); err != nil {
		return nil, err
	}
	if err := writeNew(mg.DownPath, fmt.Sprintf("-- rollback %s\n\n", slug)); err != nil {
		_ = os.Remove(mg.UpPath)
		return nil, err
	}
	return mg, nil
}

func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// sanitizeName lowercases name and collapses anything that isn't a letter
// or digit into single underscores.
func sanitizeName(name string) string {
	return strings.Trim(unsafeNameChars.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// ListMigrations returns the migrations in dir ordered by version. A
// missing directory yields no migrations.
func ListMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[uint]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationFilePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		version, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			continue
		}

		mg, ok := byVersion[uint(version)]
		if !ok {
			mg = &Migration{Version: uint(version), Name: match[2]}
			byVersion[uint(version)] = mg
		}
		path := filepath.Join(dir, entry.Name())
		if match[3] == "up" {
			mg.UpPath = path
		} else {
			mg.DownPath = path
		}
	}

	result := make([]Migration, 0, len(byVersion))
	for _, mg := range byVersion {
		result = append(result, *mg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}
