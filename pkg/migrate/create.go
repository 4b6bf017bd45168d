package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

var sqlTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<version>_<name>.sql stamped with the current
// UTC time.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now().UTC())
}

// createSQLMigration moves the version forward a second at a time until it is
// unused, so two files created in the same second do not collide.
func createSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := sanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	for attempt := 0; attempt < 60; attempt++ {
		version := now.Add(time.Duration(attempt) * time.Second).Format(versionLayout)
		taken, err := versionTaken(dir, version)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}
		fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, safe))
		if err := os.WriteFile(fullpath, []byte(fmt.Sprintf(sqlTemplate, safe)), 0o644); err != nil {
			return "", fmt.Errorf("write migration %q: %w", fullpath, err)
		}
		return fullpath, nil
	}
	return "", fmt.Errorf("no free migration version near %s", now.Format(versionLayout))
}

func sanitizeName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}

func versionTaken(dir, version string) (bool, error) {
	matches, err := filepath.Glob(filepath.Join(dir, version+"_*.sql"))
	if err != nil {
		return false, fmt.Errorf("glob %q: %w", dir, err)
	}
	return len(matches) > 0, nil
}
