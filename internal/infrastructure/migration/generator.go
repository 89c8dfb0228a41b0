package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

var migrationNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Generator writes new goose SQL files, one per dialect directory
type Generator struct {
	scriptsPath string
	logger      logger.Interface
}

func NewGenerator(scriptsPath string, logger logger.Interface) *Generator {
	return &Generator{
		scriptsPath: scriptsPath,
		logger:      logger.With("component", "migration.generator"),
	}
}

// CreateMigration creates <timestamp>_<name>.sql under every dialect directory and returns the paths
func (g *Generator) CreateMigration(name string, now time.Time) ([]string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !migrationNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid migration name %q: use lowercase letters, digits and underscores", name)
	}

	fileName := fmt.Sprintf("%s_%s.sql", now.UTC().Format("20060102150405"), name)
	content := fmt.Sprintf("-- +goose Up\n-- %s\n\n-- +goose Down\n", name)

	var created []string
	for _, dialect := range []string{"mysql", "postgres", "sqlite"} {
		dir := filepath.Join(g.scriptsPath, dialect)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("failed to create scripts directory: %w", err)
		}

		path := filepath.Join(dir, fileName)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return created, fmt.Errorf("failed to write migration file: %w", err)
		}
		created = append(created, path)
	}

	g.logger.Infow("migration files created", "files", created)
	return created, nil
}
