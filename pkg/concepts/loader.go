// Package concepts loads the business-concept catalog and matches concepts
// against user queries.
package concepts

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

// conceptFile is the on-disk shape of one catalog document. Records are
// decoded loosely into yaml.Node values first so one malformed record can
// be skipped without losing the rest of the file.
type conceptFile struct {
	Concepts []yaml.Node `yaml:"concepts"`
}

// Loader manages the in-memory concept catalog. Concepts are loaded once at
// startup and held immutable; Reload is an explicit clear-then-reload.
type Loader struct {
	dir    string
	logger *zap.Logger

	mu       sync.RWMutex
	byName   map[string]*models.BusinessConcept
	ordered  []*models.BusinessConcept
}

// NewLoader creates a loader rooted at dir and performs the initial load.
// A missing directory is created empty rather than treated as fatal.
func NewLoader(dir string, logger *zap.Logger) (*Loader, error) {
	l := &Loader{
		dir:    dir,
		logger: logger.Named("concepts"),
		byName: make(map[string]*models.BusinessConcept),
	}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload replaces the entire catalog with the current on-disk contents.
func (l *Loader) Reload() error {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		l.logger.Warn("concepts directory does not exist, creating it",
			zap.String("dir", l.dir))
		if mkErr := os.MkdirAll(l.dir, 0o755); mkErr != nil {
			return fmt.Errorf("create concepts dir: %w", mkErr)
		}
	}

	byName := make(map[string]*models.BusinessConcept)
	var ordered []*models.BusinessConcept

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		concepts, loadErr := l.loadFile(path)
		if loadErr != nil {
			l.logger.Error("failed to load concept file",
				zap.String("path", path),
				zap.Error(loadErr))
			return nil // keep walking, one bad file is not fatal
		}
		for _, c := range concepts {
			if _, dup := byName[c.Name]; dup {
				l.logger.Warn("duplicate concept name, keeping first",
					zap.String("name", c.Name),
					zap.String("path", path))
				continue
			}
			byName[c.Name] = c
			ordered = append(ordered, c)
		}
		l.logger.Info("loaded concepts",
			zap.String("path", path),
			zap.Int("count", len(concepts)))
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk concepts dir: %w", err)
	}

	l.mu.Lock()
	l.byName = byName
	l.ordered = ordered
	l.mu.Unlock()
	return nil
}

func (l *Loader) loadFile(path string) ([]*models.BusinessConcept, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var file conceptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(file.Concepts) == 0 {
		l.logger.Warn("no concepts key found in file", zap.String("path", path))
		return nil, nil
	}

	var concepts []*models.BusinessConcept
	for i := range file.Concepts {
		var c models.BusinessConcept
		if err := file.Concepts[i].Decode(&c); err != nil {
			l.logger.Warn("skipping malformed concept record",
				zap.String("path", path),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		if err := validateConcept(&c); err != nil {
			l.logger.Warn("skipping invalid concept",
				zap.String("path", path),
				zap.String("name", c.Name),
				zap.Error(err))
			continue
		}
		concepts = append(concepts, &c)
	}
	return concepts, nil
}

// validateConcept enforces the mandatory fields: name, description, target
// (non-empty list), and instructions.
func validateConcept(c *models.BusinessConcept) error {
	if c.Name == "" {
		return fmt.Errorf("missing name")
	}
	if c.Description == "" {
		return fmt.Errorf("missing description")
	}
	if len(c.Target) == 0 {
		return fmt.Errorf("target must be a non-empty list")
	}
	if c.Instructions == "" {
		return fmt.Errorf("missing instructions")
	}
	return nil
}

// All returns every loaded concept in catalog order.
func (l *Loader) All() []*models.BusinessConcept {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*models.BusinessConcept, len(l.ordered))
	copy(out, l.ordered)
	return out
}

// GetByName returns the concept with the given name, or nil.
func (l *Loader) GetByName(name string) *models.BusinessConcept {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.byName[name]
}

// ForEntities returns the concepts whose target set intersects the given
// entities, preserving catalog order.
func (l *Loader) ForEntities(entities []string) []*models.BusinessConcept {
	entitySet := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		entitySet[e] = struct{}{}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var applicable []*models.BusinessConcept
	for _, c := range l.ordered {
		for _, t := range c.Target {
			if _, ok := entitySet[t]; ok {
				applicable = append(applicable, c)
				break
			}
		}
	}
	return applicable
}

// Len returns the number of loaded concepts.
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ordered)
}
