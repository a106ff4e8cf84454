package actions

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// TableMetadata describes a table file for listings
type TableMetadata struct {
	Filename    string // e.g., "bdsp/arceus_reset"
	DisplayName string // name field from the file
	Description string
	Tags        []string
}

// TableRegistry loads every table under a directory. Invalid files are kept
// with their error so the CLI can report them.
type TableRegistry struct {
	mu        sync.RWMutex
	templates TemplateMatcher
	path      string

	tables           map[string]*StateTable
	files            map[string]*TableFile
	metadata         map[string]*TableMetadata
	validationErrors map[string]error
}

// NewTableRegistry creates a registry rooted at path. Call Load to read it.
func NewTableRegistry(path string) *TableRegistry {
	return &TableRegistry{
		path:             path,
		tables:           make(map[string]*StateTable),
		files:            make(map[string]*TableFile),
		metadata:         make(map[string]*TableMetadata),
		validationErrors: make(map[string]error),
	}
}

// WithTemplates sets the template registry used for validation
func (tr *TableRegistry) WithTemplates(templates TemplateMatcher) *TableRegistry {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.templates = templates
	return tr
}

// Load (re)reads every .yaml/.yml file below the registry path
func (tr *TableRegistry) Load() error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.tables = make(map[string]*StateTable)
	tr.files = make(map[string]*TableFile)
	tr.metadata = make(map[string]*TableMetadata)
	tr.validationErrors = make(map[string]error)

	if _, err := os.Stat(tr.path); err != nil {
		return fmt.Errorf("tables folder not found: %w", err)
	}

	err := filepath.Walk(tr.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		relPath, err := filepath.Rel(tr.path, path)
		if err != nil {
			return nil
		}
		name := filepath.ToSlash(relPath[:len(relPath)-len(ext)])
		tr.loadTable(name, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error walking tables directory: %w", err)
	}

	log.InfoWithContext("Tables loaded", map[string]interface{}{
		"path":    tr.path,
		"valid":   len(tr.tables),
		"invalid": len(tr.validationErrors),
	})
	for name, err := range tr.validationErrors {
		log.WarnWithContext("Invalid table", map[string]interface{}{"table": name, "error": err.Error()})
	}
	return nil
}

func (tr *TableRegistry) loadTable(name, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		tr.validationErrors[name] = fmt.Errorf("failed to read file: %w", err)
		return
	}

	var file TableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		tr.validationErrors[name] = fmt.Errorf("failed to parse YAML: %w", err)
		return
	}

	displayName := file.Name
	if displayName == "" {
		displayName = name
	}
	tr.metadata[name] = &TableMetadata{
		Filename:    name,
		DisplayName: displayName,
		Description: file.Description,
		Tags:        file.Tags,
	}

	table, err := NewTableLoader().WithTemplates(tr.templates).Build(&file)
	if err != nil {
		tr.validationErrors[name] = fmt.Errorf("validation failed: %w", err)
		return
	}
	tr.tables[name] = table
	tr.files[name] = &file
}

// Get returns a valid table by file name (relative path without extension)
func (tr *TableRegistry) Get(name string) (*StateTable, error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	if table, ok := tr.tables[name]; ok {
		return table, nil
	}
	if err, ok := tr.validationErrors[name]; ok {
		return nil, fmt.Errorf("table '%s' is invalid: %w", name, err)
	}
	return nil, fmt.Errorf("table '%s' not found", name)
}

// GetWithParams rebuilds a valid table with parameter overrides.
// Only parameters the table declares are overridden.
func (tr *TableRegistry) GetWithParams(name string, params map[string]int) (*StateTable, error) {
	if len(params) == 0 {
		return tr.Get(name)
	}
	if _, err := tr.Get(name); err != nil {
		return nil, err
	}

	tr.mu.RLock()
	file := tr.files[name]
	templates := tr.templates
	tr.mu.RUnlock()

	return NewTableLoader().WithTemplates(templates).WithParams(params).Build(file)
}

// Metadata returns the listing entry for a table
func (tr *TableRegistry) Metadata(name string) (*TableMetadata, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	md, ok := tr.metadata[name]
	return md, ok
}

// ListValid returns the names of all tables that built successfully
func (tr *TableRegistry) ListValid() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	names := make([]string, 0, len(tr.tables))
	for name := range tr.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListInvalid returns the names of tables that failed to load
func (tr *TableRegistry) ListInvalid() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	names := make([]string, 0, len(tr.validationErrors))
	for name := range tr.validationErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationError returns why a table failed to load
func (tr *TableRegistry) ValidationError(name string) error {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.validationErrors[name]
}
