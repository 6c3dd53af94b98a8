package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/moldshop/prodtrack/internal/domain"
)

// seed is the on-disk description of a program drop. Tooling data uses
// the same shape the API serves.
type seed struct {
	ProgramID  string        `yaml:"program_id"`
	Material   string        `yaml:"material"`
	Machine    string        `yaml:"machine"`
	Reference  string        `yaml:"reference"`
	Programmer string        `yaml:"programmer"`
	Date       string        `yaml:"date"`
	ImagePath  string        `yaml:"image_path"`
	Comments   string        `yaml:"comments"`
	Tools      []domain.Tool `yaml:"tools"`
}

// LoadFile parses a single program seed file. New programs always
// enter the queue as Pendente.
func LoadFile(path string) (*domain.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	if strings.TrimSpace(s.ProgramID) == "" {
		return nil, fmt.Errorf("%s: program_id is required", filepath.Base(path))
	}

	return &domain.Program{
		ProgramID:  strings.TrimSpace(s.ProgramID),
		Material:   s.Material,
		Machine:    s.Machine,
		Reference:  s.Reference,
		Programmer: s.Programmer,
		Date:       s.Date,
		ImagePath:  s.ImagePath,
		Comments:   s.Comments,
		Tools:      s.Tools,
		Status:     domain.StatusPending,
	}, nil
}

// LoadDir parses every seed file in a directory, in name order so
// queue position is reproducible. Files that fail to parse are
// reported alongside the programs that loaded.
func LoadDir(dir string) ([]*domain.Program, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{err}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isSeedFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var programs []*domain.Program
	var errs []error
	for _, name := range names {
		p, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		programs = append(programs, p)
	}
	return programs, errs
}

func isSeedFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
