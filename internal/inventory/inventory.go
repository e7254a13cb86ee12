// Package inventory reads the packages chocolatey has installed locally.
package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/rocolatey/rocolatey/internal/models"
	"github.com/rocolatey/rocolatey/internal/parsers"
)

// Provider lists packages below a chocolatey installation directory
type Provider struct {
	Dir     string
	parsers []parsers.Parser
	logger  *log.Logger
}

// NewProvider creates a provider for the chocolatey installation at dir
func NewProvider(dir string, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.Default()
	}
	return &Provider{
		Dir:     dir,
		parsers: []parsers.Parser{&parsers.NuspecParser{}},
		logger:  logger,
	}
}

// ListLocal returns the installed packages (lib/<pkg>/<pkg>.nuspec)
func (p *Provider) ListLocal() ([]models.Package, error) {
	matches, err := filepath.Glob(filepath.Join(p.Dir, "lib", "*", "*.nuspec"))
	if err != nil {
		return nil, err
	}

	var pkgs []models.Package
	for _, path := range matches {
		pkg, err := p.parseFile(path)
		if err != nil {
			// Log but don't fail on individual manifest errors
			p.logger.Warn("skipping package", "path", path, "err", err)
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	sortByID(pkgs)
	return pkgs, nil
}

// ListBad returns the packages chocolatey moved to lib-bad after a failed
// install or upgrade
func (p *Provider) ListBad() ([]models.Package, error) {
	root := filepath.Join(p.Dir, "lib-bad")

	var pkgs []models.Package
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || parsers.ForFile(p.parsers, d.Name()) == nil {
			return nil
		}

		pkg, err := p.parseFile(path)
		if err != nil {
			p.logger.Warn("skipping package", "path", path, "err", err)
			return nil
		}
		pkgs = append(pkgs, pkg)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}
	sortByID(pkgs)
	return pkgs, nil
}

func sortByID(pkgs []models.Package) {
	sort.SliceStable(pkgs, func(i, j int) bool { return pkgs[i].Key() < pkgs[j].Key() })
}

// IsPinned reports whether choco has a pin marker for the package version
func (p *Provider) IsPinned(id, version string) bool {
	_, err := os.Stat(filepath.Join(p.Dir, ".chocolatey", id+"."+version, ".pin"))
	return err == nil
}

// parseFile parses a manifest and attaches its pin state
func (p *Provider) parseFile(path string) (models.Package, error) {
	parser := parsers.ForFile(p.parsers, filepath.Base(path))
	if parser == nil {
		return models.Package{}, fmt.Errorf("no parser for %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return models.Package{}, err
	}
	pkg, err := parser.Parse(path, content)
	if err != nil {
		return models.Package{}, err
	}

	pkg.Pinned = p.IsPinned(pkg.ID, pkg.Version)
	return pkg, nil
}
