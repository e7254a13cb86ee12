package parsers

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rocolatey/rocolatey/internal/models"
)

// nupkgFilenamePattern splits "<id>.<version>.nupkg"; the id is matched lazily
// so "googlechrome.80.0.3987.149.nupkg" yields id "googlechrome"
var nupkgFilenamePattern = regexp.MustCompile(`^(.+?)\.(((\d+\.?)+)(-.+)?)\.nupkg$`)

// NupkgParser reads the manifest embedded in a .nupkg archive
type NupkgParser struct{}

// CanParse returns true for .nupkg files
func (p *NupkgParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".nupkg")
}

// Parse extracts the package from the archive's nuspec, falling back to
// the file name when the archive carries no readable manifest
func (p *NupkgParser) Parse(path string, content []byte) (models.Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err == nil {
		return p.parseArchive(path, zr)
	}
	return fromFilename(path, err)
}

// ParseFile reads only the central directory and the nuspec entry of the
// archive at path, so large packages are never loaded whole
func (p *NupkgParser) ParseFile(path string) (models.Package, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fromFilename(path, err)
	}
	defer zr.Close()
	return p.parseArchive(path, &zr.Reader)
}

func (p *NupkgParser) parseArchive(path string, zr *zip.Reader) (models.Package, error) {
	pkg, err := nuspecFromArchive(zr)
	if err != nil {
		return fromFilename(path, err)
	}
	return pkg, nil
}

func fromFilename(path string, cause error) (models.Package, error) {
	if pkg, ok := ParseNupkgFilename(filepath.Base(path)); ok {
		return pkg, nil
	}
	return models.Package{}, fmt.Errorf("failed to parse %s: %w", path, cause)
}

func nuspecFromArchive(zr *zip.Reader) (models.Package, error) {
	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".nuspec") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return models.Package{}, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return models.Package{}, err
		}
		return ParseNuspec(data)
	}
	return models.Package{}, fmt.Errorf("archive contains no nuspec")
}

// ParseNupkgFilename derives id and version from a nupkg file name
func ParseNupkgFilename(name string) (models.Package, bool) {
	m := nupkgFilenamePattern.FindStringSubmatch(name)
	if m == nil {
		return models.Package{}, false
	}
	return models.Package{ID: m[1], Version: m[2]}, true
}
