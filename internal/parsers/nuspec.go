package parsers

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/rocolatey/rocolatey/internal/models"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// NuspecParser parses .nuspec package manifests
type NuspecParser struct{}

// CanParse returns true for .nuspec files
func (p *NuspecParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".nuspec")
}

// Parse extracts the package from nuspec content
func (p *NuspecParser) Parse(filepath string, content []byte) (models.Package, error) {
	pkg, err := ParseNuspec(content)
	if err != nil {
		return models.Package{}, fmt.Errorf("failed to parse %s: %w", filepath, err)
	}
	return pkg, nil
}

type nuspecDependency struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr"`
}

// nuspecDocument matches elements by local name so any nuspec schema
// namespace is accepted
type nuspecDocument struct {
	ID           string             `xml:"metadata>id"`
	Version      string             `xml:"metadata>version"`
	Dependencies []nuspecDependency `xml:"metadata>dependencies>dependency"`
	Groups       []struct {
		Dependencies []nuspecDependency `xml:"dependency"`
	} `xml:"metadata>dependencies>group"`
}

// ParseNuspec reads id, version and direct dependencies from a nuspec document
func ParseNuspec(content []byte) (models.Package, error) {
	var doc nuspecDocument
	if err := xml.Unmarshal(bytes.TrimPrefix(content, utf8BOM), &doc); err != nil {
		return models.Package{}, err
	}

	pkg := models.Package{
		ID:      strings.TrimSpace(doc.ID),
		Version: strings.TrimSpace(doc.Version),
	}
	if pkg.ID == "" {
		return models.Package{}, fmt.Errorf("nuspec has no package id")
	}

	deps := doc.Dependencies
	for _, g := range doc.Groups {
		deps = append(deps, g.Dependencies...)
	}
	for _, d := range deps {
		if d.ID == "" {
			continue
		}
		pkg.Dependencies = append(pkg.Dependencies, models.Package{ID: d.ID, Version: d.Version})
	}

	return pkg, nil
}
