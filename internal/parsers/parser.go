package parsers

import "github.com/rocolatey/rocolatey/internal/models"

// Parser is the interface for package manifest parsers
type Parser interface {
	// CanParse returns true if this parser can handle the given filename
	CanParse(filename string) bool

	// Parse extracts the package described by the file content
	Parse(filepath string, content []byte) (models.Package, error)
}

// ForFile returns the first parser that can handle filename, or nil
func ForFile(parsers []Parser, filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}
