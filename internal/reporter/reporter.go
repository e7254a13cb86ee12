package reporter

import "github.com/rocolatey/rocolatey/internal/models"

// Reporter is the interface for outdated report formatters
type Reporter interface {
	// Report generates output for the given records
	Report(records []models.OutdatedRecord) ([]byte, error)
}

// Get returns a reporter for the configured output. List and limit output
// take precedence over the format name.
func Get(cfg *models.Config) Reporter {
	switch {
	case cfg.ListOutput:
		return &ListReporter{}
	case cfg.LimitOutput:
		return &TextReporter{Limit: true}
	}

	switch cfg.OutputFormat {
	case "json":
		return &JSONReporter{}
	case "sarif":
		return &SARIFReporter{}
	case "table":
		return &TableReporter{}
	default:
		return &TextReporter{}
	}
}

// Formats lists the accepted --format values
var Formats = []string{"text", "json", "table", "sarif"}

func countRecords(records []models.OutdatedRecord) (outdated, warnings int) {
	for _, r := range records {
		if r.Outdated {
			outdated++
		}
		if !r.ExistsOnRemote {
			warnings++
		}
	}
	return outdated, warnings
}
