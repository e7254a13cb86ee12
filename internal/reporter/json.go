package reporter

import (
	"encoding/json"

	"github.com/rocolatey/rocolatey/internal/models"
)

// JSONReporter outputs the outdated report in JSON format
type JSONReporter struct{}

// jsonOutput represents the JSON output structure
type jsonOutput struct {
	Summary  jsonSummary   `json:"summary"`
	Packages []jsonPackage `json:"packages"`
}

type jsonSummary struct {
	TotalChecked int `json:"total_checked"`
	Outdated     int `json:"outdated"`
	Warnings     int `json:"warnings"`
}

type jsonPackage struct {
	ID             string `json:"id"`
	LocalVersion   string `json:"local_version"`
	RemoteVersion  string `json:"remote_version"`
	Pinned         bool   `json:"pinned"`
	Outdated       bool   `json:"outdated"`
	ExistsOnRemote bool   `json:"exists_on_remote"`
}

// Report generates JSON output for the given records
func (r *JSONReporter) Report(records []models.OutdatedRecord) ([]byte, error) {
	outdated, warnings := countRecords(records)
	output := jsonOutput{
		Summary: jsonSummary{
			TotalChecked: len(records),
			Outdated:     outdated,
			Warnings:     warnings,
		},
		Packages: make([]jsonPackage, 0, len(records)),
	}

	for _, rec := range records {
		output.Packages = append(output.Packages, jsonPackage{
			ID:             rec.ID,
			LocalVersion:   rec.LocalVersion,
			RemoteVersion:  rec.RemoteVersion,
			Pinned:         rec.Pinned,
			Outdated:       rec.Outdated,
			ExistsOnRemote: rec.ExistsOnRemote,
		})
	}

	return json.MarshalIndent(output, "", "  ")
}
