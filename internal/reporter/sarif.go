package reporter

import (
	"encoding/json"
	"fmt"

	"github.com/rocolatey/rocolatey/internal/models"
)

// SARIFReporter outputs outdated packages in SARIF format for code scanning
// dashboards
type SARIFReporter struct{}

// SARIF structures
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription sarifText       `json:"shortDescription"`
	FullDescription  sarifText       `json:"fullDescription"`
	Help             sarifText       `json:"help"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
	Properties       sarifProperties `json:"properties"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifProperties struct {
	Tags []string `json:"tags"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifText         `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

const (
	ruleOutdated = iota
	ruleNotFound
)

var sarifRules = []sarifRule{
	ruleOutdated: {
		ID:               "outdated-package",
		Name:             "OutdatedPackage",
		ShortDescription: sarifText{Text: "Installed package has a newer version on a configured feed"},
		FullDescription:  sarifText{Text: "A newer version of an installed Chocolatey package is available on at least one enabled source."},
		Help:             sarifText{Text: "Run 'rocolatey upgrade <id>' or 'choco upgrade <id>' to install the newer version."},
		DefaultConfig:    sarifRuleConfig{Level: "warning"},
		Properties:       sarifProperties{Tags: []string{"chocolatey", "outdated"}},
	},
	ruleNotFound: {
		ID:               "package-not-found",
		Name:             "PackageNotFound",
		ShortDescription: sarifText{Text: "Installed package was not found on any configured feed"},
		FullDescription:  sarifText{Text: "No enabled source returned a version of this installed Chocolatey package."},
		Help:             sarifText{Text: "Check that the package is still published or add the source it was installed from."},
		DefaultConfig:    sarifRuleConfig{Level: "note"},
		Properties:       sarifProperties{Tags: []string{"chocolatey", "unfound"}},
	},
}

// Report generates SARIF output for the given records
func (r *SARIFReporter) Report(records []models.OutdatedRecord) ([]byte, error) {
	report := sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:           "rocolatey",
					Version:        "0.9.0",
					InformationURI: "https://github.com/rocolatey/rocolatey",
					Rules:          sarifRules,
				},
			},
			Results: r.buildResults(records),
		}},
	}

	return json.MarshalIndent(report, "", "  ")
}

func (r *SARIFReporter) buildResults(records []models.OutdatedRecord) []sarifResult {
	results := make([]sarifResult, 0, len(records))

	for _, rec := range records {
		index := ruleOutdated
		msg := fmt.Sprintf("Package %s %s can be upgraded to %s", rec.ID, rec.LocalVersion, rec.RemoteVersion)
		if !rec.ExistsOnRemote {
			index = ruleNotFound
			msg = fmt.Sprintf("Package %s %s was not found on any enabled source", rec.ID, rec.LocalVersion)
		} else if !rec.Outdated {
			continue
		}
		if rec.Pinned {
			msg += " [pinned]"
		}

		rule := sarifRules[index]
		results = append(results, sarifResult{
			RuleID:    rule.ID,
			RuleIndex: index,
			Level:     rule.DefaultConfig.Level,
			Message:   sarifText{Text: msg},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifact{
						URI: fmt.Sprintf("lib/%s/%s.nuspec", rec.ID, rec.ID),
					},
				},
			}},
			PartialFingerprints: map[string]string{
				"primaryLocationLineHash": fmt.Sprintf("%s:%s:%s",
					rec.ID, rec.LocalVersion, rec.RemoteVersion),
			},
		})
	}

	return results
}
