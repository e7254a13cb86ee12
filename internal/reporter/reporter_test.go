package reporter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocolatey/rocolatey/internal/models"
)

var sampleRecords = []models.OutdatedRecord{
	{ID: "7zip", LocalVersion: "19.0", RemoteVersion: "23.1", Outdated: true, ExistsOnRemote: true},
	{ID: "git", LocalVersion: "2.39.0", RemoteVersion: "2.43.0", Pinned: true, Outdated: true, ExistsOnRemote: true},
	{ID: "internal-tool", LocalVersion: "1.0.0", RemoteVersion: "1.0.0", ExistsOnRemote: false},
}

func TestTextReport(t *testing.T) {
	out, err := (&TextReporter{}).Report(sampleRecords)
	require.NoError(t, err)

	want := "Outdated Packages\n" +
		" Output is package name | current version | available version | pinned?\n\n" +
		"7zip|19.0|23.1|false\n" +
		"git|2.39.0|2.43.0|true\n" +
		"internal-tool|1.0.0|1.0.0|false\n" +
		"\nRocolatey has determined 2 package(s) are outdated.\n" +
		" 1 package(s) had warnings.\n" +
		"Warnings:\n" +
		" - internal-tool\n"
	assert.Equal(t, want, string(out))
}

func TestTextReportNoWarnings(t *testing.T) {
	out, err := (&TextReporter{}).Report(sampleRecords[:1])
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(out), "determined 1 package(s) are outdated.\n"))
	assert.NotContains(t, string(out), "Warnings:")
}

func TestTextReportLimit(t *testing.T) {
	out, err := (&TextReporter{Limit: true}).Report(sampleRecords)
	require.NoError(t, err)
	assert.Equal(t, "7zip|19.0|23.1|false\ngit|2.39.0|2.43.0|true\ninternal-tool|1.0.0|1.0.0|false\n", string(out))
}

func TestListReport(t *testing.T) {
	out, err := (&ListReporter{}).Report(sampleRecords)
	require.NoError(t, err)
	assert.Equal(t, "7zip git\n", string(out))

	out, err = (&ListReporter{}).Report(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestJSONReport(t *testing.T) {
	out, err := (&JSONReporter{}).Report(sampleRecords)
	require.NoError(t, err)

	var decoded jsonOutput
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, jsonSummary{TotalChecked: 3, Outdated: 2, Warnings: 1}, decoded.Summary)
	require.Len(t, decoded.Packages, 3)
	assert.Equal(t, "git", decoded.Packages[1].ID)
	assert.True(t, decoded.Packages[1].Pinned)
	assert.False(t, decoded.Packages[2].ExistsOnRemote)
}

func TestSARIFReport(t *testing.T) {
	records := append([]models.OutdatedRecord{
		{ID: "current", LocalVersion: "1.0", RemoteVersion: "1.0", ExistsOnRemote: true},
	}, sampleRecords...)

	out, err := (&SARIFReporter{}).Report(records)
	require.NoError(t, err)

	var decoded sarifReport
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded.Runs, 1)
	run := decoded.Runs[0]
	assert.Len(t, run.Tool.Driver.Rules, 2)
	require.Len(t, run.Results, 3)

	assert.Equal(t, "outdated-package", run.Results[0].RuleID)
	assert.Equal(t, "warning", run.Results[0].Level)
	assert.Equal(t, "lib/7zip/7zip.nuspec", run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Contains(t, run.Results[1].Message.Text, "[pinned]")

	assert.Equal(t, "package-not-found", run.Results[2].RuleID)
	assert.Equal(t, 1, run.Results[2].RuleIndex)
	assert.Equal(t, "note", run.Results[2].Level)
	assert.Equal(t, "internal-tool:1.0.0:1.0.0", run.Results[2].PartialFingerprints["primaryLocationLineHash"])
}

func TestTableReport(t *testing.T) {
	out, err := (&TableReporter{}).Report(sampleRecords)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "PACKAGE")
	assert.Contains(t, text, "not found")
	assert.Contains(t, text, "2 outdated · 1 not found")

	out, err = (&TableReporter{}).Report(nil)
	require.NoError(t, err)
	assert.Equal(t, "All packages are up to date.\n", string(out))
}

func TestFormatRowWideRunes(t *testing.T) {
	widths := []int{6, 3}
	assert.Equal(t, "日本語  1.0", formatRow([]string{"日本語", "1.0"}, widths))
	assert.Equal(t, "abc     1", formatRow([]string{"abc", "1"}, widths))
}

func TestGet(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.Config
		want Reporter
	}{
		{"default", models.Config{}, &TextReporter{}},
		{"json", models.Config{OutputFormat: "json"}, &JSONReporter{}},
		{"sarif", models.Config{OutputFormat: "sarif"}, &SARIFReporter{}},
		{"table", models.Config{OutputFormat: "table"}, &TableReporter{}},
		{"limit wins over format", models.Config{OutputFormat: "json", LimitOutput: true}, &TextReporter{Limit: true}},
		{"list wins over limit", models.Config{LimitOutput: true, ListOutput: true}, &ListReporter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Get(&tt.cfg))
		})
	}
}

var localPackages = []models.Package{
	{ID: "chocolatey", Version: "2.2.2"},
	{ID: "git", Version: "2.43.0", Dependencies: []models.Package{{ID: "git.install", Version: "[2.43.0]"}}},
	{ID: "git.install", Version: "2.43.0", Dependencies: []models.Package{{ID: "chocolatey-core.extension"}}},
	{ID: "GoogleChrome", Version: "120.0"},
}

func TestPackageList(t *testing.T) {
	assert.Equal(t,
		"chocolatey 2.2.2\r\ngit 2.43.0\r\ngit.install 2.43.0\r\nGoogleChrome 120.0\r\n4 packages installed.",
		PackageList(localPackages, "all", false))
	assert.Equal(t, "git|2.43.0\r\ngit.install|2.43.0", PackageList(localPackages, "GIT", true))
	assert.Equal(t, "GoogleChrome|120.0", PackageList(localPackages, "chrome", true))
	assert.Equal(t, "\r\n4 packages installed.", PackageList(localPackages, "nothing", false))
}

func TestBadList(t *testing.T) {
	assert.Equal(t, "\r\n0 packages in lib-bad.", BadList(nil, false))
	assert.Equal(t, "git 2.43.0\r\n1 packages in lib-bad.", BadList(localPackages[1:2], false))
	assert.Equal(t, "git|2.43.0", BadList(localPackages[1:2], true))
}

func TestDependencyTree(t *testing.T) {
	want := "git (2.43.0)\r\n" +
		" |-git.install ([2.43.0])\r\n" +
		" | |-chocolatey-core.extension \r\n" +
		"ERROR: failed to locate chocolatey-core.extension among local packages\r\n" +
		"git.install (2.43.0)\r\n" +
		" |-chocolatey-core.extension \r\n" +
		"ERROR: failed to locate chocolatey-core.extension among local packages\r\n"
	assert.Equal(t, want, DependencyTree(localPackages, "git"))
}

func TestDependencyTreeCycle(t *testing.T) {
	pkgs := []models.Package{
		{ID: "a", Version: "1", Dependencies: []models.Package{{ID: "b", Version: "1"}}},
		{ID: "b", Version: "1", Dependencies: []models.Package{{ID: "a", Version: "1"}}},
	}
	want := "a (1)\r\n |-b (1)\r\n | |-a (1)\r\n"
	assert.Equal(t, want, DependencyTree(pkgs, "a"))
}

func TestSources(t *testing.T) {
	feeds := []*models.Feed{
		{Name: "chocolatey", URL: "https://community.chocolatey.org/api/v2/"},
		{
			Name: "internal", URL: "https://nexus.corp.local/index.json", Priority: 1,
			Credential: &models.Credential{User: "build", Pass: "s3cret"}, BypassProxy: true,
		},
		{Name: "old", URL: "https://old.corp.local/", Disabled: true, AdminOnly: true},
	}

	want := "chocolatey - https://community.chocolatey.org/api/v2/ | Priority 0|Bypass Proxy - False|Self-Service - False|Admin Only - False.\r\n" +
		"internal - https://nexus.corp.local/index.json (Authenticated)| Priority 1|Bypass Proxy - True|Self-Service - False|Admin Only - False.\r\n" +
		"old [Disabled] - https://old.corp.local/ | Priority 0|Bypass Proxy - False|Self-Service - False|Admin Only - True."
	assert.Equal(t, want, Sources(feeds, false))

	limited := strings.Split(Sources(feeds, true), "\r\n")
	require.Len(t, limited, 3)
	assert.Equal(t, "chocolatey|https://community.chocolatey.org/api/v2/|False|||0|False|False|False", limited[0])
	assert.Equal(t, "internal|https://nexus.corp.local/index.json|False|build||1|True|False|False", limited[1])
}
