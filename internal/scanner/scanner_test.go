package scanner

import (
	"archive/zip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocolatey/rocolatey/internal/clients"
	"github.com/rocolatey/rocolatey/internal/models"
)

func TestMergeKeepsNewestRegardlessOfOrder(t *testing.T) {
	a := []models.Package{{ID: "pkgA", Version: "1.0"}}
	b := []models.Package{{ID: "PkgA", Version: "2.0"}}

	first := map[string]models.Package{}
	Merge(first, a)
	Merge(first, b)

	second := map[string]models.Package{}
	Merge(second, b)
	Merge(second, a)

	assert.Equal(t, "2.0", first["pkga"].Version)
	assert.Equal(t, "2.0", second["pkga"].Version)
	assert.Len(t, first, 1)
}

func TestResolvePinned(t *testing.T) {
	local := []models.Package{{ID: "foo", Version: "1.0", Pinned: true}}
	remote := map[string]models.Package{"foo": {ID: "foo", Version: "2.0"}}

	assert.Empty(t, Resolve(local, remote, true, false))

	records := Resolve(local, remote, false, false)
	require.Len(t, records, 1)
	assert.Equal(t, models.OutdatedRecord{
		ID:             "foo",
		LocalVersion:   "1.0",
		RemoteVersion:  "2.0",
		Pinned:         true,
		Outdated:       true,
		ExistsOnRemote: true,
	}, records[0])
}

func TestResolveUnfound(t *testing.T) {
	local := []models.Package{{ID: "bar", Version: "1.0"}}

	records := Resolve(local, map[string]models.Package{}, false, false)
	require.Len(t, records, 1)
	assert.False(t, records[0].ExistsOnRemote)
	assert.False(t, records[0].Outdated)
	assert.Equal(t, "1.0", records[0].RemoteVersion)

	assert.Empty(t, Resolve(local, map[string]models.Package{}, false, true))
}

func TestResolveUpToDateAndSorting(t *testing.T) {
	local := []models.Package{
		{ID: "Zoom", Version: "5.0"},
		{ID: "git", Version: "2.40.0"},
		{ID: "7zip", Version: "19.0"},
		{ID: "Audacity", Version: "3.0"},
	}
	remote := map[string]models.Package{
		"zoom":     {ID: "zoom", Version: "5.1"},
		"git":      {ID: "git", Version: "2.40.0"},
		"7zip":     {ID: "7zip", Version: "22.1"},
		"audacity": {ID: "audacity", Version: "3.3"},
	}

	records := Resolve(local, remote, false, false)
	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"7zip", "Audacity", "Zoom"}, ids)
}

func TestSelectPackages(t *testing.T) {
	local := []models.Package{{ID: "git", Version: "1"}, {ID: "GoogleChrome", Version: "2"}}

	all, err := SelectPackages(local, "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := SelectPackages(local, "googlechrome")
	require.NoError(t, err)
	assert.Equal(t, []models.Package{{ID: "GoogleChrome", Version: "2"}}, one)

	_, err = SelectPackages(local, "google")
	assert.ErrorIs(t, err, ErrPackageNotInstalled)
}

func TestChunkCount(t *testing.T) {
	assert.Equal(t, 8, ChunkCount(8, 1))
	assert.Equal(t, 4, ChunkCount(8, 2))
	assert.Equal(t, 2, ChunkCount(8, 5))
	assert.Equal(t, 2, ChunkCount(1, 1))
	assert.Equal(t, 4, ChunkCount(4, 0))
}

func TestChunk(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e"}}, Chunk(ids, 2))
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}, Chunk(ids, 8))
	assert.Equal(t, [][]string{{"a", "b", "c", "d", "e"}}, Chunk(ids, 0))
	assert.Empty(t, Chunk(nil, 4))
}

func writeNupkg(t *testing.T, dir, id, ver string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	f, err := os.Create(filepath.Join(dir, id+"."+ver+".nupkg"))
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(id + ".nuspec")
	require.NoError(t, err)
	fmt.Fprintf(w, `<package><metadata><id>%s</id><version>%s</version></metadata></package>`, id, ver)
	require.NoError(t, zw.Close())
}

func testConfig() *models.Config {
	cfg := models.DefaultConfig()
	cfg.NoCache = true
	return cfg
}

func TestScanMergesFeeds(t *testing.T) {
	root := t.TempDir()
	feedA := filepath.Join(root, "a")
	feedB := filepath.Join(root, "b")
	disabled := filepath.Join(root, "disabled")
	writeNupkg(t, feedA, "pkgA", "1.0")
	writeNupkg(t, feedB, "pkgA", "2.0")
	writeNupkg(t, feedB, "pkgB", "1.0")
	writeNupkg(t, disabled, "pkgA", "9.0")

	feeds := []*models.Feed{
		{Name: "a", URL: feedA},
		{Name: "b", URL: feedB},
		{Name: "off", URL: disabled, Disabled: true},
	}
	local := []models.Package{
		{ID: "PkgA", Version: "0.5"},
		{ID: "pkgB", Version: "1.0"},
		{ID: "pkgC", Version: "3.0"},
	}

	result, err := New(testConfig(), feeds, nil).Scan(context.Background(), local)
	require.NoError(t, err)
	assert.Empty(t, result.Failures)

	require.Len(t, result.Records, 2)
	assert.Equal(t, models.OutdatedRecord{
		ID: "PkgA", LocalVersion: "0.5", RemoteVersion: "2.0", Outdated: true, ExistsOnRemote: true,
	}, result.Records[0])
	assert.Equal(t, "pkgC", result.Records[1].ID)
	assert.False(t, result.Records[1].ExistsOnRemote)

	assert.Equal(t, 1, result.Outdated())
	assert.Equal(t, 1, result.Warnings())
	assert.NoError(t, result.CommunicationError())
}

func TestScanUnknownPackageFailsBeforeNetwork(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Filter = "notinstalled"
	_, err := New(cfg, []*models.Feed{{Name: "remote", URL: server.URL}}, nil).
		Scan(context.Background(), []models.Package{{ID: "git", Version: "1.0"}})
	assert.ErrorIs(t, err, ErrPackageNotInstalled)
	assert.Zero(t, requests)
}

func TestScanRecordsFeedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestURITooLong)
	}))
	defer server.Close()

	good := filepath.Join(t.TempDir(), "good")
	writeNupkg(t, good, "git", "2.41.0")

	feeds := []*models.Feed{
		{Name: "broken", URL: server.URL + "/api/v2"},
		{Name: "good", URL: good},
	}
	cfg := testConfig()
	cfg.Filter = "git"

	result, err := New(cfg, feeds, nil).Scan(context.Background(), []models.Package{{ID: "git", Version: "2.40.0"}})
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "2.41.0", result.Records[0].RemoteVersion)

	require.NotEmpty(t, result.Failures)
	assert.Equal(t, "broken", result.Failures[0].Feed)
	assert.ErrorIs(t, result.CommunicationError(), clients.ErrCommunicationFailed)
}

func TestScanIgnorePinnedSkipsQuery(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "feed")
	writeNupkg(t, dir, "foo", "2.0")

	cfg := testConfig()
	cfg.IgnorePinned = true
	result, err := New(cfg, []*models.Feed{{Name: "f", URL: dir}}, nil).
		Scan(context.Background(), []models.Package{{ID: "foo", Version: "1.0", Pinned: true}})
	require.NoError(t, err)
	assert.Empty(t, result.Records)
}
