package scanner

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rocolatey/rocolatey/internal/models"
	"github.com/rocolatey/rocolatey/internal/version"
)

// ErrPackageNotInstalled means the requested package id matches no local package
var ErrPackageNotInstalled = errors.New("package is not installed")

// SelectPackages returns all local packages, or the one whose id equals
// filter (case-insensitive)
func SelectPackages(local []models.Package, filter string) ([]models.Package, error) {
	if filter == "" || strings.EqualFold(filter, models.FilterAll) {
		return local, nil
	}

	var selected []models.Package
	for _, p := range local {
		if strings.EqualFold(p.ID, filter) {
			selected = append(selected, p)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotInstalled, filter)
	}
	return selected, nil
}

// Resolve compares local packages with the newest remote versions (keyed by
// lowercase id) and returns the report records sorted by id
func Resolve(local []models.Package, remote map[string]models.Package, ignorePinned, ignoreUnfound bool) []models.OutdatedRecord {
	var records []models.OutdatedRecord

	for _, p := range local {
		if ignorePinned && p.Pinned {
			continue
		}

		r, found := remote[p.Key()]
		switch {
		case found && version.IsNewer(r.Version, p.Version):
			records = append(records, models.OutdatedRecord{
				ID:             p.ID,
				LocalVersion:   p.Version,
				RemoteVersion:  r.Version,
				Pinned:         p.Pinned,
				Outdated:       true,
				ExistsOnRemote: true,
			})
		case !found && !ignoreUnfound:
			records = append(records, models.OutdatedRecord{
				ID:             p.ID,
				LocalVersion:   p.Version,
				RemoteVersion:  p.Version,
				Pinned:         p.Pinned,
				ExistsOnRemote: false,
			})
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return strings.ToLower(records[i].ID) < strings.ToLower(records[j].ID)
	})
	return records
}
