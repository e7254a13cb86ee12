package reporter

import (
	"fmt"
	"strings"

	"github.com/rocolatey/rocolatey/internal/models"
)

// lineBreak separates lines in inventory output, matching choco
const lineBreak = "\r\n"

// PackageList renders installed packages as "id version" lines ("id|version"
// with limit) followed by the installed count. The filter is a
// case-insensitive substring of the id; "all" keeps everything.
func PackageList(pkgs []models.Package, filter string, limit bool) string {
	var sb strings.Builder
	sb.WriteString(packageLines(pkgs, filter, limit))
	if !limit {
		fmt.Fprintf(&sb, "%s%d packages installed.", lineBreak, len(pkgs))
	}
	return sb.String()
}

// BadList renders the packages found in lib-bad
func BadList(pkgs []models.Package, limit bool) string {
	var sb strings.Builder
	sb.WriteString(packageLines(pkgs, models.FilterAll, limit))
	if !limit {
		fmt.Fprintf(&sb, "%s%d packages in lib-bad.", lineBreak, len(pkgs))
	}
	return sb.String()
}

func packageLines(pkgs []models.Package, filter string, limit bool) string {
	sep := " "
	if limit {
		sep = "|"
	}

	lines := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		if !matchesFilter(p, filter) {
			continue
		}
		lines = append(lines, p.ID+sep+p.Version)
	}
	return strings.Join(lines, lineBreak)
}

func matchesFilter(p models.Package, filter string) bool {
	filter = strings.ToLower(filter)
	if filter == "" || filter == models.FilterAll {
		return true
	}
	return strings.Contains(p.Key(), filter)
}

// DependencyTree renders the dependencies of each matching package,
// descending into dependencies that are installed locally
func DependencyTree(pkgs []models.Package, filter string) string {
	lookup := make(map[string]models.Package, len(pkgs))
	for _, p := range pkgs {
		lookup[p.Key()] = p
	}

	var sb strings.Builder
	for _, p := range pkgs {
		if !matchesFilter(p, filter) {
			continue
		}
		fmt.Fprintf(&sb, "%s (%s)%s", p.ID, p.Version, lineBreak)
		writeDependencies(&sb, p, 1, lookup, map[string]bool{p.Key(): true})
	}
	return sb.String()
}

// writeDependencies prints one level of the tree. seen holds the ids on the
// current path so dependency cycles terminate.
func writeDependencies(sb *strings.Builder, pkg models.Package, level int, lookup map[string]models.Package, seen map[string]bool) {
	for _, dep := range pkg.Dependencies {
		version := ""
		if dep.Version != "" {
			version = "(" + dep.Version + ")"
		}
		fmt.Fprintf(sb, "%s-%s %s%s", strings.Repeat(" |", level), dep.ID, version, lineBreak)

		local, ok := lookup[dep.Key()]
		if !ok {
			fmt.Fprintf(sb, "ERROR: failed to locate %s among local packages%s", dep.ID, lineBreak)
			continue
		}
		if seen[local.Key()] {
			continue
		}
		seen[local.Key()] = true
		writeDependencies(sb, local, level+1, lookup, seen)
		delete(seen, local.Key())
	}
}

// Sources renders the configured feeds the way "choco source list" does
func Sources(feeds []*models.Feed, limit bool) string {
	lines := make([]string, 0, len(feeds))
	for _, f := range feeds {
		if limit {
			user := ""
			if f.Credential != nil {
				user = f.Credential.User
			}
			lines = append(lines, fmt.Sprintf("%s|%s|%s|%s|%s|%d|%s|%s|%s",
				f.Name, f.URL, chocoBool(f.Disabled), user, f.Certificate, f.Priority,
				chocoBool(f.BypassProxy), chocoBool(f.SelfService), chocoBool(f.AdminOnly)))
			continue
		}

		name := f.Name
		if f.Disabled {
			name += " [Disabled]"
		}
		url := f.URL + " "
		if f.Authenticated() {
			url = f.URL + " (Authenticated)"
		}
		lines = append(lines, fmt.Sprintf("%s - %s| Priority %d|Bypass Proxy - %s|Self-Service - %s|Admin Only - %s.",
			name, url, f.Priority, chocoBool(f.BypassProxy), chocoBool(f.SelfService), chocoBool(f.AdminOnly)))
	}
	return strings.Join(lines, lineBreak)
}

func chocoBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
