package models

import "sync"

// FeedType classifies how a feed is queried
type FeedType int

const (
	FeedTypeUnknown FeedType = iota
	FeedTypeLocalFileSystem
	FeedTypeNuGetV2
	FeedTypeNuGetV3
)

// String returns a human-readable representation
func (t FeedType) String() string {
	switch t {
	case FeedTypeLocalFileSystem:
		return "local"
	case FeedTypeNuGetV2:
		return "nuget-v2"
	case FeedTypeNuGetV3:
		return "nuget-v3"
	default:
		return "unknown"
	}
}

// Credential holds basic auth settings
type Credential struct {
	User string
	Pass string
}

// ProxySettings describes the HTTP proxy used to reach a feed
type ProxySettings struct {
	URL        string
	Credential *Credential
}

// Resource is a single entry of a NuGet V3 service index
type Resource struct {
	ID      string `json:"@id"`
	Type    string `json:"@type"`
	Comment string `json:"comment,omitempty"`
}

// ServiceIndex represents a NuGet V3 service index document
type ServiceIndex struct {
	Version   string     `json:"version"`
	Resources []Resource `json:"resources"`
}

// Feed is a configured package source
type Feed struct {
	Name        string
	URL         string
	Credential  *Credential
	Proxy       *ProxySettings
	Disabled    bool
	Certificate string
	BypassProxy bool
	SelfService bool
	AdminOnly   bool
	Priority    int

	// Type is resolved lazily, at most once per run
	Type         FeedType
	ServiceIndex *ServiceIndex

	resolveMu sync.Mutex
}

// ResolveType runs resolve unless the type is already known and stores its
// result. Concurrent callers wait for the running resolution, so a feed
// shared between scans is probed once. A failed resolution leaves the type
// unknown.
func (f *Feed) ResolveType(resolve func() (FeedType, *ServiceIndex, error)) (FeedType, error) {
	f.resolveMu.Lock()
	defer f.resolveMu.Unlock()

	if f.Type != FeedTypeUnknown {
		return f.Type, nil
	}
	typ, index, err := resolve()
	if err != nil {
		return FeedTypeUnknown, err
	}
	f.Type = typ
	f.ServiceIndex = index
	return typ, nil
}

// Authenticated reports whether the feed carries credentials
func (f *Feed) Authenticated() bool {
	return f.Credential != nil
}

// Enabled returns the feeds that are not disabled
func Enabled(feeds []*Feed) []*Feed {
	var enabled []*Feed
	for _, f := range feeds {
		if !f.Disabled {
			enabled = append(enabled, f)
		}
	}
	return enabled
}
