package parsers

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
)

// ChocolateySource is one <source> element of chocolatey.config
type ChocolateySource struct {
	ID          string
	URL         string
	Disabled    bool
	User        string
	Password    string // encrypted as stored by choco
	Certificate string
	Priority    int
	BypassProxy bool
	SelfService bool
	AdminOnly   bool
}

// ChocolateyConfig is the subset of chocolatey.config rocolatey reads
type ChocolateyConfig struct {
	Sources  []ChocolateySource
	Settings map[string]string // <config><add key value/>
}

type chocoSourceElement struct {
	ID             string `xml:"id,attr"`
	Value          string `xml:"value,attr"`
	Disabled       string `xml:"disabled,attr"`
	User           string `xml:"user,attr"`
	Password       string `xml:"password,attr"`
	Certificate    string `xml:"certificate,attr"`
	Priority       string `xml:"priority,attr"`
	BypassProxy    string `xml:"bypassProxy,attr"`
	BypassProxyAlt string `xml:"bypass_proxy,attr"`
	SelfService    string `xml:"selfService,attr"`
	SelfServiceAlt string `xml:"self_service,attr"`
	AdminOnly      string `xml:"adminOnly,attr"`
	AdminOnlyAlt   string `xml:"admin_only,attr"`
}

type chocoConfigDocument struct {
	Sources  []chocoSourceElement `xml:"sources>source"`
	Settings []struct {
		Key   string `xml:"key,attr"`
		Value string `xml:"value,attr"`
	} `xml:"config>add"`
}

// ParseChocolateyConfig parses the content of chocolatey.config
func ParseChocolateyConfig(content []byte) (*ChocolateyConfig, error) {
	var doc chocoConfigDocument
	if err := xml.Unmarshal(bytes.TrimPrefix(content, utf8BOM), &doc); err != nil {
		return nil, err
	}

	cfg := &ChocolateyConfig{Settings: make(map[string]string)}
	for _, s := range doc.Settings {
		if s.Key != "" {
			cfg.Settings[s.Key] = s.Value
		}
	}

	for _, s := range doc.Sources {
		priority, _ := strconv.Atoi(strings.TrimSpace(s.Priority))
		cfg.Sources = append(cfg.Sources, ChocolateySource{
			ID:          s.ID,
			URL:         s.Value,
			Disabled:    parseBool(s.Disabled),
			User:        s.User,
			Password:    s.Password,
			Certificate: s.Certificate,
			Priority:    priority,
			BypassProxy: parseBool(s.BypassProxy) || parseBool(s.BypassProxyAlt),
			SelfService: parseBool(s.SelfService) || parseBool(s.SelfServiceAlt),
			AdminOnly:   parseBool(s.AdminOnly) || parseBool(s.AdminOnlyAlt),
		})
	}

	return cfg, nil
}

func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}
