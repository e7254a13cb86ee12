package parsers

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocolatey/rocolatey/internal/models"
)

const chromeNuspec = `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://schemas.microsoft.com/packaging/2015/06/nuspec.xsd">
  <metadata>
    <id>GoogleChrome</id>
    <version>80.0.3987.149</version>
    <title>Google Chrome</title>
    <dependencies>
      <dependency id="chocolatey-core.extension" version="1.3.3" />
      <dependency id="vcredist140" />
    </dependencies>
  </metadata>
</package>`

func TestParseNuspec(t *testing.T) {
	pkg, err := ParseNuspec([]byte(chromeNuspec))
	require.NoError(t, err)

	assert.Equal(t, "GoogleChrome", pkg.ID)
	assert.Equal(t, "80.0.3987.149", pkg.Version)
	require.Len(t, pkg.Dependencies, 2)
	assert.Equal(t, "chocolatey-core.extension", pkg.Dependencies[0].ID)
	assert.Equal(t, "1.3.3", pkg.Dependencies[0].Version)
	assert.Equal(t, "vcredist140", pkg.Dependencies[1].ID)
	assert.Empty(t, pkg.Dependencies[1].Version)
}

func TestParseNuspecGroupedDependenciesAndBOM(t *testing.T) {
	content := append([]byte{0xef, 0xbb, 0xbf}, []byte(`<?xml version="1.0"?>
<package>
  <metadata>
    <id>git</id>
    <version>2.40.0</version>
    <dependencies>
      <group targetFramework="net45">
        <dependency id="git.install" version="[2.40.0]" />
      </group>
    </dependencies>
  </metadata>
</package>`)...)

	pkg, err := ParseNuspec(content)
	require.NoError(t, err)
	assert.Equal(t, "git", pkg.ID)
	require.Len(t, pkg.Dependencies, 1)
	assert.Equal(t, "git.install", pkg.Dependencies[0].ID)
	assert.Equal(t, "[2.40.0]", pkg.Dependencies[0].Version)
}

func TestParseNuspecErrors(t *testing.T) {
	_, err := ParseNuspec([]byte("<package><metadata>"))
	assert.Error(t, err)

	_, err = ParseNuspec([]byte("<package><metadata><version>1.0</version></metadata></package>"))
	assert.Error(t, err)
}

func TestParseNupkgFilename(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		version string
		ok      bool
	}{
		{"googlechrome.80.0.3987.149.nupkg", "googlechrome", "80.0.3987.149", true},
		{"Chocolatey.0.10.15-beta.nupkg", "Chocolatey", "0.10.15-beta", true},
		{"dotnet.4.7.nupkg", "dotnet", "4.7", true},
		{"notes.txt", "", "", false},
		{"noversion.nupkg", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, ok := ParseNupkgFilename(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, pkg.ID)
			assert.Equal(t, tt.version, pkg.Version)
		})
	}
}

func buildNupkg(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestNupkgParser(t *testing.T) {
	p := &NupkgParser{}
	assert.True(t, p.CanParse("GoogleChrome.80.0.3987.149.NUPKG"))
	assert.False(t, p.CanParse("GoogleChrome.nuspec"))

	content := buildNupkg(t, map[string]string{
		"GoogleChrome.nuspec":         chromeNuspec,
		"tools/chocolateyinstall.ps1": "Install-ChocolateyPackage",
		"[Content_Types].xml":         "<Types/>",
	})
	pkg, err := p.Parse("/feed/googlechrome.80.0.3987.149.nupkg", content)
	require.NoError(t, err)
	assert.Equal(t, "GoogleChrome", pkg.ID)
	assert.Equal(t, "80.0.3987.149", pkg.Version)
}

func TestNupkgParserFallsBackToFilename(t *testing.T) {
	p := &NupkgParser{}

	pkg, err := p.Parse("/feed/7zip.19.0.nupkg", []byte("not a zip"))
	require.NoError(t, err)
	assert.Equal(t, "7zip", pkg.ID)
	assert.Equal(t, "19.0", pkg.Version)

	_, err = p.Parse("/feed/broken.nupkg", []byte("not a zip"))
	assert.Error(t, err)
}

func TestNupkgParserParseFile(t *testing.T) {
	dir := t.TempDir()
	p := &NupkgParser{}

	path := filepath.Join(dir, "googlechrome.80.0.3987.149.nupkg")
	require.NoError(t, os.WriteFile(path, buildNupkg(t, map[string]string{
		"tools/chocolateyinstall.ps1": "Install-ChocolateyPackage",
		"GoogleChrome.nuspec":         chromeNuspec,
	}), 0644))
	pkg, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "GoogleChrome", pkg.ID)
	assert.Equal(t, "80.0.3987.149", pkg.Version)

	path = filepath.Join(dir, "7zip.19.0.nupkg")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))
	pkg, err = p.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, models.Package{ID: "7zip", Version: "19.0"}, pkg)

	_, err = p.ParseFile(filepath.Join(dir, "missing.nupkg"))
	assert.Error(t, err)
}

func TestForFile(t *testing.T) {
	all := []Parser{&NuspecParser{}, &NupkgParser{}}
	assert.IsType(t, &NuspecParser{}, ForFile(all, "git.nuspec"))
	assert.IsType(t, &NupkgParser{}, ForFile(all, "git.2.40.0.nupkg"))
	assert.Nil(t, ForFile(all, "git.ps1"))
}

func TestParseChocolateyConfig(t *testing.T) {
	content := []byte(`<?xml version="1.0" encoding="utf-8"?>
<chocolatey xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <config>
    <add key="cacheLocation" value="" description="Cache location" />
    <add key="proxy" value="proxy.corp.local:8080" description="Proxy" />
    <add key="proxyUser" value="jdoe" description="Proxy user" />
    <add key="proxyPassword" value="c2VjcmV0" description="Proxy password" />
  </config>
  <sources>
    <source id="chocolatey" value="https://community.chocolatey.org/api/v2/" disabled="false" bypassProxy="false" selfService="false" adminOnly="false" priority="0" />
    <source id="internal" value="https://nexus.corp.local/repository/choco/index.json" disabled="True" user="build" password="ZW5jcnlwdGVk" certificate="" bypassProxy="true" selfService="true" adminOnly="true" priority="2" />
    <source id="share" value="\\fileserver\packages" disabled="false" bypass_proxy="true" priority="x" />
  </sources>
</chocolatey>`)

	cfg, err := ParseChocolateyConfig(content)
	require.NoError(t, err)

	assert.Equal(t, "proxy.corp.local:8080", cfg.Settings["proxy"])
	assert.Equal(t, "jdoe", cfg.Settings["proxyUser"])
	assert.Equal(t, "c2VjcmV0", cfg.Settings["proxyPassword"])
	assert.Equal(t, "", cfg.Settings["cacheLocation"])

	require.Len(t, cfg.Sources, 3)

	community := cfg.Sources[0]
	assert.Equal(t, "chocolatey", community.ID)
	assert.Equal(t, "https://community.chocolatey.org/api/v2/", community.URL)
	assert.False(t, community.Disabled)
	assert.Equal(t, 0, community.Priority)

	internal := cfg.Sources[1]
	assert.True(t, internal.Disabled)
	assert.Equal(t, "build", internal.User)
	assert.Equal(t, "ZW5jcnlwdGVk", internal.Password)
	assert.Equal(t, 2, internal.Priority)
	assert.True(t, internal.BypassProxy)
	assert.True(t, internal.SelfService)
	assert.True(t, internal.AdminOnly)

	share := cfg.Sources[2]
	assert.Equal(t, `\\fileserver\packages`, share.URL)
	assert.True(t, share.BypassProxy)
	assert.Equal(t, 0, share.Priority)
}

func TestParseChocolateyConfigInvalid(t *testing.T) {
	_, err := ParseChocolateyConfig([]byte("<chocolatey><sources>"))
	assert.Error(t, err)
}
