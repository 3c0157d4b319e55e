package host_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/luahost/domain/entities"
	lherrors "github.com/reglet-dev/luahost/domain/errors"
	"github.com/reglet-dev/luahost/host"
	"github.com/reglet-dev/luahost/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	lua "github.com/yuin/gopher-lua"
)

// LoaderIntegrationSuite tests the Loader together with Context.CompileManifest.
type LoaderIntegrationSuite struct {
	suite.Suite
	dir    string
	loader *host.Loader
	ctx    *host.Context
}

func (s *LoaderIntegrationSuite) SetupTest() {
	loader, err := host.NewLoader()
	s.Require().NoError(err)

	s.loader = loader
	s.dir = s.T().TempDir()
	s.ctx = host.NewContext()
}

func (s *LoaderIntegrationSuite) TearDownTest() {
	s.ctx.Close()
}

func (s *LoaderIntegrationSuite) TestValidManifest() {
	yaml := `
name: "reports"
version: "1.0.0"
globals:
  greeting: hello
scripts:
  - name: hello
    source: "return greeting"
  - name: report
    path: report.lua
`
	manifest, err := s.loader.LoadManifest([]byte(yaml), nil)
	s.Require().NoError(err)
	s.Equal("reports", manifest.Name)
	s.Equal([]string{"hello", "report"}, manifest.ScriptNames())
	s.Equal("report.lua", manifest.Scripts[1].Path)
}

func (s *LoaderIntegrationSuite) TestTemplatedManifest() {
	yaml := `
name: "{{ .config.name }}"
scripts:
  - name: region
    source: "return '{{ .config.region }}'"
`
	manifest, err := s.loader.LoadManifest([]byte(yaml), map[string]interface{}{
		"name":   "templated",
		"region": "eu-west-1",
	})
	s.Require().NoError(err)
	s.Equal("templated", manifest.Name)
	s.Equal("return 'eu-west-1'", manifest.Scripts[0].Source)
}

func (s *LoaderIntegrationSuite) TestMissingTemplateKey() {
	_, err := s.loader.LoadManifest([]byte(`name: "{{ .config.name }}"`), map[string]interface{}{})
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to render manifest")
}

func (s *LoaderIntegrationSuite) TestInvalidYAML() {
	yaml := `
name: "reports"
scripts:
  hello: "should be a list of entries"
`
	_, err := s.loader.LoadManifest([]byte(yaml), nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to parse manifest")
}

func (s *LoaderIntegrationSuite) TestInvalidManifest() {
	yaml := `
name: "reports"
scripts:
  - name: both
    source: "return 1"
    path: both.lua
`
	_, err := s.loader.LoadManifest([]byte(yaml), nil)

	var cerr *lherrors.ConfigError
	s.Require().ErrorAs(err, &cerr)
	s.Equal("scripts[0].source", cerr.Field)
	s.Contains(err.Error(), "mutually exclusive")
}

func (s *LoaderIntegrationSuite) TestCompileManifest() {
	testutil.WriteScript(s.T(), s.dir, "report.lua", "return 'report for ' .. greeting")
	testutil.WriteScript(s.T(), s.dir, "jobs/nightly.lua", "return 'nightly'")
	manifestPath := testutil.WriteScript(s.T(), s.dir, "luahost.yaml", `
name: reports
globals:
  greeting: hello
include:
  - "jobs/*.lua"
scripts:
  - name: hello
    source: "return greeting"
  - name: report
    path: report.lua
`)

	manifest, err := s.loader.LoadManifestFile(manifestPath, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.ctx.CompileManifest(manifest, s.dir))

	s.Equal([]string{"hello", "jobs/nightly", "report"}, s.ctx.Names())

	res, err := s.ctx.Call(context.Background(), "report")
	s.Require().NoError(err)
	s.Equal([]lua.LValue{lua.LString("report for hello")}, res)

	res, err = s.ctx.Call(context.Background(), "jobs/nightly")
	s.Require().NoError(err)
	s.Equal([]lua.LValue{lua.LString("nightly")}, res)
}

func (s *LoaderIntegrationSuite) TestCompileManifestForce() {
	s.Require().NoError(s.ctx.CompileString("hello", "return 'old'", false))

	manifest := &entities.Manifest{
		Name: "m",
		Scripts: []entities.ScriptEntry{
			{Name: "hello", Source: "return 'new'", Force: true},
		},
	}
	s.Require().NoError(s.ctx.CompileManifest(manifest, s.dir))

	res, err := s.ctx.Call(context.Background(), "hello")
	s.Require().NoError(err)
	s.Equal([]lua.LValue{lua.LString("new")}, res)
}

func (s *LoaderIntegrationSuite) TestCompileManifestMissingFile() {
	manifest := &entities.Manifest{
		Name:    "m",
		Scripts: []entities.ScriptEntry{{Name: "gone", Path: "gone.lua"}},
	}
	err := s.ctx.CompileManifest(manifest, s.dir)

	var ioErr *lherrors.IOError
	s.Require().ErrorAs(err, &ioErr)
	s.Equal(filepath.Join(s.dir, "gone.lua"), ioErr.Path)
}

func TestLoaderIntegrationSuite(t *testing.T) {
	suite.Run(t, new(LoaderIntegrationSuite))
}

func TestLoader_WithoutValidation(t *testing.T) {
	loader, err := host.NewLoader(host.WithoutValidation())
	require.NoError(t, err)

	manifest, err := loader.LoadManifest([]byte("scripts:\n  - name: x\n"), nil)
	require.NoError(t, err)
	assert.Empty(t, manifest.Name)
}

func TestLoader_MissingFile(t *testing.T) {
	loader, err := host.NewLoader()
	require.NoError(t, err)

	_, err = loader.LoadManifestFile(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	testutil.AssertErrorType(t, "io", err)
}
