package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the search path away from any real settings file.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("host", DefaultHost, "")
	fs.IntP("port", "p", DefaultPort, "")
	fs.Duration("response-time", DefaultServerResponseTime, "")
	fs.String("eol", DefaultEOL, "")
	fs.Bool("color", true, "")
	fs.CountP("verbose", "v", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(Options{Mode: ModeClient})
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Host, cfg.Host)
	assert.Equal(t, want.Port, cfg.Port)
	assert.Equal(t, want.ServerResponseTime, cfg.ServerResponseTime)
	assert.Equal(t, want.PollInterval, cfg.PollInterval)
	assert.Equal(t, want.Markers, cfg.Markers)
	assert.Equal(t, want.Colors, cfg.Colors)
	assert.Equal(t, "\r\n", cfg.Delimiter())
	assert.True(t, cfg.UseColor)
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("PDBBRIDGE_PORT", "6000")
	t.Setenv("PDBBRIDGE_EOL", "LF")
	t.Setenv("PDBBRIDGE_SERVER_RESPONSE_TIME", "2s")
	t.Setenv("PDBBRIDGE_COLORS_PROMPT", "35")

	cfg, err := Load(Options{Mode: ModeClient})
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "lf", cfg.EOL)
	assert.Equal(t, "\n", cfg.Delimiter())
	assert.Equal(t, 2*time.Second, cfg.ServerResponseTime)
	assert.Equal(t, "35", cfg.Colors.Prompt)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeFile(t, "bridge.yaml", `
port: 7000
use_color: false
prompt_marker: "(dbg)"
markers:
  errors: ["!!"]
debugger: ["python3", "-m", "pdb", "app.py"]
`)
	cfg, err := Load(Options{Mode: ModeServe, File: path})
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.False(t, cfg.UseColor)
	assert.Equal(t, "(dbg)", cfg.PromptMarker)
	assert.Equal(t, []string{"!!"}, cfg.Markers.Errors)
	assert.Equal(t, []string{"python3", "-m", "pdb", "app.py"}, cfg.Debugger)
	assert.Equal(t, DefaultMarkerCurrentLine, cfg.Markers.CurrentLine, "unset nested keys keep defaults")
}

func TestLoad_SearchesWorkingDir(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("pdbbridge.yaml", []byte("port: 7100\n"), 0o600))

	cfg, err := Load(Options{Mode: ModeClient})
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(Options{Mode: ModeClient, File: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: config=")
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)
	path := writeFile(t, "bridge.toml", "port = 7000\nhost = \"10.0.0.1\"\neol = \"lf\"\n")
	t.Setenv("PDBBRIDGE_PORT", "7001")
	t.Setenv("PDBBRIDGE_HOST", "10.0.0.2")

	fs := newFlags(t, "--port", "7002")
	cfg, err := Load(Options{Mode: ModeClient, File: path, Flags: fs})
	require.NoError(t, err)

	assert.Equal(t, 7002, cfg.Port, "flag beats env")
	assert.Equal(t, "10.0.0.2", cfg.Host, "env beats file")
	assert.Equal(t, "lf", cfg.EOL, "file beats default")
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	isolate(t)
	t.Setenv("PDBBRIDGE_PORT", "7001")

	cfg, err := Load(Options{Mode: ModeClient, Flags: newFlags(t)})
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Port)
}

func TestLoad_DebuggerArgvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, "bridge.yaml", "debugger: [\"pdb\", \"a.py\"]\n")
	cfg, err := Load(Options{Mode: ModeServe, File: path, Debugger: []string{"python3", "-m", "pdb", "b.py"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"python3", "-m", "pdb", "b.py"}, cfg.Debugger)
}

func TestLoad_InvalidValue(t *testing.T) {
	isolate(t)
	fs := newFlags(t, "--eol", "cr")
	_, err := Load(Options{Mode: ModeClient, Flags: fs})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eol=cr")
	assert.Contains(t, err.Error(), "hint:")
}
