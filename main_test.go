package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tileServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var x, y int
		if _, err := fmt.Sscanf(r.URL.Path, "/%d/%d.png", &x, &y); err != nil || x != 0 || y != 0 {
			http.NotFound(w, r)
			return
		}
		img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		for py := 0; py < 4; py++ {
			for px := 0; px < 4; px++ {
				img.SetNRGBA(px, py, color.NRGBA{R: uint8(40 * px), G: uint8(40 * py), B: 200, A: 255})
			}
		}
		var buf bytes.Buffer
		_ = png.Encode(&buf, img)
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

const defaultTargets = `
[[targets]]
name = "plaza"
start = "0,0,0,0"
end = "0,0,3,3"

[[targets]]
name = "far"
start = "5,5,0,0"
end = "5,5,3,3"

[[targets]]
name = "off"
enabled = false
start = "0,0,0,0"
end = "0,0,1,1"
`

func writeTestConfig(t *testing.T, baseURL string) (string, string) {
	t.Helper()
	return writeConfigWithTargets(t, baseURL, defaultTargets)
}

func writeConfigWithTargets(t *testing.T, baseURL, targets string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	outputDir := filepath.Join(dir, "output")
	cfg := fmt.Sprintf(`
[paths]
output_dir = %q
log_dir = %q
history_db = %q

[tiles]
base_url = %q
tile_size = 4
workers = 2

[snapshots]
timezone = "Asia/Seoul"
colors = 16

[logging]
level = "error"
`, outputDir, filepath.Join(dir, "logs"), filepath.Join(dir, "history.db"), baseURL) + targets

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, outputDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand_PersistsThenSkips(t *testing.T) {
	srv := tileServer(t)
	cfgPath, outputDir := writeTestConfig(t, srv.URL)

	out, err := execute(t, "-c", cfgPath, "run", "plaza")
	require.NoError(t, err)
	assert.Contains(t, out, "plaza")
	assert.Contains(t, out, "persisted")

	assert.FileExists(t, filepath.Join(outputDir, "plaza", "plaza.gif"))

	out, err = execute(t, "-c", cfgPath, "run", "plaza")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")

	out, err = execute(t, "-c", cfgPath, "snapshots", "plaza")
	require.NoError(t, err)
	assert.Contains(t, out, ".png")

	out, err = execute(t, "-c", cfgPath, "history", "plaza")
	require.NoError(t, err)
	assert.Contains(t, out, "persisted")
	assert.Contains(t, out, "skipped")
}

func TestRunCommand_BatchReportsEveryTarget(t *testing.T) {
	srv := tileServer(t)
	cfgPath, _ := writeTestConfig(t, srv.URL)

	out, err := execute(t, "-c", cfgPath, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "plaza")
	assert.Contains(t, out, "far")
	assert.Contains(t, out, "disabled")
}

func TestRunCommand_FailedTargetDoesNotStopBatch(t *testing.T) {
	srv := tileServer(t)
	cfgPath, outputDir := writeConfigWithTargets(t, srv.URL, `
[[targets]]
name = "broken"
start = "garbage"
end = "0,0,3,3"
`+defaultTargets)

	out, err := execute(t, "-c", cfgPath, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "configuring")
	assert.Contains(t, out, "persisted")
	assert.FileExists(t, filepath.Join(outputDir, "plaza", "plaza.gif"))
	assert.NoDirExists(t, filepath.Join(outputDir, "broken"))

	out, err = execute(t, "-c", cfgPath, "run", "--fail-on-error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 4 target(s) failed")
	assert.Contains(t, out, "skipped")
}

func TestRunCommand_UnknownTarget(t *testing.T) {
	srv := tileServer(t)
	cfgPath, _ := writeTestConfig(t, srv.URL)

	_, err := execute(t, "-c", cfgPath, "run", "nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestRebuildCommand_NoSnapshots(t *testing.T) {
	srv := tileServer(t)
	cfgPath, _ := writeTestConfig(t, srv.URL)

	_, err := execute(t, "-c", cfgPath, "rebuild", "plaza")
	require.Error(t, err)
}

func TestSnapshotsCommand_UnknownTargetCreatesNothing(t *testing.T) {
	srv := tileServer(t)
	cfgPath, outputDir := writeTestConfig(t, srv.URL)

	_, err := execute(t, "-c", cfgPath, "snapshots", "plazza")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plazza")

	_, err = execute(t, "-c", cfgPath, "rebuild", "plazza")
	require.Error(t, err)

	assert.NoDirExists(t, filepath.Join(outputDir, "plazza"))
}

func TestTargetsCommand(t *testing.T) {
	srv := tileServer(t)
	cfgPath, _ := writeTestConfig(t, srv.URL)

	out, err := execute(t, "-c", cfgPath, "targets")
	require.NoError(t, err)
	assert.Contains(t, out, "plaza")
	assert.Contains(t, out, "1x1")
	assert.Contains(t, out, "4x4 px")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := execute(t, "config", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote sample configuration")
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", "--path", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "config", "init", "--path", path, "--overwrite")
	require.NoError(t, err)
}

func TestConfigValidate(t *testing.T) {
	srv := tileServer(t)
	cfgPath, _ := writeTestConfig(t, srv.URL)

	out, err := execute(t, "-c", cfgPath, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "3 configured, 2 enabled")
	assert.Contains(t, out, "Configuration valid")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, AppVersion)
}
