package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/transitmap/pkg/cache"
	"github.com/matzehuels/transitmap/pkg/errors"
	"github.com/matzehuels/transitmap/pkg/graph"
)

const network = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [9.993, 53.552]},
		 "properties": {"station_id": "jfs", "station_label": "Jungfernstieg"}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [10.006, 53.552]},
		 "properties": {"station_id": "hbf", "station_label": "Hauptbahnhof"}},
		{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[9.993, 53.552], [10.006, 53.552]]},
		 "properties": {"line": "U1", "time": 60}}
	]
}`

// isolate points the solution cache at a fresh directory for the test.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	t.Setenv(cacheURLEnv, "")
	return xdg
}

// execute runs the CLI with args and returns what the command wrote to its
// output stream.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// extracted writes the test network, extracts it and returns the graph path.
func extracted(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "net.geojson")
	if err := os.WriteFile(in, []byte(network), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "extract", in, "--silent"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	return filepath.Join(dir, "net.graph.json")
}

func TestExtractCommand(t *testing.T) {
	isolate(t)
	path := extracted(t)

	g, err := graph.ReadGraphFile(path)
	if err != nil {
		t.Fatalf("read extracted graph: %v", err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 || len(g.Lines) != 1 {
		t.Errorf("graph = %s", g)
	}
	if n, _ := g.Node("jfs"); n.Label != "Jungfernstieg" {
		t.Errorf("jfs label = %q", n.Label)
	}
}

func TestExtractPalette(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "net.geojson")
	palette := filepath.Join(dir, "palette.toml")
	out := filepath.Join(dir, "out.json")
	os.WriteFile(in, []byte(network), 0o644)
	os.WriteFile(palette, []byte(`U1 = "#000000"`), 0o644)

	if _, err := execute(t, "extract", in, "-o", out, "--palette", palette, "--silent"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	g, err := graph.ReadGraphFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if l, _ := g.Line("U1"); l.Color != "#000000" {
		t.Errorf("U1 color = %q, want #000000", l.Color)
	}
}

func TestExtractErrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.geojson")
	os.WriteFile(bad, []byte("not json"), 0o644)
	badPalette := filepath.Join(dir, "palette.toml")
	os.WriteFile(badPalette, []byte("U1 = "), 0o644)
	good := filepath.Join(dir, "net.geojson")
	os.WriteFile(good, []byte(network), 0o644)

	tests := []struct {
		name string
		args []string
		want errors.Code
	}{
		{"missing file", []string{"extract", filepath.Join(dir, "missing.geojson")}, errors.ErrCodeIO},
		{"not json", []string{"extract", bad}, errors.ErrCodeInvalidInput},
		{"bad palette", []string{"extract", good, "--palette", badPalette}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append(tt.args, "--silent")...)
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("code = %s (%v), want %s", got, err, tt.want)
			}
		})
	}
}

func TestModelCommand(t *testing.T) {
	isolate(t)
	path := extracted(t)

	out, err := execute(t, "model", path)
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	for _, want := range []string{"Minimize", "Subject To", "End"} {
		if !strings.Contains(out, want) {
			t.Errorf("model output lacks %q", want)
		}
	}

	file := filepath.Join(t.TempDir(), "problem.lp")
	if _, err := execute(t, "model", path, "-o", file); err != nil {
		t.Fatalf("model -o: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != out {
		t.Error("model file differs from stdout output")
	}
}

func TestModelSettings(t *testing.T) {
	isolate(t)
	path := extracted(t)
	settings := filepath.Join(t.TempDir(), "settings.toml")
	os.WriteFile(settings, []byte("max_width = 42\n"), 0o644)

	out, err := execute(t, "model", path, "--settings", settings)
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	if !strings.Contains(out, "<= 10021") {
		t.Errorf("model does not use max_width 42:\n%s", out)
	}

	os.WriteFile(settings, []byte("max_widht = 42\n"), 0o644)
	if _, err := execute(t, "model", path, "--settings", settings); !errors.Is(err, errors.ErrCodeInvalidSettings) {
		t.Errorf("unknown key: error = %v, want %s", err, errors.ErrCodeInvalidSettings)
	}
}

func TestLayoutSolverNotFound(t *testing.T) {
	isolate(t)
	path := extracted(t)

	_, err := execute(t, "layout", path, "--solver", "transitmap-no-such-solver", "--no-cache", "--silent")
	if !errors.Is(err, errors.ErrCodeSolverNotFound) {
		t.Fatalf("error = %v, want %s", err, errors.ErrCodeSolverNotFound)
	}
	if !strings.Contains(errors.UserMessage(err), "$PATH") {
		t.Errorf("message %q does not point at $PATH", errors.UserMessage(err))
	}
}

// fakeSCIP writes a shell script that answers any model with a fixed solution.
func fakeSCIP(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake solver is a shell script")
	}
	path := filepath.Join(t.TempDir(), "scip")
	script := `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    "write solution "*) out="${arg#write solution }" ;;
  esac
done
echo "SCIP version fake"
printf 'objective value: 3\nvx0 10000\nvy0 10000\nvx1 10002\nvy1 10000\n' > "$out"
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLayoutCommand(t *testing.T) {
	isolate(t)
	path := extracted(t)
	scip := fakeSCIP(t)
	work := filepath.Join(t.TempDir(), "work")
	out := filepath.Join(t.TempDir(), "layout.json")

	if _, err := execute(t, "layout", path, "-o", out, "--solver", scip, "--work-dir", work, "--timeout", "1m", "--silent"); err != nil {
		t.Fatalf("layout: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := l.Position("hbf"); p != (graph.Position{X: 2, Y: 0}) {
		t.Errorf("hbf = %+v, want {2 0}", p)
	}
	if l.Objective == nil || *l.Objective != 3 {
		t.Errorf("objective = %v, want 3", l.Objective)
	}
	for _, name := range []string{"problem.lp", "solution.sol"} {
		if _, err := os.Stat(filepath.Join(work, name)); err != nil {
			t.Errorf("work dir lacks %s: %v", name, err)
		}
	}
}

func TestLayoutRelaysSolverOutput(t *testing.T) {
	isolate(t)
	path := extracted(t)
	scip := fakeSCIP(t)
	out := filepath.Join(t.TempDir(), "layout.json")

	tests := []struct {
		name  string
		flags []string
		want  bool
	}{
		{"default", nil, true},
		{"silent", []string{"--silent"}, false},
		{"no solver output", []string{"--no-solver-output"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			c := New(&stderr, LogInfo)
			root := c.RootCommand()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(append([]string{"layout", path, "-o", out, "--solver", scip, "--no-cache"}, tt.flags...))
			if err := root.ExecuteContext(context.Background()); err != nil {
				t.Fatalf("layout: %v", err)
			}
			if got := strings.Contains(stderr.String(), "SCIP version fake"); got != tt.want {
				t.Errorf("solver output relayed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLayoutUsesCache(t *testing.T) {
	isolate(t)
	path := extracted(t)
	scip := fakeSCIP(t)
	out := filepath.Join(t.TempDir(), "layout.json")

	if _, err := execute(t, "layout", path, "-o", out, "--solver", scip, "--silent"); err != nil {
		t.Fatalf("first layout: %v", err)
	}
	// A solver that fails proves the second run never starts it.
	os.WriteFile(scip, []byte("#!/bin/sh\nexit 1\n"), 0o755)
	if _, err := execute(t, "layout", path, "-o", out, "--solver", scip, "--silent"); err != nil {
		t.Fatalf("cached layout: %v", err)
	}
	if _, err := execute(t, "layout", path, "-o", out, "--solver", scip, "--refresh", "--silent"); !errors.Is(err, errors.ErrCodeSolverFailed) {
		t.Errorf("refresh: error = %v, want %s", err, errors.ErrCodeSolverFailed)
	}
}

func TestLayoutBadCacheURL(t *testing.T) {
	isolate(t)
	path := extracted(t)
	t.Setenv(cacheURLEnv, "ftp://cache.example")

	_, err := execute(t, "layout", path, "--silent")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestCacheCommands(t *testing.T) {
	xdg := isolate(t)

	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	dir := filepath.Join(xdg, appName)
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", out, dir)
	}

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	fc.Set(ctx, "solution:abc", []byte("vx0 10000\n"), time.Hour)

	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, hit, _ := fc.Get(ctx, "solution:abc"); hit {
		t.Error("entry survived cache clear")
	}
}

func TestVersionFlag(t *testing.T) {
	isolate(t)
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, appName+" version") {
		t.Errorf("version output = %q", out)
	}
}
