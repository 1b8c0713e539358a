package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
)

func TestParseSourceArg(t *testing.T) {
	tests := []struct {
		arg  string
		want manifestSource
		ok   bool
	}{
		{"With BP=trace_bp_on.out", manifestSource{"With BP", "trace_bp_on.out"}, true},
		{"a=b=c.out", manifestSource{"a", "b=c.out"}, true},
		{"traces/bp_off.out.zst", manifestSource{"bp_off", "traces/bp_off.out.zst"}, true},
		{"-", manifestSource{"stdin", "-"}, true},
		{"label=", manifestSource{}, false},
		{"=path.out", manifestSource{}, false},
	}
	for _, tt := range tests {
		got, err := parseSourceArg(tt.arg)
		if (err == nil) != tt.ok || got != tt.want {
			t.Fatalf("parseSourceArg(%q) = %+v, %v", tt.arg, got, err)
		}
	}
}

func TestCheckStdin(t *testing.T) {
	ok := []manifestSource{{"a", "a.out"}, {"stdin", "-"}, {"b", "b.out"}}
	if err := checkStdin(ok); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	twice := []manifestSource{{"x", "-"}, {"b", "b.out"}, {"y", "-"}}
	if err := checkStdin(twice); err == nil {
		t.Fatal("two standard input sources accepted")
	}
}

func TestCompareCommandStdinTwice(t *testing.T) {
	_, err := execute(t, "compare", "x=-", "y=-")
	if err == nil || !strings.Contains(err.Error(), "standard input") {
		t.Fatalf("got error %v, want a duplicate standard input error", err)
	}
}

func TestParseManifest(t *testing.T) {
	m, err := parseManifest([]byte(`
max-rows: 50
ticks-per-cycle: 500
sources:
  - label: With BP
    path: bp_on.out
  - path: bp_off.out.gz
`))
	if err != nil {
		t.Fatal(err)
	}
	if *m.MaxRows != 50 || *m.TicksPerCycle != 500 || m.Jobs != nil {
		t.Fatalf("unexpected settings %+v", m)
	}
	if len(m.Sources) != 2 || m.Sources[1].Label != "bp_off" {
		t.Fatalf("unexpected sources %+v", m.Sources)
	}

	if _, err := parseManifest([]byte("sources:\n  - label: x\n")); err == nil {
		t.Fatal("source without path accepted")
	}
	if _, err := parseManifest([]byte("max_rows: 5\n")); err == nil {
		t.Fatal("unknown field accepted")
	}
	if m, err := parseManifest(nil); err != nil || len(m.Sources) != 0 {
		t.Fatalf("empty manifest: %+v, %v", m, err)
	}
}

func TestLoadManifestRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "configs.yaml")
	data := "output: out.json\nsources:\n  - path: a.out\n  - path: /abs/b.out\n  - path: \"-\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := loadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.out"), "/abs/b.out", "-"}
	for i, src := range m.Sources {
		if src.Path != want[i] {
			t.Fatalf("source %d: got path %q, want %q", i, src.Path, want[i])
		}
	}
	if m.Output != filepath.Join(dir, "out.json") {
		t.Fatalf("got output %q", m.Output)
	}
}

func TestApplyManifest(t *testing.T) {
	root := newRootCmd()
	cmd, _, err := root.Find([]string{"compare"})
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Parse([]string{"--max-rows", "5"}); err != nil {
		t.Fatal(err)
	}
	opts := &compareOptions{maxRows: 5, ticksPerCycle: 1, output: "-"}
	rows, tpc := 50, uint64(500)
	opts.applyManifest(cmd.Flags(), &manifest{MaxRows: &rows, TicksPerCycle: &tpc, Output: "x.json"})
	if opts.maxRows != 5 || opts.ticksPerCycle != 500 || opts.output != "x.json" {
		t.Fatalf("flags and manifest merged incorrectly: %+v", opts)
	}
}

const testTrace = `O3PipeView:fetch:1000:0x00400f16:0:1:  MOV_R_I : limm   eax, 0x1
O3PipeView:decode:1500
O3PipeView:retire:4000:store:0
O3PipeView:fetch:1500:0x00400f1b:0:2:  JNZ_I : wrip   , t1, 0x10
O3PipeView:decode:2000
O3PipeView:retire:4500:store:0
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bp_on.out")
	if err := os.WriteFile(path, []byte(testTrace), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "compare", "--format", "json", "--ticks-per-cycle", "500",
		"With BP="+path, "Missing="+filepath.Join(dir, "missing.out"))
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Configurations []struct {
			Title string   `json:"title"`
			IPC   *float64 `json:"ipc"`
		} `json:"configurations"`
		Unavailable []struct {
			Label string `json:"label"`
		} `json:"unavailable"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid output: %s\n%s", err, out)
	}
	if len(doc.Configurations) != 1 || doc.Configurations[0].Title != "With BP" {
		t.Fatalf("unexpected configurations %+v", doc.Configurations)
	}
	// 2 instructions from cycle 2 to cycle 9.
	if ipc := doc.Configurations[0].IPC; ipc == nil || *ipc != 2.0/7 {
		t.Fatalf("got IPC %v", ipc)
	}
	if len(doc.Unavailable) != 1 || doc.Unavailable[0].Label != "Missing" {
		t.Fatalf("unexpected unavailable sources %+v", doc.Unavailable)
	}
}

func TestCompareCommandNoSources(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "compare", "a="+filepath.Join(dir, "a.out"), "b="+filepath.Join(dir, "b.out"))
	var eerr *exitError
	if !errors.As(err, &eerr) || eerr.code != 2 {
		t.Fatalf("got error %v, want exit code 2", err)
	}

	if _, err := execute(t, "compare"); err == nil {
		t.Fatal("compare without sources succeeded")
	}
}

func TestTimelineCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bp_on.out")
	if err := os.WriteFile(path, []byte(testTrace), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "timeline", "--max-rows", "1", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bp_on – IPC: undefined") || !strings.Contains(out, "T0 MOV_R_I") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "JNZ_I") {
		t.Fatalf("row cap not applied:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "pipeview") {
		t.Fatalf("unexpected version output %q", out)
	}
}
