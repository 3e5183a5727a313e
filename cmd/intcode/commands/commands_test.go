package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	seriesProgram   = "3,15,3,16,1002,16,10,16,1,16,15,15,4,15,99,0,0"
	feedbackProgram = "3,26,1001,26,-4,26,3,27,1002,27,2,27,1,27,26,27,4,27,1001,28,-1,28,1005,28,6,99,0,0,5"
)

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand("test", "none", "today")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// workspace writes a config whose run history lives in a temp dir.
func workspace(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = writeFile(t, dir, "intcode.yaml", `
store:
  enabled: true
  path: history.db
telemetry:
  log_level: error
`)
	return dir, cfgPath
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intcode.yaml")

	out, err := execute(t, "init", path, "--program", "day07.txt")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "Wrote configuration") {
		t.Errorf("unexpected output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "intcode.db")); err != nil {
		t.Errorf("expected database to be created: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "program: day07.txt") {
		t.Errorf("config missing program:\n%s", data)
	}

	if _, err := execute(t, "init", path); err == nil {
		t.Error("expected init to refuse overwriting")
	}
	if _, err := execute(t, "init", path, "--force"); err != nil {
		t.Errorf("init --force failed: %v", err)
	}
	if _, err := execute(t, "init", filepath.Join(dir, "intcode.cue")); err == nil {
		t.Error("expected init to reject non-YAML path")
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "amp.txt", seriesProgram)
	valid := writeFile(t, dir, "good.yaml", "program: amp.txt\namplifier:\n  mode: feedback\n")
	invalid := writeFile(t, dir, "bad.yaml", "amplifier:\n  mode: sideways\n")
	badProgram := writeFile(t, dir, "badprog.yaml", "program: missing.txt\n")

	out, err := execute(t, "validate", valid)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "17 words") || !strings.Contains(out, "Configuration valid") {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = execute(t, "validate", invalid)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(out, "amplifier.mode") {
		t.Errorf("output should name the field: %s", out)
	}

	if _, err := execute(t, "validate", badProgram); err == nil {
		t.Error("expected error for missing program")
	}
}

func TestRunCommand(t *testing.T) {
	dir, cfg := workspace(t)
	echo := writeFile(t, dir, "echo.txt", "3,0,4,0,99")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "echo finishes",
			args: []string{"run", echo, "-i", "42"},
			want: []string{"state:   finished", "outputs: 42"},
		},
		{
			name: "missing input suspends",
			args: []string{"run", echo},
			want: []string{"state:   suspended", "outputs: \n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append(tt.args, "-c", cfg)...)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestRunCommandNoProgram(t *testing.T) {
	_, cfg := workspace(t)
	if _, err := execute(t, "run", "-c", cfg); err == nil {
		t.Fatal("expected error without a program")
	}
}

func TestAmplifyCommand(t *testing.T) {
	dir, cfg := workspace(t)
	series := writeFile(t, dir, "series.txt", seriesProgram)
	feedback := writeFile(t, dir, "feedback.txt", feedbackProgram)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "series search", args: []string{"amplify", series}, want: "max signal 43210 from phases 4,3,2,1,0"},
		{name: "feedback search", args: []string{"amplify", feedback, "--mode", "feedback"}, want: "max signal 139629729 from phases 9,8,7,6,5"},
		{name: "fixed phases", args: []string{"amplify", feedback, "-m", "feedback", "-p", "9,8,7,6,5", "--fixed"}, want: "signal 139629729 from phases 9,8,7,6,5 (feedback, 5 rounds)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append(tt.args, "-c", cfg)...)
			if err != nil {
				t.Fatalf("amplify failed: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}

	if _, err := execute(t, "amplify", series, "--mode", "ring", "-c", cfg); err == nil {
		t.Error("expected error for unknown mode")
	}
	if _, err := execute(t, "amplify", series, "--phases", "1,1", "-c", cfg); err == nil {
		t.Error("expected error for duplicate phases")
	}
}

func TestSweepCommand(t *testing.T) {
	dir, cfg := workspace(t)
	adder := writeFile(t, dir, "adder.txt", "1101,0,0,0,99")

	out, err := execute(t, "sweep", adder, "--target", "150", "--json", "-c", cfg)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	var result struct {
		Noun   int64 `json:"noun"`
		Verb   int64 `json:"verb"`
		Answer int64 `json:"answer"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result.Noun != 51 || result.Verb != 99 || result.Answer != 5199 {
		t.Errorf("got %+v, want noun=51 verb=99 answer=5199", result)
	}

	if _, err := execute(t, "sweep", adder, "--target", "1000", "-c", cfg); err == nil {
		t.Error("expected error for unreachable target")
	}
}

func TestScriptCommand(t *testing.T) {
	dir, cfg := workspace(t)
	series := writeFile(t, dir, "series.txt", seriesProgram)
	star := writeFile(t, dir, "best.star", `
best = search(program, phases = [0, 1, 2, 3, 4], mode = "series")
signal = best.signal
print("label:", label)
`)

	out, err := execute(t, "script", star, "--program", series, "--set", "label=day07", "-c", cfg)
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}
	for _, want := range []string{"label: day07", "signal = 43210"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	dir, cfg := workspace(t)
	series := writeFile(t, dir, "series.txt", seriesProgram)

	if _, err := execute(t, "amplify", series, "-c", cfg); err != nil {
		t.Fatalf("amplify failed: %v", err)
	}

	out, err := execute(t, "history", "--json", "-c", cfg)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}

	var runs []struct {
		ID     string `json:"id"`
		Kind   string `json:"kind"`
		Status string `json:"status"`
		Result *int64 `json:"result"`
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Kind != "search" || runs[0].Status != "succeeded" || runs[0].Result == nil || *runs[0].Result != 43210 {
		t.Errorf("unexpected run: %+v", runs[0])
	}

	out, err = execute(t, "history", runs[0].ID, "-c", cfg)
	if err != nil {
		t.Fatalf("history show failed: %v", err)
	}
	for _, want := range []string{"status:   succeeded", "result:   43210", "run.completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "history", "--kind", "sweep", "-c", cfg)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "no runs recorded") {
		t.Errorf("expected empty listing, got:\n%s", out)
	}

	if _, err := execute(t, "history", "missing-id", "-c", cfg); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestHistoryDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "intcode.yaml", "store:\n  enabled: false\ntelemetry:\n  log_level: error\n")
	if _, err := execute(t, "history", "-c", cfg); err == nil {
		t.Fatal("expected error when the store is disabled")
	}
}
