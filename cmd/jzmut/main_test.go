package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GratitechInc/jazzer/pkg/mutation"
)

const testSchema = `{
    // simple shape for CLI tests
    "kind": "record",
    "name": "Root",
    "fields": [
        {"name": "id", "type": {"kind": "int64", "range": {"min": 0, "max": 100}}},
        {"name": "flag", "type": {"kind": "bool"}},
    ],
}`

func writeTestSchema(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "schema.hujson")
	if err := os.WriteFile(path, []byte(testSchema), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestGenThenMutateThenShow(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	schemaPath := writeTestSchema(t, dir)
	corpusDir := filepath.Join(dir, "corpus")

	var out, errOut strings.Builder

	code := run(context.Background(),
		[]string{"gen", "-s", schemaPath, "-n", "3", "--seed", "7", corpusDir},
		&out, &errOut)
	if code != 0 {
		t.Fatalf("gen exit=%d, stderr=%s", code, errOut.String())
	}

	if !strings.Contains(out.String(), "generated 3 entries") {
		t.Fatalf("gen output: %q", out.String())
	}

	out.Reset()

	code = run(context.Background(),
		[]string{"mutate", "-s", schemaPath, "-n", "2", "--seed", "8", corpusDir},
		&out, &errOut)
	if code != 0 {
		t.Fatalf("mutate exit=%d, stderr=%s", code, errOut.String())
	}

	if !strings.Contains(out.String(), "corpus now has 5") {
		t.Fatalf("mutate output: %q", out.String())
	}

	out.Reset()

	entry := filepath.Join(corpusDir, "000000.bin")

	code = run(context.Background(),
		[]string{"show", "-s", schemaPath, entry},
		&out, &errOut)
	if code != 0 {
		t.Fatalf("show exit=%d, stderr=%s", code, errOut.String())
	}

	if !strings.Contains(out.String(), "Root") {
		t.Fatalf("show output does not name the shape: %q", out.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	var out, errOut strings.Builder

	if code := run(context.Background(), []string{"frobnicate"}, &out, &errOut); code != 1 {
		t.Fatalf("exit=%d, want 1", code)
	}

	if !strings.Contains(errOut.String(), "unknown command") {
		t.Fatalf("stderr: %q", errOut.String())
	}
}

func TestRunHelp(t *testing.T) {
	t.Chdir(t.TempDir())

	var out, errOut strings.Builder

	if code := run(context.Background(), nil, &out, &errOut); code != 0 {
		t.Fatalf("exit=%d, want 0", code)
	}

	for _, verb := range []string{"gen", "mutate", "show", "repl"} {
		if !strings.Contains(out.String(), verb) {
			t.Fatalf("usage missing %q: %s", verb, out.String())
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfgSrc := `{
        // corpus tool defaults
        "schema": "shapes/root.hujson",
        "seed": 99, // trailing comma ok
    }`

	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(cfgSrc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Schema != "shapes/root.hujson" {
		t.Fatalf("schema: got=%q", cfg.Schema)
	}

	if cfg.Seed != 99 {
		t.Fatalf("seed: got=%d", cfg.Seed)
	}

	// Defaults survive for unset keys.
	if cfg.CorpusDir != ".corpus" {
		t.Fatalf("corpus_dir default: got=%q", cfg.CorpusDir)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if cfg != DefaultConfig() {
		t.Fatalf("config: got=%+v, want defaults", cfg)
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		v    any
		want string
	}{
		{"int", int64(7), "7"},
		{"bool", true, "true"},
		{"string", "hi", `"hi"`},
		{"bytes", []byte{0xAB, 0xCD}, "0xabcd"},
		{"record", []any{int64(1), false}, "[1, false]"},
		{"tagged", mutation.Tagged{Tag: 1, Value: int64(5)}, "1:5"},
		{"absent_option", mutation.Option{}, "-"},
		{"present_option", mutation.Option{Present: true, Value: "x"}, `"x"`},
		{"nil", nil, "-"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := formatValue(tc.v); got != tc.want {
				t.Fatalf("formatValue(%v): got=%q, want=%q", tc.v, got, tc.want)
			}
		})
	}
}
