package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"viper/internal/trace"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[trace]
level = "heap"
format = "ndjson"

[heap]
alloc_limit = 4096
leak_check = true

[stress]
workers = 2

[context]
rng_seed = 7
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Trace.Level != "heap" || cfg.Heap.AllocLimit != 4096 || !cfg.Heap.LeakCheck {
		t.Fatalf("values not decoded: %+v", cfg)
	}
	if cfg.Stress.Workers != 2 || cfg.Stress.Iterations != Default().Stress.Iterations {
		t.Fatal("unset keys must keep their defaults")
	}
	if cfg.Context.RNGSeed != 7 || cfg.Path != path {
		t.Fatalf("unexpected context section or path: %+v", cfg)
	}
	tc, err := cfg.TracerConfig()
	if err != nil || tc.Level != trace.LevelHeap || tc.Format != trace.FormatNDJSON {
		t.Fatalf("tracer config mismatch: %+v (%v)", tc, err)
	}
}

func TestLoadFileRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "[heap]\nbogus = 1\n", "unknown keys"},
		{"bad level", "[trace]\nlevel = \"loud\"\n", "[trace].level"},
		{"negative limit", "[heap]\nalloc_limit = -1\n", "[heap].alloc_limit"},
		{"zero workers", "[stress]\nworkers = 0\n", "[stress].workers"},
		{"syntax", "[trace\n", "failed to parse TOML"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tc.body)
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestFindWalksParents(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok, err := Find(nested)
	if err != nil || !ok || got != want {
		t.Fatalf("Find = %q, %v, %v", got, ok, err)
	}
	if _, ok, _ := Find(t.TempDir()); ok {
		t.Fatal("no file above an empty temp dir")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}
