package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/jbridge/bridge"
	"github.com/chazu/jbridge/foreign/memvm"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[bridge]
log-level = "debug"
read-only-arrays = true
preload = ["java.lang.Math", "java/util/Arrays"]

[classpath]
snapshots = ["classes.cbor", "/opt/shared.cbor"]

[policy."java.lang.Math"]
exclude = ["abs"]

[policy."java.util.Arrays"]
read-only = ["sort"]
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Bridge.LogLevel != "debug" || m.Verbosity() != 2 {
		t.Errorf("log-level = %q (verbosity %d), want debug (2)", m.Bridge.LogLevel, m.Verbosity())
	}
	if !m.Bridge.ReadOnlyArrays {
		t.Error("read-only-arrays = false, want true")
	}
	if diff := cmp.Diff([]string{"java.lang.Math", "java/util/Arrays"}, m.Bridge.Preload); diff != "" {
		t.Errorf("preload (-want +got):\n%s", diff)
	}
	want := map[string]Policy{
		"java.lang.Math":   {Exclude: []string{"abs"}},
		"java.util.Arrays": {ReadOnly: []string{"sort"}},
	}
	if diff := cmp.Diff(want, m.Policy); diff != "" {
		t.Errorf("policy (-want +got):\n%s", diff)
	}

	paths := m.SnapshotPaths()
	if diff := cmp.Diff([]string{filepath.Join(m.Dir, "classes.cbor"), "/opt/shared.cbor"}, paths); diff != "" {
		t.Errorf("snapshot paths (-want +got):\n%s", diff)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[bridge]
preload = ["java.lang.String"]
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Bridge.LogLevel != "warning" {
		t.Errorf("default log-level = %q, want warning", m.Bridge.LogLevel)
	}
	if m.Bridge.ReadOnlyArrays {
		t.Error("default read-only-arrays = true, want false")
	}
	if len(m.Options()) != 0 {
		t.Errorf("expected no options, got %d", len(m.Options()))
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	tests := map[string]string{
		"log level":  "[bridge]\nlog-level = \"loud\"\n",
		"preload":    "[bridge]\npreload = [\"int[]\"]\n",
		"policy":     "[policy.\"int\"]\nexclude = [\"x\"]\n",
		"exclusive":  "[policy.\"java.lang.Math\"]\nexclude = [\"abs\"]\ninclude = [\"max\"]\n",
		"bad syntax": "[bridge\n",
	}
	for name, content := range tests {
		dir := t.TempDir()
		writeManifest(t, dir, content)
		if _, err := Load(dir); err == nil {
			t.Errorf("%s: expected Load to fail", name)
		}
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, "[bridge]\nlog-level = \"info\"\n")

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Bridge.LogLevel != "info" {
		t.Errorf("log-level = %q, want info", m.Bridge.LogLevel)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no jbridge.toml exists")
	}
}

func TestOptionsAndPreload(t *testing.T) {
	m := &Manifest{
		Bridge: Bridge{Preload: []string{"java.lang.Math"}},
		Policy: map[string]Policy{
			"java.lang.Math": {Exclude: []string{"abs"}},
		},
	}

	r, err := bridge.NewRegistry(memvm.New(), m.Options()...)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if err := m.Preload(r); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	math, err := r.TypeByName("java.lang.Math")
	if err != nil {
		t.Fatal(err)
	}
	if math.State() != bridge.StateResolved {
		t.Errorf("expected preloaded type resolved, got %s", math.State())
	}
	_, err = math.CallStatic("abs", int32(-3))
	var nf *bridge.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected abs to be excluded, got %v", err)
	}
}

func TestPreloadMissingClass(t *testing.T) {
	m := &Manifest{Bridge: Bridge{Preload: []string{"java.lang.Math", "demo.Missing"}}}
	r, err := bridge.NewRegistry(memvm.New())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	err = m.Preload(r)
	var nf *bridge.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected *NotFoundError, got %v", err)
	}
}
