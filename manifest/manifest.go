// Package manifest handles jbridge.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/chazu/jbridge/bridge"
)

// FileName is the name of the configuration file.
const FileName = "jbridge.toml"

// Manifest represents a jbridge.toml project configuration.
type Manifest struct {
	Bridge    Bridge            `toml:"bridge"`
	Classpath Classpath         `toml:"classpath"`
	Policy    map[string]Policy `toml:"policy"`

	// Dir is the directory containing the jbridge.toml file (set at load time).
	Dir string `toml:"-"`
}

// Bridge configures the registry.
type Bridge struct {
	LogLevel       string   `toml:"log-level"`
	ReadOnlyArrays bool     `toml:"read-only-arrays"`
	Preload        []string `toml:"preload"`
}

// Classpath lists the class snapshots to load into the runtime before the
// registry is created.
type Classpath struct {
	Snapshots []string `toml:"snapshots"`
}

// Policy restricts the methods exposed for one declaring class.
type Policy struct {
	Exclude  []string `toml:"exclude"`
	Include  []string `toml:"include"`
	ReadOnly []string `toml:"read-only"`
}

// Load parses a jbridge.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Bridge.LogLevel == "" {
		m.Bridge.LogLevel = "warning"
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a jbridge.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) validate() error {
	var errs []error
	if _, ok := logLevels[m.Bridge.LogLevel]; !ok {
		errs = append(errs, fmt.Errorf("unknown log-level %q", m.Bridge.LogLevel))
	}
	for _, name := range m.Bridge.Preload {
		if err := CheckClassName(name); err != nil {
			errs = append(errs, fmt.Errorf("preload: %w", err))
		}
	}
	for _, class := range m.policyClasses() {
		if err := CheckClassName(class); err != nil {
			errs = append(errs, fmt.Errorf("policy: %w", err))
		}
		p := m.Policy[class]
		if len(p.Exclude) > 0 && len(p.Include) > 0 {
			errs = append(errs, fmt.Errorf("policy %q: exclude and include are exclusive", class))
		}
	}
	return errors.Join(errs...)
}

// logLevels maps log-level names to commonlog verbosity.
var logLevels = map[string]int{
	"critical": -3,
	"error":    -2,
	"warning":  -1,
	"notice":   0,
	"info":     1,
	"debug":    2,
}

// Verbosity returns the commonlog verbosity for the configured log level.
func (m *Manifest) Verbosity() int {
	return logLevels[m.Bridge.LogLevel]
}

// SnapshotPaths returns absolute paths for the configured class snapshots.
func (m *Manifest) SnapshotPaths() []string {
	var paths []string
	for _, s := range m.Classpath.Snapshots {
		if filepath.IsAbs(s) {
			paths = append(paths, s)
			continue
		}
		paths = append(paths, filepath.Join(m.Dir, s))
	}
	return paths
}

// Options translates the manifest into registry options. Policies are
// registered in class-name order.
func (m *Manifest) Options() []bridge.Option {
	var opts []bridge.Option
	if m.Bridge.ReadOnlyArrays {
		opts = append(opts, bridge.WithReadOnlyArrays())
	}
	for _, class := range m.policyClasses() {
		p := m.Policy[class]
		if len(p.Exclude) > 0 {
			opts = append(opts, bridge.WithMethodPolicy(class, bridge.ExcludeMethods(p.Exclude...)))
		}
		if len(p.Include) > 0 {
			opts = append(opts, bridge.WithMethodPolicy(class, bridge.IncludeMethods(p.Include...)))
		}
		if len(p.ReadOnly) > 0 {
			opts = append(opts, bridge.WithMethodPolicy(class, bridge.ReadOnlyArrays(p.ReadOnly...)))
		}
	}
	return opts
}

// Preload looks up and resolves every class on the preload list, in order.
// It stops at the first failure.
func (m *Manifest) Preload(r *bridge.Registry) error {
	for _, name := range m.Bridge.Preload {
		t, err := r.TypeByName(name)
		if err != nil {
			return fmt.Errorf("preload %s: %w", name, err)
		}
		if err := r.Resolve(t); err != nil {
			return fmt.Errorf("preload %s: %w", name, err)
		}
	}
	return nil
}

func (m *Manifest) policyClasses() []string {
	classes := make([]string, 0, len(m.Policy))
	for class := range m.Policy {
		classes = append(classes, class)
	}
	slices.Sort(classes)
	return classes
}
