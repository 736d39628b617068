package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/jbridge/foreign/memvm"
	"github.com/chazu/jbridge/manifest"
)

// handleSnapshotCommand processes the `jb snapshot` subcommand.
// Usage:
//
//	jb snapshot [-user] -o <file>
//
// The snapshot holds the bootstrap classes and every class loaded from the
// manifest's [classpath]; -user leaves the bootstrap classes out.
func handleSnapshotCommand(args []string, m *manifest.Manifest) error {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	out := fs.String("o", "", "Output file")
	userOnly := fs.Bool("user", false, "Leave out the bootstrap classes")
	fs.Parse(args)
	if *out == "" {
		return fmt.Errorf("usage: jb snapshot [-user] -o <file>")
	}

	vm, err := newRuntime(m, nil)
	if err != nil {
		return err
	}
	s := vm.Snapshot(!*userOnly)
	data, err := memvm.MarshalSnapshot(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		return fmt.Errorf("cannot write snapshot: %w", err)
	}
	fmt.Printf("Wrote %d classes to %s (%d bytes)\n", len(s.Classes), *out, len(data))
	return nil
}
