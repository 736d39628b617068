// jb - inspect and call foreign classes through the type bridge
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/jbridge/bridge"
	"github.com/chazu/jbridge/foreign/memvm"
	"github.com/chazu/jbridge/manifest"
)

var log = commonlog.GetLogger("jbridge.jb")

func main() {
	verbose := flag.Bool("v", false, "Verbose output (debug logging, cataloged members)")
	dir := flag.String("C", ".", "Directory to search for jbridge.toml")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: jb [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  inspect [-snapshot file]... [class...]   Print the mirror types of classes\n")
		fmt.Fprintf(os.Stderr, "  call <class> <method> [args...]          Call a static method\n")
		fmt.Fprintf(os.Stderr, "  snapshot [-user] -o <file>               Write the loaded class set as CBOR\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  jb inspect java.lang.Math            # Constructors, methods, fields, constants\n")
		fmt.Fprintf(os.Stderr, "  jb call java.lang.Math max 3 7       # Prints 7\n")
		fmt.Fprintf(os.Stderr, "  jb snapshot -o classes.cbor          # Boot classes plus [classpath] snapshots\n")
	}
	flag.Parse()

	m, err := manifest.FindAndLoad(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		m = &manifest.Manifest{Bridge: manifest.Bridge{LogLevel: "warning"}}
	}
	verbosity := m.Verbosity()
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var cmdErr error
	switch args[0] {
	case "inspect":
		cmdErr = handleInspectCommand(args[1:], m, *verbose)
	case "call":
		cmdErr = handleCallCommand(args[1:], m)
	case "snapshot":
		cmdErr = handleSnapshotCommand(args[1:], m)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		os.Exit(1)
	}
}

// newRuntime creates a VM with the manifest's class snapshots and the
// given extra snapshot files loaded.
func newRuntime(m *manifest.Manifest, extra []string) (*memvm.VM, error) {
	vm := memvm.New()
	for _, path := range append(m.SnapshotPaths(), extra...) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read snapshot: %w", err)
		}
		s, err := memvm.UnmarshalSnapshot(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		n, err := vm.Load(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		log.Debugf("loaded %d classes from %s", n, path)
	}
	return vm, nil
}

// newRegistry creates a registry over vm configured by the manifest and
// resolves its preload list.
func newRegistry(vm *memvm.VM, m *manifest.Manifest, extra ...bridge.Option) (*bridge.Registry, error) {
	r, err := bridge.NewRegistry(vm, append(m.Options(), extra...)...)
	if err != nil {
		return nil, err
	}
	if err := m.Preload(r); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}
