package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chazu/jbridge/bridge"
	"github.com/chazu/jbridge/manifest"
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// handleInspectCommand processes the `jb inspect` subcommand.
// Usage:
//
//	jb inspect [-snapshot file]... [class...]
//
// Without classes it prints the manifest's preload list.
func handleInspectCommand(args []string, m *manifest.Manifest, verbose bool) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	var snapshots stringList
	fs.Var(&snapshots, "snapshot", "Class snapshot to load (repeatable)")
	fs.Parse(args)

	classes := fs.Args()
	if len(classes) == 0 {
		classes = m.Bridge.Preload
	}
	if len(classes) == 0 {
		return fmt.Errorf("no classes given and no [bridge].preload in %s", manifest.FileName)
	}

	vm, err := newRuntime(m, snapshots)
	if err != nil {
		return err
	}
	var opts []bridge.Option
	if verbose {
		opts = append(opts, bridge.OnMember(func(t *bridge.Type, name string, _ any) {
			fmt.Fprintf(os.Stderr, "cataloged %s.%s\n", t.Name(), name)
		}))
	}
	r, err := newRegistry(vm, m, opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	for i, name := range classes {
		t, err := r.TypeByName(name)
		if err != nil {
			return err
		}
		if err := r.Resolve(t); err != nil {
			return err
		}
		if i > 0 {
			fmt.Println()
		}
		if err := describeType(os.Stdout, t); err != nil {
			return err
		}
	}
	return nil
}

// describeType prints the supertype chain of a resolved type and the
// members it declares, in cataloging order.
func describeType(w io.Writer, t *bridge.Type) error {
	var chain []string
	for k := t.Super(); k != nil; k = k.Super() {
		chain = append(chain, k.Name())
	}
	fmt.Fprintf(w, "%s", t.Name())
	if len(chain) > 0 {
		fmt.Fprintf(w, " extends %s", strings.Join(chain, " > "))
	}
	fmt.Fprintln(w)

	names, err := t.Members()
	if err != nil {
		return err
	}
	for _, name := range names {
		member, err := t.Member(name)
		if err != nil {
			return err
		}
		switch mb := member.(type) {
		case *bridge.OverloadGroup:
			for _, meth := range mb.Methods() {
				if meth.IsConstructor() {
					fmt.Fprintf(w, "  new %s\n", strings.TrimPrefix(meth.Signature(), bridge.ConstructorName))
					continue
				}
				fmt.Fprintf(w, "  method %s\n", meth.Signature())
			}
		case *bridge.Field:
			final := ""
			if mb.Final {
				final = "final "
			}
			fmt.Fprintf(w, "  field %s%s %s\n", final, mb.Type.Name(), mb.Name)
		default:
			fmt.Fprintf(w, "  const %s = %s\n", name, formatValue(mb))
		}
	}
	return nil
}

// formatValue renders a value returned by the bridge.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", x)
	case uint16:
		return fmt.Sprintf("%q", rune(x))
	case *bridge.PrimitiveArray:
		items := make([]string, x.Len())
		for i := range items {
			item, err := x.Index(i)
			if err != nil {
				return fmt.Sprintf("<%v>", err)
			}
			items[i] = fmt.Sprint(item)
		}
		return "[" + strings.Join(items, " ") + "]"
	}
	return fmt.Sprint(v)
}
