package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/chazu/jbridge/bridge"
	"github.com/chazu/jbridge/manifest"
)

// handleCallCommand processes the `jb call` subcommand.
// Usage:
//
//	jb call <class> <method> [args...]
//
// Arguments are parsed with parseArg.
func handleCallCommand(args []string, m *manifest.Manifest) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: jb call <class> <method> [args...]")
	}
	vm, err := newRuntime(m, nil)
	if err != nil {
		return err
	}
	r, err := newRegistry(vm, m)
	if err != nil {
		return err
	}
	defer r.Close()

	t, err := r.TypeByName(args[0])
	if err != nil {
		return err
	}
	callArgs := make([]any, len(args)-2)
	for i, a := range args[2:] {
		callArgs[i] = parseArg(a)
	}
	result, err := t.CallStatic(args[1], callArgs...)
	if err != nil {
		return err
	}
	if inst, ok := result.(*bridge.Instance); ok {
		defer inst.Release()
	}
	fmt.Println(formatValue(result))
	return nil
}

// parseArg maps a command-line word to the Go value passed to the bridge:
// null, true and false, integers as int32 when they fit and int64
// otherwise, decimals as float64, and anything else as a string. A
// leading ':' forces a string, so ":42" passes "42".
func parseArg(s string) any {
	switch s {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if len(s) > 0 && s[0] == ':' {
		return s[1:]
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n)
		}
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
