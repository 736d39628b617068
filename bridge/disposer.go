package bridge

import "errors"

// cleanup releases a call-scoped resource after a foreign call. It may
// report an error, e.g. when copying a mutated array back fails.
type cleanup func() error

// guard collects the cleanups attached while converting one call's
// arguments and runs them once, newest first.
type guard struct {
	cleanups []cleanup
}

func (g *guard) add(c cleanup) {
	g.cleanups = append(g.cleanups, c)
}

// discharge runs every cleanup, even after one fails, and empties the
// guard so a second discharge is a no-op.
func (g *guard) discharge() error {
	var errs []error
	for i := len(g.cleanups) - 1; i >= 0; i-- {
		if err := g.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	g.cleanups = nil
	return errors.Join(errs...)
}
