package bridge

import "fmt"

//go:generate go tool stringer -type=ResolutionState -trimprefix=State -output=state_string.go

// ResolutionState is the cataloging lifecycle of a Type.
type ResolutionState int

const (
	StateNew       ResolutionState = iota // created, members not yet cataloged
	StateResolving                        // cataloging in progress
	StateResolved                         // member table complete and immutable
)

// transition moves t to the next state. Resolving may fall back to New when
// cataloging fails; any other move is a bug in the resolver.
func (t *Type) transition(to ResolutionState) {
	from := t.state
	ok := false
	switch from {
	case StateNew:
		ok = to == StateResolving
	case StateResolving:
		ok = to == StateResolved || to == StateNew
	}
	if !ok {
		panic(fmt.Sprintf("bridge: illegal state transition %s -> %s for %s", from, to, t.name))
	}
	t.state = to
}
