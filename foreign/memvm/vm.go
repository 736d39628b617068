// Package memvm is an in-memory object runtime implementing foreign.Runtime.
//
// It models classes with single inheritance, primitive and reference arrays,
// strings, boxed scalars and a local/global handle table with local frames.
// Method bodies are Go functions. The handle table keeps enough accounting
// (live locals, live globals, bad releases) for tests to assert that a
// caller never leaks or double-releases a handle.
package memvm

import (
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/jbridge/foreign"
)

var log = commonlog.GetLogger("jbridge.memvm")

// VM is an in-memory foreign runtime. All exported methods are safe for
// concurrent use; method bodies run with the VM lock held and must use the
// *Call they are given rather than the VM's exported methods.
type VM struct {
	mu sync.Mutex

	classes  map[string]*Class
	order    []*Class // definition order, used by snapshots
	phantoms map[string]*Class

	handles map[foreign.Ref]*handle
	nextRef foreign.Ref
	frames  [][]foreign.Ref

	methods      map[foreign.MethodID]*Method
	fields       map[foreign.FieldID]*Field
	nextMethodID foreign.MethodID
	nextFieldID  foreign.FieldID

	badReleases int
	nextHash    int32
}

type handle struct {
	obj    *Object
	global bool
}

// Stats is a snapshot of handle-table accounting.
type Stats struct {
	LocalRefs   int
	GlobalRefs  int
	BadReleases int
	Frames      int
}

// New creates a VM with the bootstrap class set (java.lang.Object, Class,
// String, the wrapper classes and java.util.Arrays) already defined.
func New() *VM {
	vm := &VM{
		classes:  make(map[string]*Class),
		phantoms: make(map[string]*Class),
		handles:  make(map[foreign.Ref]*handle),
		frames:   [][]foreign.Ref{nil}, // base frame is never popped
		methods:  make(map[foreign.MethodID]*Method),
		fields:   make(map[foreign.FieldID]*Field),
		nextRef:  1,
	}
	vm.bootstrap()
	return vm
}

// Stats returns the current handle accounting.
func (vm *VM) Stats() Stats {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	var s Stats
	for _, h := range vm.handles {
		if h.global {
			s.GlobalRefs++
		} else {
			s.LocalRefs++
		}
	}
	s.BadReleases = vm.badReleases
	s.Frames = len(vm.frames)
	return s
}

// ---------------------------------------------------------------------------
// Handle table
// ---------------------------------------------------------------------------

func (vm *VM) newLocal(obj *Object) foreign.Ref {
	if obj == nil {
		return 0
	}
	ref := vm.nextRef
	vm.nextRef++
	vm.handles[ref] = &handle{obj: obj}
	top := len(vm.frames) - 1
	vm.frames[top] = append(vm.frames[top], ref)
	return ref
}

func (vm *VM) newGlobal(obj *Object) foreign.Ref {
	if obj == nil {
		return 0
	}
	ref := vm.nextRef
	vm.nextRef++
	vm.handles[ref] = &handle{obj: obj, global: true}
	return ref
}

// deref resolves a live handle. A null ref yields (nil, nil).
func (vm *VM) deref(ref foreign.Ref) (*Object, error) {
	if ref == 0 {
		return nil, nil
	}
	h, ok := vm.handles[ref]
	if !ok {
		return nil, fmt.Errorf("memvm: invalid reference %#x", uintptr(ref))
	}
	return h.obj, nil
}

func (vm *VM) mustDeref(ref foreign.Ref) (*Object, error) {
	obj, err := vm.deref(ref)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("memvm: NullPointerException")
	}
	return obj, nil
}

func (vm *VM) derefClass(ref foreign.Ref) (*Class, error) {
	obj, err := vm.mustDeref(ref)
	if err != nil {
		return nil, err
	}
	if obj.meta == nil {
		return nil, fmt.Errorf("memvm: reference %#x is not a class", uintptr(ref))
	}
	return obj.meta, nil
}

func (vm *VM) deleteLocal(ref foreign.Ref) {
	if ref == 0 {
		return
	}
	h, ok := vm.handles[ref]
	if !ok || h.global {
		vm.badReleases++
		log.Warningf("bad local release of %#x", uintptr(ref))
		return
	}
	delete(vm.handles, ref)
	for i := len(vm.frames) - 1; i >= 0; i-- {
		frame := vm.frames[i]
		for j, r := range frame {
			if r == ref {
				vm.frames[i] = append(frame[:j], frame[j+1:]...)
				return
			}
		}
	}
}

func (vm *VM) deleteGlobal(ref foreign.Ref) {
	if ref == 0 {
		return
	}
	h, ok := vm.handles[ref]
	if !ok || !h.global {
		vm.badReleases++
		log.Warningf("bad global release of %#x", uintptr(ref))
		return
	}
	delete(vm.handles, ref)
}

func (vm *VM) hash() int32 {
	vm.nextHash++
	return vm.nextHash
}
