// Package callback implements the five-category (spec prose) / six-map
// (spec table, see DESIGN.md) hook registry described in spec §4.4: named
// callbacks fired at precise points of the serialize/deserialize
// lifecycle, rebuilt wholesale and atomically by UpdateCallbacks.
package callback

import (
	"sync"

	"github.com/coreproto/tl/tl"
)

// ConstructorBeforeFunc fires after a constructor id is read off the wire
// and before its fields are decoded.
type ConstructorBeforeFunc func(predicate string) error

// AsyncHook is returned by CONSTRUCTOR/METHOD callbacks that kick off
// external work; the caller awaits the returned slice after the main
// parse completes (spec §4.6 step 7).
type AsyncHook func() error

// ConstructorFunc fires after a constructor has been fully decoded.
type ConstructorFunc func(value tl.Value) (AsyncHook, error)

// ConstructorSerializeFunc fires before serializing a value of the
// registered predicate; it may replace the value entirely. Single-valued:
// last registration wins.
type ConstructorSerializeFunc func(value tl.Value) (tl.Value, error)

// MethodBeforeFunc fires when dispatching an rpc_result whose request
// constructor/method is known, before the result param is decoded.
type MethodBeforeFunc func(methodName string) error

// MethodFunc fires after an rpc_result has been decoded, given the
// method name and the decoded result value.
type MethodFunc func(methodName string, result tl.Value) (AsyncHook, error)

// TypeMismatchFunc fires when a serialize target expects predicate type T
// but the value doesn't carry it; it returns a coerced replacement value.
// Single-valued: last registration wins.
type TypeMismatchFunc func(targetType string, value tl.Value) (tl.Value, error)

// Set is one immutable snapshot of all five (six) category maps, swapped
// in atomically by UpdateCallbacks.
type Set struct {
	Before       map[string][]ConstructorBeforeFunc
	After        map[string][]ConstructorFunc
	Serialize    map[string]ConstructorSerializeFunc
	MethodBefore map[string][]MethodBeforeFunc
	Method       map[string][]MethodFunc
	TypeMismatch map[string]TypeMismatchFunc
}

func emptySet() *Set {
	return &Set{
		Before:       make(map[string][]ConstructorBeforeFunc),
		After:        make(map[string][]ConstructorFunc),
		Serialize:    make(map[string]ConstructorSerializeFunc),
		MethodBefore: make(map[string][]MethodBeforeFunc),
		Method:       make(map[string][]MethodFunc),
		TypeMismatch: make(map[string]TypeMismatchFunc),
	}
}

// Registry holds the current Set behind a mutex; readers get a
// consistent snapshot even while UpdateCallbacks is rebuilding.
type Registry struct {
	mu  sync.RWMutex
	set *Set
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{set: emptySet()}
}

// Builder accumulates registrations for one UpdateCallbacks call.
type Builder struct {
	set *Set
}

// NewBuilder starts a fresh, empty builder — UpdateCallbacks always
// rebuilds wholesale, it never merges into the previous Set.
func NewBuilder() *Builder {
	return &Builder{set: emptySet()}
}

func (b *Builder) OnConstructorBefore(predicate string, fn ConstructorBeforeFunc) *Builder {
	b.set.Before[predicate] = append([]ConstructorBeforeFunc{fn}, b.set.Before[predicate]...)
	return b
}

func (b *Builder) OnConstructor(predicate string, fn ConstructorFunc) *Builder {
	b.set.After[predicate] = append([]ConstructorFunc{fn}, b.set.After[predicate]...)
	return b
}

func (b *Builder) OnConstructorSerialize(predicate string, fn ConstructorSerializeFunc) *Builder {
	b.set.Serialize[predicate] = fn
	return b
}

func (b *Builder) OnMethodBefore(method string, fn MethodBeforeFunc) *Builder {
	b.set.MethodBefore[method] = append([]MethodBeforeFunc{fn}, b.set.MethodBefore[method]...)
	return b
}

func (b *Builder) OnMethod(method string, fn MethodFunc) *Builder {
	b.set.Method[method] = append([]MethodFunc{fn}, b.set.Method[method]...)
	return b
}

func (b *Builder) OnTypeMismatch(targetType string, fn TypeMismatchFunc) *Builder {
	b.set.TypeMismatch[targetType] = fn
	return b
}

// UpdateCallbacks atomically replaces all category maps with the
// builder's accumulated Set (spec §4.4/§5 "Shared resources... mutated
// only by updateCallbacks, which fully rebuilds all five category maps
// atomically").
func (r *Registry) UpdateCallbacks(b *Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = b.set
}

func (r *Registry) snapshot() *Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set
}

func (r *Registry) ConstructorBefore(predicate string) []ConstructorBeforeFunc {
	return r.snapshot().Before[predicate]
}

func (r *Registry) Constructor(predicate string) []ConstructorFunc {
	return r.snapshot().After[predicate]
}

func (r *Registry) ConstructorSerialize(predicate string) (ConstructorSerializeFunc, bool) {
	fn, ok := r.snapshot().Serialize[predicate]
	return fn, ok
}

func (r *Registry) MethodBefore(method string) []MethodBeforeFunc {
	return r.snapshot().MethodBefore[method]
}

func (r *Registry) Method(method string) []MethodFunc {
	return r.snapshot().Method[method]
}

func (r *Registry) TypeMismatch(targetType string) (TypeMismatchFunc, bool) {
	fn, ok := r.snapshot().TypeMismatch[targetType]
	return fn, ok
}
