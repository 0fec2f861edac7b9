package schema

import (
	"fmt"
	"log"
	"sort"
	"sync"
)

// Registry is the constructor/method index described by spec §3 ("Indexes
// (registry)") and §4.3. api+mtproto+secret share one Registry; td gets its
// own, parallel Registry (spec invariant 2).
type Registry struct {
	mu sync.RWMutex

	byID        map[uint32]*Entry
	byPredicate map[string][]*Entry // sorted ascending by Layer
	byType      map[string]*Entry   // first-registered representative
	methodNS    map[string]bool
	methodOf    map[string]string // method name -> namespace

	secretLayer int

	logger *log.Logger
}

// New builds an empty Registry. logger may be nil, in which case
// log.Default() is used — the registry never reaches for a package-level
// global itself (spec §9 "Global state").
func New(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		byID:        make(map[uint32]*Entry),
		byPredicate: make(map[string][]*Entry),
		byType:      make(map[string]*Entry),
		methodNS:    make(map[string]bool),
		methodOf:    make(map[string]string),
		secretLayer: -1,
		logger:      logger,
	}
}

// AddEntry registers one Entry, updating all indexes and checking the
// invariants from spec §3:
//
//  1. declared id vs recomputed id mismatches are logged, not fatal.
//  2. by_id values must be unique.
//  4. vector params must carry a non-empty Subtype.
//  5. secretLayer tracks the max layer seen across secret-origin entries.
func (r *Registry) AddEntry(e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := IDFromBytes(e.ID)

	if existing, ok := r.byID[id]; ok && existing != e {
		return fmt.Errorf("tl registry: id %08x already registered to %q, got %q: %w", id, existing.Name, e.Name, ErrDuplicateID)
	}

	if e.mismatchedComputedID != nil {
		r.logger.Printf("tl registry: %s: declared id %08x does not match computed id %08x (trusting declared id)", e.Name, id, *e.mismatchedComputedID)
	}

	for _, p := range e.Params {
		if isVectorType(p.Type) && p.Subtype == "" {
			r.logger.Printf("tl registry: %s: vector param %q has empty subtype", e.Name, p.Name)
		}
	}

	r.byID[id] = e

	list := r.byPredicate[e.Name]
	list = append(list, e)
	sort.Slice(list, func(i, j int) bool { return list[i].Layer < list[j].Layer })
	r.byPredicate[e.Name] = list

	if _, exists := r.byType[e.Type]; !exists && !e.IsMethod {
		r.byType[e.Type] = e
	}

	if e.IsMethod {
		if ns, ok := e.Namespace(); ok {
			r.methodNS[ns] = true
			r.methodOf[e.Name] = ns
		}
	}

	if e.Origin == OriginSecret && e.Layer > r.secretLayer {
		r.secretLayer = e.Layer
	}

	return nil
}

func isVectorType(t string) bool {
	_, ok := vectorSubtype(t)
	return ok
}

// FindByID is the O(1) id lookup.
func (r *Registry) FindByID(id uint32) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	return e, ok
}

// FindByPredicate returns the entry for name with the highest Layer <=
// layer (or any entry if layer == -1), per spec §4.3.
func (r *Registry) FindByPredicate(name string, layer int) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byPredicate[name]
	if len(list) == 0 {
		return nil, false
	}
	if layer == -1 {
		return list[len(list)-1], true
	}

	var best *Entry
	for _, e := range list {
		if e.Layer <= layer {
			best = e
		}
	}
	if best == nil {
		// no entry at or below the requested layer; fall back to the
		// lowest-layer entry rather than failing the lookup outright.
		return list[0], true
	}
	return best, true
}

// FindByType returns any constructor whose declared Type equals t, used
// for %T bare-encoding discipline.
func (r *Registry) FindByType(t string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byType[t]
	return e, ok
}

// MethodNamespaces returns all "ns" prefixes observed across dotted method
// names, e.g. "messages", "account", "auth".
func (r *Registry) MethodNamespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.methodNS))
	for ns := range r.methodNS {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// NamespaceOf returns the namespace of a dotted method name.
func (r *Registry) NamespaceOf(method string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns, ok := r.methodOf[method]
	return ns, ok
}

// SecretLayer returns the highest layer seen among secret-origin entries.
func (r *Registry) SecretLayer() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.secretLayer
}

// Len reports the number of distinct ids registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
