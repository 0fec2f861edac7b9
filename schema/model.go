// Package schema loads TL schema declarations (textual .tl or pre-parsed
// JSON) and builds the constructor/method registry described by spec §3-§4.
package schema

// Origin labels which schema file a declaration came from.
type Origin string

const (
	OriginAPI     Origin = "api"
	OriginMTProto Origin = "mtproto"
	OriginSecret  Origin = "secret"
	OriginTD      Origin = "td"
)

// Param is one parameter descriptor of a schema Entry.
type Param struct {
	Name string
	Type string

	// Flag/Pow are set when this param is gated by a sibling bitfield:
	// Flag names the sibling `#`/int param, Pow is the bit mask 1<<N.
	Flag string
	Pow  uint32

	// Subtype holds the element type for Vector params.
	Subtype string
}

// IsFlagGated reports whether this param is only present when a bit in its
// sibling flags field is set.
func (p Param) IsFlagGated() bool { return p.Flag != "" }

// Entry is a constructor or method declaration, shared data model for both
// (spec §3 "Schema entry (shared by constructors and methods)").
type Entry struct {
	// Name is the predicate (constructors) or method name (methods),
	// dotted for namespaced methods (e.g. "messages.getHistory").
	Name string

	// ID is the 32-bit identifier, as declared or computed, in its
	// little-endian on-wire byte form.
	ID [4]byte

	// Type is the return/result type name.
	Type string

	// Layer is the schema generation this declaration first appeared in.
	// -1 means "any" (unversioned).
	Layer int

	Params []Param

	Origin Origin

	// IsMethod distinguishes methods from constructors; both share this
	// Entry shape, but only methods participate in the method-namespace
	// index.
	IsMethod bool

	// Description carries the accumulated //@description directive text
	// that preceded this declaration in a textual .tl source, if any.
	Description string

	// mismatchedComputedID is set by the parser when a declared hex id
	// does not match crc32(normalizedSignature(entry)); the loader logs
	// it (invariant 1) without treating it as fatal.
	mismatchedComputedID *uint32
}

// Predicate is an Entry.Name alias for constructor entries; methods use the
// same field under the name "method" in spec prose, but there is only one
// Go field to avoid duplicating storage.
func (e *Entry) Predicate() string { return e.Name }

// Namespace returns the "ns" part of a dotted method name "ns.method", or
// "" if the method name carries no namespace.
func (e *Entry) Namespace() (string, bool) {
	if !e.IsMethod {
		return "", false
	}
	for i := len(e.Name) - 1; i >= 0; i-- {
		if e.Name[i] == '.' {
			return e.Name[:i], true
		}
	}
	return "", false
}
