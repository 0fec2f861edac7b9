// Package codec implements the serializer (C5) and deserializer (C6):
// schema-directed (de)serialization of tl.Value trees to/from MTProto wire
// bytes, including flags, vectors, bare/boxed discipline, and the five (six)
// hook categories.
package codec

// TypeCtx is the "expected type" context threaded through Serialize and
// Deserialize (spec §4.5/§4.6 "given a type-context and value/stream").
type TypeCtx struct {
	// Type is the textual type: a primitive name, "Vector"/"vector" for
	// boxed/bare vectors (see Subtype), "%Predicate" for forced-bare
	// composite types, or a bare predicate/type name.
	Type string

	// Subtype is the element type for vector TypeCtx values.
	Subtype string

	// Layer selects which schema generation's predicate to resolve
	// against; -1 means "any".
	Layer int
}
