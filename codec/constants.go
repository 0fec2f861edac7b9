package codec

import "github.com/coreproto/tl/schema"

// boolTrueID/boolFalseID are computed through the same normalize+crc32
// pipeline as every other constructor id, so Bool encoding stays
// internally self-consistent with the rest of the registry (spec §4.5
// "Bool -> constructor id of boolTrue / boolFalse").
var (
	boolTrueID  = schema.ComputeID(schema.NormalizeSignature("boolTrue = Bool;", schema.OriginMTProto))
	boolFalseID = schema.ComputeID(schema.NormalizeSignature("boolFalse = Bool;", schema.OriginMTProto))
)

// vectorConstructorID is the `vector` constructor id. The schema loader
// intentionally never registers "vector" as an ordinary Entry (see
// schema.ParseTL's handling of the generic "{t:Type} # [ t ] = Vector t"
// declaration form), since Vector/vector framing is hard-coded in the
// codec per spec §4.5/§4.6 rather than schema-driven; this constant fills
// the gap left by that decision.
const vectorConstructorID uint32 = 0x1cb5c415
