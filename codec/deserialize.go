package codec

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/coreproto/tl/callback"
	"github.com/coreproto/tl/schema"
	"github.com/coreproto/tl/tl"
)

// rawLongNames carries the special-name coercion list of spec §4.6 step 5:
// fields that wire-decode as `long` but are kept as raw 8-byte values
// rather than host integers, because they are opaque correlation ids, not
// arithmetic quantities.
var rawLongNames = map[string]bool{
	"msg_id": true, "req_msg_id": true, "bad_msg_id": true,
	"answer_msg_id": true, "first_msg_id": true, "server_salt": true,
	"new_server_salt": true, "ping_id": true, "key_fingerprint": true,
	"exchange_id": true,
}

// stringTransportNames decode as `string` regardless of their declared
// wire type (spec §4.6 step 5 "certain 'string' transports").
var stringTransportNames = map[string]bool{
	"peer_tag": true, "file_token": true, "cdn_key": true, "cdn_iv": true,
}

// Deserialize is the C6 entry point (spec §4.6 "deserialize(stream,
// expectedTypeCtx) -> (value, asyncHooks[])").
func (c *Codec) Deserialize(buf []byte, ctx TypeCtx) (tl.Value, []callback.AsyncHook, int, error) {
	cur := NewCursor(buf)
	v, hooks, err := c.deserialize(cur, ctx)
	return v, hooks, cur.Pos(), err
}

// GetLength parses buf against ctx without the caller needing the decoded
// value, returning only the number of bytes the encoding consumed (spec
// §4.6 "getLength(stream, type) parses without materializing").
func (c *Codec) GetLength(buf []byte, ctx TypeCtx) (int, error) {
	cur := NewCursor(buf)
	if _, _, err := c.deserialize(cur, ctx); err != nil {
		return 0, err
	}
	return cur.Pos(), nil
}

func (c *Codec) deserialize(cur *Cursor, ctx TypeCtx) (tl.Value, []callback.AsyncHook, error) {
	switch ctx.Type {
	case "int", "#":
		b, err := cur.take(4)
		if err != nil {
			return tl.Value{}, nil, err
		}
		n, _ := tl.DecodeInt32(b)
		return tl.Int(n), nil, nil

	case "long":
		b, err := cur.take(8)
		if err != nil {
			return tl.Value{}, nil, err
		}
		n, _ := tl.DecodeLong(b)
		return tl.Long(n), nil, nil

	case "double":
		b, err := cur.take(8)
		if err != nil {
			return tl.Value{}, nil, err
		}
		f, _ := tl.DecodeDouble(b)
		return tl.Double(f), nil, nil

	case "int128", "int256", "int512":
		width := map[string]int{"int128": 16, "int256": 32, "int512": 64}[ctx.Type]
		b, err := cur.take(width)
		if err != nil {
			return tl.Value{}, nil, err
		}
		return tl.Bytes(append([]byte(nil), b...)), nil, nil

	case "string":
		payload, consumed, err := tl.DecodeStringFraming(cur.remaining())
		if err != nil {
			return tl.Value{}, nil, err
		}
		cur.advance(consumed)
		return tl.Str(string(payload)), nil, nil

	case "bytes":
		payload, consumed, err := tl.DecodeStringFraming(cur.remaining())
		if err != nil {
			return tl.Value{}, nil, err
		}
		cur.advance(consumed)
		return tl.Bytes(payload), nil, nil

	case "Bool":
		b, err := cur.take(4)
		if err != nil {
			return tl.Value{}, nil, err
		}
		id := binary.LittleEndian.Uint32(b)
		switch id {
		case boolTrueID:
			return tl.Bool(true), nil, nil
		case boolFalseID:
			return tl.Bool(false), nil, nil
		}
		return tl.Value{}, nil, fmt.Errorf("tl codec: deserialize Bool: unexpected id %08x: %w", id, tl.ErrBadPredicate)

	case "true":
		return tl.Bool(true), nil, nil

	case "Object":
		return c.deserializeDiscovery(cur, ctx.Layer)

	case "":
		return c.deserializeDiscovery(cur, ctx.Layer)
	}

	if strings.HasPrefix(ctx.Type, "!") {
		rest := cur.remaining()
		cur.advance(len(rest))
		return tl.Bytes(append([]byte(nil), rest...)), nil, nil
	}

	if ctx.Subtype != "" {
		if isBoxedVectorType(ctx.Type) {
			return c.deserializeBoxedVector(cur, ctx)
		}
		return c.decodeVectorBody(cur, ctx.Subtype, ctx.Layer)
	}

	if strings.HasPrefix(ctx.Type, "%") {
		targetType := ctx.Type[1:]
		entry, ok := c.Registry.FindByType(targetType)
		if !ok {
			return tl.Value{}, nil, fmt.Errorf("tl codec: deserialize %%%s: no representative constructor: %w", targetType, tl.ErrBadPredicate)
		}
		return c.decodeEntry(cur, entry, ctx.Layer)
	}

	return c.deserializeBoxedNamed(cur, ctx)
}

// deserializeDiscovery implements "discovery mode" (spec §4.6): read a
// 4-byte id; a constructor match decodes normally, a method match
// synthesizes a method_<name> predicate, anything else fails.
func (c *Codec) deserializeDiscovery(cur *Cursor, layer int) (tl.Value, []callback.AsyncHook, error) {
	idBytes, err := cur.take(4)
	if err != nil {
		return tl.Value{}, nil, err
	}
	id := binary.LittleEndian.Uint32(idBytes)

	switch id {
	case vectorConstructorID:
		return c.decodeVectorBody(cur, "", layer)
	case boolTrueID:
		return tl.Bool(true), nil, nil
	case boolFalseID:
		return tl.Bool(false), nil, nil
	}

	entry, ok := c.Registry.FindByID(id)
	if !ok {
		return tl.Value{}, nil, fmt.Errorf("tl codec: deserialize: unknown constructor id %08x: %w", id, tl.ErrUnknownCtor)
	}

	if entry.Name == "gzip_packed" {
		return c.decodeGzipPacked(cur, layer)
	}
	if entry.IsMethod {
		entry = syntheticMethodEntry(entry)
	}
	return c.decodeEntry(cur, entry, layer)
}

// deserializeBoxedNamed reads a constructor id expected to decode a named
// (non-vector) composite field and resolves it strictly by id, the way
// MTProto framing actually works: the declared field type documents the
// expected shape, but the wire id alone determines which constructor was
// sent.
func (c *Codec) deserializeBoxedNamed(cur *Cursor, ctx TypeCtx) (tl.Value, []callback.AsyncHook, error) {
	idBytes, err := cur.take(4)
	if err != nil {
		return tl.Value{}, nil, err
	}
	id := binary.LittleEndian.Uint32(idBytes)

	switch id {
	case boolTrueID:
		return tl.Bool(true), nil, nil
	case boolFalseID:
		return tl.Bool(false), nil, nil
	}

	entry, ok := c.Registry.FindByID(id)
	if !ok {
		return tl.Value{}, nil, fmt.Errorf("tl codec: deserialize %s: unknown constructor id %08x: %w", ctx.Type, id, tl.ErrUnknownCtor)
	}

	if entry.Name == "gzip_packed" {
		return c.decodeGzipPacked(cur, ctx.Layer)
	}
	return c.decodeEntry(cur, entry, ctx.Layer)
}

// deserializeBoxedVector implements the boxed `Vector t` dispatch (spec
// §4.6): read id; gzip_packed unwraps and recurses; the `vector` id reads
// count+elements; anything else fails.
func (c *Codec) deserializeBoxedVector(cur *Cursor, ctx TypeCtx) (tl.Value, []callback.AsyncHook, error) {
	idBytes, err := cur.take(4)
	if err != nil {
		return tl.Value{}, nil, err
	}
	id := binary.LittleEndian.Uint32(idBytes)

	if id == vectorConstructorID {
		return c.decodeVectorBody(cur, ctx.Subtype, ctx.Layer)
	}

	if entry, ok := c.Registry.FindByID(id); ok && entry.Name == "gzip_packed" {
		return c.decodeGzipPacked(cur, ctx.Layer)
	}

	return tl.Value{}, nil, fmt.Errorf("tl codec: deserialize Vector<%s>: unexpected constructor id %08x: %w", ctx.Subtype, id, tl.ErrInvalidVector)
}

// decodeVectorBody reads the length-prefixed element sequence shared by
// boxed and bare vectors, once the leading `vector` id (if any) has
// already been consumed.
func (c *Codec) decodeVectorBody(cur *Cursor, subtype string, layer int) (tl.Value, []callback.AsyncHook, error) {
	countBytes, err := cur.take(4)
	if err != nil {
		return tl.Value{}, nil, err
	}
	count := int(binary.LittleEndian.Uint32(countBytes))
	if count < 0 || count > len(cur.remaining())*8+64 {
		return tl.Value{}, nil, fmt.Errorf("tl codec: deserialize vector: implausible element count %d: %w", count, tl.ErrInvalidVector)
	}

	elemCtx := TypeCtx{Type: subtype, Layer: layer}
	elems := make([]tl.Value, 0, count)
	var hooks []callback.AsyncHook
	for i := 0; i < count; i++ {
		v, sub, err := c.deserialize(cur, elemCtx)
		if err != nil {
			return tl.Value{}, nil, fmt.Errorf("tl codec: deserialize vector element %d: %w", i, err)
		}
		elems = append(elems, v)
		hooks = append(hooks, sub...)
	}
	return tl.Vec(elems), hooks, nil
}

// decodeGzipPacked implements spec §4.6 "If predicate is gzip_packed,
// decompress and recurse": the sole field, packed_data:bytes, has already
// had its id consumed by the caller, so we read the bytes framing directly
// and re-enter deserialize in discovery mode over the decompressed payload.
func (c *Codec) decodeGzipPacked(cur *Cursor, layer int) (tl.Value, []callback.AsyncHook, error) {
	packed, consumed, err := tl.DecodeStringFraming(cur.remaining())
	if err != nil {
		return tl.Value{}, nil, fmt.Errorf("tl codec: deserialize gzip_packed: %w", err)
	}
	cur.advance(consumed)

	decompressed, err := gunzip(packed)
	if err != nil {
		return tl.Value{}, nil, err
	}

	inner := NewCursor(decompressed)
	return c.deserialize(inner, TypeCtx{Type: "", Layer: layer})
}

func syntheticMethodEntry(e *schema.Entry) *schema.Entry {
	return &schema.Entry{
		Name:   "method_" + e.Name,
		ID:     e.ID,
		Type:   e.Type,
		Layer:  e.Layer,
		Params: e.Params,
		Origin: e.Origin,
	}
}

// decodeEntry implements the composite-decode algorithm, spec §4.6 steps
// 3-8, once a concrete schema.Entry has been resolved (by id, or by bare
// %T lookup).
func (c *Codec) decodeEntry(cur *Cursor, entry *schema.Entry, layer int) (tl.Value, []callback.AsyncHook, error) {
	if entry.Name == "boolTrue" {
		return tl.Bool(true), nil, nil
	}
	if entry.Name == "boolFalse" {
		return tl.Bool(false), nil, nil
	}

	for _, fn := range c.Callbacks.ConstructorBefore(entry.Name) {
		if err := fn(entry.Name); err != nil {
			return tl.Value{}, nil, fmt.Errorf("tl codec: constructor-before hook for %s: %w", entry.Name, err)
		}
	}

	rec := tl.NewRecord(entry.Name)
	flagsSeen := map[string]int32{}
	var hooks []callback.AsyncHook
	methodName := ""

	for _, p := range entry.Params {
		if p.IsFlagGated() {
			if flagsSeen[p.Flag]&int32(p.Pow) == 0 {
				switch p.Type {
				case "true", "Bool":
					rec.Set(p.Name, tl.Bool(false))
				}
				continue
			}
		}

		elemCtx := TypeCtx{Type: p.Type, Subtype: p.Subtype, Layer: layer}

		if entry.Name == "rpc_result" && p.Name == "result" {
			methodName = c.resolveRPCResultType(rec, &elemCtx)
		}

		v, sub, err := c.deserialize(cur, elemCtx)
		if err != nil {
			return tl.Value{}, nil, fmt.Errorf("tl codec: deserialize %s.%s: %w", entry.Name, p.Name, err)
		}
		hooks = append(hooks, sub...)

		v = applySpecialNameCoercion(p.Name, p.Type, v)

		if p.Name == "random_bytes" {
			b, _ := v.AsBytes()
			if len(b) < 15 {
				return tl.Value{}, nil, fmt.Errorf("tl codec: %s.random_bytes: %w", entry.Name, tl.ErrInsecureRandom)
			}
			continue
		}

		if p.Type == "#" {
			n, _ := v.AsInt()
			flagsSeen[p.Name] = n
		}

		rec.Set(p.Name, v)
	}

	value := c.postProcessComposite(entry.Name, rec)

	switch {
	case methodName != "":
		result, _ := rec.Get("result")
		for _, fn := range c.Callbacks.Method(methodName) {
			hook, err := fn(methodName, result)
			if err != nil {
				return tl.Value{}, nil, fmt.Errorf("tl codec: method hook for %s: %w", methodName, err)
			}
			if hook != nil {
				hooks = append(hooks, hook)
			}
		}
	case entry.IsMethod:
		for _, fn := range c.Callbacks.Method(entry.Name) {
			hook, err := fn(entry.Name, value)
			if err != nil {
				return tl.Value{}, nil, fmt.Errorf("tl codec: method hook for %s: %w", entry.Name, err)
			}
			if hook != nil {
				hooks = append(hooks, hook)
			}
		}
	default:
		for _, fn := range c.Callbacks.Constructor(entry.Name) {
			hook, err := fn(value)
			if err != nil {
				return tl.Value{}, nil, fmt.Errorf("tl codec: constructor hook for %s: %w", entry.Name, err)
			}
			if hook != nil {
				hooks = append(hooks, hook)
			}
		}
	}

	if rec2, ok := value.AsRecord(); ok {
		rec2.Delete("flags")
		rec2.Delete("flags2")
	}

	return value, hooks, nil
}

// resolveRPCResultType consults the outgoing-messages lookup (spec §6,
// §4.6 step 5) keyed by the already-decoded req_msg_id to recover the
// expected return type for rpc_result's `result` param, firing
// METHOD_BEFORE along the way. On no match (or no collaborator wired) the
// result decodes generically as Object.
func (c *Codec) resolveRPCResultType(rec *tl.Record, elemCtx *TypeCtx) (methodName string) {
	if c.Collab.Outgoing == nil {
		return ""
	}
	reqVal, ok := rec.Get("req_msg_id")
	if !ok {
		return ""
	}
	reqID, ok := reqVal.AsLong()
	if !ok {
		if b, okb := reqVal.AsBytes(); okb {
			reqID, _ = tl.NormalizeLong(b)
		}
	}

	ref, ok := c.Collab.Outgoing.Lookup(reqID)
	if !ok {
		return ""
	}

	methodName = ref.Constructor()
	for _, fn := range c.Callbacks.MethodBefore(methodName) {
		_ = fn(methodName)
	}

	expected := ref.Type()
	if inner, ok := parseVectorSubtype(expected); ok {
		elemCtx.Type = expected
		elemCtx.Subtype = inner
	} else {
		elemCtx.Type = expected
	}
	return methodName
}

func applySpecialNameCoercion(name, declaredType string, v tl.Value) tl.Value {
	if rawLongNames[name] && declaredType == "long" {
		if n, ok := v.AsLong(); ok {
			return tl.Bytes(tl.EncodeLong(n))
		}
	}
	if stringTransportNames[name] {
		if b, ok := v.AsBytes(); ok {
			return tl.Str(string(b))
		}
	}
	return v
}
