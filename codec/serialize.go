package codec

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/coreproto/tl/schema"
	"github.com/coreproto/tl/tl"
)

// Serialize is the C5 entry point: given a type-context and value, produce
// wire bytes (spec §4.5 "serialize(typeCtx, value, paramName, layer=-1) ->
// bytes").
func (c *Codec) Serialize(ctx TypeCtx, value tl.Value, paramName string) ([]byte, error) {
	layer := ctx.Layer
	if layer == 0 {
		layer = -1
	}
	return c.serialize(TypeCtx{Type: ctx.Type, Subtype: ctx.Subtype, Layer: layer}, value, paramName, layer)
}

func (c *Codec) serialize(ctx TypeCtx, value tl.Value, paramName string, layer int) ([]byte, error) {
	t := ctx.Type

	switch t {
	case "int", "#":
		n, err := intFromValue(value)
		if err != nil {
			return nil, fmt.Errorf("tl codec: serialize %s: %w", paramName, err)
		}
		return tl.EncodeInt32(n), nil

	case "long":
		n, err := longFromValue(value)
		if err != nil {
			return nil, fmt.Errorf("tl codec: serialize %s: %w", paramName, err)
		}
		return tl.EncodeLong(n), nil

	case "double":
		f, ok := value.AsDouble()
		if !ok {
			return nil, fmt.Errorf("tl codec: serialize %s: %w", paramName, tl.ErrNotNumeric)
		}
		return tl.EncodeDouble(f), nil

	case "int128", "int256", "int512":
		b, ok := value.AsBytes()
		if !ok {
			return nil, fmt.Errorf("tl codec: serialize %s: %w", paramName, tl.ErrNotString)
		}
		return tl.EncodeBlob(t, b)

	case "string":
		s, ok := value.AsString()
		if !ok {
			if b, okb := value.AsBytes(); okb {
				s = string(b)
			} else {
				return nil, fmt.Errorf("tl codec: serialize %s: %w", paramName, tl.ErrNotString)
			}
		}
		return tl.EncodeStringFraming([]byte(s)), nil

	case "bytes":
		b, ok := value.AsBytes()
		if !ok {
			if s, oks := value.AsString(); oks {
				b = []byte(s)
			} else {
				return nil, fmt.Errorf("tl codec: serialize %s: %w", paramName, tl.ErrNotString)
			}
		}
		return tl.EncodeStringFraming(b), nil

	case "Bool":
		bv, ok := value.AsBool()
		if !ok {
			bv = value.Truthy()
		}
		id := boolFalseID
		if bv {
			id = boolTrueID
		}
		return encodeID(id), nil

	case "true":
		return []byte{}, nil

	case "Object":
		if b, ok := value.AsBytes(); ok {
			return b, nil
		}
		return c.serializeComposite(ctx, value, paramName, layer)
	}

	if strings.HasPrefix(t, "!") {
		b, ok := value.AsBytes()
		if !ok {
			return nil, fmt.Errorf("tl codec: serialize %s: %w", paramName, tl.ErrNotString)
		}
		return b, nil
	}

	if ctx.Subtype != "" {
		return c.serializeVector(ctx, value, paramName, layer, isBoxedVectorType(t))
	}

	return c.serializeComposite(ctx, value, paramName, layer)
}

func encodeID(id uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, id)
	return buf
}

func intFromValue(v tl.Value) (int32, error) {
	if n, ok := v.AsInt(); ok {
		return n, nil
	}
	if n, ok := v.AsLong(); ok {
		return int32(n), nil
	}
	if b, ok := v.AsBool(); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, tl.ErrNotNumeric
}

func longFromValue(v tl.Value) (int64, error) {
	if n, ok := v.AsLong(); ok {
		return n, nil
	}
	if n, ok := v.AsInt(); ok {
		return int64(n), nil
	}
	if b, ok := v.AsBytes(); ok {
		return tl.NormalizeLong(b)
	}
	return 0, tl.ErrNotNumeric
}

// serializeVector emits a Vector/vector param: boxed vectors carry the
// `vector` constructor id ahead of the count (spec §4.5).
func (c *Codec) serializeVector(ctx TypeCtx, value tl.Value, paramName string, layer int, boxed bool) ([]byte, error) {
	elems, ok := value.AsVector()
	if !ok {
		return nil, fmt.Errorf("tl codec: serialize %s: %w", paramName, tl.ErrArrayRequired)
	}

	var out []byte
	if boxed {
		out = append(out, encodeID(vectorConstructorID)...)
	}
	out = append(out, tl.EncodeInt32(int32(len(elems)))...)

	elemCtx := TypeCtx{Type: ctx.Subtype, Layer: layer}
	for i, el := range elems {
		b, err := c.serialize(elemCtx, el, fmt.Sprintf("%s[%d]", paramName, i), layer)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// serializeComposite implements the "Composite dispatch" algorithm of spec
// §4.5.
func (c *Codec) serializeComposite(ctx TypeCtx, value tl.Value, paramName string, layer int) ([]byte, error) {
	targetType := ctx.Type
	forceBare := false
	if strings.HasPrefix(targetType, "%") {
		forceBare = true
		targetType = targetType[1:]
	}

	if !c.predicateMatchesType(value.Predicate(), targetType, layer) {
		if hook, ok := c.Callbacks.TypeMismatch(targetType); ok {
			coerced, err := hook(targetType, value)
			if err != nil {
				return nil, fmt.Errorf("tl codec: type-mismatch hook for %s: %w", targetType, err)
			}
			value = coerced
		}
	}

	if value.Predicate() == "" {
		if e, ok := c.Registry.FindByType(targetType); ok {
			rec := tl.NewRecord(e.Name)
			if existing, ok := value.AsRecord(); ok {
				for _, name := range existing.Order() {
					v, _ := existing.Get(name)
					rec.Set(name, v)
				}
			}
			value = tl.Rec(rec)
		}
	}

	predicate := value.Predicate()
	if predicate == "" {
		return nil, fmt.Errorf("tl codec: serialize %s: value has no predicate and %s has no unique representative constructor: %w", paramName, targetType, tl.ErrBadPredicate)
	}

	// messageEntityMentionName is remapped to inputMessageEntityMentionName
	// on serialize (spec §4.5 "Special constructor rewrite").
	if predicate == "messageEntityMentionName" {
		predicate = "inputMessageEntityMentionName"
		if rec, ok := value.AsRecord(); ok {
			rec.Predicate = predicate
		}
	}

	entry, ok := c.Registry.FindByPredicate(predicate, layer)
	if !ok {
		return nil, fmt.Errorf("tl codec: serialize %s: unknown predicate %q: %w", paramName, predicate, tl.ErrBadPredicate)
	}

	if hook, ok := c.Callbacks.ConstructorSerialize(predicate); ok {
		replaced, err := hook(value)
		if err != nil {
			return nil, fmt.Errorf("tl codec: constructor-serialize hook for %s: %w", predicate, err)
		}
		value = replaced
	}

	rec, ok := value.AsRecord()
	if !ok {
		return nil, fmt.Errorf("tl codec: serialize %s: value for %s is not a record: %w", paramName, predicate, tl.ErrBadPredicate)
	}

	bare := forceBare || predicate == targetType

	var out []byte
	if !bare {
		out = append(out, entry.ID[:]...)
	}

	body, err := c.serializeParams(entry, rec, layer)
	if err != nil {
		return nil, err
	}
	out = append(out, body...)
	return out, nil
}

// predicateMatchesType reports whether predicate's declared result type is
// targetType, or predicate itself equals targetType (the bare %T-equals-
// predicate case).
func (c *Codec) predicateMatchesType(predicate, targetType string, layer int) bool {
	if predicate == "" {
		return false
	}
	if predicate == targetType {
		return true
	}
	e, ok := c.Registry.FindByPredicate(predicate, layer)
	if !ok {
		return false
	}
	return e.Type == targetType
}

// serializeParams implements the two-pass protocol of spec §4.5
// "serializeParams protocol".
func (c *Codec) serializeParams(entry *schema.Entry, rec *tl.Record, layer int) ([]byte, error) {
	args := rec.Clone()

	// Pass 1: flag computation.
	for _, p := range entry.Params {
		if !p.IsFlagGated() {
			continue
		}
		v, present := args.Get(p.Name)

		var bitSet bool
		switch p.Type {
		case "true", "Bool":
			bitSet = present && v.Truthy()
		default:
			bitSet = present && !v.IsNull()
		}

		flagsVal, _ := args.Get(p.Flag)
		flagsInt, _ := flagsVal.AsInt()
		if bitSet {
			flagsInt |= int32(p.Pow)
		} else {
			flagsInt &^= int32(p.Pow)
		}
		args.Set(p.Flag, tl.Int(flagsInt))

		if !bitSet && (p.Type == "true" || p.Type == "Bool") {
			args.Delete(p.Name)
		}
	}

	// Pass 2: emission.
	var out []byte
	for _, p := range entry.Params {
		if p.IsFlagGated() {
			flagsVal, _ := args.Get(p.Flag)
			flagsInt, _ := flagsVal.AsInt()
			if flagsInt&int32(p.Pow) == 0 {
				continue
			}
		}

		v, present := args.Get(p.Name)
		if !present {
			def, err := c.resolveDefault(p, entry, args)
			if err != nil {
				return nil, err
			}
			v = def
			args.Set(p.Name, v)
		}

		if isDataJSONType(p.Type) {
			wrapped, err := wrapDataJSON(v)
			if err != nil {
				return nil, fmt.Errorf("tl codec: serialize %s.%s: %w", entry.Name, p.Name, err)
			}
			v = wrapped
		}

		b, err := c.serialize(TypeCtx{Type: p.Type, Subtype: p.Subtype, Layer: layer}, v, p.Name, layer)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}

	return out, nil
}

func isDataJSONType(t string) bool {
	return t == "DataJSON" || t == "%DataJSON"
}
