package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/coreproto/tl/tl"
)

// valueToJSONAny converts a tl.Value tree into a plain Go value suitable
// for encoding/json.Marshal, used by wrapDataJSON on serialize.
func valueToJSONAny(v tl.Value) (any, error) {
	switch v.Kind() {
	case tl.KindNull:
		return nil, nil
	case tl.KindInt:
		n, _ := v.AsInt()
		return n, nil
	case tl.KindLong:
		n, _ := v.AsLong()
		return n, nil
	case tl.KindDouble:
		f, _ := v.AsDouble()
		return f, nil
	case tl.KindBool:
		b, _ := v.AsBool()
		return b, nil
	case tl.KindString:
		s, _ := v.AsString()
		return s, nil
	case tl.KindBytes:
		b, _ := v.AsBytes()
		return string(b), nil
	case tl.KindVector:
		elems, _ := v.AsVector()
		out := make([]any, len(elems))
		for i, el := range elems {
			conv, err := valueToJSONAny(el)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case tl.KindRecord:
		rec, _ := v.AsRecord()
		out := make(map[string]any, len(rec.Order()))
		for _, name := range rec.Order() {
			fv, _ := rec.Get(name)
			conv, err := valueToJSONAny(fv)
			if err != nil {
				return nil, err
			}
			out[name] = conv
		}
		return out, nil
	}
	return nil, fmt.Errorf("tl codec: value has no JSON representation: %w", tl.ErrSchemaInvalid)
}

// jsonAnyToValue is the inverse of valueToJSONAny, used to turn a parsed
// dataJSON payload back into a tl.Value tree (spec §4.6 step 6 "dataJSON ->
// parsed JSON"). Object keys become a record with an empty predicate,
// since the closed Primitive/Record union has no dedicated map kind.
func jsonAnyToValue(x any) tl.Value {
	switch t := x.(type) {
	case nil:
		return tl.Null()
	case bool:
		return tl.Bool(t)
	case float64:
		return tl.Double(t)
	case string:
		return tl.Str(t)
	case []any:
		vec := make([]tl.Value, len(t))
		for i, el := range t {
			vec[i] = jsonAnyToValue(el)
		}
		return tl.Vec(vec)
	case map[string]any:
		rec := tl.NewRecord("")
		for k, v := range t {
			rec.Set(k, jsonAnyToValue(v))
		}
		return tl.Rec(rec)
	}
	return tl.Null()
}

// wrapDataJSON implements the DataJSON/%DataJSON emission rule (spec §4.5
// "wrap value as {_:dataJSON, data: <json-encoded value>}").
func wrapDataJSON(v tl.Value) (tl.Value, error) {
	var raw any
	if !v.IsNull() {
		converted, err := valueToJSONAny(v)
		if err != nil {
			return tl.Value{}, err
		}
		raw = converted
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return tl.Value{}, fmt.Errorf("tl codec: encode dataJSON payload: %w", err)
	}

	rec := tl.NewRecord("dataJSON").Set("data", tl.Str(string(data)))
	return tl.Rec(rec), nil
}

// unwrapDataJSON parses a decoded dataJSON record's `data` string back into
// a tl.Value tree.
func unwrapDataJSON(rec *tl.Record) (tl.Value, error) {
	dataVal, ok := rec.Get("data")
	if !ok {
		return tl.Value{}, fmt.Errorf("tl codec: dataJSON missing data field: %w", tl.ErrSchemaInvalid)
	}
	s, ok := dataVal.AsString()
	if !ok {
		return tl.Value{}, fmt.Errorf("tl codec: dataJSON data field is not a string: %w", tl.ErrNotString)
	}

	var raw any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return tl.Value{}, fmt.Errorf("tl codec: parse dataJSON payload: %w", err)
	}
	return jsonAnyToValue(raw), nil
}

// jsonValueTreeName is the set of JSONValue-family predicates spec §4.6
// step 6 asks to flatten into "an idiomatic JSON tree" instead of leaving
// as tagged records.
var jsonValueTreeName = map[string]bool{
	"jsonNull": true, "jsonBool": true, "jsonNumber": true,
	"jsonString": true, "jsonArray": true, "jsonObject": true,
}

// flattenJSONValue converts a decoded JSONValue-family record into a plain
// tl.Value tree: jsonNull -> Null, jsonObject -> a field-map record,
// jsonArray -> a vector, everything else reads its `.value` field.
func flattenJSONValue(predicate string, rec *tl.Record) tl.Value {
	switch predicate {
	case "jsonNull":
		return tl.Null()
	case "jsonObject":
		valuesVal, _ := rec.Get("value")
		elems, _ := valuesVal.AsVector()
		out := tl.NewRecord("")
		for _, el := range elems {
			pairRec, ok := el.AsRecord()
			if !ok {
				continue
			}
			keyVal, _ := pairRec.Get("key")
			key, _ := keyVal.AsString()
			innerVal, _ := pairRec.Get("value")
			innerPred := innerVal.Predicate()
			if innerRec, ok := innerVal.AsRecord(); ok && jsonValueTreeName[innerPred] {
				out.Set(key, flattenJSONValue(innerPred, innerRec))
			} else {
				out.Set(key, innerVal)
			}
		}
		return tl.Rec(out)
	case "jsonArray":
		valuesVal, _ := rec.Get("value")
		elems, _ := valuesVal.AsVector()
		out := make([]tl.Value, len(elems))
		for i, el := range elems {
			pred := el.Predicate()
			if innerRec, ok := el.AsRecord(); ok && jsonValueTreeName[pred] {
				out[i] = flattenJSONValue(pred, innerRec)
			} else {
				out[i] = el
			}
		}
		return tl.Vec(out)
	default:
		v, _ := rec.Get("value")
		return v
	}
}

// stripHeader/stripFooter are the fixed JFIF header (up to the compressed
// scan data, with the low bytes of the frame height and width left zero
// at offsets 164/166) and the end-of-image marker used to inflate a
// photoStrippedSize's thumbnail bytes back into a full-sized JPEG (spec
// §4.6 step 6 "photoStrippedSize -> augment with an inflated field
// reconstructed from a fixed JPEG header/tail template").
var stripHeader = []byte{
	0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01,
	0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xff, 0xdb, 0x00, 0x43, 0x00,
	0x28, 0x1c, 0x1e, 0x23, 0x1e, 0x19, 0x28, 0x23, 0x21, 0x23, 0x2d, 0x2b, 0x28,
	0x30, 0x3c, 0x64, 0x41, 0x3c, 0x37, 0x37, 0x3c, 0x7b, 0x58, 0x5d, 0x49, 0x64,
	0x91, 0x80, 0x99, 0x96, 0x8f, 0x80, 0x8c, 0x8a, 0xa0, 0xb4, 0xe6, 0xc3, 0xa0,
	0xaa, 0xda, 0xad, 0x8a, 0x8c, 0xc8, 0xff, 0xcb, 0xda, 0xee, 0xf5, 0xff, 0xff,
	0xff, 0x9b, 0xc1, 0xff, 0xff, 0xff, 0xfa, 0xff, 0xe6, 0xfd, 0xff, 0xf8, 0xff,
	0xdb, 0x00, 0x43, 0x01, 0x2b, 0x2d, 0x2d, 0x3c, 0x35, 0x3c, 0x76, 0x41, 0x41,
	0x76, 0xf8, 0xa5, 0x8c, 0xa5, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8,
	0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8,
	0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8,
	0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8, 0xf8,
	0xf8, 0xf8, 0xf8, 0xff, 0xc0, 0x00, 0x11, 0x08, 0x00, 0x00, 0x00,
	0x00, 0x03, 0x01, 0x22, 0x00, 0x02, 0x11, 0x01, 0x03, 0x11, 0x01, 0xff, 0xc4,
	0x00, 0x1f, 0x00, 0x00, 0x01, 0x05, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
	0x07, 0x08, 0x09, 0x0a, 0x0b, 0xff, 0xda, 0x00, 0x0c, 0x03, 0x01, 0x00, 0x02,
	0x11, 0x03, 0x11, 0x00, 0x3f, 0x00,
}

var stripFooter = []byte{0xff, 0xd9}

// inflateStrippedSize reconstructs the "inflated" field spec §4.6 step 6
// adds to a decoded photoStrippedSize.
func inflateStrippedSize(stripped []byte) []byte {
	if len(stripped) < 3 || stripped[0] != 0x01 {
		return append([]byte(nil), stripped...)
	}

	header := append([]byte(nil), stripHeader...)
	// Bytes 1 and 2 of the stripped payload patch into the low bytes of
	// the frame header's height and width fields at these offsets.
	const patchLo, patchHi = 164, 166
	if patchHi < len(header) {
		header[patchLo] = stripped[1]
		header[patchHi] = stripped[2]
	}

	out := make([]byte, 0, len(header)+len(stripped)-3+len(stripFooter))
	out = append(out, header...)
	out = append(out, stripped[3:]...)
	out = append(out, stripFooter...)
	return out
}

// postProcessComposite implements spec §4.6 step 6 "Post-process well-known
// composite types" once a record has been fully decoded.
func (c *Codec) postProcessComposite(name string, rec *tl.Record) tl.Value {
	switch {
	case name == "dataJSON":
		if v, err := unwrapDataJSON(rec); err == nil {
			return v
		}
		return tl.Rec(rec)

	case jsonValueTreeName[name]:
		return flattenJSONValue(name, rec)

	case name == "photoStrippedSize":
		if bv, ok := rec.Get("bytes"); ok {
			if b, ok := bv.AsBytes(); ok {
				rec.Set("inflated", tl.Bytes(inflateStrippedSize(b)))
			}
		}
		return tl.Rec(rec)

	case name == "message":
		if rm, ok := rec.Get("reply_markup"); ok {
			rec.Set("reply_markup", wrapReplyMarkupRows(rm))
		}
		return tl.Rec(rec)

	default:
		return tl.Rec(rec)
	}
}

// wrapReplyMarkupRows implements "message with a reply_markup.rows ->
// wrap each button in a higher-level button value" (spec §4.6 step 6): the
// heterogeneous button constructors (keyboardButtonCallback,
// keyboardButtonUrl, ...) get normalized under one keyboardButton envelope
// carrying the original as its `button` field.
func wrapReplyMarkupRows(markup tl.Value) tl.Value {
	rec, ok := markup.AsRecord()
	if !ok {
		return markup
	}
	rowsVal, ok := rec.Get("rows")
	if !ok {
		return markup
	}
	rows, ok := rowsVal.AsVector()
	if !ok {
		return markup
	}

	newRows := make([]tl.Value, len(rows))
	for i, row := range rows {
		newRows[i] = wrapButtonRow(row)
	}
	rec.Set("rows", tl.Vec(newRows))
	return tl.Rec(rec)
}

func wrapButtonRow(row tl.Value) tl.Value {
	rowRec, ok := row.AsRecord()
	if !ok {
		return row
	}
	buttonsVal, ok := rowRec.Get("buttons")
	if !ok {
		return row
	}
	buttons, ok := buttonsVal.AsVector()
	if !ok {
		return row
	}

	wrapped := make([]tl.Value, len(buttons))
	for i, btn := range buttons {
		wrapped[i] = wrapButton(btn)
	}
	rowRec.Set("buttons", tl.Vec(wrapped))
	return tl.Rec(rowRec)
}

func wrapButton(btn tl.Value) tl.Value {
	if _, ok := btn.AsRecord(); !ok {
		return btn
	}
	wrapper := tl.NewRecord("keyboardButton")
	wrapper.Set("button", btn)
	return tl.Rec(wrapper)
}

// gunzip decompresses a gzip_packed envelope's payload (spec §4.6 "If
// gzip_packed, recursively deserialize a bytes, ungzip, and deserialize the
// decompressed payload with type='' (discovery mode)").
func gunzip(compressed []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("tl codec: open gzip_packed payload: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tl codec: read gzip_packed payload: %w", err)
	}
	return out, nil
}
