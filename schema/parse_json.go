package schema

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// jsonParam mirrors the JSON bundle's param shape: {name, type}.
type jsonParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type jsonEntry struct {
	Predicate string      `json:"predicate,omitempty"`
	Method    string      `json:"method,omitempty"`
	ID        json.Number `json:"id"`
	Type      string      `json:"type"`
	Params    []jsonParam `json:"params"`
	Layer     *int        `json:"layer,omitempty"`
}

type jsonBundle struct {
	Constructors []jsonEntry `json:"constructors"`
	Methods      []jsonEntry `json:"methods"`
}

// ParseJSON parses the JSON schema form (spec §4.2a): arrays `methods` and
// `constructors`, ids already numeric, packed as signed little-endian
// int32 on the wire.
func ParseJSON(data []byte, origin Origin) ([]*Entry, error) {
	var bundle jsonBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("tl schema: parse json bundle: %w", err)
	}

	var entries []*Entry
	for _, je := range bundle.Constructors {
		e, err := jsonEntryToEntry(je, origin, false)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	for _, je := range bundle.Methods {
		e, err := jsonEntryToEntry(je, origin, true)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func jsonEntryToEntry(je jsonEntry, origin Origin, isMethod bool) (*Entry, error) {
	name := je.Predicate
	if isMethod {
		name = je.Method
	}
	if name == "" {
		return nil, fmt.Errorf("tl schema: json entry missing name: %w", ErrMissingName)
	}

	idInt, err := je.ID.Int64()
	if err != nil {
		return nil, fmt.Errorf("tl schema: json entry %q: bad id %q: %w", name, je.ID, err)
	}

	var idBuf [4]byte
	binary.LittleEndian.PutUint32(idBuf[:], uint32(int32(idInt)))

	layer := -1
	if je.Layer != nil {
		layer = *je.Layer
	}

	params := make([]Param, 0, len(je.Params))
	for _, jp := range je.Params {
		p := Param{Name: jp.Name, Type: jp.Type}
		if ref, ok := parseFlagType(jp.Type); ok {
			p.Type = ref.innerType
			p.Flag = ref.flagsParam
			p.Pow = uint32(1) << ref.bit
		}
		if inner, ok := vectorSubtype(p.Type); ok {
			p.Subtype = inner
		}
		params = append(params, p)
	}

	return &Entry{
		Name:     name,
		ID:       idBuf,
		Type:     je.Type,
		Layer:    layer,
		Params:   params,
		Origin:   origin,
		IsMethod: isMethod,
	}, nil
}
