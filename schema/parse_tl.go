package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// primitiveResultTypes are the §4.1 primitive types; a declaration whose
// result type is one of these (e.g. "int ? = Int;") is a scheme-file
// passthrough declaration and is ignored rather than registered, per
// spec §4.2 "Ignore declarations of primitive types listed in §4.1."
var primitiveResultTypes = map[string]bool{
	"Int": true, "Long": true, "Double": true, "String": true,
	"Bytes": true, "Int128": true, "Int256": true, "Int512": true,
}

// flagRef is a parsed "flags.N?Type" or "flags2.N?Type" param type.
type flagRef struct {
	flagsParam string
	bit        int
	innerType  string
}

// ParseTL parses a textual TL schema document (spec §4.2) into a flat list
// of Entry, tracking section markers (---functions---/---types---) and
// layer markers (===N===).
func ParseTL(source string, origin Origin) ([]*Entry, error) {
	lines := strings.Split(source, "\n")

	var (
		entries     []*Entry
		isMethod    bool
		layer       = -1
		pendingDesc strings.Builder
		accum       strings.Builder
	)

	flushDecl := func() error {
		decl := strings.TrimSpace(accum.String())
		accum.Reset()
		desc := strings.TrimSpace(pendingDesc.String())
		pendingDesc.Reset()

		if decl == "" {
			return nil
		}

		entry, skip, err := parseDeclaration(decl, origin, layer, isMethod)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}
		entry.Description = desc
		entries = append(entries, entry)
		return nil
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		switch {
		case line == "":
			continue
		case line == "---functions---":
			if err := flushDecl(); err != nil {
				return nil, err
			}
			isMethod = true
			continue
		case line == "---types---":
			if err := flushDecl(); err != nil {
				return nil, err
			}
			isMethod = false
			continue
		case isLayerMarker(line):
			if err := flushDecl(); err != nil {
				return nil, err
			}
			n, _ := strconv.Atoi(strings.Trim(line, "="))
			layer = n
			continue
		case strings.HasPrefix(line, "//@"):
			// directive line: //@key value, attaches to the next declaration.
			pendingDesc.WriteString(strings.TrimPrefix(line, "//@"))
			pendingDesc.WriteByte('\n')
			continue
		case strings.HasPrefix(line, "//"):
			// plain comment, not a directive: ignored entirely.
			continue
		case strings.Contains(line, "?="):
			// "... ?= ..." lines are retained as silent no-ops for
			// bug-compatibility with the source parser (spec §9 open
			// question).
			continue
		}

		accum.WriteByte(' ')
		accum.WriteString(line)

		if strings.Contains(line, ";") {
			if err := flushDecl(); err != nil {
				return nil, err
			}
		}
	}

	if err := flushDecl(); err != nil {
		return nil, err
	}

	return entries, nil
}

func isLayerMarker(line string) bool {
	if len(line) < 5 || !strings.HasPrefix(line, "===") || !strings.HasSuffix(line, "===") {
		return false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(line, "==="), "===")
	inner = strings.Trim(inner, "=")
	_, err := strconv.Atoi(inner)
	return err == nil
}

// parseDeclaration parses one accumulated declaration (possibly spanning
// several source lines, already joined with spaces) of the form:
//
//	name[#hexid] {generic-args} param:Type ... = ResultType;
func parseDeclaration(decl string, origin Origin, layer int, isMethod bool) (*Entry, bool, error) {
	decl = strings.TrimSuffix(strings.TrimSpace(decl), ";")

	eqIdx := strings.LastIndex(decl, "=")
	if eqIdx < 0 {
		return nil, false, fmt.Errorf("tl schema: declaration without '=': %q: %w", decl, ErrNoResultType)
	}

	left := strings.TrimSpace(decl[:eqIdx])
	resultType := strings.TrimSpace(decl[eqIdx+1:])

	if primitiveResultTypes[resultType] {
		return nil, true, nil
	}

	fields := splitTopLevel(left)
	if len(fields) == 0 {
		return nil, false, fmt.Errorf("tl schema: empty declaration left side: %q: %w", decl, ErrNoResultType)
	}

	head := fields[0]
	name := head
	var declaredID *uint32
	if hashIdx := strings.IndexByte(head, '#'); hashIdx >= 0 {
		name = head[:hashIdx]
		hexID := head[hashIdx+1:]
		id64, err := strconv.ParseUint(hexID, 16, 32)
		if err != nil {
			return nil, false, fmt.Errorf("tl schema: bad hex id %q in %q: %w", hexID, decl, err)
		}
		id32 := uint32(id64)
		declaredID = &id32
	}

	// "vector" and bare-primitive special forms (generic {t:Type} / "#
	// [ t ]" vector syntax) are hard-coded in the codec, not
	// schema-driven; skip registering them as ordinary entries.
	if name == "vector" {
		return nil, true, nil
	}

	params, err := parseParams(fields[1:])
	if err != nil {
		return nil, false, fmt.Errorf("tl schema: %q: %w", decl, err)
	}

	entry := &Entry{
		Name:     name,
		Type:     resultType,
		Layer:    layer,
		Params:   params,
		Origin:   origin,
		IsMethod: isMethod,
	}

	normalized := NormalizeSignature(decl+";", origin)
	computed := ComputeID(normalized)

	if declaredID != nil {
		entry.ID = IDBytes(*declaredID)
		if *declaredID != computed {
			// Invariant 1: mismatches are logged by the caller (which
			// has the injected logger), not fatal here. ParseTL has no
			// logger reference, so it reports the mismatch back via the
			// returned entry for the loader to log.
			entry.mismatchedComputedID = &computed
		}
	} else {
		entry.ID = IDBytes(computed)
	}

	return entry, false, nil
}

// parseParams parses the "param:Type" tokens of a declaration, dropping
// "{X:Type}" generic-argument introducers and compiling flag-gated params
// per spec §4.2 "Parameter compilation".
func parseParams(tokens []string) ([]Param, error) {
	var params []Param

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "{") {
			// generic introducer "{X:Type}": dropped entirely.
			continue
		}

		colonIdx := strings.IndexByte(tok, ':')
		if colonIdx < 0 {
			return nil, fmt.Errorf("param %q has no ':': %w", tok, ErrSchemaInvalidParam)
		}
		name := tok[:colonIdx]
		typ := tok[colonIdx+1:]

		if typ == "#" {
			// bitfield declaration parameter, e.g. "flags:#".
			params = append(params, Param{Name: name, Type: "#"})
			continue
		}

		if ref, ok := parseFlagType(typ); ok {
			p := Param{
				Name: name,
				Type: ref.innerType,
				Flag: ref.flagsParam,
				Pow:  uint32(1) << ref.bit,
			}
			if inner, ok := vectorSubtype(ref.innerType); ok {
				p.Subtype = inner
			}
			params = append(params, p)
			continue
		}

		p := Param{Name: name, Type: typ}
		if inner, ok := vectorSubtype(typ); ok {
			p.Subtype = inner
		}
		params = append(params, p)
	}

	return params, nil
}

// parseFlagType recognizes "flags.N?Type" / "flags2.N?Type".
func parseFlagType(typ string) (flagRef, bool) {
	qIdx := strings.IndexByte(typ, '?')
	if qIdx < 0 {
		return flagRef{}, false
	}
	prefix := typ[:qIdx]
	inner := typ[qIdx+1:]

	dotIdx := strings.IndexByte(prefix, '.')
	if dotIdx < 0 {
		return flagRef{}, false
	}
	flagsParam := prefix[:dotIdx]
	if flagsParam != "flags" && flagsParam != "flags2" {
		return flagRef{}, false
	}
	bit, err := strconv.Atoi(prefix[dotIdx+1:])
	if err != nil {
		return flagRef{}, false
	}
	return flagRef{flagsParam: flagsParam, bit: bit, innerType: inner}, true
}

// vectorSubtype recognizes "Vector<T>" or "(vector T)" forms and returns T.
func vectorSubtype(typ string) (string, bool) {
	t := strings.TrimSpace(typ)
	t = strings.TrimPrefix(t, "(")
	t = strings.TrimSuffix(t, ")")
	t = strings.TrimSpace(t)

	lower := strings.ToLower(t)
	switch {
	case strings.HasPrefix(lower, "vector<") && strings.HasSuffix(t, ">"):
		inner := t[len("Vector<") : len(t)-1]
		return strings.TrimSpace(inner), true
	case strings.HasPrefix(lower, "vector "):
		inner := strings.TrimSpace(t[len("vector "):])
		return inner, true
	}
	return "", false
}

// splitTopLevel splits on whitespace but keeps a "{...}" generic
// introducer as one token even though it contains a space-separated
// "name:Type" inside the braces.
func splitTopLevel(s string) []string {
	var out []string
	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				out = append(out, s[start:i+1])
				start = -1
			}
		case ' ', '\t':
			if depth == 0 {
				if start >= 0 {
					out = append(out, s[start:i])
					start = -1
				}
				continue
			}
		default:
			if depth == 0 && start < 0 {
				start = i
			}
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}
