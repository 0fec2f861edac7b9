package codec

import "strings"

// isBoxedVectorType reports whether a declared vector type string is the
// boxed generic form ("Vector<int>"), as opposed to the bare form
// ("vector int" / "(vector int)"). Capitalization is the only signal TL
// gives: boxed type names are always capitalized.
func isBoxedVectorType(t string) bool {
	return strings.Contains(t, "Vector")
}

// lowerFirst lowercases the first rune, used to derive a constructor name
// ("InputUser" -> "inputUser") when probing for "<type>Empty" defaults.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// parseVectorSubtype recognizes "Vector<T>" / "(vector T)" / "vector T"
// forms in a result-type string (e.g. the type an outgoing-message records
// for its expected rpc_result shape) and returns T.
func parseVectorSubtype(t string) (string, bool) {
	s := strings.TrimSpace(t)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	s = strings.TrimSpace(s)

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "vector<") && strings.HasSuffix(s, ">"):
		return strings.TrimSpace(s[len("Vector<") : len(s)-1]), true
	case strings.HasPrefix(lower, "vector "):
		return strings.TrimSpace(s[len("vector "):]), true
	}
	return "", false
}
