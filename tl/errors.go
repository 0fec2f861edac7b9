// Package tl implements the primitive wire codec and the dynamic value model
// shared by the schema loader, serializer and deserializer.
package tl

import "errors"

// Error kinds surfaced by the codec. Callers branch on these with errors.Is;
// the codec always wraps them with fmt.Errorf("%w", ...) plus call-site
// context, so the sentinel survives but the message stays specific.
var (
	ErrNotNumeric     = errors.New("NOT_NUMERIC")
	ErrBadLength128   = errors.New("BAD_LENGTH_128")
	ErrBadLength256   = errors.New("BAD_LENGTH_256")
	ErrBadLength512   = errors.New("BAD_LENGTH_512")
	ErrLengthTooBig   = errors.New("LENGTH_TOO_BIG")
	ErrNotString      = errors.New("NOT_STRING")
	ErrMissingParam   = errors.New("MISSING_PARAM")
	ErrArrayRequired  = errors.New("ARRAY_REQUIRED")
	ErrBadPredicate   = errors.New("BAD_PREDICATE")
	ErrUnknownCtor    = errors.New("UNKNOWN_CONSTRUCTOR")
	ErrInvalidVector  = errors.New("INVALID_VECTOR_CTOR")
	ErrSchemaInvalid  = errors.New("SCHEMA_INVALID")
	ErrStreamHandle   = errors.New("STREAM_HANDLE")
	ErrInsecureRandom = errors.New("INSECURE_RANDOM")
	ErrDoubleReply    = errors.New("DOUBLE_REPLY")
)
