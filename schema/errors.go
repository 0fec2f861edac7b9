package schema

import "errors"

var (
	ErrNoResultType        = errors.New("tl schema: declaration missing result type")
	ErrSchemaInvalidParam  = errors.New("tl schema: invalid parameter declaration")
	ErrDuplicateID         = errors.New("tl schema: duplicate constructor/method id")
	ErrUnknownBundleFormat = errors.New("tl schema: unrecognized bundle format")
	ErrMissingName         = errors.New("tl schema: declaration missing predicate/method name")
)
