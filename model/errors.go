package model

import "errors"

// ErrMalformedResult marks an upstream answer that parsed but lacks the
// fields the pipeline consumes.
var ErrMalformedResult = errors.New("malformed result from upstream service")
