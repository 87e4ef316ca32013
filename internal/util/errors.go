package util

import "errors"

// ErrNoExtractableText marks a PDF whose pages yield no text at all
// (typically a scan). The ingest workflow records the document as failed
// instead of propagating this.
var ErrNoExtractableText = errors.New("no extractable text found in PDF")
