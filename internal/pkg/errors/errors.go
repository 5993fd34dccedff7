package errors

import "errors"

// Sentinel errors shared across the pipeline. Stage code wraps these with
// fmt.Errorf("...: %w", ...) so the orchestrator and HTTP layer can branch
// with errors.Is without string matching.
var (
	// ErrInvalidPath means a storage path did not decompose into
	// userId/docId/filename.
	ErrInvalidPath = errors.New("invalid storage path")
	// ErrUnsupportedFormat means no extractor exists for the declared MIME type.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrEmptyDocument means extraction produced no usable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")
	// ErrMalformedInsights means the model response was not parseable JSON.
	ErrMalformedInsights = errors.New("malformed insights response")
	// ErrClassificationAmbiguous means the classifier answered something
	// other than YES or NO.
	ErrClassificationAmbiguous = errors.New("ambiguous classification response")
	// ErrIngestionFailure means the corpus rejected or failed the import.
	ErrIngestionFailure = errors.New("corpus ingestion failed")
	// ErrInferenceService wraps transport or API failures from the
	// generative inference service.
	ErrInferenceService = errors.New("inference service error")
	// ErrDocumentBusy means another invocation holds the processing lock
	// for the same document.
	ErrDocumentBusy = errors.New("document is already being processed")
	// ErrUnauthorized is the generic auth failure sentinel.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is the generic missing-resource sentinel.
	ErrNotFound = errors.New("not found")
)
