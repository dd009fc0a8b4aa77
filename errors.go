package medgraph

import "errors"

var (
	// ErrEntityNotFound is returned when a queried entity does not exist.
	ErrEntityNotFound = errors.New("medgraph: entity not found")

	// ErrInvalidRelation is returned when a relation fails schema validation.
	ErrInvalidRelation = errors.New("medgraph: invalid relation")

	// ErrSnapshotNotFound is returned when loading from a missing snapshot file.
	ErrSnapshotNotFound = errors.New("medgraph: snapshot not found")

	// ErrSnapshotCorrupt is returned when a snapshot fails validation on load.
	ErrSnapshotCorrupt = errors.New("medgraph: snapshot corrupt")

	// ErrExtractionFailed is returned when LLM relation extraction fails.
	ErrExtractionFailed = errors.New("medgraph: extraction failed")

	// ErrLLMUnavailable is returned when an LLM provider is unreachable.
	ErrLLMUnavailable = errors.New("medgraph: LLM provider unavailable")

	// ErrResolverClosed is returned when operating on a closed resolver.
	ErrResolverClosed = errors.New("medgraph: resolver is closed")

	// ErrUnsupportedFormat is returned for unrecognized ingestion file formats.
	ErrUnsupportedFormat = errors.New("medgraph: unsupported file format")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("medgraph: invalid configuration")
)
