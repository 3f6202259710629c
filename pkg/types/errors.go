package types

import "errors"

// Tree errors. None of these are recoverable by retrying the operation that
// produced them; rollback of a rejected edit goes through Tree.Restore.
var (
	// ErrInvalidIndex is returned for change, child or node indices out of range.
	ErrInvalidIndex = errors.New("index out of range")

	// ErrInconsistentTopology is returned when node numbering or linkage is
	// corrupt, e.g. a node reachable twice from the root or a child whose
	// parent handle points elsewhere.
	ErrInconsistentTopology = errors.New("inconsistent tree topology")

	// ErrMalformedFlatTree is returned when a flat tree cannot be converted
	// back into a multi-type tree.
	ErrMalformedFlatTree = errors.New("malformed flat tree")

	// ErrTypeOutOfRange is returned for a node, change or tag type outside
	// [0, TypeCount).
	ErrTypeOutOfRange = errors.New("type out of range")
	// ErrChangeOrder is returned when change times are not strictly
	// increasing within a branch, a node is older than its parent, or the
	// root carries changes.
	ErrChangeOrder = errors.New("change times out of order")
)

// Config validation errors, returned by Config.Validate.
var (
	// ErrTypeLabelEmpty is returned when the type label is blank.
	ErrTypeLabelEmpty = errors.New("type label must not be empty")
	// ErrTypeCountMissing is returned when no type count was configured.
	ErrTypeCountMissing = errors.New("type count is required")
	// ErrTypeCountInvalid is returned for a negative type count.
	ErrTypeCountInvalid = errors.New("type count must be positive")
)

// Trace store errors, returned by the SQLite backend.
var (
	// ErrTraceDetached is returned by operations on a detached store.
	ErrTraceDetached = errors.New("trace store is detached")
	// ErrAlreadyAttached is returned by Attach on an attached store.
	ErrAlreadyAttached = errors.New("trace store is already attached")
	// ErrRunNotFound is returned for an unknown run ID.
	ErrRunNotFound = errors.New("run not found")
	// ErrSampleNotFound is returned for a sample number not recorded in a run.
	ErrSampleNotFound = errors.New("sample not found")
	// ErrDuplicateSample is returned when a run already holds the sample number.
	ErrDuplicateSample = errors.New("sample already recorded")
)
