package domain

import "errors"

// Domain errors represent pipeline failures.
// These are distinct from infrastructure errors.
var (
	// ErrFatalConfig indicates a configuration problem that aborts the run
	// before output is written: missing input root, invalid capacity,
	// conflicting arguments, or an output directory inside the input tree.
	ErrFatalConfig = errors.New("fatal configuration error")

	// ErrNoImages indicates an acquisition folder with zero discoverable
	// images. Skipped with a warning, never fatal to a batch.
	ErrNoImages = errors.New("no images found")

	// ErrMetadataAbsent indicates an image without usable embedded metadata.
	// This is an expected condition, reported as a diagnostic, not an error.
	ErrMetadataAbsent = errors.New("image metadata absent")

	// ErrImageUnreadable indicates an image file that could not be opened.
	// The frame is recorded with an error flag and excluded from allocation.
	ErrImageUnreadable = errors.New("image unreadable")

	// ErrPoseDegraded indicates a pose file that could not be parsed.
	// The acquisition proceeds pose-less.
	ErrPoseDegraded = errors.New("pose track unreadable")

	// ErrFrameWrite indicates a per-frame copy or annotation failure.
	// The frame is marked failed in the summary and processing continues.
	ErrFrameWrite = errors.New("frame write failed")

	// ErrDuplicateFrameName indicates the same image filename appears in two
	// sequence folders of one acquisition. Treated as fatal configuration
	// rather than silently overwriting.
	ErrDuplicateFrameName = errors.New("duplicate image filename")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
