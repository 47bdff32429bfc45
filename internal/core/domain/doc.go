// Package domain defines the core business entities for seqpack.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Acquisition: One capture campaign, identified by date and region
//   - Sequence: A contiguous run of frames within an acquisition
//   - FrameRecord: One image's normalized identity after resolution
//   - PoseTrack: An ordered external time-series of pose samples
//   - RunConfig: The explicit configuration object threaded through a run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
