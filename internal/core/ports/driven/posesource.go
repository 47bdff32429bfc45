package driven

import "github.com/holobase-labs/seqpack-cli/internal/core/domain"

// PoseSource parses a tabular pose file into an ordered track.
type PoseSource interface {
	// Read parses the file at path, converting timestamps from the given
	// epoch to canonical UTC. Malformed rows are skipped and counted on
	// the returned track; a parseable file with zero data rows yields an
	// empty track. An unreadable file or one without a recognisable
	// timestamp column returns an error; callers degrade the acquisition
	// to pose-less rather than aborting.
	Read(path string, epoch domain.PoseEpoch) (*domain.PoseTrack, error)
}
