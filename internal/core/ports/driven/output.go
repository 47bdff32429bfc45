package driven

import "github.com/holobase-labs/seqpack-cli/internal/core/domain"

// OutputWriter materializes one acquisition into the canonical output tree.
type OutputWriter interface {
	// WriteAcquisition creates the acquisition's directory skeleton under
	// outputDir and writes images, annotations, trajectory artifacts and
	// copied sidecars. Per-frame failures are recorded on the report and
	// processing continues; only a failure to create the skeleton itself
	// returns an error.
	WriteAcquisition(acq *domain.Acquisition, outputDir string, report *domain.AcquisitionReport) error
}
