package driven

// PointCloudProbe inspects point-cloud files for the run report.
type PointCloudProbe interface {
	// PointCount returns the number of points declared by the file header.
	// Returns 0 and no error for formats the probe does not understand;
	// copying never depends on a successful probe.
	PointCount(path string) (int64, error)
}
