// Package detect holds the sidecar and sensor-label detection rules.
//
// Auto-detection of pose tables, point clouds, calibration descriptors and
// sensor labels is expressed as ordered rule tables rather than scattered
// pattern matching. Evaluation order is fixed at registration, the first
// non-skip verdict wins, and exclusion rules shadow the capability rules
// that follow them.
package detect

// Capability identifies what a detected sidecar file provides to an
// acquisition.
type Capability string

// Sidecar capabilities.
const (
	// CapabilityPose marks a tabular pose track file.
	CapabilityPose Capability = "pose"

	// CapabilityPointCloud marks a LiDAR point-cloud file.
	CapabilityPointCloud Capability = "point_cloud"

	// CapabilityCalibration marks a calibration descriptor file.
	CapabilityCalibration Capability = "calibration"
)

// String returns the string representation.
func (c Capability) String() string {
	return string(c)
}

// Description returns a human-readable description of the capability.
func (c Capability) Description() string {
	switch c {
	case CapabilityPose:
		return "Pose track"
	case CapabilityPointCloud:
		return "Point cloud"
	case CapabilityCalibration:
		return "Calibration descriptor"
	default:
		return "Unknown"
	}
}

// Verdict is one rule's decision about a candidate file.
type Verdict int

// Rule verdicts.
const (
	// VerdictSkip means the rule does not claim the file; evaluation
	// continues with the next rule.
	VerdictSkip Verdict = iota

	// VerdictMatch means the file provides the rule's capability.
	VerdictMatch

	// VerdictExclude means the file must not be claimed by any rule, e.g.
	// because it is output of an earlier run.
	VerdictExclude
)

// Rule is one entry of the ordered detection table.
type Rule struct {
	// Name identifies the rule in diagnostics.
	Name string

	// Capability is what a match provides. Empty for pure exclusion rules.
	Capability Capability

	// Evaluate inspects a candidate file path and returns a verdict.
	Evaluate func(path string) Verdict
}

// Registry is an ordered detection rule table.
type Registry struct {
	rules []Rule
}

// NewRegistry creates a registry evaluating the given rules in order.
func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: rules}
}

// Rules returns the table in evaluation order.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// Classify runs a candidate file through the rule table and returns the
// capability of the first matching rule. Returns false when no rule claims
// the file or an exclusion rule rejects it.
func (r *Registry) Classify(path string) (Capability, bool) {
	for _, rule := range r.rules {
		switch rule.Evaluate(path) {
		case VerdictMatch:
			return rule.Capability, true
		case VerdictExclude:
			return "", false
		}
	}
	return "", false
}
