package detect

import (
	"path/filepath"
	"strings"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
)

// LabelSignals carries the evidence available when deriving a sensor label
// automatically.
type LabelSignals struct {
	// CameraModel is the camera model a sampled image's embedded metadata
	// reported, if any.
	CameraModel string

	// ImageNames holds the base names of the discovered images.
	ImageNames []string
}

// LabelRule derives a sensor label candidate from one kind of signal.
type LabelRule struct {
	// Name identifies the rule in diagnostics.
	Name string

	// Derive returns a raw label candidate and whether the rule matched.
	Derive func(LabelSignals) (string, bool)
}

// DefaultLabelRules returns the sensor label rules in evaluation order:
// the camera model from image metadata, then a shared filename prefix.
func DefaultLabelRules() []LabelRule {
	return []LabelRule{
		{Name: "camera-model", Derive: deriveFromCameraModel},
		{Name: "filename-prefix", Derive: deriveFromFilenamePrefix},
	}
}

// DeriveSensorLabel applies the default label rules in order and returns
// the first candidate that survives token normalization.
func DeriveSensorLabel(signals LabelSignals) (string, bool) {
	for _, rule := range DefaultLabelRules() {
		raw, ok := rule.Derive(signals)
		if !ok {
			continue
		}
		label, err := domain.NormalizeToken(raw, "Sensor ID")
		if err != nil {
			continue
		}
		return label, true
	}
	return "", false
}

func deriveFromCameraModel(signals LabelSignals) (string, bool) {
	model := strings.TrimSpace(signals.CameraModel)
	if model == "" {
		return "", false
	}
	return model, true
}

// deriveFromFilenamePrefix returns the alphabetic prefix shared by every
// image name, e.g. IMG from IMG_0001.jpg and IMG_0002.jpg. Prefixes
// shorter than two characters carry no signal.
func deriveFromFilenamePrefix(signals LabelSignals) (string, bool) {
	if len(signals.ImageNames) == 0 {
		return "", false
	}
	prefix := stem(signals.ImageNames[0])
	for _, name := range signals.ImageNames[1:] {
		prefix = commonPrefix(prefix, stem(name))
		if prefix == "" {
			return "", false
		}
	}
	prefix = strings.TrimRight(prefix, "0123456789-_")
	if len(prefix) < 2 {
		return "", false
	}
	return prefix, true
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func commonPrefix(a, b string) string {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	i := 0
	for i < max && a[i] == b[i] {
		i++
	}
	return a[:i]
}
