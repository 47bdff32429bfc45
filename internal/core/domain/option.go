package domain

import "strings"

// optionMode distinguishes the variants of a resolvable option.
type optionMode int

const (
	optionAuto optionMode = iota
	optionDisabled
	optionExplicit
)

// PathOption selects how an auxiliary input file (pose track, point clouds,
// calibration) is located: automatic discovery, explicitly given, or off.
// The raw CLI sentinel strings are parsed into this variant once at the
// boundary and resolved once by the scanner; raw strings never travel
// further into the pipeline.
type PathOption struct {
	mode optionMode
	path string
}

// AutoPath requests automatic discovery via the detection rules.
func AutoPath() PathOption {
	return PathOption{mode: optionAuto}
}

// NoPath disables the input entirely.
func NoPath() PathOption {
	return PathOption{mode: optionDisabled}
}

// ExplicitPath uses the given path verbatim.
func ExplicitPath(path string) PathOption {
	return PathOption{mode: optionExplicit, path: path}
}

// ParsePathOption parses a raw CLI value. Empty and "auto" request
// discovery; "none" and "off" disable; anything else is an explicit path.
func ParsePathOption(raw string) PathOption {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return AutoPath()
	case "none", "off":
		return NoPath()
	default:
		return ExplicitPath(strings.TrimSpace(raw))
	}
}

// IsAuto returns true when the option requests automatic discovery.
func (o PathOption) IsAuto() bool {
	return o.mode == optionAuto
}

// IsDisabled returns true when the input is switched off.
func (o PathOption) IsDisabled() bool {
	return o.mode == optionDisabled
}

// Path returns the explicit path and true, or "" and false for the
// auto/disabled variants.
func (o PathOption) Path() (string, bool) {
	if o.mode != optionExplicit {
		return "", false
	}
	return o.path, true
}

// String renders the option for logs and config files.
func (o PathOption) String() string {
	switch o.mode {
	case optionDisabled:
		return "none"
	case optionExplicit:
		return o.path
	default:
		return "auto"
	}
}

// SensorOption selects how the sensor label is resolved: an explicit label
// or auto-detection from image metadata and filename tokens.
type SensorOption struct {
	auto  bool
	label string
}

// AutoSensor requests label detection.
func AutoSensor() SensorOption {
	return SensorOption{auto: true}
}

// ExplicitSensor uses the given label.
func ExplicitSensor(label string) SensorOption {
	return SensorOption{label: label}
}

// ParseSensorOption parses a raw CLI value. Empty and "auto" request
// detection; anything else is an explicit label.
func ParseSensorOption(raw string) SensorOption {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "auto") {
		return AutoSensor()
	}
	return ExplicitSensor(trimmed)
}

// IsAuto returns true when the label should be detected.
func (o SensorOption) IsAuto() bool {
	return o.auto
}

// Label returns the explicit label and true, or "" and false for auto.
func (o SensorOption) Label() (string, bool) {
	if o.auto {
		return "", false
	}
	return o.label, true
}

// String renders the option for logs and config files.
func (o SensorOption) String() string {
	if o.auto {
		return "auto"
	}
	return o.label
}
