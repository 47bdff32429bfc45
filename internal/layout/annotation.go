package layout

import (
	"encoding/json"
	"os"
	"time"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
)

// Annotation stubs use pointer and omitempty fields so absent data is
// omitted instead of zero-filled, keeping the JSON free of null noise.

type annotationCapture struct {
	DatetimeOriginal string `json:"datetime_original,omitempty"`
	GPSTimestampUTC  string `json:"gps_timestamp_utc,omitempty"`
}

type annotationGPS struct {
	LatitudeDeg  *float64 `json:"latitude_deg,omitempty"`
	LongitudeDeg *float64 `json:"longitude_deg,omitempty"`
	AltitudeM    *float64 `json:"altitude_m,omitempty"`
	TimestampUTC string   `json:"timestamp_utc,omitempty"`
}

type annotationPose struct {
	Source       string   `json:"source,omitempty"`
	Timestamp    string   `json:"timestamp,omitempty"`
	GPSSeconds   *float64 `json:"gps_seconds,omitempty"`
	GPSLatitude  *float64 `json:"gps_latitude,omitempty"`
	GPSLongitude *float64 `json:"gps_longitude,omitempty"`
	GPSAltitudeM *float64 `json:"gps_altitude_m,omitempty"`
	HeadingDeg   *float64 `json:"heading_deg,omitempty"`
	PitchDeg     *float64 `json:"pitch_deg,omitempty"`
	RollDeg      *float64 `json:"roll_deg,omitempty"`
}

type annotationPayload struct {
	PreviousName         string             `json:"previous_name"`
	AcquisitionID        string             `json:"acquisition_id"`
	SequenceID           string             `json:"sequence_id"`
	SensorID             string             `json:"sensor_id"`
	FrameIndex           int                `json:"frame_index"`
	ResolvedTimestampUTC string             `json:"resolved_timestamp_utc,omitempty"`
	TimeSource           string             `json:"time_source"`
	UnorderedByTime      bool               `json:"unordered_by_time,omitempty"`
	Capture              *annotationCapture `json:"capture,omitempty"`
	GPS                  *annotationGPS     `json:"gps,omitempty"`
	Pose                 *annotationPose    `json:"pose,omitempty"`
}

// buildAnnotation assembles the stub for one allocated frame.
func buildAnnotation(record *domain.FrameRecord, acquisitionID, sequenceID, sensorID string, frameIndex int) *annotationPayload {
	payload := &annotationPayload{
		PreviousName:  record.OriginalName(),
		AcquisitionID: acquisitionID,
		SequenceID:    sequenceID,
		SensorID:      sensorID,
		FrameIndex:    frameIndex,
		TimeSource:    record.TimeSource.String(),
	}
	if !record.CaptureTime.IsZero() {
		payload.ResolvedTimestampUTC = formatUTC(record.CaptureTime)
	}
	payload.UnorderedByTime = record.UnorderedByTime()
	payload.Capture = buildCapture(record.Metadata)
	payload.GPS = buildGPSBlock(record)
	payload.Pose = buildPoseBlock(record.PoseSample)
	return payload
}

func buildCapture(meta *domain.ImageMetadata) *annotationCapture {
	if meta == nil {
		return nil
	}
	capture := &annotationCapture{}
	if meta.CaptureTime != nil {
		capture.DatetimeOriginal = formatUTC(*meta.CaptureTime)
	} else {
		capture.DatetimeOriginal = meta.CaptureTimeRaw
	}
	if meta.GPSTime != nil {
		capture.GPSTimestampUTC = formatUTC(*meta.GPSTime)
	}
	if capture.DatetimeOriginal == "" && capture.GPSTimestampUTC == "" {
		return nil
	}
	return capture
}

// buildGPSBlock carries the final position, the embedded fix overlaid
// with the matched pose sample, mirroring the trajectory rows.
func buildGPSBlock(record *domain.FrameRecord) *annotationGPS {
	block := &annotationGPS{}
	if fix := record.Position; fix != nil {
		block.LatitudeDeg = fix.Latitude
		block.LongitudeDeg = fix.Longitude
		block.AltitudeM = fix.Altitude
	}
	if record.PoseSample != nil {
		block.TimestampUTC = formatUTC(record.PoseSample.Time)
	} else if record.Metadata != nil && record.Metadata.GPSTime != nil {
		block.TimestampUTC = formatUTC(*record.Metadata.GPSTime)
	}
	if block.LatitudeDeg == nil && block.LongitudeDeg == nil && block.AltitudeM == nil && block.TimestampUTC == "" {
		return nil
	}
	return block
}

func buildPoseBlock(sample *domain.PoseSample) *annotationPose {
	if sample == nil {
		return nil
	}
	raw := sample.RawSeconds
	return &annotationPose{
		Source:       "track",
		Timestamp:    formatUTC(sample.Time),
		GPSSeconds:   &raw,
		GPSLatitude:  sample.Fix.Latitude,
		GPSLongitude: sample.Fix.Longitude,
		GPSAltitudeM: sample.Fix.Altitude,
		HeadingDeg:   sample.Fix.Heading,
		PitchDeg:     sample.Fix.Pitch,
		RollDeg:      sample.Fix.Roll,
	}
}

// formatUTC renders a timestamp in ISO-8601 UTC, sub-second digits only
// when present.
func formatUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// writeJSON writes a payload with two-space indentation.
func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
