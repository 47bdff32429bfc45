package layout

import (
	"encoding/csv"
	"os"
	"strconv"

	geo "github.com/kellydunn/golang-geo"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
)

// trajectoryCSVHeader is the fixed column set of per-sequence trajectory
// exports. Detection excludes these files from pose input on later runs.
var trajectoryCSVHeader = []string{
	"frame_index",
	"image_name",
	"timestamp",
	"gps_latitude",
	"gps_longitude",
	"gps_altitude_m",
	"heading_deg",
	"pitch_deg",
	"roll_deg",
}

// trajectoryRow is one frame's entry in the sequence trajectory.
type trajectoryRow struct {
	FrameIndex int
	ImageName  string
	Timestamp  string
	Latitude   *float64
	Longitude  *float64
	Altitude   *float64
	Heading    *float64
	Pitch      *float64
	Roll       *float64
}

// buildTrajectoryRow derives the trajectory entry for one allocated frame.
// The timestamp prefers the matched pose sample, then the embedded GPS
// clock, then the capture time.
func buildTrajectoryRow(record *domain.FrameRecord, frameIndex int, imageName string) trajectoryRow {
	row := trajectoryRow{
		FrameIndex: frameIndex,
		ImageName:  imageName,
	}
	switch {
	case record.PoseSample != nil:
		row.Timestamp = formatUTC(record.PoseSample.Time)
	case record.Metadata != nil && record.Metadata.GPSTime != nil:
		row.Timestamp = formatUTC(*record.Metadata.GPSTime)
	case record.Metadata != nil && record.Metadata.CaptureTime != nil:
		row.Timestamp = formatUTC(*record.Metadata.CaptureTime)
	}
	if fix := record.Position; fix != nil {
		row.Latitude = fix.Latitude
		row.Longitude = fix.Longitude
		row.Altitude = fix.Altitude
		row.Heading = fix.Heading
		row.Pitch = fix.Pitch
		row.Roll = fix.Roll
	}
	return row
}

// hasPoseData reports whether the row carries anything beyond its identity
// columns.
func (r trajectoryRow) hasPoseData() bool {
	return r.Timestamp != "" || r.Latitude != nil || r.Longitude != nil || r.Altitude != nil ||
		r.Heading != nil || r.Pitch != nil || r.Roll != nil
}

func rowsHavePoseData(rows []trajectoryRow) bool {
	for _, row := range rows {
		if row.hasPoseData() {
			return true
		}
	}
	return false
}

// writeTrajectoryCSV writes the fixed-header trajectory export.
func writeTrajectoryCSV(path string, rows []trajectoryRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(trajectoryCSVHeader); err != nil {
		f.Close()
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.FrameIndex),
			row.ImageName,
			row.Timestamp,
			formatFloat(row.Latitude),
			formatFloat(row.Longitude),
			formatFloat(row.Altitude),
			formatFloat(row.Heading),
			formatFloat(row.Pitch),
			formatFloat(row.Roll),
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

type geoJSONProperties struct {
	AcquisitionID string  `json:"acquisition_id"`
	SequenceID    string  `json:"sequence_id"`
	SensorID      string  `json:"sensor_id"`
	PointCount    int     `json:"point_count"`
	TrackLengthM  float64 `json:"track_length_m"`
	AltitudeUnits string  `json:"altitude_units,omitempty"`
}

type geoJSONGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

type geoJSONFeature struct {
	Type       string            `json:"type"`
	Properties geoJSONProperties `json:"properties"`
	Geometry   geoJSONGeometry   `json:"geometry"`
}

type geoJSONTrack struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// buildGeoJSONTrack renders the positioned rows as a LineString feature.
// Needs at least two positioned rows; altitude is included only when every
// positioned row carries one.
func buildGeoJSONTrack(rows []trajectoryRow, acquisitionID, sequenceID, sensorID string) *geoJSONTrack {
	type position struct {
		lat, lon float64
		alt      *float64
	}
	positions := make([]position, 0, len(rows))
	altCount := 0
	for _, row := range rows {
		if row.Latitude == nil || row.Longitude == nil {
			continue
		}
		positions = append(positions, position{lat: *row.Latitude, lon: *row.Longitude, alt: row.Altitude})
		if row.Altitude != nil {
			altCount++
		}
	}
	if len(positions) < 2 {
		return nil
	}
	includeAlt := altCount == len(positions)

	coordinates := make([][]float64, 0, len(positions))
	lengthM := 0.0
	var prev *geo.Point
	for _, pos := range positions {
		if includeAlt {
			coordinates = append(coordinates, []float64{pos.lon, pos.lat, *pos.alt})
		} else {
			coordinates = append(coordinates, []float64{pos.lon, pos.lat})
		}
		point := geo.NewPoint(pos.lat, pos.lon)
		if prev != nil {
			lengthM += prev.GreatCircleDistance(point) * 1000
		}
		prev = point
	}

	properties := geoJSONProperties{
		AcquisitionID: acquisitionID,
		SequenceID:    sequenceID,
		SensorID:      sensorID,
		PointCount:    len(coordinates),
		TrackLengthM:  lengthM,
	}
	if includeAlt {
		properties.AltitudeUnits = "meters"
	}
	return &geoJSONTrack{
		Type: "FeatureCollection",
		Features: []geoJSONFeature{
			{
				Type:       "Feature",
				Properties: properties,
				Geometry: geoJSONGeometry{
					Type:        "LineString",
					Coordinates: coordinates,
				},
			},
		},
	}
}

type coordinateSystemPosition struct {
	Reference         string `json:"reference"`
	EPSG              int    `json:"epsg"`
	Units             string `json:"units"`
	AltitudeUnits     string `json:"altitude_units"`
	AltitudeReference string `json:"altitude_reference,omitempty"`
}

type coordinateSystemsPayload struct {
	Position coordinateSystemPosition `json:"position"`
	Source   string                   `json:"source"`
}

// buildCoordinateSystems describes the positional reference frame, based
// on the first frame that resolved a position. Nil when no frame did.
func buildCoordinateSystems(acq *domain.Acquisition) *coordinateSystemsPayload {
	for i := range acq.Sequences {
		for j := range acq.Sequences[i].Frames {
			record := &acq.Sequences[i].Frames[j]
			if !record.Position.HasPosition() {
				continue
			}
			source := "pose track"
			if record.Metadata != nil && record.Metadata.GPS.HasPosition() {
				source = "EXIF GPS"
			}
			position := coordinateSystemPosition{
				Reference:     "WGS84",
				EPSG:          4326,
				Units:         "degrees",
				AltitudeUnits: "meters",
			}
			if anyAltitude(acq) {
				position.AltitudeReference = "ellipsoidal"
			}
			return &coordinateSystemsPayload{Position: position, Source: source}
		}
	}
	return nil
}

// anyAltitude reports whether any allocated frame resolved an altitude.
func anyAltitude(acq *domain.Acquisition) bool {
	for i := range acq.Sequences {
		for j := range acq.Sequences[i].Frames {
			record := &acq.Sequences[i].Frames[j]
			if record.Position != nil && record.Position.Altitude != nil {
				return true
			}
		}
	}
	return false
}

type intrinsicsPayload struct {
	SensorID        string   `json:"sensor_id"`
	CameraMake      string   `json:"camera_make,omitempty"`
	CameraModel     string   `json:"camera_model,omitempty"`
	SerialNumber    string   `json:"serial_number,omitempty"`
	Software        string   `json:"software,omitempty"`
	FocalLengthMM   *float64 `json:"focal_length_mm,omitempty"`
	FocalLength35MM *float64 `json:"focal_length_35mm,omitempty"`
	FNumber         *float64 `json:"f_number,omitempty"`
}

// buildIntrinsics derives the intrinsics artifact from the first frame
// with camera metadata. Nil when no frame carried any.
func buildIntrinsics(acq *domain.Acquisition) *intrinsicsPayload {
	for i := range acq.Sequences {
		for j := range acq.Sequences[i].Frames {
			record := &acq.Sequences[i].Frames[j]
			if record.Metadata == nil || !record.Metadata.Camera.HasData() {
				continue
			}
			camera := record.Metadata.Camera
			return &intrinsicsPayload{
				SensorID:        acq.Sensor,
				CameraMake:      camera.Make,
				CameraModel:     camera.Model,
				SerialNumber:    camera.SerialNumber,
				Software:        camera.Software,
				FocalLengthMM:   camera.FocalLengthMM,
				FocalLength35MM: camera.FocalLength35MM,
				FNumber:         camera.FNumber,
			}
		}
	}
	return nil
}
