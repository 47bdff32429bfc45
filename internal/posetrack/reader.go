// Package posetrack parses tabular pose files into ordered tracks.
//
// Provider exports vary wildly: delimiters differ, column names differ, and
// rows are occasionally malformed. The reader sniffs the delimiter from the
// header line, matches columns through an alias table, skips rows it cannot
// time, and reports the skip count so the run summary can surface it.
package posetrack

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
)

// Ensure Reader implements the port.
var _ driven.PoseSource = (*Reader)(nil)

// Column aliases, matched after normalization (lowercase, alphanumerics
// only). "gps_seconds[s]" and "GPS_Time" both resolve this way.
var (
	timestampAliases = []string{"gpssecondss", "gpsseconds", "gpstime"}
	latitudeAliases  = []string{"latitudedeg", "latitude", "lat"}
	longitudeAliases = []string{"longitudedeg", "longitude", "lon", "lng"}
	altitudeAliases  = []string{"altitudeellipsoidalm", "altitudeellipsoidal", "altitude", "altitudem", "alt"}
	rollAliases      = []string{"rolldeg", "roll"}
	pitchAliases     = []string{"pitchdeg", "pitch"}
	headingAliases   = []string{"headingdeg", "heading", "yaw", "azimuth"}
)

var headerStripPattern = regexp.MustCompile(`[^a-z0-9]+`)

// columns maps resolved header positions; -1 means the column is absent.
type columns struct {
	timestamp int
	latitude  int
	longitude int
	altitude  int
	roll      int
	pitch     int
	heading   int
}

// Reader parses pose CSV files.
type Reader struct{}

// NewReader creates a pose file reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read parses the pose file, converting timestamps from the declared epoch
// to canonical UTC. Rows without a parseable timestamp are skipped and
// counted on the returned track.
func (r *Reader) Read(path string, epoch domain.PoseEpoch) (*domain.PoseTrack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrPoseDegraded, path, err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(firstLine(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no header row", domain.ErrPoseDegraded, path)
	}
	cols := resolveColumns(header)
	if cols.timestamp < 0 {
		return nil, fmt.Errorf("%w: %s has no recognisable timestamp column", domain.ErrPoseDegraded, path)
	}

	var samples []domain.PoseSample
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		ts, ok := floatAt(row, cols.timestamp)
		if !ok {
			skipped++
			continue
		}
		sample := domain.PoseSample{
			Time:       epoch.ToUTC(ts),
			RawSeconds: ts,
			Fix: domain.GeoFix{
				Latitude:  floatPtrAt(row, cols.latitude),
				Longitude: floatPtrAt(row, cols.longitude),
				Altitude:  floatPtrAt(row, cols.altitude),
				Roll:      floatPtrAt(row, cols.roll),
				Pitch:     floatPtrAt(row, cols.pitch),
				Heading:   floatPtrAt(row, cols.heading),
			},
		}
		samples = append(samples, sample)
	}

	return domain.NewPoseTrack(samples, path, skipped), nil
}

// HeaderFields reads the header row of a CSV-ish file, sniffing the
// delimiter. Used by the detection rules to identify pose files without
// fully parsing them.
func HeaderFields(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sample := make([]byte, 4096)
	n, err := f.Read(sample)
	if err != nil && err != io.EOF {
		return nil, err
	}
	sample = bytes.TrimPrefix(sample[:n], []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(sample))
	reader.Comma = sniffDelimiter(firstLine(sample))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	return header, nil
}

// HasTimestampColumn reports whether the header carries a column the
// reader would accept as the timestamp.
func HasTimestampColumn(header []string) bool {
	return resolveColumns(header).timestamp >= 0
}

// resolveColumns maps header cells to canonical fields. The first cell
// matching an alias wins for each field.
func resolveColumns(header []string) columns {
	cols := columns{timestamp: -1, latitude: -1, longitude: -1, altitude: -1, roll: -1, pitch: -1, heading: -1}
	for i, cell := range header {
		normalized := normalizeHeader(cell)
		switch {
		case cols.timestamp < 0 && matchesAlias(normalized, timestampAliases):
			cols.timestamp = i
		case cols.latitude < 0 && matchesAlias(normalized, latitudeAliases):
			cols.latitude = i
		case cols.longitude < 0 && matchesAlias(normalized, longitudeAliases):
			cols.longitude = i
		case cols.altitude < 0 && matchesAlias(normalized, altitudeAliases):
			cols.altitude = i
		case cols.roll < 0 && matchesAlias(normalized, rollAliases):
			cols.roll = i
		case cols.pitch < 0 && matchesAlias(normalized, pitchAliases):
			cols.pitch = i
		case cols.heading < 0 && matchesAlias(normalized, headingAliases):
			cols.heading = i
		}
	}
	return cols
}

func matchesAlias(normalized string, aliases []string) bool {
	for _, alias := range aliases {
		if normalized == alias {
			return true
		}
	}
	return false
}

func normalizeHeader(cell string) string {
	return headerStripPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(cell)), "")
}

// sniffDelimiter picks the delimiter with the most occurrences in the
// header line; comma wins ties and empty lines.
func sniffDelimiter(line []byte) rune {
	best := ','
	bestCount := bytes.Count(line, []byte{','})
	for _, candidate := range []byte{'\t', ';'} {
		if c := bytes.Count(line, []byte{candidate}); c > bestCount {
			best = rune(candidate)
			bestCount = c
		}
	}
	return best
}

func firstLine(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i]
	}
	return data
}

// floatAt parses the float at index i, tolerating decimal commas.
func floatAt(row []string, i int) (float64, bool) {
	if i < 0 || i >= len(row) {
		return 0, false
	}
	text := strings.TrimSpace(row[i])
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func floatPtrAt(row []string, i int) *float64 {
	v, ok := floatAt(row, i)
	if !ok {
		return nil
	}
	return &v
}
