// Package exif reads embedded capture metadata from JPEG images.
//
// Missing or corrupt metadata is an expected condition in field data and is
// reported as an empty result, never as an error; only a file that cannot
// be opened fails.
package exif

import (
	"fmt"
	"os"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
)

// Ensure Reader implements the port.
var _ driven.MetadataSource = (*Reader)(nil)

// capture timestamp formats seen in the wild, in trial order.
var captureTimeFormats = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// bodySerialNumber is an EXIF 2.3 tag not declared by the decoder library.
const bodySerialNumber goexif.FieldName = "BodySerialNumber"

// Reader extracts metadata via the goexif decoder.
type Reader struct{}

// NewReader creates a metadata reader.
func NewReader() *Reader {
	return &Reader{}
}

// Extract reads the image's embedded metadata. An image without usable
// metadata yields an empty ImageMetadata and no error.
func (r *Reader) Extract(path string) (*domain.ImageMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrImageUnreadable, path, err)
	}
	defer f.Close()

	x, err := goexif.Decode(f)
	if err != nil {
		// No EXIF segment, or one too damaged to decode.
		return &domain.ImageMetadata{}, nil
	}

	meta := &domain.ImageMetadata{}
	r.extractCaptureTime(x, meta)
	r.extractGPS(x, meta)
	meta.Camera = extractCamera(x)
	return meta, nil
}

// extractCaptureTime resolves the embedded timestamp with the standard
// precedence: DateTimeOriginal, then DateTimeDigitized, then DateTime.
func (r *Reader) extractCaptureTime(x *goexif.Exif, meta *domain.ImageMetadata) {
	for _, field := range []goexif.FieldName{goexif.DateTimeOriginal, goexif.DateTimeDigitized, goexif.DateTime} {
		raw, ok := stringField(x, field)
		if !ok {
			continue
		}
		if ts, ok := parseCaptureTime(raw); ok {
			meta.CaptureTime = &ts
			meta.CaptureTimeRaw = raw
			return
		}
	}
}

// extractGPS reads the positional block and the satellite clock timestamp.
func (r *Reader) extractGPS(x *goexif.Exif, meta *domain.ImageMetadata) {
	fix := &domain.GeoFix{}

	if lat, lon, err := x.LatLong(); err == nil {
		fix.Latitude = &lat
		fix.Longitude = &lon
	}

	if alt, ok := ratField(x, goexif.GPSAltitude); ok {
		if ref, refOK := intField(x, goexif.GPSAltitudeRef); refOK && ref == 1 {
			alt = -alt
		}
		fix.Altitude = &alt
	}

	if fix.HasPosition() || fix.Altitude != nil {
		meta.GPS = fix
	}

	if ts, ok := gpsTimestamp(x); ok {
		meta.GPSTime = &ts
	}
}

// extractCamera reads the descriptive camera fields used for sensor label
// detection and the intrinsics artifact.
func extractCamera(x *goexif.Exif) *domain.CameraInfo {
	cam := &domain.CameraInfo{}
	cam.Make, _ = stringField(x, goexif.Make)
	cam.Model, _ = stringField(x, goexif.Model)
	cam.Software, _ = stringField(x, goexif.Software)
	cam.SerialNumber, _ = stringField(x, bodySerialNumber)

	if v, ok := ratField(x, goexif.FocalLength); ok {
		cam.FocalLengthMM = &v
	}
	if v, ok := ratField(x, goexif.FNumber); ok {
		cam.FNumber = &v
	}
	if v, ok := intField(x, goexif.FocalLengthIn35mmFilm); ok {
		f := float64(v)
		cam.FocalLength35MM = &f
	}

	if !cam.HasData() {
		return nil
	}
	return cam
}

// parseCaptureTime parses an embedded timestamp string. EXIF times carry no
// zone; they are interpreted as UTC so the canonical epoch stays stable
// across machines.
func parseCaptureTime(raw string) (time.Time, bool) {
	for _, layout := range captureTimeFormats {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// gpsTimestamp assembles the UTC timestamp from GPSDateStamp + GPSTimeStamp.
func gpsTimestamp(x *goexif.Exif) (time.Time, bool) {
	dateRaw, ok := stringField(x, goexif.GPSDateStamp)
	if !ok {
		return time.Time{}, false
	}
	var date time.Time
	var err error
	for _, layout := range []string{"2006:01:02", "2006-01-02"} {
		if date, err = time.Parse(layout, dateRaw); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, false
	}

	tag, err := x.Get(goexif.GPSTimeStamp)
	if err != nil || tag == nil {
		return time.Time{}, false
	}
	var clock [3]float64
	for i := 0; i < 3; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return time.Time{}, false
		}
		clock[i] = float64(num) / float64(den)
	}

	seconds := clock[0]*3600 + clock[1]*60 + clock[2]
	ts := date.Add(time.Duration(seconds * float64(time.Second))).UTC()
	return ts, true
}

func stringField(x *goexif.Exif, field goexif.FieldName) (string, bool) {
	tag, err := x.Get(field)
	if err != nil || tag == nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil || s == "" {
		return "", false
	}
	return cleanText(s), true
}

func ratField(x *goexif.Exif, field goexif.FieldName) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil || tag == nil {
		return 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}

func intField(x *goexif.Exif, field goexif.FieldName) (int, bool) {
	tag, err := x.Get(field)
	if err != nil || tag == nil {
		return 0, false
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return v, true
}

// cleanText strips control characters and NUL padding some writers leave in
// string tags.
func cleanText(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(cleaned)
}
