// Package las reads LAS point-cloud headers.
package las

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/edaniels/lidario"

	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
)

// Ensure Probe implements the port.
var _ driven.PointCloudProbe = (*Probe)(nil)

// Probe reports the point count declared in a LAS file header. Compressed
// LAZ files are copied without inspection and report zero points.
type Probe struct{}

// NewProbe creates a LAS header probe.
func NewProbe() *Probe {
	return &Probe{}
}

// PointCount returns the number of point records the header declares.
// Non-LAS extensions report zero without error; an unreadable LAS file
// returns an error so the run can warn while still copying the file.
func (p *Probe) PointCount(path string) (int64, error) {
	if !strings.EqualFold(filepath.Ext(path), ".las") {
		return 0, nil
	}
	lf, err := lidario.NewLasFile(path, "r")
	if err != nil {
		return 0, fmt.Errorf("reading LAS header of %s: %w", path, err)
	}
	defer lf.Close()
	return int64(lf.Header.NumberPoints), nil
}
