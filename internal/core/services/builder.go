package services

import (
	"time"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
	"github.com/holobase-labs/seqpack-cli/internal/logger"
)

// RecordBuilder resolves every discovered image into one frame record:
// timestamp reconciliation between embedded metadata and the pose track,
// positional merge, and the date used for acquisition grouping.
type RecordBuilder struct {
	metadata driven.MetadataSource
}

// NewRecordBuilder creates a record builder with the given metadata source.
func NewRecordBuilder(metadata driven.MetadataSource) *RecordBuilder {
	return &RecordBuilder{metadata: metadata}
}

// BuildRecords produces exactly one record per image entry. Unreadable
// images yield failed records rather than being dropped.
func (b *RecordBuilder) BuildRecords(entries []domain.ImageEntry, track *domain.PoseTrack, maxGap time.Duration) []domain.FrameRecord {
	records := make([]domain.FrameRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, b.buildRecord(entry, track, maxGap))
	}
	return records
}

func (b *RecordBuilder) buildRecord(entry domain.ImageEntry, track *domain.PoseTrack, maxGap time.Duration) domain.FrameRecord {
	record := domain.FrameRecord{
		SourcePath: entry.Path,
		Group:      entry.Group,
		ModTime:    entry.ModTime,
		TimeSource: domain.TimeSourceNone,
	}

	meta, err := b.metadata.Extract(entry.Path)
	if err != nil {
		logger.Debug("Unreadable image %s: %v", entry.Path, err)
		record.Failed = true
		record.FailReason = err.Error()
		record.CaptureDate = entry.ModTime.UTC().Format("20060102")
		return record
	}
	if meta == nil {
		meta = &domain.ImageMetadata{}
	}
	record.Metadata = meta

	// 1. The embedded timestamp is authoritative when present.
	if meta.CaptureTime != nil {
		record.CaptureTime = meta.CaptureTime.UTC()
		record.TimeSource = domain.TimeSourceMetadata
	}

	// 2. Match the nearest pose sample within the configured gap. The
	// sample overrides position only; its timestamp is substituted solely
	// when the image carries no clock of its own, in which case nearest is
	// measured from the file modification time.
	if !track.IsEmpty() {
		query := record.CaptureTime
		if record.TimeSource == domain.TimeSourceNone {
			query = entry.ModTime
		}
		if sample, gap, ok := track.NearestWithin(query, maxGap); ok {
			matched := sample
			record.PoseSample = &matched
			record.PoseGap = gap
			if record.TimeSource == domain.TimeSourceNone {
				record.CaptureTime = matched.Time
				record.TimeSource = domain.TimeSourcePose
			}
		}
	}

	// 3. Metadata GPS seeds the position; matched sample fields override.
	record.Position = meta.GPS
	if record.PoseSample != nil {
		record.Position = meta.GPS.Merge(&record.PoseSample.Fix)
	}

	// 4. Grouping date: the matched sample's date first, then the
	// metadata date chain, then the file modification time.
	if record.PoseSample != nil {
		record.CaptureDate = record.PoseSample.Time.UTC().Format("20060102")
	} else {
		record.CaptureDate = meta.CaptureDate(entry.ModTime)
	}
	return record
}
