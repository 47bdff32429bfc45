package services

import (
	"sort"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
)

// SequenceAllocator partitions frame records into emitted sequences under
// a capacity limit. Physical groups never merge: a group boundary always
// starts a new sequence, and a group larger than the capacity splits into
// consecutive sequences. Sequence numbers run continuously across the
// whole acquisition.
type SequenceAllocator struct{}

// NewSequenceAllocator creates a sequence allocator.
func NewSequenceAllocator() *SequenceAllocator {
	return &SequenceAllocator{}
}

// Allocate orders each physical group by its records' order keys and cuts
// it at every capacity boundary. Frame indices are positional within the
// returned sequences, so index contiguity holds by construction.
func (a *SequenceAllocator) Allocate(records []domain.FrameRecord, maxPerSeq int) []domain.Sequence {
	if len(records) == 0 || maxPerSeq <= 0 {
		return nil
	}

	groups := make(map[string][]domain.FrameRecord)
	names := make([]string, 0)
	for _, record := range records {
		if _, seen := groups[record.Group]; !seen {
			names = append(names, record.Group)
		}
		groups[record.Group] = append(groups[record.Group], record)
	}
	sort.Strings(names)

	var sequences []domain.Sequence
	number := 0
	for _, name := range names {
		members := groups[name]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].OrderKey().Less(members[j].OrderKey())
		})
		for start := 0; start < len(members); start += maxPerSeq {
			end := start + maxPerSeq
			if end > len(members) {
				end = len(members)
			}
			number++
			sequences = append(sequences, domain.Sequence{
				Number: number,
				Group:  name,
				Frames: append([]domain.FrameRecord(nil), members[start:end]...),
			})
		}
	}
	return sequences
}
