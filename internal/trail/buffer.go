package trail

import (
	"errors"

	"backend-locshare/internal/geo"
)

// DefaultCapacity is the trail length kept per session unless configured
// otherwise.
const DefaultCapacity = 50

var ErrOutOfOrder = errors.New("sample out of order")

// Entry is a buffered sample together with its derived display fields.
type Entry struct {
	geo.Sample
	SpeedKmh      *float64 `json:"speed_kmh,omitempty"`
	HeadingBucket string   `json:"heading_bucket,omitempty"`
}

// Buffer is a fixed-capacity ring of samples ordered oldest to newest.
// It is not safe for concurrent use; the owning session serializes access.
type Buffer struct {
	samples []geo.Sample
	head    int
	size    int
	evicted uint64
}

func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{samples: make([]geo.Sample, capacity)}
}

// Append accepts a sample whose timestamp is not earlier than the last
// accepted one. When the buffer is full the oldest sample is evicted; that is
// normal operation, observable only through Evicted.
func (b *Buffer) Append(sample geo.Sample) error {
	if last, ok := b.Last(); ok && sample.Timestamp.Before(last.Timestamp) {
		return ErrOutOfOrder
	}

	if b.size == len(b.samples) {
		b.head = (b.head + 1) % len(b.samples)
		b.size--
		b.evicted++
	}
	b.samples[(b.head+b.size)%len(b.samples)] = sample
	b.size++
	return nil
}

// Snapshot returns the buffered samples oldest first, each with derived
// km/h speed and compass bucket where the producer reported them.
func (b *Buffer) Snapshot() []Entry {
	entries := make([]Entry, 0, b.size)
	for i := 0; i < b.size; i++ {
		sample := b.samples[(b.head+i)%len(b.samples)]
		entry := Entry{Sample: sample}
		if sample.SpeedMps != nil {
			kmh := geo.SpeedKmh(*sample.SpeedMps)
			entry.SpeedKmh = &kmh
		}
		if sample.HeadingDeg != nil {
			entry.HeadingBucket = geo.HeadingBucket(*sample.HeadingDeg)
		}
		entries = append(entries, entry)
	}
	return entries
}

func (b *Buffer) Last() (geo.Sample, bool) {
	if b.size == 0 {
		return geo.Sample{}, false
	}
	return b.samples[(b.head+b.size-1)%len(b.samples)], true
}

func (b *Buffer) Len() int { return b.size }

func (b *Buffer) Capacity() int { return len(b.samples) }

// Evicted reports how many samples have been dropped to honor the capacity
// bound.
func (b *Buffer) Evicted() uint64 { return b.evicted }
