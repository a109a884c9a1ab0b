package fsevents

import "fmt"

// Event is one decoded change record.
//
// RawFlags preserves the unmodified native bitmask for diagnostics and
// forward compatibility; Flags is its decoded projection. Inode is non-nil
// only when the watch was created with UseExtendedData and the service
// attached a file id to this record. An Event is immutable and owned by the
// consumer once yielded.
type Event struct {
	ID       uint64
	Path     string
	Flags    EventFlags
	RawFlags uint32
	Inode    *int64
}

func (e Event) String() string {
	inode := int64(-1)
	if e.Inode != nil {
		inode = *e.Inode
	}
	return fmt.Sprintf("[%d] path: %q(%d), flags: %v (%x)", e.ID, e.Path, inode, e.Flags, e.RawFlags)
}

// Batch is the ordered, non-empty set of events delivered by a single native
// callback invocation. Event ids are non-decreasing across batches within a
// watch session, but not necessarily strictly increasing within a batch.
type Batch []Event

// rawRecord is one zipped entry of the native callback's parallel arrays,
// before typing. ExtData is nil unless the watch requested extended data.
type rawRecord struct {
	Path     string
	RawFlags uint32
	ID       uint64
	ExtData  map[string]any
}

// buildBatch translates one callback invocation into a Batch, preserving the
// order supplied by the service. A record whose extended data cannot be
// decoded degrades to a nil inode rather than aborting the batch.
func buildBatch(createFlags CreateFlags, recs []rawRecord) Batch {
	if len(recs) == 0 {
		return nil
	}

	batch := make(Batch, 0, len(recs))
	for _, rec := range recs {
		ev := Event{
			ID:       rec.ID,
			Path:     rec.Path,
			Flags:    DecodeEventFlags(rec.RawFlags),
			RawFlags: rec.RawFlags,
		}
		if inode, ok := DecodeInode(rec.ExtData, createFlags); ok {
			ev.Inode = &inode
		} else if createFlags.Contains(UseExtendedData) && rec.ExtData != nil {
			log.WithField("path", rec.Path).Error("Unable to decode inode from extended data")
		}
		batch = append(batch, ev)
	}
	return batch
}
