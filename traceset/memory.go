package traceset

import (
	"fmt"
	"io"
	"iter"

	"lrawht/engine"
)

// Set is an in-memory trace set. Records are appended up front and read
// concurrently by any number of containers.
type Set struct {
	header  Header
	records []Record
}

// NewSet returns an empty set of traces with sampleLength samples and
// blockSize plaintext bytes each.
func NewSet(sampleLength, blockSize int) *Set {
	return &Set{header: Header{SampleLength: sampleLength, BlockSize: blockSize}}
}

// Header returns the set header.
func (s *Set) Header() Header { return s.header }

// Records returns the stored records.
func (s *Set) Records() []Record { return s.records }

// Append adds a record, registering its tile on first use.
func (s *Set) Append(r Record) error {
	if err := r.Check(&s.header); err != nil {
		return err
	}
	known := false
	for _, t := range s.header.Tiles {
		if t == r.Tile {
			known = true
			break
		}
	}
	if !known {
		s.header.Tiles = append(s.header.Tiles, r.Tile)
	}
	s.records = append(s.records, r)
	return nil
}

// Opener returns containers reading this set.
func (s *Set) Opener() engine.Opener {
	return func() (engine.Container, error) {
		return &memoryContainer{set: s, selection: selection{header: &s.header}}, nil
	}
}

// Save writes the set as a trace stream.
func (s *Set) Save(w io.Writer) error {
	p := NewProtocol(nil, w)
	if err := p.SendHeader(s.header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range s.records {
		if err := p.SendRecord(s.records[i]); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return p.SendDone()
}

// Load reads a complete trace stream into memory.
func Load(r io.Reader) (*Set, error) {
	p := NewProtocol(r, nil)
	h, err := p.ReceiveHeader()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	s := &Set{header: Header{SampleLength: h.SampleLength, BlockSize: h.BlockSize, Tiles: h.Tiles}}
	for {
		rec, err := p.ReceiveRecord()
		if err == io.EOF {
			return s, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(s.records), err)
		}
		if err := s.Append(*rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(s.records), err)
		}
	}
}

type memoryContainer struct {
	selection
	set *Set
}

func (c *memoryContainer) Batches(tile engine.Tile) iter.Seq2[engine.Batch, error] {
	return func(yield func(engine.Batch, error) bool) {
		if err := c.check(tile); err != nil {
			yield(engine.Batch{}, err)
			return
		}
		for i := range c.set.records {
			rec := &c.set.records[i]
			if rec.Tile != tile {
				continue
			}
			b, err := rec.Batch(&c.set.header, c.position)
			if !yield(b, err) || err != nil {
				return
			}
		}
	}
}
