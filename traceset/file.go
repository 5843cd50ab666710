package traceset

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"

	"lrawht/engine"
)

// OpenFile returns containers streaming the trace file at path. Each
// container holds its own file handle, so units never share a reader and
// memory stays bounded by one record.
func OpenFile(path string) engine.Opener {
	return func() (engine.Container, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		p := NewProtocol(bufio.NewReader(f), nil)
		h, err := p.ReceiveHeader()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: failed to read header: %w", path, err)
		}
		return &fileContainer{selection: selection{header: h}, file: f, proto: p}, nil
	}
}

// ReadHeader returns the header of the trace file at path.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewProtocol(bufio.NewReader(f), nil).ReceiveHeader()
}

type fileContainer struct {
	selection
	file     *os.File
	proto    *Protocol
	consumed bool
}

func (c *fileContainer) Batches(tile engine.Tile) iter.Seq2[engine.Batch, error] {
	return func(yield func(engine.Batch, error) bool) {
		if err := c.check(tile); err != nil {
			yield(engine.Batch{}, err)
			return
		}
		if c.consumed {
			yield(engine.Batch{}, fmt.Errorf("traceset: %s already consumed", c.file.Name()))
			return
		}
		c.consumed = true
		for {
			rec, err := c.proto.ReceiveRecord()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(engine.Batch{}, err)
				return
			}
			if rec.Tile != tile {
				continue
			}
			b, err := rec.Batch(c.header, c.position)
			if !yield(b, err) || err != nil {
				return
			}
		}
	}
}

func (c *fileContainer) Close() error {
	return c.file.Close()
}

// SaveFile writes the set to path.
func SaveFile(path string, s *Set) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := s.Save(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
