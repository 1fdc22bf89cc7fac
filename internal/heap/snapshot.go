package heap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotSchema is bumped whenever the Snapshot layout changes.
const snapshotSchema uint16 = 1

// Snapshot is a serializable picture of the heap: counters plus the
// tracked live set.
type Snapshot struct {
	Schema uint16        `msgpack:"schema"`
	Label  string        `msgpack:"label"`
	Taken  time.Time     `msgpack:"taken"`
	Stats  StatsSnapshot `msgpack:"stats"`
	Live   []LiveBlock   `msgpack:"live"`
}

// TakeSnapshot captures the current counters and live set.
func TakeSnapshot(label string) *Snapshot {
	return &Snapshot{
		Schema: snapshotSchema,
		Label:  label,
		Taken:  time.Now().UTC(),
		Stats:  Stats(),
		Live:   LiveBlocks(),
	}
}

// WriteSnapshot encodes s to w.
func WriteSnapshot(w io.Writer, s *Snapshot) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode heap snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode heap snapshot: %w", err)
	}
	if s.Schema != snapshotSchema {
		return nil, fmt.Errorf("heap snapshot schema %d, want %d", s.Schema, snapshotSchema)
	}
	return &s, nil
}

// WriteSnapshotFile writes s to path, replacing it atomically.
func WriteSnapshotFile(path string, s *Snapshot) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "heap-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if err = WriteSnapshot(f, s); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadSnapshotFile reads a snapshot from path.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSnapshot(f)
}
