package rtctx

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"viper/internal/trap"
)

// FileTable maps BASIC channel numbers to open host resources. The
// concrete I/O bindings live above this package; the table only tracks
// ownership so contexts can hand files over and close them on cleanup.
type FileTable struct {
	entries map[int64]fileEntry
}

type fileEntry struct {
	name string
	f    io.Closer
}

// Len returns the number of open channels. A nil table is empty.
func (t *FileTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Open registers f on channel ch. Negative channels and channels already
// in use trap.
func (t *FileTable) Open(ch int64, name string, f io.Closer) {
	if ch < 0 {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx.Open: negative channel %d", ch)
	}
	if f == nil {
		trap.Raisef(trap.CodeNull, "rtctx.Open: nil file for channel %d", ch)
	}
	if _, busy := t.entries[ch]; busy {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx.Open: channel %d already open", ch)
	}
	if t.entries == nil {
		t.entries = make(map[int64]fileEntry)
	}
	t.entries[ch] = fileEntry{name: name, f: f}
}

// Get returns the resource on channel ch.
func (t *FileTable) Get(ch int64) (io.Closer, bool) {
	if t == nil {
		return nil, false
	}
	e, ok := t.entries[ch]
	return e.f, ok
}

// Name returns the name channel ch was opened with.
func (t *FileTable) Name(ch int64) string {
	if t == nil {
		return ""
	}
	return t.entries[ch].name
}

// Close closes and forgets channel ch. Closing a channel that is not
// open traps.
func (t *FileTable) Close(ch int64) error {
	if t.Len() == 0 {
		trap.Raisef(trap.CodeClosed, "rtctx.Close: channel %d is not open", ch)
	}
	e, ok := t.entries[ch]
	if !ok {
		trap.Raisef(trap.CodeClosed, "rtctx.Close: channel %d is not open", ch)
	}
	delete(t.entries, ch)
	if err := e.f.Close(); err != nil {
		return fmt.Errorf("close channel %d (%s): %w", ch, e.name, err)
	}
	return nil
}

// CloseAll closes every channel in ascending order and empties the table.
func (t *FileTable) CloseAll() error {
	if t == nil {
		return nil
	}
	chans := make([]int64, 0, len(t.entries))
	for ch := range t.entries {
		chans = append(chans, ch)
	}
	sort.Slice(chans, func(i, j int) bool { return chans[i] < chans[j] })
	var errs []error
	for _, ch := range chans {
		e := t.entries[ch]
		if err := e.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel %d (%s): %w", ch, e.name, err))
		}
	}
	t.entries = nil
	return errors.Join(errs...)
}

// Files returns the file table of c, creating it on first use.
func (c *Context) Files() *FileTable {
	handoff.Lock()
	defer handoff.Unlock()
	if c.files == nil {
		c.files = &FileTable{}
	}
	return c.files
}

// Files returns the file table of the effective context.
func Files() *FileTable { return Effective().Files() }
