package netconf

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	liberrors "dnsjumper/pkg/errors"
)

// Flusher clears the system DNS caches. Concurrent callers collapse into a
// single underlying flush: at most one is in flight, and everyone waiting
// on it receives the same outcome.
type Flusher struct {
	conf  Configurator
	group singleflight.Group
}

// NewFlusher creates a Flusher on top of the given configurator.
func NewFlusher(conf Configurator) *Flusher {
	return &Flusher{conf: conf}
}

// Flush clears the caches, deduplicating concurrent calls.
func (f *Flusher) Flush(ctx context.Context) error {
	_, err, _ := f.group.Do("flush", func() (interface{}, error) {
		return nil, f.conf.FlushCaches(ctx)
	})
	if err != nil {
		if errors.Is(err, liberrors.ErrFlushFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", liberrors.ErrFlushFailed, err)
	}
	return nil
}
