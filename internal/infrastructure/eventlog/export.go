package eventlog

import (
	"context"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
)

// Export writes the whole history, oldest first, as gzip-compressed
// newline-delimited JSON. It returns the number of records written.
func (s *Store) Export(ctx context.Context, w io.Writer) (int, error) {
	zw := gzip.NewWriter(w)

	n := 0
	err := s.Iterate(ctx, func(r Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := sonic.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := zw.Write(append(line, '\n')); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		zw.Close()
		return n, fmt.Errorf("export events: %w", err)
	}
	if err := zw.Close(); err != nil {
		return n, fmt.Errorf("flush export: %w", err)
	}
	return n, nil
}
