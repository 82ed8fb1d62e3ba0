package client

import (
	"bufio"
	"io"

	"pdbbridge/internal/errors"
	"pdbbridge/internal/wire"
	"pdbbridge/util"
)

// StartInput reads lines from r on its own goroutine and pushes them
// onto q, closing q at end of input.  It is the only reader of r.
// A line longer than util.DefaultBufSize is skipped with a warning.
func StartInput(r io.Reader, q *CommandQueue, logger *util.Logger) {
	go func() {
		defer q.Close()
		br := bufio.NewReaderSize(r, util.DefaultBufSize)
		for {
			line, err := br.ReadSlice('\n')
			if errors.Is(err, bufio.ErrBufferFull) {
				n := len(line)
				for errors.Is(err, bufio.ErrBufferFull) {
					line, err = br.ReadSlice('\n')
					n += len(line)
				}
				logger.Warn("input: skipped a %d byte line, the limit is %d", n, util.DefaultBufSize)
				if err == nil {
					continue
				}
			} else if len(line) > 0 {
				q.Push(wire.TrimEOL(string(line)))
			}
			if err != nil {
				if err != io.EOF {
					logger.Warn("input: %v", err)
				}
				return
			}
		}
	}()
}
