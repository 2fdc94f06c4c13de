package feed

import (
	"fmt"
	"io"
)

// StreamBufferSize bounds how many bytes of a transfer are held in memory at once.
const StreamBufferSize = 32 << 10

// copyStream moves src into dst one buffer at a time. Unlike io.Copy it never
// hands the transfer to a ReaderFrom/WriterTo fast path, so no more than
// len(buf) bytes are in flight. Read and write failures are reported with
// ErrReadFailed and ErrWriteFailed respectively.
func copyStream(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			if nw < 0 || nw > nr {
				nw = 0
			}
			written += int64(nw)
			if werr != nil {
				return written, fmt.Errorf("%w: %w", ErrWriteFailed, werr)
			}
			if nw != nr {
				return written, fmt.Errorf("%w: %w", ErrWriteFailed, io.ErrShortWrite)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("%w: %w", ErrReadFailed, rerr)
		}
	}
}
