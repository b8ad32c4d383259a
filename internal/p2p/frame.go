package p2p

import (
	"encoding/binary"
	"io"

	"github.com/nodalync/engine/internal/errs"
)

// maxFrameSize bounds a single stream frame, guarding against a malicious
// or buggy peer claiming an unbounded length prefix.
const maxFrameSize = 16 << 20 // 16 MiB

// writeFrame writes a length-prefixed frame: a 4-byte big-endian length
// followed by payload. Used for both directions of the query
// request/response stream protocol.
func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "write frame length", err)
	}
	if _, err := w.Write(payload); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "write frame payload", err)
	}
	return nil
}

// readFrame reads one length-prefixed frame written by writeFrame.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "read frame length", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return nil, errs.New(errs.InvalidMessage, "frame exceeds maximum size")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "read frame payload", err)
	}
	return buf, nil
}
