// Package trace implements a binary execution-trace log for the glue
// layer's guest entries: one struc-tagged header followed by a
// snappy-compressed stream of fixed-shape frames, in the same shape as the
// surrounding emulator's own trace files.
package trace

import (
	"io"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// Magic identifies a glue-layer trace file, distinct from the surrounding
// emulator's own instruction-trace format: its frames describe host-side
// entries (Kind names trampoline calls, native-op dispatches, interrupts),
// not guest instructions. Lifecycle.Run is the only writer of frames.
const Magic = "PPCG"

// Kind tags what kind of guest entry a Frame records.
type Kind uint8

const (
	KindExecutePPC Kind = iota
	KindExecuteMacOS
	KindExecute68k
	KindNativeOp
	KindInterrupt
	KindFault
)

// Header opens a trace file: magic and format version.
type Header struct {
	Magic   string `struc:"[4]byte"`
	Version uint32
}

// Frame records one host-side guest entry: what kind it was, the guest PC
// or selector involved, and the step counter at the time.
type Frame struct {
	Kind Kind
	Step uint64
	Addr uint32
	Aux  uint32
}

// Writer packs a Header once, then a Frame per traced entry, through a
// snappy-compressed stream — mirroring the surrounding emulator's own
// struc+snappy trace format.
type Writer struct {
	raw io.WriteCloser
	zw  *snappy.Writer
}

// NewWriter opens a trace stream on w and writes the header immediately.
func NewWriter(w io.WriteCloser) (*Writer, error) {
	if err := struc.Pack(w, &Header{Magic: Magic, Version: 1}); err != nil {
		return nil, errors.Wrap(err, "trace: packing header")
	}
	return &Writer{raw: w, zw: snappy.NewBufferedWriter(w)}, nil
}

// Record appends one frame to the trace.
func (t *Writer) Record(f Frame) error {
	return errors.Wrap(struc.Pack(t.zw, &f), "trace: packing frame")
}

// Close flushes the compressed stream and closes the underlying writer.
func (t *Writer) Close() error {
	if err := t.zw.Close(); err != nil {
		return err
	}
	return t.raw.Close()
}

// Reader reads back a trace file written by Writer, used by tests and by
// offline tooling that inspects a captured run.
type Reader struct {
	zr *snappy.Reader
}

// NewReader opens a trace stream on r, validating the header.
func NewReader(r io.Reader) (*Reader, error) {
	var h Header
	if err := struc.Unpack(r, &h); err != nil {
		return nil, errors.Wrap(err, "trace: reading header")
	}
	if h.Magic != Magic {
		return nil, errors.Errorf("trace: bad magic %q", h.Magic)
	}
	return &Reader{zr: snappy.NewReader(r)}, nil
}

// Next reads the following frame, returning io.EOF when the stream ends.
func (r *Reader) Next() (Frame, error) {
	var f Frame
	err := struc.Unpack(r.zr, &f)
	return f, err
}
