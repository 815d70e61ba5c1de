package eventlog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// Reader streams Events from the binary event log format described in
// spec.md §6. Unknown frame kinds are skipped, not surfaced as errors.
// A declared total_size smaller than the 8-byte header, a Poll or
// Calibration frame too small for its 28-byte payload, and input that
// ends inside a frame are fatal.
type Reader struct {
	r      *bufio.Reader
	offset int64
}

// NewReader wraps r for frame-by-frame decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next reads and returns the next event. It returns io.EOF (unwrapped)
// when the input ends cleanly at a frame boundary, and a *ParseError for
// any other failure.
func (x *Reader) Next() (Event, error) {
	var header [frameHeaderSize]byte
	n, err := io.ReadFull(x.r, header[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return nil, io.EOF
		}
		return nil, &ParseError{Offset: x.offset, Err: err}
	}

	totalSize := binary.LittleEndian.Uint32(header[0:4])
	kind := Kind(binary.LittleEndian.Uint32(header[4:8]))
	x.offset += frameHeaderSize

	if totalSize < frameHeaderSize {
		return nil, &ParseError{Offset: x.offset - frameHeaderSize, Err: ErrFrameTooSmall}
	}
	payloadSize := int64(totalSize - frameHeaderSize)

	switch kind {
	case KindPoll, KindCalibration:
		if payloadSize < payloadSizePollOrCalibration {
			return nil, &ParseError{Offset: x.offset, Err: ErrFrameTooSmall}
		}
		var payload [payloadSizePollOrCalibration]byte
		if _, err := io.ReadFull(x.r, payload[:]); err != nil {
			return nil, &ParseError{Offset: x.offset, Err: err}
		}
		x.offset += payloadSizePollOrCalibration

		extra := payloadSize - payloadSizePollOrCalibration
		if extra > 0 {
			if err := x.discard(extra); err != nil {
				return nil, err
			}
		}

		if kind == KindPoll {
			return PollEvent{
				Start:    binary.LittleEndian.Uint64(payload[0:8]),
				End:      binary.LittleEndian.Uint64(payload[8:16]),
				ClockEnd: binary.LittleEndian.Uint64(payload[16:24]),
				TID:      binary.LittleEndian.Uint32(payload[24:28]),
			}, nil
		}
		return CalibrationEvent{
			SrcEpoch: binary.LittleEndian.Uint64(payload[0:8]),
			RefEpoch: binary.LittleEndian.Uint64(payload[8:16]),
			Mul:      binary.LittleEndian.Uint64(payload[16:24]),
			Shift:    binary.LittleEndian.Uint32(payload[24:28]),
		}, nil

	default:
		if err := x.discard(payloadSize); err != nil {
			return nil, err
		}
		return UnknownEvent{Kind: kind}, nil
	}
}

func (x *Reader) discard(n int64) error {
	discarded, err := x.r.Discard(int(n))
	x.offset += int64(discarded)
	if err != nil {
		return &ParseError{Offset: x.offset, Err: err}
	}
	return nil
}
