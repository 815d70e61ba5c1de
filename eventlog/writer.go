package eventlog

import (
	"bufio"
	"io"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// WriterConfig models optional configuration for NewWriter.
type WriterConfig struct {
	// QueueSize bounds the number of events buffered between producers
	// and the writer goroutine. Defaults to 4096, if 0.
	QueueSize int

	// FlushInterval is the maximum time a batch of events is held before
	// being flushed to the underlying writer. Defaults to 1s, if 0.
	FlushInterval time.Duration

	// Logger receives writer-thread I/O errors. A nil Logger is a silent
	// no-op.
	Logger *logiface.Logger[*stumpy.Event]
}

// Writer is the single background goroutine that owns the event log's
// output file. Producers call Emit*, which is a non-blocking send: if the
// internal queue is full, the event is dropped rather than stalling the
// caller (per spec.md's drop-on-full contract for the probe's hot path).
type Writer struct {
	queue         chan []byte
	flushInterval time.Duration
	logger        *logiface.Logger[*stumpy.Event]
	done          chan struct{}
	closeOnce     sync.Once
}

// NewWriter starts the writer goroutine, flushing batched frames to w.
// The provided config may be nil.
func NewWriter(w io.Writer, cfg *WriterConfig) *Writer {
	queueSize := 4096
	flushInterval := time.Second
	var logger *logiface.Logger[*stumpy.Event]
	if cfg != nil {
		if cfg.QueueSize != 0 {
			queueSize = cfg.QueueSize
		}
		if cfg.FlushInterval != 0 {
			flushInterval = cfg.FlushInterval
		}
		logger = cfg.Logger
	}

	x := &Writer{
		queue:         make(chan []byte, queueSize),
		flushInterval: flushInterval,
		logger:        logger,
		done:          make(chan struct{}),
	}

	go x.run(bufio.NewWriter(w))

	return x
}

// EmitPoll enqueues a Poll event, returning false if it was dropped
// because the queue is full.
func (x *Writer) EmitPoll(e PollEvent) bool {
	return x.enqueue(encodePoll(nil, e))
}

// EmitCalibration enqueues a Calibration event, returning false if it was
// dropped because the queue is full.
func (x *Writer) EmitCalibration(e CalibrationEvent) bool {
	return x.enqueue(encodeCalibration(nil, e))
}

func (x *Writer) enqueue(frame []byte) bool {
	select {
	case x.queue <- frame:
		return true
	default:
		return false
	}
}

// Close closes the queue and waits until the writer goroutine has flushed
// and exited. It is safe to call more than once. Emit* must not be called
// after Close: a send on the closed queue panics.
func (x *Writer) Close() {
	x.closeOnce.Do(func() {
		close(x.queue)
	})
	<-x.done
}

// run is the writer goroutine's loop: block for the first event of a
// batch, then drain with a FlushInterval-from-first-event timeout (1s by
// default), flushing on
// timeout or on the queue (and thus the channel) closing. Grounded on
// microbatch.Batcher's ping/batch/flush shape, adapted from a
// blocking-submit job queue to a non-blocking-send event queue.
func (x *Writer) run(bw *bufio.Writer) {
	defer close(x.done)

	for frame := range x.queue {
		if err := x.writeFrame(bw, frame); err != nil {
			x.logIOError(err)
			return
		}

		if err := x.drainBatch(bw); err != nil {
			x.logIOError(err)
			return
		}
	}
}

func (x *Writer) drainBatch(bw *bufio.Writer) error {
	deadline := time.NewTimer(x.flushInterval)
	defer deadline.Stop()

	for {
		select {
		case frame, ok := <-x.queue:
			if !ok {
				return bw.Flush()
			}
			if err := x.writeFrame(bw, frame); err != nil {
				return err
			}
		case <-deadline.C:
			return bw.Flush()
		}
	}
}

func (x *Writer) writeFrame(bw *bufio.Writer, frame []byte) error {
	_, err := bw.Write(frame)
	return err
}

func (x *Writer) logIOError(err error) {
	if x.logger == nil {
		return
	}
	x.logger.Err().Err(err).Log("eventlog: writer I/O error, dropping further events")
}
