package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// op is either a line to write or a flush request.
type op struct {
	line []byte
	ack  chan error
}

// asyncWriter fans lines out to several sinks from a single goroutine so
// logging never waits on a slow file.
type asyncWriter struct {
	ops     chan op
	stopped chan struct{}
	close   sync.Once

	mu  sync.Mutex
	err error

	sinks []*bufio.Writer
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	bufSize = positiveOr(bufSize, 64*1024)
	w := &asyncWriter{
		ops:     make(chan op, 256),
		stopped: make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.stopped)
	for o := range w.ops {
		if o.ack != nil {
			o.ack <- w.flush()
			continue
		}
		for _, s := range w.sinks {
			if _, err := s.Write(o.line); err != nil {
				w.fail(err)
				break
			}
			if err := s.Flush(); err != nil {
				w.fail(err)
				break
			}
		}
	}
	w.fail(w.flush())
}

// Write queues a copy of p. It blocks only when the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.ops <- op{line: append([]byte(nil), p...)}
	return nil
}

// Flush returns once every line queued before it has reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.firstErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.ops <- op{ack: ack}
	return <-ack
}

// Close drains queued lines and returns the first write error seen.
func (w *asyncWriter) Close() error {
	w.close.Do(func() { close(w.ops) })
	<-w.stopped
	return w.firstErr()
}

func (w *asyncWriter) flush() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}

func (w *asyncWriter) firstErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
