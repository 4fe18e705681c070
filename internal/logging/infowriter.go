package logging

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"
)

// InfoWriter turns line-oriented output into info events, one per line.
// Partial lines are held until the newline arrives or Flush is called.
type InfoWriter struct {
	mu     sync.Mutex
	logger zerolog.Logger
	buf    bytes.Buffer
}

func NewInfoWriter(logger zerolog.Logger) *InfoWriter {
	return &InfoWriter{logger: logger}
}

func (w *InfoWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimRight(w.buf.Next(i+1), "\r\n")
		w.emit(line)
	}
	return len(p), nil
}

// Flush emits any buffered partial line.
func (w *InfoWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.Bytes())
		w.buf.Reset()
	}
}

func (w *InfoWriter) emit(line []byte) {
	w.logger.Info().Msg(string(line))
}
