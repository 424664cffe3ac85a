package output

import (
	"bufio"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/selimozcann/LinkSentry/internal/model"
)

// JSONLWriter appends one record per line. Output stays buffered until
// Flush or Close.
type JSONLWriter struct {
	mu    sync.Mutex
	buf   *bufio.Writer
	enc   *jsoniter.Encoder
	lines int
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{buf: buf, enc: enc}
}

// Write encodes v as an export record.
func (j *JSONLWriter) Write(v model.Verdict) error {
	return j.WriteRecord(BuildRecord(v))
}

func (j *JSONLWriter) WriteRecord(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(rec); err != nil {
		return err
	}
	j.lines++
	return nil
}

// Lines returns how many records have been written.
func (j *JSONLWriter) Lines() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lines
}

func (j *JSONLWriter) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.buf.Flush()
}

func (j *JSONLWriter) Close() error { return j.Flush() }
