package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// hourLayout names one journal file per UTC hour.
const hourLayout = "2006-01-02-15"

// zstdWriter appends JSON lines to hourly rotated .jsonl.zst files. Not safe
// for concurrent use; the Journal's writer goroutine owns it.
type zstdWriter struct {
	dir    string
	prefix string

	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func newZstdWriter(dir, prefix string) *zstdWriter {
	return &zstdWriter{dir: dir, prefix: prefix}
}

func (w *zstdWriter) write(at time.Time, v any) error {
	hour := at.UTC().Format(hourLayout)
	if hour != w.curHour {
		if err := w.rotate(hour); err != nil {
			return err
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// flush pushes buffered lines into the encoder.
func (w *zstdWriter) flush() error {
	if w.w == nil {
		return nil
	}
	return w.w.Flush()
}

func (w *zstdWriter) rotate(hour string) error {
	if err := w.close(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *zstdWriter) close() error {
	var err error
	if w.w != nil {
		err = w.w.Flush()
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

func (w *zstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}
