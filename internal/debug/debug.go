// Package debug writes diagnostic renderings of interpretation stages.
//
// A nil *Writer is disabled: Write returns without calling the draw
// function, so callers pay nothing for debug output they did not ask for.
package debug

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
)

// Writer renders stages on copies of one source image and saves each as a
// PNG named <label>_<seq>_<stage>.png in a directory.
type Writer struct {
	dir    string
	label  string
	seq    *atomic.Int32
	mu     sync.Mutex
	source image.Image
}

// New returns a writer for source, or nil when dir is empty.
func New(dir, label string, source image.Image) *Writer {
	if dir == "" {
		return nil
	}
	return &Writer{dir: dir, label: label, seq: new(atomic.Int32), source: source}
}

// Enabled reports whether Write produces files.
func (w *Writer) Enabled() bool { return w != nil }

// Write renders one stage. draw receives a fresh RGBA copy of the source.
func (w *Writer) Write(stage string, draw func(canvas *image.RGBA)) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	source := w.source
	w.mu.Unlock()

	canvas := clone.AsRGBA(source)
	draw(canvas)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create debug directory: %w", err)
	}
	name := fmt.Sprintf("%s_%02d_%s.png", w.label, w.seq.Add(1), stage)
	if err := imaging.Save(canvas, filepath.Join(w.dir, name)); err != nil {
		return fmt.Errorf("save debug image %s: %w", name, err)
	}
	return nil
}

// SetSource replaces the image later stages are drawn on, for example
// after the page has been rotated.
func (w *Writer) SetSource(source image.Image) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.source = source
	w.mu.Unlock()
}
