package transform

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"runtime/debug"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // decoder registration

	"go-blur-bench/pkg/filter"
)

var (
	ErrDecode    = errors.New("decode error")
	ErrTransform = errors.New("transform error")
	ErrEncode    = errors.New("encode error")
)

// ItemError is a per-image failure. Kind is one of ErrDecode, ErrTransform or ErrEncode.
type ItemError struct {
	Kind error
	Path string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ItemError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Config is built once at startup and only read afterwards.
type Config struct {
	// OutputDir receives transformed images, named after the source file.
	OutputDir string
	// Write persists the transformed image to OutputDir.
	Write bool
	// Debug logs every processed image.
	Debug bool
}

type Adapter struct {
	cfg    Config
	filter filter.Filter
	logger *slog.Logger
}

func NewAdapter(cfg Config, f filter.Filter, logger *slog.Logger) *Adapter {
	if f == nil {
		f = filter.Noop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{cfg: cfg, filter: f, logger: logger}
}

func (a *Adapter) FilterName() string {
	return a.filter.Name()
}

// OutputPath is OutputDir joined with the base name of path.
func (a *Adapter) OutputPath(path string) string {
	return filepath.Join(a.cfg.OutputDir, filepath.Base(path))
}

// Apply loads path, runs the filter and, when Write is set, saves the result.
// The output path is returned even when nothing is written.
func (a *Adapter) Apply(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", &ItemError{Kind: ErrDecode, Path: path, Err: err}
	}

	out, err := a.run(img)
	if err != nil {
		return "", &ItemError{Kind: ErrTransform, Path: path, Err: err}
	}

	target := a.OutputPath(path)
	if a.cfg.Write {
		if err := imaging.Save(out, target); err != nil {
			return "", &ItemError{Kind: ErrEncode, Path: path, Err: err}
		}
	}
	if a.cfg.Debug {
		a.logger.Info("processed image", "source", path, "output", target, "filter", a.filter.Name())
	}
	return target, nil
}

func (a *Adapter) run(img image.Image) (out image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("filter panic", "filter", a.filter.Name(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("filter %s panicked: %v", a.filter.Name(), r)
		}
	}()
	out = a.filter.Apply(img)
	if out == nil {
		return nil, fmt.Errorf("filter %s returned no image", a.filter.Name())
	}
	return out, nil
}
