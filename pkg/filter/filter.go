// Package filter turns a filter spec string into an image transform.
//
// A filter spec is a pipe separated list of steps, each written name[:args]:
//
//	grayscale|gaussian:15|resize:640x0
//
// The EDN class form, {:class origami.filters.Gray},
// is accepted too and resolved by the last class segment.
package filter

import (
	"errors"
	"fmt"
	"image"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"go-blur-bench/pkg/blur"
)

// ErrUnknownFilter is returned for a step name that is not registered.
var ErrUnknownFilter = errors.New("unknown filter")

// Filter is an opaque image to image transform.
type Filter interface {
	Name() string
	Apply(img image.Image) image.Image
}

type funcFilter struct {
	name string
	fn   func(image.Image) image.Image
}

func (f funcFilter) Name() string                      { return f.name }
func (f funcFilter) Apply(img image.Image) image.Image { return f.fn(img) }

// Chain applies its filters in order.
type Chain []Filter

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, f := range c {
		names[i] = f.Name()
	}
	return strings.Join(names, "|")
}

func (c Chain) Apply(img image.Image) image.Image {
	for _, f := range c {
		img = f.Apply(img)
	}
	return img
}

// Noop returns the identity transform.
func Noop() Filter {
	return funcFilter{name: "noop", fn: func(img image.Image) image.Image { return img }}
}

type builder func(args []string) (Filter, error)

var builders = map[string]builder{
	"noop": func(args []string) (Filter, error) {
		return Noop(), nil
	},
	"gaussian": func(args []string) (Filter, error) {
		size, err := intArg(args, 15)
		if err != nil {
			return nil, err
		}
		if size < 1 {
			return nil, fmt.Errorf("kernel size must be positive, got %d", size)
		}
		return funcFilter{
			name: fmt.Sprintf("gaussian:%d", size),
			fn:   func(img image.Image) image.Image { return blur.ApplyBlurToImage(img, size) },
		}, nil
	},
	"blur": func(args []string) (Filter, error) {
		sigma, err := floatArg(args, 2)
		if err != nil {
			return nil, err
		}
		return funcFilter{
			name: fmt.Sprintf("blur:%g", sigma),
			fn:   func(img image.Image) image.Image { return imaging.Blur(img, sigma) },
		}, nil
	},
	"sharpen": func(args []string) (Filter, error) {
		sigma, err := floatArg(args, 1)
		if err != nil {
			return nil, err
		}
		return funcFilter{
			name: fmt.Sprintf("sharpen:%g", sigma),
			fn:   func(img image.Image) image.Image { return imaging.Sharpen(img, sigma) },
		}, nil
	},
	"grayscale": simple("grayscale", func(img image.Image) image.Image { return imaging.Grayscale(img) }),
	"invert":    simple("invert", func(img image.Image) image.Image { return imaging.Invert(img) }),
	"fliph":     simple("fliph", func(img image.Image) image.Image { return imaging.FlipH(img) }),
	"flipv":     simple("flipv", func(img image.Image) image.Image { return imaging.FlipV(img) }),
	"rotate90":  simple("rotate90", func(img image.Image) image.Image { return imaging.Rotate90(img) }),
	"contrast": func(args []string) (Filter, error) {
		pct, err := floatArg(args, 20)
		if err != nil {
			return nil, err
		}
		return funcFilter{
			name: fmt.Sprintf("contrast:%g", pct),
			fn:   func(img image.Image) image.Image { return imaging.AdjustContrast(img, pct) },
		}, nil
	},
	"brightness": func(args []string) (Filter, error) {
		pct, err := floatArg(args, 10)
		if err != nil {
			return nil, err
		}
		return funcFilter{
			name: fmt.Sprintf("brightness:%g", pct),
			fn:   func(img image.Image) image.Image { return imaging.AdjustBrightness(img, pct) },
		}, nil
	},
	"gamma": func(args []string) (Filter, error) {
		g, err := floatArg(args, 1)
		if err != nil {
			return nil, err
		}
		if g <= 0 {
			return nil, fmt.Errorf("gamma must be positive, got %g", g)
		}
		return funcFilter{
			name: fmt.Sprintf("gamma:%g", g),
			fn:   func(img image.Image) image.Image { return imaging.AdjustGamma(img, g) },
		}, nil
	},
	"resize": func(args []string) (Filter, error) {
		if len(args) != 1 {
			return nil, errors.New("resize expects WxH")
		}
		w, h, ok := strings.Cut(args[0], "x")
		if !ok {
			return nil, fmt.Errorf("resize expects WxH, got %q", args[0])
		}
		width, err := strconv.Atoi(w)
		if err != nil {
			return nil, fmt.Errorf("resize width: %w", err)
		}
		height, err := strconv.Atoi(h)
		if err != nil {
			return nil, fmt.Errorf("resize height: %w", err)
		}
		if width < 0 || height < 0 || (width == 0 && height == 0) {
			return nil, fmt.Errorf("invalid resize dimensions %dx%d", width, height)
		}
		return funcFilter{
			name: fmt.Sprintf("resize:%dx%d", width, height),
			fn: func(img image.Image) image.Image {
				return imaging.Resize(img, width, height, imaging.Lanczos)
			},
		}, nil
	},
}

var aliases = map[string]string{
	"":         "noop",
	"nop":      "noop",
	"identity": "noop",
	"gray":     "grayscale",
	"grey":     "grayscale",
	"negative": "invert",
	"mirror":   "fliph",
}

func simple(name string, fn func(image.Image) image.Image) builder {
	return func(args []string) (Filter, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("%s takes no arguments", name)
		}
		return funcFilter{name: name, fn: fn}, nil
	}
}

// Names lists the registered filter names.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var classPattern = regexp.MustCompile(`:class\s+([A-Za-z0-9_.$]+)`)

// Parse builds the Filter described by spec. An empty spec yields Noop.
func Parse(spec string) (Filter, error) {
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, "{") {
		m := classPattern.FindStringSubmatch(spec)
		if m == nil {
			return nil, fmt.Errorf("filter spec %q: missing :class", spec)
		}
		spec = className(m[1])
	}
	if spec == "" {
		return Noop(), nil
	}

	var chain Chain
	for _, step := range strings.Split(spec, "|") {
		f, err := parseStep(strings.TrimSpace(step))
		if err != nil {
			return nil, fmt.Errorf("filter spec %q: %w", spec, err)
		}
		chain = append(chain, f)
	}
	if len(chain) == 1 {
		return chain[0], nil
	}
	return chain, nil
}

func parseStep(step string) (Filter, error) {
	name, rawArgs, _ := strings.Cut(step, ":")
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	var args []string
	if rawArgs != "" {
		for _, a := range strings.Split(rawArgs, ",") {
			args = append(args, strings.TrimSpace(a))
		}
	}
	f, err := build(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// className maps origami.filters.NoOPFilter to noop, ...Gray to gray.
func className(class string) string {
	if i := strings.LastIndexAny(class, ".$"); i >= 0 {
		class = class[i+1:]
	}
	class = strings.ToLower(class)
	if trimmed := strings.TrimSuffix(class, "filter"); trimmed != "" {
		class = trimmed
	}
	return class
}

func intArg(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("expected one argument, got %d", len(args))
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", args[0], err)
	}
	return v, nil
}

func floatArg(args []string, def float64) (float64, error) {
	if len(args) == 0 {
		return def, nil
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("expected one argument, got %d", len(args))
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[0], err)
	}
	return v, nil
}
