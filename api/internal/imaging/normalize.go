// Package imaging turns uploaded pictures into bounded JPEG payloads for the
// model. Decode surfaces and input buffers are cleared as soon as an image
// has been encoded, whether or not encoding succeeded.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"runtime"

	"github.com/apex/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"icf-classifier/api/internal/apperr"
)

const (
	DefaultMaxDimension = 1200
	DefaultQuality      = 80
	DefaultMaxBytes     = 20 << 20
	DefaultMaxPixels    = 50_000_000
)

type Normalizer struct {
	maxDim     int
	quality    int
	maxBytes   int
	maxPixels  int
	workers    int
	background color.Color
}

type Option func(*Normalizer)

func WithMaxDimension(px int) Option { return func(n *Normalizer) { n.maxDim = px } }

func WithQuality(q int) Option { return func(n *Normalizer) { n.quality = q } }

// WithMaxBytes bounds the size of a single undecoded upload.
func WithMaxBytes(b int) Option { return func(n *Normalizer) { n.maxBytes = b } }

func WithMaxPixels(px int) Option { return func(n *Normalizer) { n.maxPixels = px } }

func WithWorkers(w int) Option { return func(n *Normalizer) { n.workers = w } }

func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		maxDim:     DefaultMaxDimension,
		quality:    DefaultQuality,
		maxBytes:   DefaultMaxBytes,
		maxPixels:  DefaultMaxPixels,
		workers:    runtime.NumCPU(),
		background: color.White,
	}
	for _, o := range opts {
		o(n)
	}
	if n.workers < 1 {
		n.workers = 1
	}
	return n
}

// ScaledSize applies scale = min(1, limit/max(w, h)) to both sides. The
// longer side of a downscaled image is exactly limit.
func ScaledSize(w, h, limit int) (int, int) {
	longest := max(w, h)
	if longest <= limit || limit <= 0 {
		return w, h
	}
	scale := float64(limit) / float64(longest)
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	if w >= h {
		nw = limit
	} else {
		nh = limit
	}
	return nw, nh
}

// Normalize decodes raw, applies EXIF orientation, flattens transparency
// onto white, downscales and re-encodes as JPEG. raw is released on return.
func (n *Normalizer) Normalize(raw *RawImage) (*NormalizedImage, error) {
	defer raw.Release()

	if len(raw.Data) == 0 {
		return nil, apperr.MediaDecode(raw.Name, fmt.Errorf("empty file"))
	}
	if n.maxBytes > 0 && len(raw.Data) > n.maxBytes {
		return nil, apperr.MediaDecode(raw.Name, fmt.Errorf("file is %d bytes, limit %d", len(raw.Data), n.maxBytes))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, apperr.MediaDecode(raw.Name, err)
	}
	if n.maxPixels > 0 && cfg.Width*cfg.Height > n.maxPixels {
		return nil, apperr.MediaDecode(raw.Name, fmt.Errorf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, n.maxPixels))
	}

	src, format, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, apperr.MediaDecode(raw.Name, err)
	}

	flat := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	defer func() { clear(flat.Pix) }()
	draw.Draw(flat, flat.Bounds(), &image.Uniform{C: n.background}, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, src.Bounds().Min, draw.Over)
	releaseDecoded(src)

	upright := flat
	if format == "jpeg" {
		if o := orientation(raw.Data); o != 1 {
			upright = reorient(flat, o)
			defer func() { clear(upright.Pix) }()
		}
	}

	w, h := upright.Bounds().Dx(), upright.Bounds().Dy()
	nw, nh := ScaledSize(w, h, n.maxDim)
	out := upright
	if nw != w || nh != h {
		out = image.NewRGBA(image.Rect(0, 0, nw, nh))
		defer func() { clear(out.Pix) }()
		draw.CatmullRom.Scale(out, out.Bounds(), upright, upright.Bounds(), draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: n.quality}); err != nil {
		return nil, apperr.MediaDecode(raw.Name, err)
	}

	log.WithFields(log.Fields{
		"source_format": format,
		"source_size":   fmt.Sprintf("%dx%d", w, h),
		"output_size":   fmt.Sprintf("%dx%d", nw, nh),
		"bytes":         buf.Len(),
	}).Debug("image normalized")

	return &NormalizedImage{MIMEType: OutputMIME, Width: nw, Height: nh, data: buf.Bytes()}, nil
}

// NormalizeAll normalizes every image concurrently and returns them in input
// order. All raws are released. If any image fails, every already
// normalized image is released and the first failure in input order is
// returned; siblings are not interrupted mid-decode.
func (n *Normalizer) NormalizeAll(ctx context.Context, raws []*RawImage) ([]*NormalizedImage, error) {
	out := make([]*NormalizedImage, len(raws))
	errs := make([]error, len(raws))

	var g errgroup.Group
	g.SetLimit(n.workers)
	for i, raw := range raws {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				raw.Release()
				errs[i] = apperr.Wrap(apperr.KindInternal, "normalize", "cancelled", err)
				return nil
			}
			out[i], errs[i] = n.Normalize(raw)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			ReleaseAll(out)
			return nil, err
		}
	}
	return out, nil
}

// releaseDecoded clears pixel storage of the common decoder outputs.
func releaseDecoded(img image.Image) {
	switch m := img.(type) {
	case *image.RGBA:
		clear(m.Pix)
	case *image.NRGBA:
		clear(m.Pix)
	case *image.Paletted:
		clear(m.Pix)
	case *image.Gray:
		clear(m.Pix)
	case *image.YCbCr:
		clear(m.Y)
		clear(m.Cb)
		clear(m.Cr)
	case *image.NYCbCrA:
		clear(m.Y)
		clear(m.Cb)
		clear(m.Cr)
		clear(m.A)
	case *image.CMYK:
		clear(m.Pix)
	}
}
