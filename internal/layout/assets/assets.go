// Package assets fetches branding images (letterhead, header band and
// signature) for the layout engine. Loading is best effort: a missing or
// unreadable image is logged and left out, and the layout falls back to its
// text-only spacing.
package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goover/docudesk/internal/shared"
)

// DefaultTimeout bounds each individual fetch.
const DefaultTimeout = 3 * time.Second

// MaxBytes caps the size of a single image.
const MaxBytes = 8 << 20

// Kind names an asset slot.
type Kind string

const (
	Letterhead Kind = "letterhead"
	Header     Kind = "header"
	Signature  Kind = "signature"
)

// Image is a decoded-enough asset: its bytes and the format the PDF writer
// needs to embed it.
type Image struct {
	Name   string
	Format string // "PNG" or "JPG"
	Data   []byte
	Width  int
	Height int
}

// Sources locates each asset. Values are file paths or http(s) URLs; empty
// means absent.
type Sources struct {
	Letterhead string
	Header     string
	Signature  string
}

// Merge returns s with empty slots filled from fallback.
func (s Sources) Merge(fallback Sources) Sources {
	if s.Letterhead == "" {
		s.Letterhead = fallback.Letterhead
	}
	if s.Header == "" {
		s.Header = fallback.Header
	}
	if s.Signature == "" {
		s.Signature = fallback.Signature
	}
	return s
}

// Set holds the loaded assets. Nil fields are absent.
type Set struct {
	Letterhead *Image
	Header     *Image
	Signature  *Image
}

// Images lists the present assets in a fixed order.
func (s Set) Images() []*Image {
	var out []*Image
	for _, img := range []*Image{s.Letterhead, s.Header, s.Signature} {
		if img != nil {
			out = append(out, img)
		}
	}
	return out
}

type Loader struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Loader)

func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

func NewLoader(logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{client: http.DefaultClient, timeout: DefaultTimeout, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches every configured asset concurrently. It never fails; assets
// that cannot be loaded within the timeout are simply absent from the Set.
func (l *Loader) Load(ctx context.Context, src Sources) Set {
	var (
		set Set
		g   errgroup.Group
	)
	slots := []struct {
		kind Kind
		loc  string
		dst  **Image
	}{
		{Letterhead, src.Letterhead, &set.Letterhead},
		{Header, src.Header, &set.Header},
		{Signature, src.Signature, &set.Signature},
	}
	for _, slot := range slots {
		if strings.TrimSpace(slot.loc) == "" {
			continue
		}
		g.Go(func() error {
			img, err := l.fetch(ctx, slot.kind, slot.loc)
			if err != nil {
				l.logger.Warn("asset unavailable",
					slog.String("asset", string(slot.kind)),
					slog.String("location", slot.loc),
					slog.Any("error", err),
				)
				return nil
			}
			*slot.dst = img
			return nil
		})
	}
	_ = g.Wait()
	return set
}

func (l *Loader) fetch(ctx context.Context, kind Kind, loc string) (*Image, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	data, err := l.read(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", kind, shared.ErrAssetUnavailable, err)
	}
	img, err := Decode(kind, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", kind, shared.ErrAssetUnavailable, err)
	}
	return img, nil
}

func (l *Loader) read(ctx context.Context, loc string) ([]byte, error) {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return readLimited(resp.Body)
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		f, err := os.Open(loc)
		if err != nil {
			done <- result{err: err}
			return
		}
		defer f.Close()
		data, err := readLimited(f)
		done <- result{data: data, err: err}
	}()
	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBytes {
		return nil, fmt.Errorf("image larger than %d bytes", MaxBytes)
	}
	return data, nil
}

// Decode validates raw PNG or JPEG bytes and wraps them as an Image.
func Decode(kind Kind, data []byte) (*Image, error) {
	var format string
	switch http.DetectContentType(data) {
	case "image/png":
		format = "PNG"
	case "image/jpeg":
		format = "JPG"
	default:
		return nil, fmt.Errorf("unsupported image type %q", http.DetectContentType(data))
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	return &Image{
		Name:   string(kind),
		Format: format,
		Data:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
