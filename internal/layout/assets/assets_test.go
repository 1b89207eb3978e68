package assets

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goover/docudesk/internal/shared"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 153, G: 51, B: 51, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 4)), nil))
	return buf.Bytes()
}

func TestLoader_FileAndHTTP(t *testing.T) {
	dir := t.TempDir()
	letterhead := filepath.Join(dir, "letterhead.png")
	require.NoError(t, os.WriteFile(letterhead, pngBytes(t, 20, 30), 0o600))

	sig := jpegBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(sig)
	}))
	defer srv.Close()

	set := NewLoader(quietLogger()).Load(context.Background(), Sources{
		Letterhead: letterhead,
		Signature:  srv.URL + "/sig.jpg",
	})

	require.NotNil(t, set.Letterhead)
	assert.Equal(t, "PNG", set.Letterhead.Format)
	assert.Equal(t, "letterhead", set.Letterhead.Name)
	assert.Equal(t, 20, set.Letterhead.Width)
	assert.Equal(t, 30, set.Letterhead.Height)
	assert.Nil(t, set.Header)
	require.NotNil(t, set.Signature)
	assert.Equal(t, "JPG", set.Signature.Format)
	assert.Len(t, set.Images(), 2)
}

func TestLoader_FailuresAreAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.png":
			http.NotFound(w, r)
		default:
			_, _ = w.Write([]byte("<html>not an image</html>"))
		}
	}))
	defer srv.Close()

	set := NewLoader(quietLogger()).Load(context.Background(), Sources{
		Letterhead: srv.URL + "/missing.png",
		Header:     srv.URL + "/page.html",
		Signature:  filepath.Join(t.TempDir(), "nope.png"),
	})
	assert.Empty(t, set.Images())
}

func TestLoader_TimeoutIsBounded(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	set := NewLoader(quietLogger(), WithTimeout(50*time.Millisecond)).Load(context.Background(), Sources{
		Letterhead: srv.URL + "/slow.png",
	})
	assert.Nil(t, set.Letterhead)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLoader_EmptySources(t *testing.T) {
	set := NewLoader(nil).Load(context.Background(), Sources{Header: "   "})
	assert.Empty(t, set.Images())
}

func TestLoader_FetchErrorWrapsSentinel(t *testing.T) {
	l := NewLoader(quietLogger())
	_, err := l.fetch(context.Background(), Header, filepath.Join(t.TempDir(), "absent.png"))
	assert.ErrorIs(t, err, shared.ErrAssetUnavailable)
}

func TestDecode_RejectsUnsupported(t *testing.T) {
	_, err := Decode(Header, []byte("GIF89a......"))
	assert.Error(t, err)

	img, err := Decode(Header, pngBytes(t, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, "header", img.Name)
}

func TestSources_Merge(t *testing.T) {
	got := Sources{Header: "/a.png"}.Merge(Sources{Header: "/b.png", Signature: "/s.png"})
	assert.Equal(t, Sources{Header: "/a.png", Signature: "/s.png"}, got)
}
