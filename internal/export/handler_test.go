package export

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/goover/docudesk/internal/layout"
	"github.com/goover/docudesk/internal/layout/assets"
)

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(quietLogger(), svc).MountRoutes(r)
	return r
}

func TestHandler_PDF(t *testing.T) {
	f := newServiceFixture(assets.Sources{})
	router := newTestRouter(f.svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/7/pdf?download=1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice-INV-2025-00007.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestHandler_StatusCodes(t *testing.T) {
	f := newServiceFixture(assets.Sources{})
	noSpooler := NewService(
		docSource{7: sampleDocument(1)},
		&settingsSource{cs: f.settings.cs},
		&recordingLoader{},
		layout.NewEngine(layout.NewPDFMeasurer()),
		NewRenderer(quietLogger()),
		assets.Sources{},
		quietLogger(),
	)

	tests := []struct {
		name   string
		svc    *Service
		method string
		path   string
		want   int
	}{
		{"inline pdf", f.svc, http.MethodGet, "/documents/7/pdf", http.StatusOK},
		{"missing document", f.svc, http.MethodGet, "/documents/99/pdf", http.StatusNotFound},
		{"bad id", f.svc, http.MethodGet, "/documents/abc/pdf", http.StatusBadRequest},
		{"print", f.svc, http.MethodPost, "/documents/7/print", http.StatusAccepted},
		{"print without spooler", noSpooler, http.MethodPost, "/documents/7/print", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(tt.svc).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
