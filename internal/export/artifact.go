package export

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSpooler is returned by Print when the renderer was built without one.
var ErrNoSpooler = errors.New("export: no print spooler configured")

// Artifact is a rendered PDF. Save and Print use the same bytes.
type Artifact struct {
	Name        string
	Data        []byte
	Fingerprint string
	Pages       int
	// Cached reports whether Data came from the render cache.
	Cached bool

	spooler Spooler
}

// Save writes the PDF to dir. An empty name uses a.Name. It returns the
// written path.
func (a *Artifact) Save(dir, name string) (string, error) {
	if name == "" {
		name = a.Name
	}
	path, err := writeFile(dir, name, a.Data)
	if err != nil {
		return "", fmt.Errorf("export: save %s: %w", name, err)
	}
	return path, nil
}

// Print hands the PDF to the renderer's spooler.
func (a *Artifact) Print(ctx context.Context) error {
	if a.spooler == nil {
		return ErrNoSpooler
	}
	return a.spooler.Spool(ctx, a.Name, a.Data)
}
