package editor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	u "github.com/gofrs/uuid/v5"
	"github.com/nfnt/resize"
)

// previewWidth is the max thumbnail width; aspect ratio is preserved.
const previewWidth = 320

// Preview is the locally generated display resource for a newly picked
// image: a downscaled JPEG in the state dir. It is owned by exactly one
// editor image and released exactly once, on removal or draft discard.
type Preview struct {
	path string
	once sync.Once
}

// Path returns the thumbnail file path.
func (p *Preview) Path() string { return p.path }

// Release deletes the thumbnail. Safe to call more than once; only the
// first call touches the filesystem.
func (p *Preview) Release() {
	p.once.Do(func() {
		_ = os.Remove(p.path)
	})
}

// makePreview decodes, downscales and re-encodes the picked image into
// dir. Formats Go cannot decode (already known to be image/*) fall back
// to a raw copy so the caller still gets a displayable file.
func makePreview(dir string, data []byte) (*Preview, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	id, err := u.NewV4()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, id.String()+".jpg")

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return nil, fmt.Errorf("write preview: %w", err)
		}
		return &Preview{path: path}, nil
	}

	thumb := resize.Resize(previewWidth, 0, img, resize.Lanczos3)
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create preview: %w", err)
	}
	defer out.Close()
	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 80}); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return &Preview{path: path}, nil
}
