// Package editor reconciles a draft car listing into the minimal set of
// operations the backend needs: new images are uploaded, removed
// server images land in a deletion set, untouched images are kept
// without ever being re-uploaded.
package editor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kigundalevi/carsawa/internal/errs"
	"github.com/kigundalevi/carsawa/internal/gateway"
	"github.com/kigundalevi/carsawa/internal/model"
)

// MaxImageBytes is the per-file upload limit.
const MaxImageBytes = 5 << 20

// CarGateway is the slice of the REST client the editor needs.
type CarGateway interface {
	Car(ctx context.Context, id string) (model.Car, error)
	CreateCar(ctx context.Context, f model.CarFields, uploads []model.Upload) (model.Car, error)
	UpdateCar(ctx context.Context, id string, f model.CarFields, ops gateway.ImageOps) (model.Car, error)
}

// Image is one entry of the draft's ordered image list. Exactly one of
// {server ref, local upload} is authoritative: a ref with no upload is
// kept as-is, an upload with no ref is pending upload.
type Image struct {
	Ref     model.ImageRef // zero for local-only images
	Upload  *model.Upload  // nil for persisted images
	preview *Preview       // owned display resource, new images only
}

// IsNew reports whether the image exists only locally.
func (im Image) IsNew() bool { return im.Upload != nil }

// PreviewPath returns the local display path for a new image, empty for
// persisted ones (those are displayed from Ref.URL).
func (im Image) PreviewPath() string {
	if im.preview == nil {
		return ""
	}
	return im.preview.Path()
}

// Diff is the reconciled image operation set for one save.
type Diff struct {
	Keep    []model.ImageRef
	Uploads []model.Upload
	Delete  []string
}

// Draft is the in-progress state of a listing being created or edited.
type Draft struct {
	Fields model.CarFields

	gw       CarGateway
	log      *zap.Logger
	thumbDir string
	carID    string // empty until loaded; empty means create mode

	mu        sync.Mutex
	images    []Image
	toDelete  []string
	discarded bool
}

// NewDraft starts a create-mode draft with the same field defaults the
// listing form shows.
func NewDraft(gw CarGateway, thumbDir string, log *zap.Logger) *Draft {
	if log == nil {
		log = zap.NewNop()
	}
	return &Draft{
		gw:       gw,
		log:      log,
		thumbDir: thumbDir,
		Fields: model.CarFields{
			Year:         time.Now().Year(),
			Condition:    model.ConditionUsed,
			Transmission: model.TransmissionAutomatic,
			FuelType:     model.FuelPetrol,
			BodyType:     model.BodySedan,
			Status:       model.StatusAvailable,
		},
	}
}

// LoadDraft starts an edit-mode draft from the server copy of a
// listing. A missing listing surfaces errs.ErrNotFound so the caller
// can render a distinct not-found state.
func LoadDraft(ctx context.Context, gw CarGateway, thumbDir string, log *zap.Logger, id string) (*Draft, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: no listing id", errs.ErrNotFound)
	}
	car, err := gw.Car(ctx, id)
	if err != nil {
		return nil, err
	}
	d := NewDraft(gw, thumbDir, log)
	d.carID = car.ID
	d.Fields = car.Fields
	for _, ref := range car.Images {
		d.images = append(d.images, Image{Ref: ref})
	}
	return d, nil
}

// CarID returns the listing id for edit-mode drafts, empty for create.
func (d *Draft) CarID() string { return d.carID }

// Images returns a snapshot of the ordered image list.
func (d *Draft) Images() []Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Image, len(d.images))
	copy(out, d.images)
	return out
}

// AddImages validates and appends one image per file. The batch is
// all-or-nothing: one non-image or oversized file rejects the whole
// selection with a single descriptive error and nothing is appended.
// The append itself is one atomic list update.
func (d *Draft) AddImages(paths ...string) error {
	type picked struct {
		name string
		data []byte
	}
	batch := make([]picked, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", errs.ErrValidation, p, err)
		}
		if !isImage(data) {
			return fmt.Errorf("%w: please select only image files (JPEG, PNG, etc.)", errs.ErrValidation)
		}
		if len(data) > MaxImageBytes {
			return fmt.Errorf("%w: some images exceed the maximum file size of 5MB", errs.ErrValidation)
		}
		batch = append(batch, picked{name: filepath.Base(p), data: data})
	}

	appended := make([]Image, 0, len(batch))
	for _, f := range batch {
		pv, err := makePreview(d.thumbDir, f.data)
		if err != nil {
			// Previews already created for this batch are orphaned
			// otherwise.
			for _, im := range appended {
				im.preview.Release()
			}
			return fmt.Errorf("generate preview: %w", err)
		}
		appended = append(appended, Image{
			Upload:  &model.Upload{Filename: f.name, Data: f.data},
			preview: pv,
		})
	}

	d.mu.Lock()
	d.images = append(d.images, appended...)
	d.mu.Unlock()
	return nil
}

// RemoveImage drops the image at index i. A new image releases its
// preview immediately; a persisted image joins the deletion set and
// nothing local is released. Duplicate files are distinct entries, so
// removal always targets an index, never a value.
func (d *Draft) RemoveImage(i int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.images) {
		return fmt.Errorf("image index %d out of range", i)
	}
	im := d.images[i]
	if im.IsNew() {
		im.preview.Release()
	} else {
		d.toDelete = append(d.toDelete, im.Ref.Key())
	}
	d.images = append(d.images[:i], d.images[i+1:]...)
	return nil
}

// Reconcile computes the pure diff of the current image list versus the
// original server state: kept refs, pending uploads, deletion keys.
func (d *Draft) Reconcile() Diff {
	d.mu.Lock()
	defer d.mu.Unlock()
	var diff Diff
	for _, im := range d.images {
		if im.IsNew() {
			diff.Uploads = append(diff.Uploads, *im.Upload)
		} else {
			diff.Keep = append(diff.Keep, im.Ref)
		}
	}
	diff.Delete = append(diff.Delete, d.toDelete...)
	return diff
}

// Validate runs the local submit-time checks. Failures are local and
// block submission without any network call.
func (d *Draft) Validate() error {
	d.mu.Lock()
	n := len(d.images)
	d.mu.Unlock()
	if n == 0 {
		return fmt.Errorf("%w: please add at least one image of the car", errs.ErrValidation)
	}
	if err := d.Fields.Validate(time.Now()); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	return nil
}

// SubmitCreate posts the draft as a new listing. On success the draft
// is discarded; on failure it is preserved in full (picked bytes stay
// in memory) so the user can retry without re-picking files.
func (d *Draft) SubmitCreate(ctx context.Context) (model.Car, error) {
	if err := d.Validate(); err != nil {
		return model.Car{}, err
	}
	diff := d.Reconcile()
	car, err := d.gw.CreateCar(ctx, d.Fields, diff.Uploads)
	if err != nil {
		return model.Car{}, err
	}
	d.Discard()
	return car, nil
}

// SubmitEdit puts the draft as a diff against the server copy: new
// uploads, the deletion set, and keepExistingImages so untouched images
// survive without being re-uploaded.
func (d *Draft) SubmitEdit(ctx context.Context) (model.Car, error) {
	if d.carID == "" {
		return model.Car{}, fmt.Errorf("draft has no listing id; use SubmitCreate")
	}
	if err := d.Validate(); err != nil {
		return model.Car{}, err
	}
	diff := d.Reconcile()
	car, err := d.gw.UpdateCar(ctx, d.carID, d.Fields, gateway.ImageOps{
		Uploads:      diff.Uploads,
		Delete:       diff.Delete,
		KeepExisting: true,
	})
	if err != nil {
		return model.Car{}, err
	}
	d.Discard()
	return car, nil
}

// Discard releases every preview and empties the draft. Idempotent;
// every exit path of the editor funnels through here so previews are
// released exactly once.
func (d *Draft) Discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.discarded {
		return
	}
	for _, im := range d.images {
		if im.preview != nil {
			im.preview.Release()
		}
	}
	d.images = nil
	d.toDelete = nil
	d.discarded = true
}

func isImage(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "image/")
}
