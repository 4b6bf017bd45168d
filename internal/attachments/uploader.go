package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// File is one uploaded document bound to a slot.
type File struct {
	Slot enums.AttachmentSlot
	Name string
	Size int64
	Body io.Reader
}

// URLs holds at most one URL per slot.
type URLs map[enums.AttachmentSlot]string

func (u URLs) Get(slot enums.AttachmentSlot) string {
	if u == nil {
		return ""
	}
	return u[slot]
}

// ObjectStore is the storage surface the uploader needs.
type ObjectStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
}

type Uploader struct {
	store ObjectStore
	now   func() time.Time
}

func NewUploader(store ObjectStore) (*Uploader, error) {
	if store == nil {
		return nil, errors.New("object store required")
	}
	return &Uploader{store: store, now: time.Now}, nil
}

// Upload stores every new file and merges the resulting URLs over existing.
// Slots without a new file keep their existing URL; a new file replaces it.
// The first failed upload stops the run.
func (u *Uploader) Upload(ctx context.Context, buildingID, unitID uuid.UUID, files []File, existing URLs) (URLs, error) {
	if err := CheckFiles(files); err != nil {
		return nil, err
	}

	out := make(URLs, len(existing)+len(files))
	for slot, url := range existing {
		if url != "" {
			out[slot] = url
		}
	}

	for _, f := range files {
		ext := Extension(f.Name)
		contentType, _ := ContentType(ext)
		object := ObjectPath(f.Slot, buildingID, unitID, u.now(), ext)

		url, err := u.store.Upload(ctx, object, contentType, f.Body)
		if err != nil {
			return nil, fmt.Errorf("uploading %s: %w", f.Slot, err)
		}
		out[f.Slot] = url
	}
	return out, nil
}

// ObjectPath builds {slotPrefix}/{buildingId}/{unitId}/{timestamp}.{ext}.
func ObjectPath(slot enums.AttachmentSlot, buildingID, unitID uuid.UUID, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%s/%s/%d.%s", slot.PathPrefix(), buildingID, unitID, at.UnixMilli(), ext)
}
