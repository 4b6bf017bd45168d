package attachments

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatedesk-backend/pkg/errors"
)

type uploadCall struct {
	object      string
	contentType string
	body        string
}

type stubStore struct {
	calls  []uploadCall
	failAt int
}

func (s *stubStore) Upload(_ context.Context, object, contentType string, body io.Reader) (string, error) {
	data, _ := io.ReadAll(body)
	s.calls = append(s.calls, uploadCall{object: object, contentType: contentType, body: string(data)})
	if s.failAt > 0 && len(s.calls) == s.failAt {
		return "", errors.New("bucket unavailable")
	}
	return "https://storage.googleapis.com/estate/" + object, nil
}

func fixedUploader(t *testing.T, store ObjectStore) *Uploader {
	t.Helper()
	u, err := NewUploader(store)
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}
	u.now = func() time.Time { return time.UnixMilli(1757844000000) }
	return u
}

func TestUploadBuildsObjectPaths(t *testing.T) {
	store := &stubStore{}
	uploader := fixedUploader(t, store)
	buildingID, unitID := uuid.New(), uuid.New()

	urls, err := uploader.Upload(context.Background(), buildingID, unitID, []File{
		{Slot: enums.AttachmentSlotCertifiedCheck, Name: "check.JPG", Body: strings.NewReader("jpg")},
		{Slot: enums.AttachmentSlotTaxExemption, Name: "exemption.pdf", Body: strings.NewReader("pdf")},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.calls) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(store.calls))
	}

	wantObject := "certified-checks/" + buildingID.String() + "/" + unitID.String() + "/1757844000000.jpg"
	if store.calls[0].object != wantObject {
		t.Fatalf("expected object %s, got %s", wantObject, store.calls[0].object)
	}
	if store.calls[0].contentType != "image/jpeg" || store.calls[1].contentType != "application/pdf" {
		t.Fatalf("unexpected content types %+v", store.calls)
	}
	if !strings.HasPrefix(store.calls[1].object, "tax-exemptions/") {
		t.Fatalf("unexpected tax object %s", store.calls[1].object)
	}
	if urls.Get(enums.AttachmentSlotCertifiedCheck) != "https://storage.googleapis.com/estate/"+wantObject {
		t.Fatalf("unexpected url %s", urls.Get(enums.AttachmentSlotCertifiedCheck))
	}
	if urls.Get(enums.AttachmentSlotBuyerID) != "" {
		t.Fatalf("buyer id slot was never filled")
	}
}

func TestUploadReplacesAndCarriesForward(t *testing.T) {
	store := &stubStore{}
	uploader := fixedUploader(t, store)

	existing := URLs{
		enums.AttachmentSlotTaxExemption: "https://old/tax.pdf",
		enums.AttachmentSlotBuyerID:      "https://old/id.png",
	}
	urls, err := uploader.Upload(context.Background(), uuid.New(), uuid.New(), []File{
		{Slot: enums.AttachmentSlotTaxExemption, Name: "new.pdf", Body: strings.NewReader("new")},
	}, existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 2 {
		t.Fatalf("expected exactly one url per filled slot, got %v", urls)
	}
	if got := urls.Get(enums.AttachmentSlotTaxExemption); got == "https://old/tax.pdf" || !strings.Contains(got, "tax-exemptions/") {
		t.Fatalf("new upload should replace the old url, got %s", got)
	}
	if urls.Get(enums.AttachmentSlotBuyerID) != "https://old/id.png" {
		t.Fatalf("untouched slot should carry forward")
	}
	if existing[enums.AttachmentSlotTaxExemption] != "https://old/tax.pdf" {
		t.Fatalf("existing map must not be modified")
	}
}

func TestUploadStopsOnFailure(t *testing.T) {
	store := &stubStore{failAt: 1}
	uploader := fixedUploader(t, store)

	_, err := uploader.Upload(context.Background(), uuid.New(), uuid.New(), []File{
		{Slot: enums.AttachmentSlotTaxExemption, Name: "a.pdf", Body: strings.NewReader("a")},
		{Slot: enums.AttachmentSlotBuyerID, Name: "b.png", Body: strings.NewReader("b")},
	}, nil)
	if err == nil {
		t.Fatal("expected upload error")
	}
	if len(store.calls) != 1 {
		t.Fatalf("expected upload to stop after first failure, got %d calls", len(store.calls))
	}
}

func TestCheckFilesRejectsBeforeUpload(t *testing.T) {
	store := &stubStore{}
	uploader := fixedUploader(t, store)

	_, err := uploader.Upload(context.Background(), uuid.New(), uuid.New(), []File{
		{Slot: enums.AttachmentSlotTaxExemption, Name: "ok.pdf", Body: strings.NewReader("a")},
		{Slot: enums.AttachmentSlotBuyerID, Name: "id.exe", Body: strings.NewReader("b")},
	}, nil)
	if got := pkgerrors.Reason(err); got != ReasonUnsupportedFileType {
		t.Fatalf("expected %s, got %v", ReasonUnsupportedFileType, err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("no upload may start when a file is rejected")
	}
}

func TestCheckFiles(t *testing.T) {
	tests := []struct {
		name   string
		files  []File
		reason string
	}{
		{name: "empty", files: nil},
		{name: "webp ok", files: []File{{Slot: enums.AttachmentSlotBuyerID, Name: "scan.webp"}}},
		{name: "jpeg ok", files: []File{{Slot: enums.AttachmentSlotBuyerID, Name: "scan.jpeg"}}},
		{name: "no extension", files: []File{{Slot: enums.AttachmentSlotBuyerID, Name: "scan"}}, reason: ReasonUnsupportedFileType},
		{name: "gif", files: []File{{Slot: enums.AttachmentSlotBuyerID, Name: "scan.gif"}}, reason: ReasonUnsupportedFileType},
		{name: "unknown slot", files: []File{{Slot: "deed", Name: "deed.pdf"}}, reason: ReasonUnsupportedFileType},
		{
			name: "duplicate slot",
			files: []File{
				{Slot: enums.AttachmentSlotBuyerID, Name: "a.png"},
				{Slot: enums.AttachmentSlotBuyerID, Name: "b.png"},
			},
			reason: ReasonDuplicateSlot,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := CheckFiles(tc.files)
			if tc.reason == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if got := pkgerrors.Reason(err); got != tc.reason {
				t.Fatalf("expected %s, got %v", tc.reason, err)
			}
		})
	}
}

func TestAllowedExtensions(t *testing.T) {
	got := strings.Join(AllowedExtensions(), ",")
	if got != "jpeg,jpg,pdf,png,webp" {
		t.Fatalf("unexpected extensions %s", got)
	}
}
