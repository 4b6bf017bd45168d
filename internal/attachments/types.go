package attachments

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatedesk-backend/pkg/errors"
)

const (
	ReasonUnsupportedFileType = "UnsupportedFileType"
	ReasonDuplicateSlot       = "DuplicateAttachmentSlot"
)

var contentTypesByExt = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// AllowedExtensions lists accepted extensions in sorted order.
func AllowedExtensions() []string {
	out := make([]string, 0, len(contentTypesByExt))
	for ext := range contentTypesByExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(name)), "."))
}

// ContentType maps an accepted extension onto its MIME type.
func ContentType(ext string) (string, bool) {
	ct, ok := contentTypesByExt[strings.ToLower(ext)]
	return ct, ok
}

// CheckFiles rejects unsupported extensions and repeated slots. It never
// touches storage so it can run during validation.
func CheckFiles(files []File) error {
	seen := make(map[enums.AttachmentSlot]bool, len(files))
	for _, f := range files {
		field := f.Slot.FormField()
		if !f.Slot.IsValid() {
			return pkgerrors.Invalid(ReasonUnsupportedFileType, field, fmt.Sprintf("unknown attachment slot %q", f.Slot))
		}
		if seen[f.Slot] {
			return pkgerrors.Invalid(ReasonDuplicateSlot, field, "only one file per attachment slot")
		}
		seen[f.Slot] = true

		if _, ok := ContentType(Extension(f.Name)); !ok {
			return pkgerrors.Invalid(ReasonUnsupportedFileType, field,
				fmt.Sprintf("file type not allowed; use %s", strings.Join(AllowedExtensions(), ", ")))
		}
	}
	return nil
}
