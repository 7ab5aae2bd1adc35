package upload

import (
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultKeyPrefix is the namespace new objects are created under unless
// configured otherwise.
const DefaultKeyPrefix = "main-folder"

const maxStemLength = 64

// DeriveFileName builds a storage-safe, unique object name from the caller's
// original file name and declared type. The format is
// <slugified-stem>-<uuidv7><.ext>; the UUIDv7 carries a millisecond timestamp
// plus random bits, so concurrent calls with the same input never collide.
func DeriveFileName(originalName, fileType string) string {
	base := path.Base(strings.ReplaceAll(originalName, "\\", "/"))
	origExt := path.Ext(base)
	stem := slugify(strings.TrimSuffix(base, origExt))
	if stem == "" {
		stem = "file"
	}
	if len(stem) > maxStemLength {
		stem = strings.TrimRight(stem[:maxStemLength], "-")
	}

	id := uuid.Must(uuid.NewV7())
	return stem + "-" + id.String() + extensionFor(fileType, origExt)
}

// ObjectKey joins the namespace prefix and file name into the key used for
// every phase of the upload.
func ObjectKey(prefix, fileName string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fileName
	}
	return prefix + "/" + fileName
}

// extensionFor picks the extension from a MIME type when it is known, from a
// bare extension-like type ("pdf"), and otherwise from the original name.
func extensionFor(fileType, origExt string) string {
	fileType = strings.TrimSpace(fileType)
	if strings.Contains(fileType, "/") {
		mediaType, _, err := mime.ParseMediaType(fileType)
		if err == nil {
			if m := mimetype.Lookup(mediaType); m != nil && m.Extension() != "" {
				return m.Extension()
			}
		}
	} else if ext := slugify(strings.TrimPrefix(fileType, ".")); ext != "" {
		return "." + ext
	}

	if ext := slugify(strings.TrimPrefix(origExt, ".")); ext != "" {
		return "." + ext
	}
	return ""
}

// slugify lowercases s and replaces every run of characters outside
// [a-z0-9] with a single dash.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
