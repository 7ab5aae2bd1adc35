package validate

import (
	"fmt"

	"github.com/stefando/multipartUpload/internal/storage"
)

// Field-level messages returned to API callers.
const (
	MsgValidationFailed = "Validation failed"

	MsgOriginalNameRequired = "File name is required"
	MsgOriginalNameString   = "File name must be a string"
	MsgOriginalNameMin      = "File name must contain at least 5 characters"
	MsgFileTypeRequired     = "File type is required"
	MsgFileTypeString       = "File type must be a string"
	MsgFileSizeNumber       = "File size must be a number"
	MsgFileSizeNegative     = "File size must not be negative"

	MsgFileKeyRequired  = "File key is required"
	MsgFileKeyString    = "File key must be a string"
	MsgUploadIDRequired = "Upload id is required"
	MsgUploadIDString   = "Upload id must be a string"

	MsgPartsRequired = "Parts is required"
	MsgPartsNumber   = "Parts must be a number"
	MsgPartsInteger  = "Parts must be a whole number"
	MsgPartsMin      = "Parts must be at least 1"
	MsgPartsList     = "Parts must be a list of uploaded parts"
	MsgPartObject    = "Each part must be an object"

	MsgPartNumberRequired = "Part number is required"
	MsgPartNumberNumber   = "Part number must be a number"
	MsgPartNumberInteger  = "Part number must be a whole number"
	MsgETagRequired       = "ETag is required"
	MsgETagString         = "ETag must be a string"
)

var (
	MsgPartsMax        = fmt.Sprintf("Parts must be at most %d", storage.MaxPartNumber)
	MsgPartNumberRange = fmt.Sprintf("Part number must be between 1 and %d", storage.MaxPartNumber)
)
