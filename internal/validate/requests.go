package validate

import (
	"fmt"

	"github.com/stefando/multipartUpload/internal/storage"
)

// partNumberRule bounds part counts and part numbers to what the backend accepts.
var partNumberRule = fmt.Sprintf("gte=1,lte=%d", storage.MaxPartNumber)

// InitiateSchema describes the payload of POST /start.
var InitiateSchema = Schema{
	{
		Name: "original_name", Kind: KindString, Required: true, Rules: "required,min=5",
		RequiredMsg: MsgOriginalNameRequired, KindMsg: MsgOriginalNameString,
		Messages: map[string]string{"required": MsgOriginalNameRequired, "min": MsgOriginalNameMin},
	},
	{
		Name: "file_type", Kind: KindString, Required: true, Rules: "required",
		RequiredMsg: MsgFileTypeRequired, KindMsg: MsgFileTypeString,
		Messages: map[string]string{"required": MsgFileTypeRequired},
	},
	{
		Name: "file_size", Kind: KindNumber, Rules: "gte=0",
		KindMsg:  MsgFileSizeNumber,
		Messages: map[string]string{"gte": MsgFileSizeNegative},
	},
}

var (
	fileKeyField = Field{
		Name: "file_key", Kind: KindString, Required: true, Rules: "required",
		RequiredMsg: MsgFileKeyRequired, KindMsg: MsgFileKeyString,
		Messages: map[string]string{"required": MsgFileKeyRequired},
	}
	uploadIDField = Field{
		Name: "upload_id", Kind: KindString, Required: true, Rules: "required",
		RequiredMsg: MsgUploadIDRequired, KindMsg: MsgUploadIDString,
		Messages: map[string]string{"required": MsgUploadIDRequired},
	}
)

// AuthorizeSchema describes the payload of POST /urls.
var AuthorizeSchema = Schema{
	fileKeyField,
	{
		Name: "parts", Kind: KindInteger, Required: true, Rules: partNumberRule,
		RequiredMsg: MsgPartsRequired, KindMsg: MsgPartsNumber, IntegerMsg: MsgPartsInteger,
		Messages: map[string]string{"gte": MsgPartsMin, "lte": MsgPartsMax},
	},
	uploadIDField,
}

// CompletedPartSchema describes one element of the parts list of POST /complete.
var CompletedPartSchema = Schema{
	{
		Name: "part_number", Kind: KindInteger, Required: true, Rules: partNumberRule,
		RequiredMsg: MsgPartNumberRequired, KindMsg: MsgPartNumberNumber, IntegerMsg: MsgPartNumberInteger,
		Messages: map[string]string{"gte": MsgPartNumberRange, "lte": MsgPartNumberRange},
	},
	{
		Name: "etag", Kind: KindString, Required: true, Rules: "required",
		RequiredMsg: MsgETagRequired, KindMsg: MsgETagString,
		Messages: map[string]string{"required": MsgETagRequired},
	},
}

// CompleteSchema describes the payload of POST /complete.
var CompleteSchema = Schema{
	fileKeyField,
	uploadIDField,
	{
		Name: "parts", Kind: KindObjectList, Required: true, Items: CompletedPartSchema,
		RequiredMsg: MsgPartsRequired, KindMsg: MsgPartsList,
	},
}

// AbortSchema describes the payload of POST /abort.
var AbortSchema = Schema{fileKeyField, uploadIDField}

// InitiateRequest is a validated initiate payload.
type InitiateRequest struct {
	OriginalName string
	FileType     string
	FileSize     *float64
}

// AuthorizeRequest is a validated part-authorization payload.
type AuthorizeRequest struct {
	FileKey  string
	UploadID string
	Parts    int32
}

// CompleteRequest is a validated completion payload. Parts keep the order the
// caller sent them in.
type CompleteRequest struct {
	FileKey  string
	UploadID string
	Parts    []storage.CompletedPart
}

// AbortRequest is a validated abort payload.
type AbortRequest struct {
	FileKey  string
	UploadID string
}

// Initiate validates a POST /start payload.
func Initiate(raw map[string]any) (InitiateRequest, error) {
	v, err := InitiateSchema.Validate(raw)
	if err != nil {
		return InitiateRequest{}, err
	}
	req := InitiateRequest{
		OriginalName: v["original_name"].(string),
		FileType:     v["file_type"].(string),
	}
	if size, ok := v["file_size"].(float64); ok {
		req.FileSize = &size
	}
	return req, nil
}

// Authorize validates a POST /urls payload.
func Authorize(raw map[string]any) (AuthorizeRequest, error) {
	v, err := AuthorizeSchema.Validate(raw)
	if err != nil {
		return AuthorizeRequest{}, err
	}
	return AuthorizeRequest{
		FileKey:  v["file_key"].(string),
		UploadID: v["upload_id"].(string),
		Parts:    int32(v["parts"].(int64)),
	}, nil
}

// Complete validates a POST /complete payload.
func Complete(raw map[string]any) (CompleteRequest, error) {
	v, err := CompleteSchema.Validate(raw)
	if err != nil {
		return CompleteRequest{}, err
	}
	items := v["parts"].([]Values)
	parts := make([]storage.CompletedPart, len(items))
	for i, item := range items {
		parts[i] = storage.CompletedPart{
			PartNumber: int32(item["part_number"].(int64)),
			ETag:       item["etag"].(string),
		}
	}
	return CompleteRequest{
		FileKey:  v["file_key"].(string),
		UploadID: v["upload_id"].(string),
		Parts:    parts,
	}, nil
}

// Abort validates a POST /abort payload.
func Abort(raw map[string]any) (AbortRequest, error) {
	v, err := AbortSchema.Validate(raw)
	if err != nil {
		return AbortRequest{}, err
	}
	return AbortRequest{
		FileKey:  v["file_key"].(string),
		UploadID: v["upload_id"].(string),
	}, nil
}
