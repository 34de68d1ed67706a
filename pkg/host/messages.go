package host

import (
	"github.com/google/uuid"

	"github.com/menta2k/grid-splitter/pkg/types"
)

// Message discriminants. A single channel carries a request and both of
// its response variants, told apart by Kind.
const (
	KindDetectPadding      = "detectPadding"
	KindDetectPaddingDone  = "detectPaddingDone"
	KindDetectPaddingError = "detectPaddingError"

	KindCropImage      = "cropImage"
	KindCropImageDone  = "cropImageDone"
	KindCropImageError = "cropImageError"
)

// request is the envelope sent to a worker. Handle ownership moves with
// the request; all other fields travel by value.
type request struct {
	Kind   string
	ID     uuid.UUID
	Handle *ImageHandle
	Width  int
	Height int
	Grid   types.GridConfig

	reply chan response
}

// response is the envelope a worker sends back. Kind is the matching
// *Done variant on success or the *Error variant with Message set on
// failure.
type response struct {
	Kind    string
	ID      uuid.UUID
	Padding int
	Cells   []types.Cell
	Message string
}

func errorKind(requestKind string) string {
	if requestKind == KindDetectPadding {
		return KindDetectPaddingError
	}
	return KindCropImageError
}
