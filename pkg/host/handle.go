package host

import (
	"errors"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// ErrHandleReleased is returned when a handle's pixels are requested
// after they have already been transferred.
var ErrHandleReleased = errors.New("host: image handle already transferred")

// ImageHandle is a single-use, ownership-transferring reference to
// decoded pixel data. Transferring it into a request moves the buffer
// to the worker without copying; after the transfer the sender must not
// read it again. The worker drops the buffer once it has produced its
// response, success or failure, to bound memory.
type ImageHandle struct {
	mu       sync.Mutex
	img      *image.NRGBA
	width    int
	height   int
	released bool
}

// NewImageHandle wraps img in a transferable handle. The image is
// cloned to NRGBA once so the handle owns its pixels outright.
func NewImageHandle(img image.Image) *ImageHandle {
	pix := imaging.Clone(img)
	return &ImageHandle{
		img:    pix,
		width:  pix.Bounds().Dx(),
		height: pix.Bounds().Dy(),
	}
}

// Width returns the pixel width recorded at handle creation. Valid even
// after release.
func (h *ImageHandle) Width() int { return h.width }

// Height returns the pixel height recorded at handle creation. Valid
// even after release.
func (h *ImageHandle) Height() int { return h.height }

// Take moves the pixel buffer out of the handle. It succeeds exactly
// once; every later call returns ErrHandleReleased.
func (h *ImageHandle) Take() (*image.NRGBA, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrHandleReleased
	}
	img := h.img
	h.img = nil
	h.released = true
	return img, nil
}

// Released reports whether the handle's pixels have been transferred
// or dropped.
func (h *ImageHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// release drops the buffer without transferring it. Idempotent; called
// by the worker after responding so a request that failed before Take
// still frees the handle.
func (h *ImageHandle) release() {
	h.mu.Lock()
	h.img = nil
	h.released = true
	h.mu.Unlock()
}
