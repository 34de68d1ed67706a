// Package host runs gutter detection and grid partitioning off the
// caller's goroutine behind a typed request/response protocol with
// ownership-transferring image handles.
package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menta2k/grid-splitter/pkg/detector"
	"github.com/menta2k/grid-splitter/pkg/partitioner"
	"github.com/menta2k/grid-splitter/pkg/types"
)

var (
	// ErrCapability means the environment cannot provide off-screen
	// rendering surfaces. It is reported once, by New, and is fatal to
	// the offloading path.
	ErrCapability = errors.New("host: offscreen rendering unavailable")

	// ErrTransport means a response carried an unknown discriminant.
	// This is a protocol violation, not an expected runtime failure.
	ErrTransport = errors.New("host: unknown response discriminant")

	// ErrClosed is returned for requests submitted after Close.
	ErrClosed = errors.New("host: closed")
)

// Host owns two worker goroutines, one for detection and one for
// partitioning. Each worker processes one request at a time in arrival
// order; there is no ordering guarantee between the two workers, so a
// caller that needs detect-then-crop must sequence the calls itself.
// Requests are not queued beyond the in-flight one: a second submission
// blocks until the worker is free.
type Host struct {
	log      *zap.Logger
	detectCh chan request
	cropCh   chan request
	done     chan struct{}
	closing  sync.Once
	wg       sync.WaitGroup
}

// New starts the two workers. It first probes that an off-screen
// surface can be allocated and encoded; on failure it returns
// ErrCapability and no host is created.
func New(log *zap.Logger) (*Host, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := probeSurface(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapability, err)
	}

	h := &Host{
		log:      log,
		detectCh: make(chan request),
		cropCh:   make(chan request),
		done:     make(chan struct{}),
	}
	h.wg.Add(2)
	go h.worker("detect", h.detectCh)
	go h.worker("crop", h.cropCh)
	return h, nil
}

// probeSurface verifies the off-screen rendering primitive once at
// initialization, so a broken environment surfaces as a capability
// error rather than a per-request failure.
func probeSurface() error {
	probe := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	if probe == nil || len(probe.Pix) == 0 {
		return errors.New("cannot allocate probe surface")
	}
	var buf bytes.Buffer
	return png.Encode(&buf, probe)
}

// Close shuts the workers down and waits for any in-flight request to
// finish. Pending and later submissions fail with ErrClosed.
func (h *Host) Close() {
	h.closing.Do(func() {
		close(h.done)
	})
	h.wg.Wait()
}

// DetectPadding transfers handle to the detection worker and suspends
// until the matching response arrives. The handle is unusable
// afterwards regardless of outcome. A cancelled ctx abandons the wait;
// the in-flight work still runs to completion and its late response is
// discarded.
func (h *Host) DetectPadding(ctx context.Context, handle *ImageHandle) (types.GutterEstimate, error) {
	resp, err := h.submit(ctx, h.detectCh, request{
		Kind:   KindDetectPadding,
		ID:     uuid.New(),
		Handle: handle,
		Width:  handle.Width(),
		Height: handle.Height(),
	})
	if err != nil {
		return types.GutterEstimate{}, err
	}
	switch resp.Kind {
	case KindDetectPaddingDone:
		return types.GutterEstimate{SizePx: resp.Padding, Detected: true}, nil
	case KindDetectPaddingError:
		return types.GutterEstimate{}, fmt.Errorf("host: detect padding: %s", resp.Message)
	default:
		return types.GutterEstimate{}, fmt.Errorf("%w: %q", ErrTransport, resp.Kind)
	}
}

// CropImage transfers handle to the partition worker and suspends until
// the matching response arrives. On success the returned cells are in
// row-major order with PNG data populated, and the caller owns them
// exclusively; the worker retains no reference.
func (h *Host) CropImage(ctx context.Context, handle *ImageHandle, cfg types.GridConfig) ([]types.Cell, error) {
	resp, err := h.submit(ctx, h.cropCh, request{
		Kind:   KindCropImage,
		ID:     uuid.New(),
		Handle: handle,
		Width:  handle.Width(),
		Height: handle.Height(),
		Grid:   cfg,
	})
	if err != nil {
		return nil, err
	}
	switch resp.Kind {
	case KindCropImageDone:
		return resp.Cells, nil
	case KindCropImageError:
		return nil, fmt.Errorf("host: crop image: %s", resp.Message)
	default:
		return nil, fmt.Errorf("%w: %q", ErrTransport, resp.Kind)
	}
}

func (h *Host) submit(ctx context.Context, ch chan request, req request) (response, error) {
	req.reply = make(chan response, 1)

	select {
	case ch <- req:
	case <-h.done:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		if resp.ID != req.ID {
			return response{}, fmt.Errorf("%w: response id mismatch", ErrTransport)
		}
		return resp, nil
	case <-ctx.Done():
		// The reply channel is buffered, so the worker never blocks on
		// the abandoned response.
		return response{}, ctx.Err()
	}
}

func (h *Host) worker(name string, ch chan request) {
	defer h.wg.Done()
	for {
		select {
		case req := <-ch:
			h.log.Debug("request received",
				zap.String("worker", name),
				zap.String("kind", req.Kind),
				zap.String("id", req.ID.String()))
			resp := h.process(req)
			req.Handle.release()
			if resp.Message != "" {
				h.log.Warn("request failed",
					zap.String("worker", name),
					zap.String("id", req.ID.String()),
					zap.String("message", resp.Message))
			}
			req.reply <- resp
		case <-h.done:
			return
		}
	}
}

// process runs one request to completion. Any panic in sampling,
// detection, or rendering is recovered here and turned into the error
// response variant; it never escapes the worker.
func (h *Host) process(req request) (resp response) {
	resp = response{ID: req.ID}
	defer func() {
		if r := recover(); r != nil {
			resp.Kind = errorKind(req.Kind)
			resp.Message = fmt.Sprintf("panic: %v", r)
			resp.Cells = nil
		}
	}()

	switch req.Kind {
	case KindDetectPadding:
		img, err := req.Handle.Take()
		if err != nil {
			resp.Kind = KindDetectPaddingError
			resp.Message = err.Error()
			return resp
		}
		est, err := detector.Detect(img)
		if err != nil {
			resp.Kind = KindDetectPaddingError
			resp.Message = err.Error()
			return resp
		}
		resp.Kind = KindDetectPaddingDone
		resp.Padding = est.SizePx
		return resp

	case KindCropImage:
		img, err := req.Handle.Take()
		if err != nil {
			resp.Kind = KindCropImageError
			resp.Message = err.Error()
			return resp
		}
		cells, err := partitioner.Partition(img, req.Grid)
		if err == nil {
			err = partitioner.EncodePNG(cells)
		}
		if err != nil {
			resp.Kind = KindCropImageError
			resp.Message = err.Error()
			return resp
		}
		resp.Kind = KindCropImageDone
		resp.Cells = cells
		return resp

	default:
		resp.Kind = errorKind(req.Kind)
		resp.Message = fmt.Sprintf("unknown request kind %q", req.Kind)
		return resp
	}
}
