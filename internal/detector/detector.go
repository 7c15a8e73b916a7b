// Package detector wraps the external face detection/encoding service.
// The algorithm behind it is opaque to this system: an image goes in,
// zero or one face location plus a fixed-length encoding vector comes out.
package detector

import (
	"context"
	"errors"
)

// ErrNoFaceDetected is returned when the image contains no detectable
// face. The user should retry with a better photo.
var ErrNoFaceDetected = errors.New("no face detected in image")

// Face is a detected face: its encoding vector and its bounding box in
// pixel coordinates (top, right, bottom, left).
type Face struct {
	Encoding []float32
	Box      [4]int
}

// Detector produces a face encoding from a raw image.
type Detector interface {
	// DetectAndEncode finds the face in the image and computes its
	// encoding. Returns ErrNoFaceDetected when the image has no face.
	// Images with multiple faces use the first detected one.
	DetectAndEncode(ctx context.Context, image []byte) (*Face, error)
}
