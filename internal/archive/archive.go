// Package archive keeps cropped face images per employee for audit and
// record purposes. The stored encoding is authoritative for matching;
// these images are never read back by the recognition path.
package archive

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// maxFaceSize bounds the stored face crop in pixels.
const maxFaceSize = 256

// Archive writes face images into per-employee directories.
type Archive struct {
	dir string
}

// New creates an archive rooted at dir.
func New(dir string) (*Archive, error) {
	if dir == "" {
		return nil, fmt.Errorf("archive directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// SaveFace crops the face box (top, right, bottom, left) out of the
// image, scales it down to at most maxFaceSize, and writes it as a JPEG
// under the employee's directory. Returns the written file path.
func (a *Archive) SaveFace(employeeID string, imageData []byte, box [4]int) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	crop := image.Rect(box[3], box[0], box[1], box[2]).Intersect(img.Bounds())
	if crop.Empty() {
		return "", fmt.Errorf("face box %v lies outside the image bounds %v", box, img.Bounds())
	}

	width, height := crop.Dx(), crop.Dy()
	if width > maxFaceSize || height > maxFaceSize {
		if width > height {
			height = height * maxFaceSize / width
			width = maxFaceSize
		} else {
			width = width * maxFaceSize / height
			height = maxFaceSize
		}
	}

	face := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(face, face.Bounds(), img, crop, draw.Over, nil)

	employeeDir := filepath.Join(a.dir, employeeID)
	if err := os.MkdirAll(employeeDir, 0o755); err != nil {
		return "", fmt.Errorf("creating employee directory: %w", err)
	}

	path := filepath.Join(employeeDir, fmt.Sprintf("face_%s.jpg", uuid.NewString()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating face image file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, face, &jpeg.Options{Quality: 85}); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to encode face image: %w", err)
	}
	return path, nil
}

// Remove deletes the employee's image directory. No-op if absent.
func (a *Archive) Remove(employeeID string) error {
	if err := os.RemoveAll(filepath.Join(a.dir, employeeID)); err != nil {
		return fmt.Errorf("removing employee archive: %w", err)
	}
	return nil
}
