package archive

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// testImage returns a JPEG-encoded solid-color image of the given size.
func testImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestSaveFace(t *testing.T) {
	dir := t.TempDir()
	a, err := New(dir)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}

	// Box is top, right, bottom, left.
	path, err := a.SaveFace("emp-1", testImage(t, 640, 480), [4]int{100, 400, 300, 200})
	if err != nil {
		t.Fatalf("failed to save face: %v", err)
	}

	if filepath.Dir(path) != filepath.Join(dir, "emp-1") {
		t.Errorf("face image saved outside employee directory: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open saved image: %v", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("saved face image does not decode: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 200 {
		t.Errorf("expected 200x200 crop, got %v", img.Bounds())
	}
}

func TestSaveFaceScalesLargeCrops(t *testing.T) {
	a, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}

	path, err := a.SaveFace("emp-1", testImage(t, 1200, 1000), [4]int{0, 1000, 800, 0})
	if err != nil {
		t.Fatalf("failed to save face: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open saved image: %v", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("saved face image does not decode: %v", err)
	}
	if img.Bounds().Dx() > 256 || img.Bounds().Dy() > 256 {
		t.Errorf("face crop should be scaled to at most 256px, got %v", img.Bounds())
	}
}

func TestSaveFaceBadBox(t *testing.T) {
	a, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}

	if _, err := a.SaveFace("emp-1", testImage(t, 100, 100), [4]int{500, 700, 600, 550}); err == nil {
		t.Error("box outside the image must fail")
	}
}

func TestSaveFaceBadImage(t *testing.T) {
	a, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}

	if _, err := a.SaveFace("emp-1", []byte("not an image"), [4]int{0, 10, 10, 0}); err == nil {
		t.Error("undecodable image must fail")
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	a, err := New(dir)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}

	if _, err := a.SaveFace("emp-1", testImage(t, 200, 200), [4]int{10, 150, 150, 10}); err != nil {
		t.Fatalf("failed to save face: %v", err)
	}
	if err := a.Remove("emp-1"); err != nil {
		t.Fatalf("failed to remove archive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "emp-1")); !os.IsNotExist(err) {
		t.Error("employee directory should be gone after Remove")
	}

	// Idempotent.
	if err := a.Remove("emp-1"); err != nil {
		t.Errorf("removing a missing archive should be a no-op, got %v", err)
	}
}
