package main

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func encodePNG(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 180, G: 40, B: 40, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return &buf
}

func TestNormalizePhotoReencodesAsJPEG(t *testing.T) {
	out, err := normalizePhoto(encodePNG(t, 32, 24), "fixture.png")
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(out) < 2 || out[0] != 0xFF || out[1] != 0xD8 {
		t.Fatal("output is not JPEG")
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
		t.Fatalf("small image must keep its size, got %v", img.Bounds())
	}
}

func TestNormalizePhotoDownsizesLargeImage(t *testing.T) {
	out, err := normalizePhoto(encodePNG(t, 3200, 800), "big.png")
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > maxPhotoEdge || b.Dy() > maxPhotoEdge {
		t.Fatalf("image not downsized: %v", b)
	}
	if b.Dx() != 1600 || b.Dy() != 400 {
		t.Fatalf("aspect ratio not kept: %v", b)
	}
}

func TestNormalizePhotoRejectsGarbage(t *testing.T) {
	if _, err := normalizePhoto(bytes.NewReader([]byte("not an image")), "x.bin"); err == nil {
		t.Fatal("expected error for non-image input")
	}
}
