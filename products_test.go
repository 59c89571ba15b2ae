package main

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func productForm(t *testing.T, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"name":        "Mug",
		"price":       "1500",
		"stock":       "3",
		"category":    "kitchen",
		"description": "A sturdy mug",
	} {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if photo != nil {
		fw, err := w.CreateFormFile("photos", "photo.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(photo); err != nil {
			t.Fatalf("write photo: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

// An upload that does not decode as an image is the client's fault; it must
// be rejected with a 400 before anything reaches the bucket.
func TestCreateProductRejectsUndecodableUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	prev := photoStore
	photoStore = &PhotoStore{}
	t.Cleanup(func() { photoStore = prev })

	r := gin.New()
	r.POST("/product", createProductHandler)

	body, contentType := productForm(t, []byte("definitely not an image"))
	req := httptest.NewRequest(http.MethodPost, "/product", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for undecodable image, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateProductWithoutPhotoStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	prev := photoStore
	photoStore = nil
	t.Cleanup(func() { photoStore = prev })

	r := gin.New()
	r.POST("/product", createProductHandler)

	body, contentType := productForm(t, []byte("anything"))
	req := httptest.NewRequest(http.MethodPost, "/product", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 with no photo store, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateProductMissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/product", createProductHandler)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("name", "Mug")
	w.Close()
	req := httptest.NewRequest(http.MethodPost, "/product", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", rec.Code)
	}
}
