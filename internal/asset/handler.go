package asset

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkboard/inkboard/backend-go/internal/typeid"
)

// UploadResponse is returned from the upload endpoint. DataURL carries the
// normalized PNG bytes so the client can place the image on the board without
// a second fetch; URL points at the stored copy for later loads.
type UploadResponse struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	DataURL string `json:"dataUrl"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Name    string `json:"name"`
}

// Handler serves image upload and retrieval endpoints.
type Handler struct {
	dir      string
	maxBytes int64
}

// NewHandler creates an asset handler that stores files in dir and rejects
// uploads larger than maxUploadMB.
func NewHandler(dir string, maxUploadMB int) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir, maxBytes: int64(maxUploadMB) << 20}
}

// Upload handles POST /assets/upload (multipart form with "file" field).
// PNG and JPEG inputs are accepted; both are normalized to PNG.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		http.Error(w, fmt.Sprintf("file too large (max %dMB)", h.maxBytes>>20), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/png") && !strings.HasPrefix(contentType, "image/jpeg") {
		http.Error(w, "only PNG and JPEG images are supported", http.StatusBadRequest)
		return
	}

	img, _, err := image.Decode(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	bounds := img.Bounds()

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		slog.Error("encode png", "error", err)
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}

	assetID := typeid.NewAssetID()
	filename := assetID + ".png"
	filePath := filepath.Join(h.dir, filename)

	if err := os.WriteFile(filePath, encoded.Bytes(), 0644); err != nil {
		slog.Error("write asset file", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	resp := UploadResponse{
		ID:      assetID,
		URL:     "/assets/" + filename,
		DataURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(encoded.Bytes()),
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Name:    header.Filename,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Serve returns an http.Handler that serves stored asset files with caching
// headers. Asset IDs are unique, so stored files never change.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes an asset file from disk.
func (h *Handler) Delete(assetID string) error {
	path := filepath.Join(h.dir, assetID+".png")
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove asset %s: %w", assetID, err)
	}
	return nil
}
