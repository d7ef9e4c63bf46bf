package asset

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, contentType string, payload []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="test.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadReturnsDimensionsAndDataURL(t *testing.T) {
	h := NewHandler(t.TempDir(), 10)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "image/png", encodePNG(t, 32, 16)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 32, resp.Width)
	assert.Equal(t, 16, resp.Height)
	assert.True(t, strings.HasPrefix(resp.DataURL, "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(resp.URL, "/assets/"))
	assert.NotEmpty(t, resp.ID)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	h := NewHandler(t.TempDir(), 10)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "image/gif", []byte("GIF89a")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsCorruptImage(t *testing.T) {
	h := NewHandler(t.TempDir(), 10)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "image/png", []byte("not a png")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
