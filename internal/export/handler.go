package export

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const maxUploadSize = 50 << 20 // 50MB

// Handler converts rendered board images between formats. The client
// rasterizes the board to PNG; ffmpeg handles re-encoding so the server
// never needs format-specific codecs.
type Handler struct {
	ffmpegPath string
}

func NewHandler(ffmpegPath string) *Handler {
	return &Handler{ffmpegPath: ffmpegPath}
}

// ExportImage handles POST /export/image (multipart form: "image" PNG field,
// "format" target, optional "name" for the download filename).
func (h *Handler) ExportImage(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "request too large", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	format := r.FormValue("format")
	if format != "png" && format != "jpeg" && format != "webp" {
		http.Error(w, "invalid format: must be png, jpeg, or webp", http.StatusBadRequest)
		return
	}

	quality, err := strconv.Atoi(r.FormValue("quality"))
	if err != nil || quality < 1 || quality > 100 {
		quality = 90
	}

	name := r.FormValue("name")
	if name == "" {
		name = "board"
	}
	// Sanitize filename
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "missing image field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	tempDir, err := os.MkdirTemp("", "inkboard-export-*")
	if err != nil {
		slog.Error("create temp dir", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tempDir)

	inputPath := filepath.Join(tempDir, "input.png")
	in, err := os.Create(inputPath)
	if err != nil {
		slog.Error("create input file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	_, err = io.Copy(in, file)
	in.Close()
	if err != nil {
		slog.Error("write input file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	outputPath := filepath.Join(tempDir, "output."+format)
	var contentType string
	var args []string

	switch format {
	case "png":
		contentType = "image/png"
		args = []string{"-i", inputPath, "-compression_level", "9", outputPath}
	case "jpeg":
		contentType = "image/jpeg"
		// ffmpeg jpeg quality runs 2 (best) to 31 (worst)
		q := 2 + (100-quality)*29/99
		args = []string{"-i", inputPath, "-q:v", strconv.Itoa(q), outputPath}
	case "webp":
		contentType = "image/webp"
		args = []string{"-i", inputPath, "-quality", strconv.Itoa(quality), outputPath}
	}

	if err := h.runFfmpeg(r, args...); err != nil {
		slog.Error("ffmpeg failed", "error", err)
		http.Error(w, fmt.Sprintf("conversion failed: %v", err), http.StatusInternalServerError)
		return
	}

	outFile, err := os.Open(outputPath)
	if err != nil {
		slog.Error("open output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer outFile.Close()

	stat, err := outFile.Stat()
	if err != nil {
		slog.Error("stat output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	io.Copy(w, outFile)

	slog.Info("export complete", "format", format, "size", stat.Size())
}

func (h *Handler) runFfmpeg(r *http.Request, args ...string) error {
	fullArgs := append([]string{"-y"}, args...)
	cmd := exec.CommandContext(r.Context(), h.ffmpegPath, fullArgs...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%v: %s", err, stderr.String())
	}
	return nil
}
