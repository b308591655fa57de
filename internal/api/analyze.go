package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/mmynk/nutrimed/internal/analyzer"
	"github.com/mmynk/nutrimed/internal/apperr"
	"github.com/mmynk/nutrimed/internal/httpx"
)

// multipartOverhead leaves room for the form fields next to the image.
const multipartOverhead = 1 << 20

var (
	errFileRequired = apperr.New(apperr.InvalidInput, "file is required")
	errNotAnImage   = apperr.New(apperr.InvalidInput, "File must be an image (jpg, png, webp).")
)

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	req, err := h.readAnalyzeRequest(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	report, err := h.analyses.Analyze(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, analyzeResponse{Analysis: report})
}

func (h *Handler) readAnalyzeRequest(w http.ResponseWriter, r *http.Request) (analyzer.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return analyzer.Request{}, h.tooLarge(err)
		}
		return analyzer.Request{}, apperr.Wrap(apperr.InvalidInput, "request must be multipart/form-data", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return analyzer.Request{}, errFileRequired
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		return analyzer.Request{}, h.tooLarge(nil)
	}
	image, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		return analyzer.Request{}, apperr.Wrap(apperr.InvalidInput, "failed to read file", err)
	}
	if int64(len(image)) > h.maxUpload {
		return analyzer.Request{}, h.tooLarge(nil)
	}
	if len(image) == 0 {
		return analyzer.Request{}, analyzer.ErrEmptyImage
	}

	mimeType := imageType(header.Header.Get("Content-Type"), image)
	if mimeType == "" {
		return analyzer.Request{}, errNotAnImage
	}

	form := r.MultipartForm.Value
	return analyzer.Request{
		Image:    image,
		MIMEType: mimeType,
		Profile: analyzer.Profile{
			Current:   analyzer.ParseConditions(form["current_conditions"]),
			Concerned: analyzer.ParseConditions(form["concerned_conditions"]),
		},
		Question: strings.TrimSpace(r.FormValue("user_description")),
	}, nil
}

func (h *Handler) tooLarge(err error) error {
	msg := fmt.Sprintf("image exceeds %d bytes", h.maxUpload)
	if err == nil {
		return apperr.New(apperr.InvalidInput, msg)
	}
	return apperr.Wrap(apperr.InvalidInput, msg, err)
}

// imageType returns the image media type of an upload, or "" when it is not
// an image. A missing or generic declared type falls back to sniffing.
func imageType(declared string, data []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err != nil || !strings.HasPrefix(mediaType, "image/") {
			return ""
		}
		return mediaType
	}
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return ""
}
