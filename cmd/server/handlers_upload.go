package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"docanalyzer/internal/logger"
	"docanalyzer/internal/pipeline"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

// UploadResponse is returned after a document is stored.
type UploadResponse struct {
	Message  string `json:"message"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.pipeline.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes+multipartOverhead))

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			jsonErr(w, fmt.Sprintf("File size too large. Maximum allowed size is %dMB", maxBytes>>20), http.StatusBadRequest)
			return
		}
		jsonErr(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, fh, err := r.FormFile("file")
	if err != nil {
		jsonErr(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if fh.Filename == "" {
		jsonErr(w, "No file selected", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		jsonErr(w, "Upload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	doc, err := s.pipeline.Upload(r.Context(), fh.Filename, data)
	if err != nil {
		var ve *pipeline.ValidationError
		if errors.As(err, &ve) {
			jsonErr(w, ve.Msg, http.StatusBadRequest)
			return
		}
		msg := s.classifier.Redact(err.Error())
		logger.Error("Upload failed", zap.String("error", msg))
		jsonErr(w, "Upload failed: "+msg, http.StatusInternalServerError)
		return
	}

	jsonResp(w, UploadResponse{
		Message:  "File uploaded successfully",
		FileID:   doc.ID,
		Filename: doc.Filename,
	})
}
