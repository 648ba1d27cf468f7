package main

import (
	"net/http"

	"go.uber.org/zap"

	"docanalyzer/internal/logger"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("file_id")

	res, err := s.pipeline.Analyze(r.Context(), fileID)
	if err != nil {
		status, msg := s.classifier.Classify(err)
		logger.Error("Analysis failed",
			zap.String("doc_id", fileID),
			zap.Int("status", status),
			zap.String("error", s.classifier.Redact(err.Error())),
		)
		jsonErr(w, msg, status)
		return
	}
	jsonResp(w, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, map[string]string{"status": "healthy", "service": "PDF AI Analyzer"})
}
