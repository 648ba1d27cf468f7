package extractor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const succeededBody = `{
  "status": "succeeded",
  "analyzeResult": {
    "pages": [{"pageNumber": 1, "lines": [{"content": "Årsrapport"}]}],
    "tables": [{"rowCount": 1, "columnCount": 2,
      "cells": [{"rowIndex": 0, "columnIndex": 0, "content": "A"}, {"rowIndex": 0, "columnIndex": 1, "content": "B"}],
      "boundingRegions": [{"pageNumber": 1}]}]
  }
}`

func newDIServer(t *testing.T, wantModel string, statuses ...string) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "di-key" {
			t.Errorf("missing subscription key")
		}
		switch r.Method {
		case http.MethodPost:
			assert.Contains(t, r.URL.Path, "/formrecognizer/documentModels/"+wantModel+":analyze")
			assert.Equal(t, "2023-07-31", r.URL.Query().Get("api-version"))
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "%PDF-data", string(body))
			w.Header().Set("Operation-Location", srv.URL+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
		case http.MethodGet:
			n := atomic.AddInt32(&polls, 1)
			idx := int(n) - 1
			if idx >= len(statuses) {
				idx = len(statuses) - 1
			}
			w.Write([]byte(statuses[idx]))
		}
	}))
	return srv, &polls
}

// ========== AzureEngine ==========

func TestAzureEngine_PollsUntilSucceeded(t *testing.T) {
	srv, polls := newDIServer(t, "prebuilt-layout", `{"status":"running"}`, `{"status":"running"}`, succeededBody)
	defer srv.Close()

	e := NewAzureEngine(srv.URL+"/", "di-key", "", time.Millisecond)
	l, err := e.AnalyzeDocument(context.Background(), ModeLayout, []byte("%PDF-data"))
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(polls))
	require.Len(t, l.Pages, 1)
	assert.Equal(t, "Årsrapport", l.Pages[0].Lines[0].Content)
	require.Len(t, l.Tables, 1)
	assert.Equal(t, 2, l.Tables[0].ColumnCount)
	assert.Equal(t, 1, l.Tables[0].BoundingRegions[0].PageNumber)
}

func TestAzureEngine_ReadModel(t *testing.T) {
	srv, _ := newDIServer(t, "prebuilt-read", succeededBody)
	defer srv.Close()

	_, err := NewAzureEngine(srv.URL, "di-key", "", time.Millisecond).AnalyzeDocument(context.Background(), ModeRead, []byte("%PDF-data"))
	require.NoError(t, err)
}

func TestAzureEngine_OperationFailed(t *testing.T) {
	srv, _ := newDIServer(t, "prebuilt-read", `{"status":"failed","error":{"code":"InvalidContent","message":"corrupt"}}`)
	defer srv.Close()

	_, err := NewAzureEngine(srv.URL, "di-key", "", time.Millisecond).AnalyzeDocument(context.Background(), ModeRead, []byte("%PDF-data"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidContent")
}

func TestAzureEngine_SubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"401"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewAzureEngine(srv.URL, "bad", "", time.Millisecond).AnalyzeDocument(context.Background(), ModeRead, []byte("x"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"))
}

func TestAzureEngine_ContextCancelStopsPolling(t *testing.T) {
	srv, _ := newDIServer(t, "prebuilt-read", `{"status":"running"}`)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := NewAzureEngine(srv.URL, "di-key", "", 5*time.Millisecond).AnalyzeDocument(ctx, ModeRead, []byte("%PDF-data"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
