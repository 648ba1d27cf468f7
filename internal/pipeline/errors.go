package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"docanalyzer/internal/analysis"
	"docanalyzer/internal/extractor"
	"docanalyzer/internal/logger"
)

// ValidationError is a request the caller can fix.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError means no stored document matches the requested id.
type NotFoundError struct {
	FileID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no document found for file id %s", e.FileID)
}

// Classifier turns pipeline errors into an HTTP status and a message safe to
// show the user. Model is named in model-not-found messages; every secret is
// masked in messages that carry the raw error text.
type Classifier struct {
	Model   string
	Secrets []string
}

const (
	msgConnectivity = "Kunne ikke koble til Azure AI-tjenesten. Sjekk nettverkstilkobling."
	msgAuth         = "Autentisering feilet. Sjekk at API-nøkkelen er korrekt."
	msgModel        = "Modell ikke funnet. Sjekk at '%s' er riktig deployment-navn."
	msgEndpoint     = "Endpoint-konfigurasjon feilet. Sjekk AI_FOUNDRY_ENDPOINT."
	msgTimeout      = "AI-tjenesten svarte ikke i tide. Prøv igjen, eller del opp dokumentet."
	msgFailed       = "Analyse feilet: "
)

// Classify maps err to a status code and user-facing message.
func (c Classifier) Classify(err error) (int, string) {
	var (
		ve *ValidationError
		nf *NotFoundError
		se *analysis.SynthesisError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Msg
	case errors.As(err, &nf):
		return http.StatusNotFound, "File not found"
	case errors.Is(err, extractor.ErrExtraction):
		return http.StatusUnprocessableEntity, extractor.Placeholder
	case errors.As(err, &se):
		return http.StatusBadGateway, c.synthesisMessage(se.Err)
	default:
		return http.StatusInternalServerError, msgFailed + c.Redact(err.Error())
	}
}

func (c Classifier) synthesisMessage(err error) string {
	msg := strings.ToLower(err.Error())

	var apiErr *openai.APIError
	status := 0
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatusCode
	}
	var netErr net.Error
	isNet := errors.As(err, &netErr) && !netErr.Timeout()

	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "timed out"):
		return msgTimeout
	case isNet || strings.Contains(msg, "could not resolve host") ||
		strings.Contains(msg, "no such host") || strings.Contains(msg, "connection"):
		return msgConnectivity
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(msg, "authentication") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "401"):
		return msgAuth
	case status == http.StatusNotFound || strings.Contains(msg, "model") ||
		strings.Contains(msg, "deployment") || strings.Contains(msg, "404"):
		return fmt.Sprintf(msgModel, c.Model)
	case strings.Contains(msg, "endpoint"):
		return msgEndpoint
	default:
		return msgFailed + c.Redact(err.Error())
	}
}

// Redact masks every configured secret in msg.
func (c Classifier) Redact(msg string) string {
	return logger.Redact(msg, c.Secrets...)
}
