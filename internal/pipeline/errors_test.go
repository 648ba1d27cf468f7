package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"docanalyzer/internal/analysis"
	"docanalyzer/internal/extractor"
)

func synth(err error) error {
	return &analysis.SynthesisError{Phase: analysis.PhaseReduce, Err: err}
}

func TestClassify_StatusCodes(t *testing.T) {
	c := Classifier{Model: "gpt-4o"}

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &ValidationError{Msg: "Empty file not allowed"}, http.StatusBadRequest},
		{"not found", &NotFoundError{FileID: "x"}, http.StatusNotFound},
		{"extraction", fmt.Errorf("wrapped: %w", extractor.ErrExtraction), http.StatusUnprocessableEntity},
		{"synthesis", synth(errors.New("boom")), http.StatusBadGateway},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := c.Classify(tc.err)
			assert.Equal(t, tc.status, status)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestClassify_SynthesisMessages(t *testing.T) {
	c := Classifier{Model: "gpt-4o-deploy"}

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", fmt.Errorf("openai request timed out after 1m0s: %w", context.DeadlineExceeded), msgTimeout},
		{"dns", errors.New("dial tcp: lookup x.openai.azure.com: no such host"), msgConnectivity},
		{"connection", errors.New("Connection refused"), msgConnectivity},
		{"auth text", errors.New("anthropic API error (401): invalid x-api-key"), msgAuth},
		{"auth typed", &openai.APIError{HTTPStatusCode: 403, Message: "forbidden"}, msgAuth},
		{"model", errors.New("The API deployment for this resource does not exist"), "Modell ikke funnet. Sjekk at 'gpt-4o-deploy' er riktig deployment-navn."},
		{"model typed", &openai.APIError{HTTPStatusCode: 404, Message: "not here"}, "Modell ikke funnet. Sjekk at 'gpt-4o-deploy' er riktig deployment-navn."},
		{"endpoint", errors.New("invalid endpoint URL"), msgEndpoint},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, msg := c.Classify(synth(tc.err))
			assert.Equal(t, tc.want, msg)
		})
	}
}

func TestClassify_FallbackRedactsSecrets(t *testing.T) {
	c := Classifier{Model: "m", Secrets: []string{"sk-supersecretvalue1234"}}
	_, msg := c.Classify(synth(errors.New("bad request for sk-supersecretvalue1234")))

	assert.Equal(t, "Analyse feilet: bad request for sk-...1234", msg)
}

func TestClassify_ValidationMessagePassesThrough(t *testing.T) {
	_, msg := Classifier{}.Classify(&ValidationError{Msg: "No file selected"})
	assert.Equal(t, "No file selected", msg)
}
