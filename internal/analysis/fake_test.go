package analysis

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"docanalyzer/internal/llm"
)

var chunkOrdinal = regexp.MustCompile(`Del (\d+) av (\d+):`)

// fakeCompleter answers each phase from scripted responses and records
// every request it sees.
type fakeCompleter struct {
	mu       sync.Mutex
	requests []llm.Request

	single    func() (string, error)
	chunk     func(ordinal int) (string, error)
	synthesis func(prompt string) (string, error)
	repair    func(raw string) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	first := req.Messages[0]
	last := req.Messages[len(req.Messages)-1].Content
	switch {
	case first.Role == llm.RoleSystem && first.Content == repairSystemPrompt:
		if f.repair == nil {
			return "", errors.New("no repair script")
		}
		return f.repair(last)
	case first.Role == llm.RoleSystem:
		if f.single == nil {
			return "", errors.New("no single script")
		}
		return f.single()
	case strings.HasPrefix(last, "Du har mottatt analyser"):
		if f.synthesis == nil {
			return "", errors.New("no synthesis script")
		}
		return f.synthesis(last)
	default:
		m := chunkOrdinal.FindStringSubmatch(last)
		if m == nil || f.chunk == nil {
			return "", errors.New("unexpected request")
		}
		n, _ := strconv.Atoi(m[1])
		return f.chunk(n)
	}
}

// count returns how many recorded requests match pred.
func (f *fakeCompleter) count(pred func(llm.Request) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if pred(r) {
			n++
		}
	}
	return n
}

func isRepair(r llm.Request) bool {
	return r.Messages[0].Role == llm.RoleSystem && r.Messages[0].Content == repairSystemPrompt
}

func isSynthesis(r llm.Request) bool {
	return strings.HasPrefix(r.Messages[len(r.Messages)-1].Content, "Du har mottatt analyser")
}

func isChunk(r llm.Request) bool {
	return len(r.Messages) == 1 && chunkOrdinal.MatchString(r.Messages[0].Content)
}
