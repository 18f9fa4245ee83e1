// Package assistant holds the AI chat feature: text generators and the
// transactional reply flow over assistant threads.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/models"
)

// Generator turns a prompt into a reply
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name labels metrics and logs
	Name() string
}

// EchoGenerator answers without calling out. Used when no AI key is configured and in tests.
type EchoGenerator struct {
	// Err, when set, is returned by every call
	Err error
}

func (g *EchoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	last := prompt
	if i := strings.LastIndex(prompt, "User: "); i >= 0 {
		last = strings.TrimSuffix(strings.TrimSpace(prompt[i+len("User: "):]), "AI:")
	}
	return "You said: " + strings.TrimSpace(last), nil
}

func (g *EchoGenerator) Name() string { return "echo" }

// maxContextMessages caps how much history a continued conversation sends
const maxContextMessages = 10

// BuildContextPrompt renders prior turns as "AI: ..." / "User: ..." lines
// followed by the new user message and an open "AI:" turn.
func BuildContextPrompt(history []models.AssistantMessage, userMessage string) string {
	if len(history) > maxContextMessages {
		history = history[len(history)-maxContextMessages:]
	}
	var b strings.Builder
	for _, m := range history {
		speaker := "User"
		if m.IsAssistant {
			speaker = "AI"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Message)
	}
	fmt.Fprintf(&b, "User: %s\nAI:", userMessage)
	return b.String()
}

// timedGenerate calls gen and records latency by provider and outcome
func timedGenerate(ctx context.Context, gen Generator, prompt string) (string, error) {
	start := time.Now()
	reply, err := gen.Generate(ctx, prompt)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.Get().AssistantGenerationDuration.WithLabelValues(gen.Name(), status).Observe(time.Since(start).Seconds())
	return reply, err
}
