package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	gatherErrorFormat    = "gather: %w"
	promptErrorFormat    = "prompt: %w"
	chatErrorFormat      = "llm chat (attempt %d): %w"
	verifyErrorFormat    = "verify: %w"
	exhaustedErrorFormat = "%w after %d attempts\n%s"
	refineHeader         = "REFINE:\n"
	emptyBlock           = "<empty>"
	promptPreviewLimit   = 1200
	refinePreviewLimit   = 600
)

var (
	ErrNoRefine  = errors.New("verify rejected result and no refine request provided")
	ErrExhausted = errors.New("exhausted attempts without acceptance")
)

type LLMClient interface {
	Chat(ctx context.Context, request LLMRequest) (LLMResponse, error)
}

// RunOptions bounds a run. A zero Timeout leaves each attempt bound only
// by the parent context.
type RunOptions struct {
	MaxAttempts int
	DryRun      bool
	Timeout     time.Duration
}

type Runner struct {
	Client  LLMClient
	Options RunOptions
	Logger  *zap.Logger
}

func (r Runner) Run(ctx context.Context, p Pipeline) (ApplyReport, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("pipeline", p.Name()))

	gathered, gatherErr := p.Gather(ctx)
	if gatherErr != nil {
		return ApplyReport{}, fmt.Errorf(gatherErrorFormat, gatherErr)
	}

	attempts := r.Options.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		history       []attemptRecord
		pendingRefine string
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		req, reqErr := p.Prompt(ctx, gathered)
		if reqErr != nil {
			return ApplyReport{}, fmt.Errorf(promptErrorFormat, reqErr)
		}
		if pendingRefine != "" {
			req.UserPrompt = appendRefine(req.UserPrompt, pendingRefine)
		}

		resp, chatErr := r.chat(ctx, req)
		if chatErr != nil {
			return ApplyReport{}, fmt.Errorf(chatErrorFormat, attempt, chatErr)
		}
		record := attemptRecord{Request: req, Response: resp}

		ok, verified, refine, verErr := p.Verify(ctx, gathered, resp)
		if verErr != nil {
			return ApplyReport{}, fmt.Errorf(verifyErrorFormat, verErr)
		}
		if ok {
			logger.Debug("attempt accepted", zap.Int("attempt", attempt))
			return p.Apply(ctx, verified)
		}
		if refine == nil {
			return ApplyReport{}, ErrNoRefine
		}
		logger.Info("attempt rejected", zap.Int("attempt", attempt), zap.String("reason", refine.Reason))
		record.Refine = refine
		history = append(history, record)
		pendingRefine = formatRefine(refine.UserPromptDelta)
	}

	return ApplyReport{}, fmt.Errorf(exhaustedErrorFormat, ErrExhausted, attempts, renderAttemptDebug(history))
}

func (r Runner) chat(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if r.Options.Timeout <= 0 {
		return r.Client.Chat(ctx, req)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.Options.Timeout)
	defer cancel()
	return r.Client.Chat(attemptCtx, req)
}

type attemptRecord struct {
	Request  LLMRequest
	Response LLMResponse
	Refine   *RefineRequest
}

func renderAttemptDebug(attempts []attemptRecord) string {
	var sb strings.Builder
	for idx, attempt := range attempts {
		fmt.Fprintf(&sb, "Attempt %d:\n", idx+1)
		sb.WriteString("  Prompt:\n")
		sb.WriteString(indentBlock(truncate(attempt.Request.UserPrompt, promptPreviewLimit)))
		sb.WriteString("\n  Response:\n")
		sb.WriteString(indentBlock(truncate(attempt.Response.RawText, promptPreviewLimit)))
		sb.WriteString("\n")
		if attempt.Refine != nil {
			sb.WriteString("  Refine: ")
			sb.WriteString(truncate(attempt.Refine.Reason, refinePreviewLimit))
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func indentBlock(block string) string {
	if block == "" {
		return "    " + emptyBlock
	}
	lines := strings.Split(block, "\n")
	for idx, line := range lines {
		lines[idx] = "    " + line
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

func appendRefine(original, refine string) string {
	trimmedOriginal := strings.TrimRight(original, "\n")
	if trimmedOriginal == "" {
		return refine
	}
	return trimmedOriginal + "\n\n" + refine
}

func formatRefine(delta string) string {
	trimmed := strings.TrimSpace(delta)
	if trimmed == "" {
		return refineHeader + emptyBlock
	}
	return refineHeader + trimmed
}
