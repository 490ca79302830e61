package pipeline

import "context"

// Pipeline is one LLM-backed task: collect input, build a prompt, check
// the answer, then act on it.
type Pipeline interface {
	Name() string
	Gather(ctx context.Context) (GatherOutput, error)
	Prompt(ctx context.Context, gathered GatherOutput) (LLMRequest, error)
	Verify(ctx context.Context, gathered GatherOutput, response LLMResponse) (accepted bool, verified VerifiedOutput, refine *RefineRequest, err error)
	Apply(ctx context.Context, verified VerifiedOutput) (ApplyReport, error)
}

type GatherOutput any
type VerifiedOutput any

// LLMRequest leaves Temperature nil to use the client's default.
type LLMRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  *float64
}

type LLMResponse struct {
	RawText string
}

type RefineRequest struct {
	UserPromptDelta string
	Reason          string
}

type ApplyReport struct {
	DryRun     bool
	Summary    string
	NumActions int
}
