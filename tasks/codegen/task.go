package codegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/temirov/episode-kit/internal/fsops"
	"github.com/temirov/episode-kit/internal/pipeline"
)

const (
	taskName = "generate"

	emptyResponseDelta  = "Your previous answer was empty. Answer the request above."
	missingBlockDelta   = "Return the complete code inside a single fenced code block (```python ... ```)."
	emptyResponseReason = "empty-response"
	missingBlockReason  = "missing-code-block"

	promptFileReadErrorFormat = "read prompt file %s: %w"
	stdinReadErrorFormat      = "read prompt from stdin: %w"
	writeOutputErrorFormat    = "write %s: %w"
	writeStdoutErrorFormat    = "write generated text: %w"
	writtenSummaryFormat      = "wrote %d bytes to %s"
	printedSummary            = "printed generated text"
)

var ErrEmptyPrompt = errors.New("prompt is empty")

var fencedBlockPattern = regexp.MustCompile("(?s)```[^\\n`]*\\n(.*?)```")

// Inputs are the prompt sources in precedence order: Argument, then
// PromptFile, then Stdin.
type Inputs struct {
	Argument   string
	PromptFile string
	Stdin      io.Reader
}

type Options struct {
	ExtractCode bool
	OutputPath  string
	// Temperature nil defers to the client default.
	Temperature *float64
}

// Task sends one free-form prompt and prints or saves the answer.
type Task struct {
	ops     fsops.Ops
	stdout  io.Writer
	inputs  Inputs
	options Options
	prompt  string
}

func New(ops fsops.Ops, stdout io.Writer, inputs Inputs, options Options) *Task {
	return &Task{ops: ops, stdout: stdout, inputs: inputs, options: options}
}

func (t *Task) Name() string { return taskName }

func (t *Task) Gather(ctx context.Context) (pipeline.GatherOutput, error) {
	prompt, err := t.readPrompt()
	if err != nil {
		return nil, err
	}
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	t.prompt = prompt
	return prompt, nil
}

func (t *Task) readPrompt() (string, error) {
	if argument := strings.TrimSpace(t.inputs.Argument); argument != "" {
		return argument, nil
	}
	if path := strings.TrimSpace(t.inputs.PromptFile); path != "" {
		data, err := t.ops.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf(promptFileReadErrorFormat, path, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if t.inputs.Stdin == nil {
		return "", nil
	}
	data, err := io.ReadAll(t.inputs.Stdin)
	if err != nil {
		return "", fmt.Errorf(stdinReadErrorFormat, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (t *Task) Prompt(ctx context.Context, _ pipeline.GatherOutput) (pipeline.LLMRequest, error) {
	return pipeline.LLMRequest{UserPrompt: t.prompt, Temperature: t.options.Temperature}, nil
}

func (t *Task) Verify(ctx context.Context, _ pipeline.GatherOutput, response pipeline.LLMResponse) (bool, pipeline.VerifiedOutput, *pipeline.RefineRequest, error) {
	text := strings.TrimSpace(response.RawText)
	if text == "" {
		return false, nil, &pipeline.RefineRequest{UserPromptDelta: emptyResponseDelta, Reason: emptyResponseReason}, nil
	}
	if !t.options.ExtractCode {
		return true, text, nil, nil
	}
	code, ok := FirstCodeBlock(text)
	if !ok {
		return false, nil, &pipeline.RefineRequest{UserPromptDelta: missingBlockDelta, Reason: missingBlockReason}, nil
	}
	return true, code, nil, nil
}

func (t *Task) Apply(ctx context.Context, verified pipeline.VerifiedOutput) (pipeline.ApplyReport, error) {
	text, _ := verified.(string)
	content := strings.TrimRight(text, "\n") + "\n"

	if path := strings.TrimSpace(t.options.OutputPath); path != "" {
		if err := t.ops.WriteFile(path, []byte(content)); err != nil {
			return pipeline.ApplyReport{}, fmt.Errorf(writeOutputErrorFormat, path, err)
		}
		return pipeline.ApplyReport{Summary: fmt.Sprintf(writtenSummaryFormat, len(content), path), NumActions: 1}, nil
	}

	if _, err := io.WriteString(t.stdout, content); err != nil {
		return pipeline.ApplyReport{}, fmt.Errorf(writeStdoutErrorFormat, err)
	}
	return pipeline.ApplyReport{Summary: printedSummary, NumActions: 1}, nil
}

// FirstCodeBlock returns the body of the first ``` fenced block, without
// the language tag line.
func FirstCodeBlock(text string) (string, bool) {
	match := fencedBlockPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	body := strings.Trim(match[1], "\n")
	if strings.TrimSpace(body) == "" {
		return "", false
	}
	return body, true
}
