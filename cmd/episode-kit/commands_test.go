package episodekit_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	episodekit "github.com/temirov/episode-kit/cmd/episode-kit"
)

const (
	testAPIKeyEnvironmentVariable = "EPISODE_KIT_TEST_API_KEY"
	configurationTemplate         = `common:
  logging:
    level: error
    format: console
  defaults:
    attempts: 2
    timeout_seconds: 5
providers:
  - name: primary
    kind: openai
    model: gpt-test
    base_url: %s
    api_key_env: ` + testAPIKeyEnvironmentVariable + `
    default: true
  - name: secondary
    kind: deepseek
    model: deepseek-test
    base_url: %s
    api_key_env: ` + testAPIKeyEnvironmentVariable + `
    default_temperature: 0.4
renumber:
  prefix: episode
  extension: hdf5
`
)

func writeConfiguration(t *testing.T, endpoint string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(configurationTemplate, endpoint, endpoint)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func seedDirectory(t *testing.T, names ...string) string {
	t.Helper()
	directory := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(directory, name), []byte(name), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	return directory
}

func listDirectory(t *testing.T, directory string) []string {
	t.Helper()
	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	command := episodekit.NewRootCommand()
	var stdout bytes.Buffer
	command.SetOut(&stdout)
	command.SetErr(&bytes.Buffer{})
	command.SetIn(strings.NewReader(stdin))
	command.SetArgs(args)
	err := command.Execute()
	return stdout.String(), err
}

func TestRenumberCommandRenamesIntoDenseRange(t *testing.T) {
	configPath := writeConfiguration(t, "http://unused")
	directory := seedDirectory(t, "episode3.hdf5", "episode7.HDF5", "episode12.hdf5", "episodeX.hdf5", "notes.txt")

	output, err := execute(t, "", "renumber", directory, "--config", configPath)
	if err != nil {
		t.Fatalf("renumber: %v", err)
	}

	expected := []string{"episode0.hdf5", "episode1.hdf5", "episode2.hdf5", "episodeX.hdf5", "notes.txt"}
	if got := listDirectory(t, directory); strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Fatalf("unexpected directory contents %v", got)
	}
	contents, err := os.ReadFile(filepath.Join(directory, "episode1.hdf5"))
	if err != nil || string(contents) != "episode7.HDF5" {
		t.Fatalf("episode1.hdf5 should hold the former episode7.HDF5, got %q (%v)", contents, err)
	}
	if !strings.Contains(output, "summary: 3 candidates, 3 renamed") {
		t.Fatalf("unexpected report:\n%s", output)
	}
	if !strings.Contains(output, "skipped") {
		t.Fatalf("expected the non-numeric suffix to be reported as skipped:\n%s", output)
	}
}

func TestRenumberCommandFlagsOverrideConfiguration(t *testing.T) {
	configPath := writeConfiguration(t, "http://unused")
	directory := seedDirectory(t, "run5.npz", "run9.npz", "episode4.hdf5")

	if _, err := execute(t, "", "renumber", directory, "--config", configPath, "--prefix", "run", "--extension", ".npz", "--staged"); err != nil {
		t.Fatalf("renumber: %v", err)
	}
	expected := []string{"episode4.hdf5", "run0.npz", "run1.npz"}
	if got := listDirectory(t, directory); strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Fatalf("unexpected directory contents %v", got)
	}
}

func TestRenumberCommandDryRun(t *testing.T) {
	configPath := writeConfiguration(t, "http://unused")
	directory := seedDirectory(t, "episode4.hdf5", "episode8.hdf5")

	output, err := execute(t, "", "renumber", directory, "--config", configPath, "--dry-run")
	if err != nil {
		t.Fatalf("renumber: %v", err)
	}
	expected := []string{"episode4.hdf5", "episode8.hdf5"}
	if got := listDirectory(t, directory); strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Fatalf("dry run mutated directory: %v", got)
	}
	if !strings.Contains(output, "2 planned") {
		t.Fatalf("expected planned renames in report:\n%s", output)
	}
}

func TestRenumberCommandMissingDirectory(t *testing.T) {
	configPath := writeConfiguration(t, "http://unused")
	missing := filepath.Join(t.TempDir(), "absent")

	output, err := execute(t, "", "renumber", missing, "--config", configPath)
	if err != nil {
		t.Fatalf("missing directory must soft-fail, got %v", err)
	}
	if !strings.Contains(output, "not-found") {
		t.Fatalf("expected not-found in report:\n%s", output)
	}

	if _, err := execute(t, "", "renumber", missing, "--config", configPath, "--strict"); err == nil {
		t.Fatalf("expected --strict to fail on a missing directory")
	}
}

func TestRenumberCommandRejectsEmptyExtension(t *testing.T) {
	configPath := writeConfiguration(t, "http://unused")
	if _, err := execute(t, "", "renumber", t.TempDir(), "--config", configPath, "--extension", " "); err == nil {
		t.Fatalf("expected invalid pattern error")
	}
}

func TestConfigurationFromEnvironment(t *testing.T) {
	configPath := writeConfiguration(t, "http://unused")
	t.Setenv("EPISODE_KIT_CONFIG", configPath)

	output, err := execute(t, "", "providers")
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	expected := "primary\t(openai, model=gpt-test, default)\nsecondary\t(deepseek, model=deepseek-test)\n"
	if output != expected {
		t.Fatalf("unexpected listing %q", output)
	}
}

func TestInvalidLogLevelFails(t *testing.T) {
	configPath := writeConfiguration(t, "http://unused")
	if _, err := execute(t, "", "providers", "--config", configPath, "--log-level", "loud"); err == nil {
		t.Fatalf("expected invalid log level error")
	}
}

type chatRecorder struct {
	requests []map[string]any
	replies  []string
}

func (recorder *chatRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		recorder.requests = append(recorder.requests, payload)
		reply := recorder.replies[0]
		if len(recorder.replies) > 1 {
			recorder.replies = recorder.replies[1:]
		}
		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]any{
			"choices": []any{map[string]any{
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGenerateCommandWritesExtractedCode(t *testing.T) {
	recorder := &chatRecorder{replies: []string{"no code here", "```python\nclass gpt_place_shoe:\n    pass\n```"}}
	server := recorder.server(t)
	configPath := writeConfiguration(t, server.URL)
	t.Setenv(testAPIKeyEnvironmentVariable, "secret")
	outputPath := filepath.Join(t.TempDir(), "envs_gen", "gpt_place_shoe.py")

	_, err := execute(t, "", "generate", "write the task", "--config", configPath, "--extract-code", "--output", outputPath, "--temperature", "0")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	written, readErr := os.ReadFile(outputPath)
	if readErr != nil {
		t.Fatalf("read output: %v", readErr)
	}
	if string(written) != "class gpt_place_shoe:\n    pass\n" {
		t.Fatalf("unexpected output %q", written)
	}
	if len(recorder.requests) != 2 {
		t.Fatalf("expected a refine round trip, got %d requests", len(recorder.requests))
	}
	if recorder.requests[0]["model"] != "gpt-test" || recorder.requests[0]["temperature"] != float64(0) {
		t.Fatalf("unexpected first request %v", recorder.requests[0])
	}
}

func TestGenerateCommandProviderFromEnvironmentAndStdin(t *testing.T) {
	recorder := &chatRecorder{replies: []string{"done"}}
	server := recorder.server(t)
	configPath := writeConfiguration(t, server.URL)
	t.Setenv(testAPIKeyEnvironmentVariable, "secret")
	t.Setenv("EPISODE_KIT_PROVIDER", "secondary")

	output, err := execute(t, "prompt from stdin\n", "generate", "--config", configPath)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if output != "done\n" {
		t.Fatalf("unexpected stdout %q", output)
	}
	request := recorder.requests[0]
	if request["model"] != "deepseek-test" || request["temperature"] != 0.4 {
		t.Fatalf("expected secondary provider defaults, got %v", request)
	}
	messages, _ := request["messages"].([]any)
	if len(messages) != 1 || messages[0].(map[string]any)["content"] != "prompt from stdin" {
		t.Fatalf("unexpected messages %v", messages)
	}
}

func TestGenerateCommandErrors(t *testing.T) {
	configPath := writeConfiguration(t, "http://127.0.0.1:1")

	testCases := []struct {
		name  string
		env   map[string]string
		args  []string
		stdin string
	}{
		{name: "missing api key", args: []string{"generate", "hi", "--config", configPath}},
		{name: "unknown provider", env: map[string]string{testAPIKeyEnvironmentVariable: "k"}, args: []string{"generate", "hi", "--config", configPath, "--provider", "nope"}},
		{name: "empty prompt", env: map[string]string{testAPIKeyEnvironmentVariable: "k"}, args: []string{"generate", "--config", configPath}, stdin: "  "},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Setenv(testAPIKeyEnvironmentVariable, "")
			os.Unsetenv(testAPIKeyEnvironmentVariable)
			for key, value := range testCase.env {
				t.Setenv(key, value)
			}
			_, err := execute(t, testCase.stdin, testCase.args...)
			if err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
