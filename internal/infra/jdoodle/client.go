// Package jdoodle executes user-submitted code through the JDoodle compile
// API and judges the run against the question's expected output.
package jdoodle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"learnify-quiz-service/internal/domain"
)

const DefaultURL = "https://api.jdoodle.com/v1/execute"

// Client is a domain.CodeExecutor backed by the JDoodle REST API.
type Client struct {
	url          string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

type Options struct {
	URL          string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

func NewClient(opts Options) *Client {
	url := opts.URL
	if url == "" {
		url = DefaultURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		url:          url,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		httpClient:   httpClient,
	}
}

type executeRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Script       string `json:"script"`
	Language     string `json:"language"`
	VersionIndex string `json:"versionIndex"`
}

type executeResponse struct {
	Output string `json:"output"`
	Error  string `json:"error"`
}

// Execute runs the code remotely. Success means the trimmed program output
// equals the trimmed expected output; an empty expected output accepts any
// clean run.
func (c *Client) Execute(ctx context.Context, exec domain.CodeExecution) (domain.CodeExecutionResult, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return domain.CodeExecutionResult{}, domain.ErrExecutionNotConfigured
	}

	langCode, ok := languageCode(exec.Language)
	if !ok {
		return domain.CodeExecutionResult{}, fmt.Errorf("unsupported language: %s", exec.Language)
	}

	payload, err := json.Marshal(executeRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Script:       exec.Code,
		Language:     langCode,
		VersionIndex: versionIndex(exec.Language),
	})
	if err != nil {
		return domain.CodeExecutionResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return domain.CodeExecutionResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.CodeExecutionResult{}, fmt.Errorf("execute code: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.CodeExecutionResult{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.CodeExecutionResult{}, fmt.Errorf("jdoodle api error: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result executeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.CodeExecutionResult{}, fmt.Errorf("parse response: %w", err)
	}
	if result.Error != "" {
		return domain.CodeExecutionResult{}, fmt.Errorf("execution error: %s", result.Error)
	}

	output := result.Output
	if strings.TrimSpace(output) == "" {
		output = "(No output)"
	}

	success := true
	if expected := strings.TrimSpace(exec.ExpectedOutput); expected != "" {
		success = strings.TrimSpace(result.Output) == expected
	}
	return domain.CodeExecutionResult{Output: output, Success: success}, nil
}

// languageCode maps the quiz language label to a JDoodle language code.
func languageCode(language string) (string, bool) {
	switch strings.ToLower(language) {
	case "python", "python3":
		return "python3", true
	case "java":
		return "java", true
	case "c":
		return "c", true
	case "c++", "cpp":
		return "cpp", true
	case "javascript", "js":
		return "nodejs", true
	case "kotlin":
		return "kotlin", true
	case "swift":
		return "swift", true
	case "go", "golang":
		return "go", true
	case "ruby":
		return "ruby", true
	case "php":
		return "php", true
	default:
		return "", false
	}
}

func versionIndex(language string) string {
	switch strings.ToLower(language) {
	case "python", "python3":
		return "4"
	case "java":
		return "4"
	case "c", "c++", "cpp":
		return "5"
	case "javascript", "js":
		return "4"
	case "kotlin":
		return "3"
	case "swift", "go", "golang", "ruby", "php":
		return "4"
	default:
		return "0"
	}
}
