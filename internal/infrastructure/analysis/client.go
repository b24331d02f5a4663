// Package analysis calls the external grade-report scoring service.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

// Analyze posts the grade report and parses the assistant reply. The reply
// content is a JSON object, usually wrapped in a markdown code fence.
func (c *Client) Analyze(ctx context.Context, filename string, doc io.Reader) (domain.GradeAnalysis, error) {
	body, contentType, err := buildMultipart(filename, doc)
	if err != nil {
		return domain.GradeAnalysis{}, fmt.Errorf("build analyze request: %w", err)
	}

	var reply struct {
		Content string `json:"content"`
		Role    string `json:"role"`
	}
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create analyze request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("analyze request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return newHTTPStatusError("analyze", resp)
		}
		if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
			return domain.WrapError(domain.ErrParse, "decode analyze response", err)
		}
		return nil
	}

	err = c.executor.Execute(ctx, "analysis.analyze", call, classifyAnalysisError)
	if err != nil {
		return domain.GradeAnalysis{}, wrapExternal("analyze", err)
	}

	result, err := parseAnalysis(reply.Content)
	if err != nil {
		return domain.GradeAnalysis{}, err
	}
	return result, nil
}

// buildMultipart buffers the whole request so retries can resend it.
func buildMultipart(filename string, doc io.Reader) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, doc); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func parseAnalysis(content string) (domain.GradeAnalysis, error) {
	cleaned := stripCodeFence(content)
	var result domain.GradeAnalysis
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return domain.GradeAnalysis{}, domain.WrapError(domain.ErrParse, "parse analysis content", err)
	}
	return result, nil
}

// stripCodeFence removes a surrounding ``` or ```json markdown fence.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.Index(trimmed, "\n"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
