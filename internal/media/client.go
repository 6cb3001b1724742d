package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// JobPhase is the normalized state of a generation task. Provider-specific
// status codes are mapped onto this three-state set.
type JobPhase string

const (
	PhaseProcessing JobPhase = "processing"
	PhaseSucceeded  JobPhase = "succeeded"
	PhaseFailed     JobPhase = "failed"
)

// Submission is a provider's answer to a generation request: either a direct
// result or a task id to poll.
type Submission struct {
	Output []string
	TaskID string
}

// JobStatus is one normalized status-check result for an in-flight task.
type JobStatus struct {
	Phase     JobPhase
	Progress  float64 // 0.0 - 1.0
	ResultURL string
	Error     string
}

// Client talks to the media generation provider. Image and video use
// distinct endpoints and status fields but share the same submit/poll
// semantics.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a provider client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type submitRequest struct {
	Model     string   `json:"model"`
	Prompt    string   `json:"prompt"`
	ImageURLs []string `json:"image_urls,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
}

// submitResponse covers both provider response shapes: a direct result in
// output, or a task id for asynchronous completion.
type submitResponse struct {
	Output []string `json:"output,omitempty"`
	TaskID string   `json:"taskId,omitempty"`
}

// statusResponse is the provider's raw status-check payload. successFlag is
// 0 while processing, 1 on success, 2 on failure; progress is a stringified
// fraction.
type statusResponse struct {
	SuccessFlag int    `json:"successFlag"`
	Progress    string `json:"progress"`
	Response    struct {
		ResultURL    string   `json:"resultUrl,omitempty"`
		ResultURLs   []string `json:"resultUrls,omitempty"`
		ErrorMessage string   `json:"errorMessage,omitempty"`
	} `json:"response"`
}

// SubmitImage submits an image generation request.
func (c *Client) SubmitImage(ctx context.Context, model, prompt string, refs []string) (*Submission, error) {
	return c.submit(ctx, "/v1/images/generations", submitRequest{
		Model:     model,
		Prompt:    prompt,
		ImageURLs: refs,
	})
}

// SubmitVideo submits a video generation request with at most one reference
// image.
func (c *Client) SubmitVideo(ctx context.Context, model, prompt, ref string) (*Submission, error) {
	return c.submit(ctx, "/v1/videos/generations", submitRequest{
		Model:    model,
		Prompt:   prompt,
		ImageURL: ref,
	})
}

func (c *Client) submit(ctx context.Context, path string, body submitRequest) (*Submission, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Status: resp.StatusCode}
	}

	var parsed submitResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ProviderError{Msg: fmt.Sprintf("malformed submit response: %v", err)}
	}
	if len(parsed.Output) == 0 && parsed.TaskID == "" {
		return nil, &ProviderError{Msg: "submit response carried neither output nor task id"}
	}
	return &Submission{Output: parsed.Output, TaskID: parsed.TaskID}, nil
}

// ImageStatus checks an asynchronous image task.
func (c *Client) ImageStatus(ctx context.Context, taskID string) (*JobStatus, error) {
	return c.status(ctx, "/v1/images/tasks/"+taskID)
}

// VideoStatus checks an asynchronous video task.
func (c *Client) VideoStatus(ctx context.Context, taskID string) (*JobStatus, error) {
	return c.status(ctx, "/v1/videos/tasks/"+taskID)
}

func (c *Client) status(ctx context.Context, path string) (*JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Status: resp.StatusCode}
	}

	var parsed statusResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ProviderError{Msg: fmt.Sprintf("malformed status response: %v", err)}
	}

	status := &JobStatus{}
	if f, err := strconv.ParseFloat(parsed.Progress, 64); err == nil {
		status.Progress = f
	}
	switch parsed.SuccessFlag {
	case 1:
		status.Phase = PhaseSucceeded
		status.Progress = 1.0
		status.ResultURL = parsed.Response.ResultURL
		if status.ResultURL == "" && len(parsed.Response.ResultURLs) > 0 {
			status.ResultURL = parsed.Response.ResultURLs[0]
		}
	case 2:
		status.Phase = PhaseFailed
		status.Error = parsed.Response.ErrorMessage
		if status.Error == "" {
			status.Error = "generation failed"
		}
	default:
		status.Phase = PhaseProcessing
	}
	return status, nil
}
