package media

import (
	"context"
	"log/slog"
	"time"
)

// Config holds provider settings for the gateway and poller.
type Config struct {
	BaseURL string
	APIKey  string

	// ImageModel handles text-to-image; ImageEditModel is the edit-capable
	// variant used when reference images are attached.
	ImageModel     string
	ImageEditModel string
	VideoModel     string

	// Image generation is slow but boundedly synchronous: when the provider
	// answers with a task id, the gateway polls inline within this budget.
	ImagePollInterval time.Duration
	ImagePollAttempts int
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ImageModel == "" {
		out.ImageModel = "flux-dev"
	}
	if out.ImageEditModel == "" {
		out.ImageEditModel = "flux-kontext"
	}
	if out.VideoModel == "" {
		out.VideoModel = "kling-v1-6"
	}
	if out.ImagePollInterval <= 0 {
		out.ImagePollInterval = 2 * time.Second
	}
	if out.ImagePollAttempts <= 0 {
		out.ImagePollAttempts = 30
	}
	return out
}

// SubmitResult is the gateway's uniform outcome envelope. Exactly one of
// URL (image, resolved) and TaskID (video, pending) is set on success.
type SubmitResult struct {
	Success bool
	URL     string
	TaskID  string
	Error   string
}

// Gateway submits generation jobs to the media provider. Images resolve
// before the call returns; video submissions come back as a task id the
// caller hands to the Poller.
type Gateway struct {
	cfg    Config
	client *Client
}

// NewGateway creates a gateway for the given provider configuration.
func NewGateway(cfg Config) *Gateway {
	cfg = cfg.withDefaults()
	return &Gateway{
		cfg:    cfg,
		client: NewClient(cfg.BaseURL, cfg.APIKey),
	}
}

// Client exposes the underlying provider client for the poller.
func (g *Gateway) Client() *Client {
	return g.client
}

// checkConfigured rejects a request before any network call when the
// provider credential is missing.
func (g *Gateway) checkConfigured() error {
	if g.cfg.APIKey == "" {
		return &ConfigurationError{Msg: "media generation is not configured; set media.api_key or VEA_MEDIA_API_KEY"}
	}
	return nil
}

// GenerateImage generates an image for the prompt, optionally grounded on
// reference images. The provider may answer directly or with a task id; in
// the latter case the gateway polls inline until the result is ready or the
// attempt budget runs out.
func (g *Gateway) GenerateImage(ctx context.Context, prompt string, refs []string) SubmitResult {
	if err := g.checkConfigured(); err != nil {
		return SubmitResult{Error: err.Error()}
	}

	model := g.cfg.ImageModel
	if len(refs) > 0 {
		model = g.cfg.ImageEditModel
	}
	enhanced := EnhanceImagePrompt(prompt, len(refs) > 0)

	sub, err := g.client.SubmitImage(ctx, model, enhanced, refs)
	if err != nil {
		slog.Warn("image submit failed", "model", model, "error", err)
		return SubmitResult{Error: err.Error()}
	}
	if len(sub.Output) > 0 {
		return SubmitResult{Success: true, URL: sub.Output[0]}
	}

	url, err := g.awaitImage(ctx, sub.TaskID)
	if err != nil {
		slog.Warn("image polling failed", "task_id", sub.TaskID, "error", err)
		return SubmitResult{Error: err.Error()}
	}
	return SubmitResult{Success: true, URL: url}
}

// awaitImage polls an image task synchronously within the configured budget.
func (g *Gateway) awaitImage(ctx context.Context, taskID string) (string, error) {
	for attempt := 1; attempt <= g.cfg.ImagePollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.cfg.ImagePollInterval):
		}

		status, err := g.client.ImageStatus(ctx, taskID)
		if err != nil {
			// Transient check failure; the attempt still counts.
			slog.Debug("image status check failed", "task_id", taskID, "attempt", attempt, "error", err)
			continue
		}
		switch status.Phase {
		case PhaseSucceeded:
			if status.ResultURL == "" {
				return "", &ProviderError{Msg: "provider reported success without a result URL"}
			}
			return status.ResultURL, nil
		case PhaseFailed:
			return "", &ProviderError{Msg: status.Error}
		}
	}
	elapsed := time.Duration(g.cfg.ImagePollAttempts) * g.cfg.ImagePollInterval
	return "", &TimeoutError{TaskID: taskID, Elapsed: elapsed}
}

// GenerateVideo submits a video generation job. Submission is always
// asynchronous: the result is a task id and the caller is responsible for
// scheduling the Poller. At most one reference image is supported.
func (g *Gateway) GenerateVideo(ctx context.Context, prompt string, ref string) SubmitResult {
	if err := g.checkConfigured(); err != nil {
		return SubmitResult{Error: err.Error()}
	}

	enhanced := EnhanceVideoPrompt(prompt, ref != "")
	sub, err := g.client.SubmitVideo(ctx, g.cfg.VideoModel, enhanced, ref)
	if err != nil {
		slog.Warn("video submit failed", "model", g.cfg.VideoModel, "error", err)
		return SubmitResult{Error: err.Error()}
	}
	if sub.TaskID == "" {
		return SubmitResult{Error: "provider did not return a task id for video generation"}
	}
	return SubmitResult{Success: true, TaskID: sub.TaskID}
}

// Prompt enhancement is deterministic: fixed quality suffixes per media
// type, with an extra instruction when reference images anchor the request.

const (
	imageSuffix    = ", high quality, detailed, professional lighting"
	imageRefSuffix = ". Use the attached reference image as the base for style and composition"
	videoSuffix    = ", cinematic, smooth motion, high quality"
	videoRefSuffix = ". Animate starting from the attached reference image"
)

// EnhanceImagePrompt appends the image quality suffix, and the reference
// instruction when refs are attached.
func EnhanceImagePrompt(prompt string, hasRefs bool) string {
	out := prompt + imageSuffix
	if hasRefs {
		out += imageRefSuffix
	}
	return out
}

// EnhanceVideoPrompt appends the video quality suffix, and the reference
// instruction when a ref is attached.
func EnhanceVideoPrompt(prompt string, hasRef bool) string {
	out := prompt + videoSuffix
	if hasRef {
		out += videoRefSuffix
	}
	return out
}
