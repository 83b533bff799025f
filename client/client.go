package client

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
)

const defaultTimeout = 60 * time.Second

// Client is a typed HTTP client for the redaction API.
type Client struct {
	http *resty.Client
}

func New(baseURL string) *Client {
	return &Client{
		http: resty.New().SetBaseURL(baseURL).SetTimeout(defaultTimeout),
	}
}

// SetTimeout overrides the request timeout.
func (c *Client) SetTimeout(d time.Duration) *Client {
	c.http.SetTimeout(d)
	return c
}

// File is one upload: filename plus raw image bytes.
type File struct {
	Name string
	Data []byte
}

type HealthInfo struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	ModelsLoaded bool              `json:"models_loaded"`
	Capabilities map[string]string `json:"capabilities"`
}

type ProcessResult struct {
	Success           bool                    `json:"success"`
	Message           string                  `json:"message"`
	Results           []iface.ProcessedResult `json:"results"`
	TotalProcessingMS float64                 `json:"total_processing_time_ms"`
	ImagesProcessed   int                     `json:"images_processed"`
	TotalDetections   int                     `json:"total_detections"`
}

type QuotaInfo struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

func (c *Client) Health(ctx context.Context) (*HealthInfo, error) {
	var out HealthInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/health")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("health: %s: %s", resp.Status(), resp.String())
	}
	return &out, nil
}

// Process uploads a batch with the given options and returns the redacted
// results.
func (c *Client) Process(ctx context.Context, files []File, opts iface.DetectionOptions) (*ProcessResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("process: no files")
	}
	opts = opts.Normalized()

	req := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"blur_mode":             string(opts.BlurMode),
			"blur_intensity":        strconv.Itoa(opts.Intensity),
			"detect_faces":          strconv.FormatBool(opts.DetectFaces),
			"detect_plates":         strconv.FormatBool(opts.DetectPlates),
			"detection_sensitivity": strconv.Itoa(opts.Sensitivity),
			"emoji_key":             opts.EmojiKey,
		})
	for _, f := range files {
		req.SetFileReader("files", f.Name, bytes.NewReader(f.Data))
	}

	var out ProcessResult
	resp, err := req.SetResult(&out).Post("/api/process")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("process: %s: %s", resp.Status(), resp.String())
	}
	return &out, nil
}

// Feedback reports a missed detection and returns the feedback id.
func (c *Client) Feedback(ctx context.Context, missedType iface.Category, comment, imageID string) (string, error) {
	var out struct {
		Success    bool   `json:"success"`
		FeedbackID string `json:"feedback_id"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"missed_type": string(missedType),
			"comment":     comment,
			"image_id":    imageID,
		}).
		SetResult(&out).
		Post("/api/feedback")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("feedback: %s: %s", resp.Status(), resp.String())
	}
	return out.FeedbackID, nil
}

func (c *Client) Quota(ctx context.Context) (*QuotaInfo, error) {
	var out QuotaInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/quota")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("quota: %s: %s", resp.Status(), resp.String())
	}
	return &out, nil
}
