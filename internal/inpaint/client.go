// Package inpaint starts generative inpainting jobs on a remote service.
package inpaint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// maxResponseBytes bounds the job creation response.
const maxResponseBytes = 1 << 20

// Client posts inpaint jobs to Endpoint. The job ID it returns is polled by
// whoever consumes the job; the client does not wait for results.
type Client struct {
	Endpoint string
	Token    string
	HTTP     *http.Client
	Log      logrus.FieldLogger
}

// NewClient creates a Client with a 30s HTTP timeout.
func NewClient(endpoint, token string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		Endpoint: endpoint,
		Token:    token,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
		Log:      log,
	}
}

type jobRequest struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"image_url"`
	MaskURL  string `json:"mask_url"`
}

type jobResponse struct {
	JobID string `json:"job_id"`
	Error string `json:"error,omitempty"`
}

// CreateInpaintJob submits the image and mask and returns the job ID.
func (c *Client) CreateInpaintJob(ctx context.Context, prompt, imageRef, maskRef string) (string, error) {
	if c.Endpoint == "" {
		return "", errors.New("no inpaint endpoint configured")
	}
	body, err := json.Marshal(jobRequest{Prompt: prompt, ImageURL: imageRef, MaskURL: maskRef})
	if err != nil {
		return "", fmt.Errorf("failed to encode job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create inpaint job: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var out jobResponse
	decodeErr := json.Unmarshal(data, &out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Error != "" {
			return "", fmt.Errorf("inpaint service returned %d: %s", resp.StatusCode, out.Error)
		}
		return "", fmt.Errorf("inpaint service returned %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("malformed inpaint response: %w", decodeErr)
	}
	if out.JobID == "" {
		return "", errors.New("inpaint response has no job_id")
	}

	c.Log.WithFields(logrus.Fields{"job_id": out.JobID, "mask": maskRef}).Info("inpaint job created")
	return out.JobID, nil
}
