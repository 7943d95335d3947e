package clip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	inputName  = "pixel_values"
	outputName = "image_embeds"
)

// inferRequest is the KServe v2 inference request body
type inferRequest struct {
	Inputs  []inferTensor `json:"inputs"`
	Outputs []inferOutput `json:"outputs,omitempty"`
}

type inferTensor struct {
	Name     string    `json:"name"`
	Shape    []int     `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float32 `json:"data"`
}

type inferOutput struct {
	Name string `json:"name"`
}

// inferResponse is the KServe v2 inference response body
type inferResponse struct {
	ModelName string        `json:"model_name"`
	Outputs   []inferTensor `json:"outputs"`
	Error     string        `json:"error,omitempty"`
}

// inferenceClient talks to a KServe v2 compatible server (Triton, KServe, MLServer)
type inferenceClient struct {
	endpoint string
	model    string
	client   *http.Client
}

func newInferenceClient(endpoint, model string, client *http.Client) *inferenceClient {
	return &inferenceClient{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		model:    model,
		client:   client,
	}
}

func (c *inferenceClient) modelURL(suffix string) string {
	return c.endpoint + "/v2/models/" + url.PathEscape(c.model) + suffix
}

// infer sends one pixel_values tensor and returns the image_embeds output
func (c *inferenceClient) infer(ctx context.Context, t *Tensor) ([]float32, error) {
	reqBody, err := json.Marshal(inferRequest{
		Inputs: []inferTensor{{
			Name:     inputName,
			Shape:    t.Shape,
			Datatype: "FP32",
			Data:     t.Data,
		}},
		Outputs: []inferOutput{{Name: outputName}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL("/infer"), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference server returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp inferResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if apiResp.Error != "" {
		return nil, fmt.Errorf("inference failed: %s", apiResp.Error)
	}

	for _, out := range apiResp.Outputs {
		if out.Name == outputName {
			return out.Data, nil
		}
	}
	return nil, fmt.Errorf("response has no %q output", outputName)
}

// ready reports whether the server has the model loaded
func (c *inferenceClient) ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL("/ready"), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model %s not ready: status %d", c.model, resp.StatusCode)
	}
	return nil
}
