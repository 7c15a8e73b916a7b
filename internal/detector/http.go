package detector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to a face encoder service over HTTP.
type Client struct {
	baseURL    string
	dim        int
	httpClient *http.Client
}

// NewClient creates a client for the encoder service at baseURL. dim is
// the expected encoding dimensionality; responses with a different
// dimension are rejected.
func NewClient(baseURL string, dim int) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("encoder URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid encoder URL: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		dim:     dim,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type encodeRequest struct {
	Image string `json:"image"` // base64-encoded image bytes
}

type encodedFace struct {
	Encoding []float32 `json:"encoding"`
	Box      [4]int    `json:"box"` // top, right, bottom, left
}

type encodeResponse struct {
	Faces []encodedFace `json:"faces"`
}

// DetectAndEncode sends the image to the encoder service and returns the
// first detected face.
func (c *Client) DetectAndEncode(ctx context.Context, image []byte) (*Face, error) {
	body, err := json.Marshal(encodeRequest{
		Image: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/encode", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating encode request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling encoder service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("encoder service returned %d: %s", resp.StatusCode, respBody)
	}

	var decoded encodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding encoder response: %w", err)
	}

	if len(decoded.Faces) == 0 {
		return nil, ErrNoFaceDetected
	}

	face := decoded.Faces[0]
	if len(face.Encoding) != c.dim {
		return nil, fmt.Errorf("encoder returned %d-dimensional encoding, expected %d", len(face.Encoding), c.dim)
	}

	return &Face{
		Encoding: face.Encoding,
		Box:      face.Box,
	}, nil
}
