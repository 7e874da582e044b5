package generation

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
)

// Options controls how the provider client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is a facade over the external generation service. When no API key is
// configured it produces deterministic synthetic assets instead of calling
// out, which keeps the pipeline fully operational in local and CI
// environments while preserving the real invocation path.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient validates the options and builds a provider client.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("generation: base url is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "studio-default"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

type generateRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	Style     string `json:"style,omitempty"`
	Category  string `json:"category,omitempty"`
	Quality   string `json:"quality,omitempty"`
	RequestID string `json:"request_id"`
	InputMIME string `json:"input_mime"`
	Input     string `json:"input"`
}

type generateResponse struct {
	Data              string  `json:"data"`
	MIME              string  `json:"mime"`
	Model             string  `json:"model"`
	ProcessingSeconds float64 `json:"processing_seconds"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate runs one transformation. Without an API key it renders a
// deterministic synthetic asset.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return c.synthetic(req), nil
	}
	res, err := c.remoteGenerate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderFailure, err)
	}
	return res, nil
}

func (c *Client) remoteGenerate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	payload := generateRequest{
		Model:     c.model,
		Prompt:    req.Prompt,
		Style:     req.Style,
		Category:  req.Category,
		Quality:   req.Quality,
		RequestID: req.JobID,
		InputMIME: req.InputMIME,
		Input:     base64.StdEncoding.EncodeToString(req.InputData),
	}
	var out generateResponse
	if err := c.invoke(ctx, "/generate", payload, &out); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(out.Data)
	if err != nil {
		return nil, fmt.Errorf("decode asset payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("provider returned an empty asset")
	}
	mime := out.MIME
	if mime == "" {
		mime = "image/png"
	}
	model := out.Model
	if model == "" {
		model = c.model
	}
	secs := out.ProcessingSeconds
	if secs <= 0 {
		secs = time.Since(start).Seconds()
	}
	return &Result{Data: data, MIME: mime, Model: model, ProcessingSeconds: secs}, nil
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	endpoint := strings.TrimRight(c.baseURL, "/") + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("provider status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("provider status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

func (c *Client) synthetic(req Request) *Result {
	seed := deterministicSeed(c.model, req.JobID, req.Prompt, req.Style, req.Category)
	data := renderSyntheticImage(1024, 1024, seed)
	if c.logger != nil {
		c.logger.Debug().
			Str("job_id", req.JobID).
			Str("model", c.model).
			Msg("generation: rendered synthetic asset")
	}
	return &Result{
		Data:              data,
		MIME:              "image/png",
		Model:             c.model + "-synthetic",
		ProcessingSeconds: 0,
	}
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func renderSyntheticImage(width, height int, seed string) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := height / 12
	if stripeHeight < 32 {
		stripeHeight = 32
	}
	for y := 0; y < height; y += stripeHeight * 2 {
		bottom := y + stripeHeight
		if bottom > height {
			bottom = height
		}
		draw.Draw(img, image.Rect(0, y, width, bottom), &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if seed == "" {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{
		R: mustParseHexByte(segment[0:2]),
		G: mustParseHexByte(segment[2:4]),
		B: mustParseHexByte(segment[4:6]),
		A: 255,
	}
}

func mustParseHexByte(s string) uint8 {
	var v uint8
	for i := 0; i < len(s); i++ {
		v <<= 4
		switch {
		case s[i] >= '0' && s[i] <= '9':
			v |= s[i] - '0'
		case s[i] >= 'a' && s[i] <= 'f':
			v |= s[i] - 'a' + 10
		case s[i] >= 'A' && s[i] <= 'F':
			v |= s[i] - 'A' + 10
		}
	}
	return v
}
