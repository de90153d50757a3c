package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"sitesmith/internal/keys"
)

const (
	defaultBaseURL         = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel           = "gemini-2.5-flash"
	defaultTemperature     = 0.7
	defaultMaxOutputTokens = 8192
)

// GeminiClient calls the Gemini generateContent REST endpoint. The
// credential for each call comes from the caller, so one client instance
// serves the whole rotating pool.
type GeminiClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	log        *zap.Logger
}

// NewGeminiClient creates a client for the given endpoint and model. Empty
// arguments select the production endpoint and default model.
func NewGeminiClient(baseURL, model string, log *zap.Logger) *GeminiClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GeminiClient{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
}

// Gemini API request/response structures
type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	Temperature      float32 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Call implements the Client interface for Gemini.
func (g *GeminiClient) Call(ctx context.Context, req CallRequest, cred keys.Credential) (string, error) {
	apiReq := g.buildRequest(req)

	jsonData, err := json.Marshal(apiReq)
	if err != nil {
		return "", errTransient(0, fmt.Sprintf("failed to marshal request: %v", err))
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, g.model, cred.Key)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", errTransient(0, fmt.Sprintf("failed to create request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", errTransient(0, fmt.Sprintf("failed to make request: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errTransient(resp.StatusCode, fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		perr := classifyStatus(resp.StatusCode, body)
		g.log.Debug("provider call rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(perr.Kind)),
			zap.String("key", keys.Mask(cred.Key)))
		return "", perr
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", errMalformed(fmt.Sprintf("failed to unmarshal response: %v", err))
	}
	if geminiResp.Error != nil {
		return "", errMalformed(fmt.Sprintf("Gemini API error: %s", geminiResp.Error.Message))
	}
	if len(geminiResp.Candidates) == 0 {
		return "", errMalformed("no candidates in response")
	}

	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", errMalformed("empty candidate text")
	}
	return text, nil
}

// buildRequest converts a CallRequest into the Gemini wire shape. The
// reference image, when present, is attached as an inline-data part on the
// first user message.
func (g *GeminiClient) buildRequest(req CallRequest) *geminiRequest {
	apiReq := &geminiRequest{}

	imagePending := req.Image != ""
	for _, msg := range req.Messages {
		content := geminiContent{
			Role:  msg.Role,
			Parts: []geminiPart{{Text: msg.Content}},
		}
		if imagePending && msg.Role == RoleUser {
			if inline, ok := inlineDataFromDataURI(req.Image); ok {
				content.Parts = append(content.Parts, geminiPart{InlineData: &inline})
			}
			imagePending = false
		}
		apiReq.Contents = append(apiReq.Contents, content)
	}

	config := &geminiGenConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	}
	if config.Temperature == 0 {
		config.Temperature = defaultTemperature
	}
	if config.MaxOutputTokens == 0 {
		config.MaxOutputTokens = defaultMaxOutputTokens
	}
	if req.ForceJSON {
		config.ResponseMIMEType = "application/json"
	}
	apiReq.GenerationConfig = config

	return apiReq
}

// inlineDataFromDataURI splits a data:<mime>;base64,<payload> URI at the
// first comma into its declared MIME type and base64 payload.
func inlineDataFromDataURI(uri string) (geminiInlineData, bool) {
	header, payload, found := strings.Cut(uri, ",")
	if !found || payload == "" {
		return geminiInlineData{}, false
	}
	mime := strings.TrimPrefix(header, "data:")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if mime == "" {
		mime = "image/png"
	}
	return geminiInlineData{MimeType: mime, Data: payload}, true
}

// classifyStatus maps an HTTP failure onto the error taxonomy. This is the
// only place provider responses are inspected; everything upstream switches
// on ProviderError.Kind.
func classifyStatus(status int, body []byte) *ProviderError {
	switch {
	case status == http.StatusTooManyRequests:
		return errRateLimited(status, "Gemini API rate limit exceeded")
	case status == http.StatusForbidden && strings.Contains(strings.ToLower(string(body)), "quota"):
		return errRateLimited(status, "Gemini API quota exhausted")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errTransient(status, "Gemini API key rejected")
	case status >= 500:
		return errTransient(status, fmt.Sprintf("Gemini service temporarily unavailable (status %d)", status))
	default:
		return errTransient(status, fmt.Sprintf("Gemini request failed with status %d: %s", status, truncate(string(body), 300)))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
