package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/techagentng/firesafe/config"
	errs "github.com/techagentng/firesafe/errors"
)

// VisionModel answers a prompt about one image or document.
type VisionModel interface {
	Generate(ctx context.Context, prompt string, data []byte, mimeType string) (string, error)
}

type geminiClient struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewGeminiClient talks to the generateContent endpoint. Calls are made
// exactly once: retries are disabled and there is no timeout beyond ctx.
func NewGeminiClient(c *config.Config) VisionModel {
	client := resty.New().
		SetBaseURL(c.GeminiBaseUrl).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)

	return &geminiClient{
		client: client,
		apiKey: c.GeminiApiKey,
		model:  c.GeminiModel,
	}
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig map[string]interface{} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *geminiClient) Generate(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	if g.apiKey == "" {
		return "", errs.Configuration("vision model api key")
	}

	body := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
			},
		}},
		GenerationConfig: map[string]interface{}{
			"response_mime_type": "application/json",
		},
	}

	var out geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(body).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		return "", errs.NewWithCode("vision model request failed: "+err.Error(), errs.CodeUpstream, http.StatusInternalServerError)
	}
	if resp.IsError() {
		return "", errs.Upstream("vision model", resp.StatusCode(), resp.String())
	}

	var text strings.Builder
	for _, candidate := range out.Candidates {
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return "", errs.Upstream("vision model", resp.StatusCode(), "response carried no text")
	}
	return text.String(), nil
}
