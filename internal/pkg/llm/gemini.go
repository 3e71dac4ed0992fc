package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

const defaultGeminiModel = "gemini-2.5-flash"

type Gemini struct {
	client *genai.Client
	opts   Options
}

func NewGemini(ctx context.Context, apiKey string, opts Options) (*Gemini, error) {
	if opts.Model == "" {
		opts.Model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{client: client, opts: opts}, nil
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	m := g.client.GenerativeModel(g.opts.Model)
	if g.opts.MaxOutputTokens > 0 {
		m.SetMaxOutputTokens(g.opts.MaxOutputTokens)
	}
	m.SetTemperature(g.opts.Temperature)
	m.SetTopP(g.opts.TopP)
	m.SetTopK(g.opts.TopK)
	m.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", geminiError(err)
	}
	return candidateText(resp), nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

// candidateText 取第一个候选的文本部分，没有内容时返回空串
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// geminiError 把 REST/gRPC 错误统一成 StatusError
func geminiError(err error) error {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return &StatusError{Status: code, Err: err}
		}
		switch apiErr.GRPCStatus().Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return &StatusError{Status: http.StatusUnauthorized, Err: err}
		case codes.ResourceExhausted:
			return &StatusError{Status: http.StatusTooManyRequests, Err: err}
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &StatusError{Status: gErr.Code, Err: err}
	}

	return fmt.Errorf("gemini: %w", err)
}
