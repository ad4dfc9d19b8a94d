package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/kaptinlin/jsonschema"
	"github.com/pkg/errors"
	"github.com/techagentng/aquawatch/config"
	errs "github.com/techagentng/aquawatch/errors"
	"github.com/techagentng/aquawatch/models"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "gemini-2.0-flash"
	maxAnalysisEdge    = 1024
)

const analysisPrompt = `You are inspecting a photo submitted by a citizen reporting a water issue.
Describe what you see, the likely environmental and health impact and the recommended next steps.
Answer with a single JSON object of the form
{"analysis": string, "waterIssueType": string, "severity": "Low" | "Medium" | "High", "confidence": number between 0 and 1}.
The reporter's description follows.

`

// Analysis is the vision model's opinion of a report image. Fields other than
// Text are empty when the model did not answer in the expected format.
type Analysis struct {
	Text           string  `json:"text"`
	WaterIssueType string  `json:"water_issue_type,omitempty"`
	Severity       string  `json:"severity,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

type AnalysisService interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType, description string) (*Analysis, error)
}

// NewAnalysisService returns a Gemini backed analyzer, or one that always
// answers ErrAnalysisUnavailable when no API key is configured.
func NewAnalysisService(ctx context.Context, conf *config.Config, logger *zap.Logger) (AnalysisService, error) {
	if conf.GeminiApiKey == "" {
		logger.Info("gemini api key not set, image analysis disabled")
		return disabledAnalyzer{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.GeminiApiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create genai client")
	}
	model := conf.GeminiModel
	if model == "" {
		model = DefaultGeminiModel
	}
	return &geminiAnalyzer{client: client, model: model, logger: logger}, nil
}

type disabledAnalyzer struct{}

func (disabledAnalyzer) AnalyzeImage(context.Context, []byte, string, string) (*Analysis, error) {
	return nil, errs.ErrAnalysisUnavailable
}

type geminiAnalyzer struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func (g *geminiAnalyzer) AnalyzeImage(ctx context.Context, image []byte, mimeType, description string) (*Analysis, error) {
	data, mimeType, err := prepareImage(image, mimeType)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(analysisPrompt + description),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, errors.Wrap(err, "gemini request failed")
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("gemini returned an empty answer")
	}
	g.logger.Debug("image analyzed", zap.String("model", g.model), zap.Int("bytes", len(data)))
	return parseAnalysis(text), nil
}

// prepareImage shrinks the image to fit maxAnalysisEdge and re-encodes it as
// JPEG. GIF and WebP are sent untouched since imaging cannot round-trip them
// reliably.
func prepareImage(image []byte, mimeType string) ([]byte, string, error) {
	if len(image) == 0 {
		return nil, "", errs.New("image is required", errs.ErrBadRequest.Status)
	}
	if mimeType != "image/jpeg" && mimeType != "image/png" {
		return image, mimeType, nil
	}
	img, err := imaging.Decode(bytes.NewReader(image), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", errs.New(fmt.Sprintf("failed to decode image: %v", err), errs.ErrBadRequest.Status)
	}
	bounds := img.Bounds()
	if bounds.Dx() > maxAnalysisEdge || bounds.Dy() > maxAnalysisEdge {
		img = imaging.Fit(img, maxAnalysisEdge, maxAnalysisEdge, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, "", errors.Wrap(err, "failed to encode image")
	}
	return buf.Bytes(), "image/jpeg", nil
}

const answerSchema = `{
	"type": "object",
	"required": ["analysis"],
	"properties": {
		"analysis": {"type": "string", "minLength": 1},
		"waterIssueType": {"type": "string"},
		"severity": {"type": "string"},
		"confidence": {"type": "number"}
	}
}`

var compileAnswerSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.NewCompiler().Compile([]byte(answerSchema))
})

// parseAnalysis reads the model's JSON answer, tolerating code fences. Anything
// that does not match answerSchema is kept verbatim as the analysis text.
func parseAnalysis(text string) *Analysis {
	raw := strings.TrimSpace(text)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	verbatim := &Analysis{Text: strings.TrimSpace(text)}

	var instance map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &instance); err != nil {
		return verbatim
	}
	schema, err := compileAnswerSchema()
	if err != nil || !schema.Validate(instance).IsValid() {
		return verbatim
	}

	var answer struct {
		Analysis       string  `json:"analysis"`
		WaterIssueType string  `json:"waterIssueType"`
		Severity       string  `json:"severity"`
		Confidence     float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return verbatim
	}

	result := &Analysis{
		Text:           answer.Analysis,
		WaterIssueType: answer.WaterIssueType,
		Confidence:     answer.Confidence,
	}
	if models.ValidSeverity(answer.Severity) {
		result.Severity = answer.Severity
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		result.Confidence = 0
	}
	return result
}
