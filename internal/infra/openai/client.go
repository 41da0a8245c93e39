// Package openai answers the three recognition operations with a vision
// chat model behind an OpenAI-compatible API.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/framevr/framevr-recognition-service/internal/framename"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	DefaultModel = "gpt-4o-mini"

	opClassify      = "classify"
	opDetectFaces   = "detect_faces"
	opRecognizeText = "recognize_text"
)

var prompts = map[string]string{
	opClassify: `Classify the content of this image. Reply with JSON only: ` +
		`{"classes":[{"class":"<label>","score":<0..1>,"type_hierarchy":"</optional/path>"}]}. ` +
		`List at most 10 classes, most confident first.`,
	opDetectFaces: `Detect human faces in this image. Reply with JSON only: ` +
		`{"faces":[{"age":{"min":<int>,"max":<int>,"score":<0..1>},"gender":{"gender":"MALE|FEMALE","score":<0..1>},` +
		`"face_location":{"top":<px>,"left":<px>,"width":<px>,"height":<px>}}]}. Use an empty list when there are none.`,
	opRecognizeText: `Read any text visible in this image. Reply with JSON only: ` +
		`{"text":"<all text, lines separated by \n>","words":[{"word":"<word>","score":<0..1>,"line_number":<int>}]}.`,
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Client struct {
	cli    *goopenai.Client
	model  string
	logger *zap.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		cli:    goopenai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger,
	}
}

func (c *Client) Classify(ctx context.Context, imagePath string) (*entity.ImageResponse, error) {
	return c.call(ctx, opClassify, imagePath)
}

func (c *Client) DetectFaces(ctx context.Context, imagePath string) (*entity.ImageResponse, error) {
	return c.call(ctx, opDetectFaces, imagePath)
}

func (c *Client) RecognizeText(ctx context.Context, imagePath string) (*entity.ImageResponse, error) {
	return c.call(ctx, opRecognizeText, imagePath)
}

type answer struct {
	Classes []entity.Class `json:"classes"`
	Faces   []entity.Face  `json:"faces"`
	Text    string         `json:"text"`
	Words   []entity.Word  `json:"words"`
}

func (c *Client) call(ctx context.Context, op, imagePath string) (*entity.ImageResponse, error) {
	image := filepath.Base(imagePath)
	fail := func(err error) (*entity.ImageResponse, error) {
		return nil, &entity.CallError{Op: op, Image: image, Err: err}
	}

	dataURL, err := imageDataURL(imagePath)
	if err != nil {
		return fail(err)
	}

	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role: goopenai.ChatMessageRoleUser,
				MultiContent: []goopenai.ChatMessagePart{
					{Type: goopenai.ChatMessagePartTypeText, Text: prompts[op]},
					{Type: goopenai.ChatMessagePartTypeImageURL, ImageURL: &goopenai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: goopenai.ImageURLDetailLow,
					}},
				},
			},
		},
	}

	c.logger.Debug("calling vision model", zap.String("op", op), zap.String("image", image), zap.String("model", c.model))

	resp, err := c.cli.CreateChatCompletion(ctx, req)
	if err != nil {
		return fail(err)
	}
	if len(resp.Choices) == 0 {
		return fail(fmt.Errorf("model returned no choices"))
	}

	var a answer
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(stripFence(content)), &a); err != nil {
		return fail(fmt.Errorf("decode model answer: %w", err))
	}

	result := entity.ImageResult{Image: image, Time: framename.DecodePtr(image)}
	switch op {
	case opClassify:
		result.Classifiers = []entity.Classifier{{ClassifierID: "default", Name: "default", Classes: a.Classes}}
	case opDetectFaces:
		result.Faces = a.Faces
	case opRecognizeText:
		result.Text = a.Text
		result.Words = a.Words
	}

	return &entity.ImageResponse{ImagesProcessed: 1, Images: []entity.ImageResult{result}}, nil
}

func imageDataURL(imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
