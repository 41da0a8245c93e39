// Package watson talks to the Visual Recognition v3 REST API.
package watson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/framevr/framevr-recognition-service/internal/framename"
	"go.uber.org/zap"
)

const (
	DefaultURL         = "https://gateway-a.watsonplatform.net/visual-recognition/api"
	DefaultVersion     = "v3"
	DefaultVersionDate = "2016-05-20"

	OpClassify      = "classify"
	OpDetectFaces   = "detect_faces"
	OpRecognizeText = "recognize_text"

	maxResponseBytes = 8 << 20
)

// Credentials select the key and the versioned endpoint.
type Credentials struct {
	APIKey      string
	URL         string
	Version     string
	VersionDate string
}

func (c Credentials) withDefaults() Credentials {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.VersionDate == "" {
		c.VersionDate = DefaultVersionDate
	}
	c.URL = strings.TrimRight(c.URL, "/")
	return c
}

// Client is bound to one set of credentials for its whole life.
type Client struct {
	creds  Credentials
	http   *http.Client
	logger *zap.Logger
}

func NewClient(creds Credentials, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{creds: creds.withDefaults(), http: httpClient, logger: logger}
}

func (c *Client) Classify(ctx context.Context, imagePath string) (*entity.ImageResponse, error) {
	return c.call(ctx, OpClassify, imagePath)
}

func (c *Client) DetectFaces(ctx context.Context, imagePath string) (*entity.ImageResponse, error) {
	return c.call(ctx, OpDetectFaces, imagePath)
}

func (c *Client) RecognizeText(ctx context.Context, imagePath string) (*entity.ImageResponse, error) {
	return c.call(ctx, OpRecognizeText, imagePath)
}

type serviceError struct {
	Error *struct {
		Code        int    `json:"code"`
		ErrorID     string `json:"error_id"`
		Description string `json:"description"`
	} `json:"error"`
	Status     string `json:"status"`
	StatusInfo string `json:"statusInfo"`
}

func (c *Client) call(ctx context.Context, op, imagePath string) (*entity.ImageResponse, error) {
	image := filepath.Base(imagePath)
	fail := func(err error) (*entity.ImageResponse, error) {
		return nil, &entity.CallError{Op: op, Image: image, Err: err}
	}

	body, contentType, err := imageForm(imagePath)
	if err != nil {
		return fail(err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.creds.URL, c.creds.Version, op, url.Values{
		"api_key": {c.creds.APIKey},
		"version": {c.creds.VersionDate},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fail(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("calling visual recognition", zap.String("op", op), zap.String("image", image))

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(fmt.Errorf("status %d: %s", resp.StatusCode, describeError(raw)))
	}

	var svcErr serviceError
	if err := json.Unmarshal(raw, &svcErr); err == nil && (svcErr.Error != nil || svcErr.Status == "ERROR") {
		return fail(fmt.Errorf("service error: %s", describeError(raw)))
	}

	var out entity.ImageResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fail(fmt.Errorf("decode response: %w", err))
	}

	for i := range out.Images {
		if out.Images[i].Image == "" {
			out.Images[i].Image = image
		}
		out.Images[i].Time = framename.DecodePtr(out.Images[i].Image)
	}
	return &out, nil
}

func imageForm(imagePath string) (io.Reader, string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("images_file", filepath.Base(imagePath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func describeError(raw []byte) string {
	var svcErr serviceError
	if err := json.Unmarshal(raw, &svcErr); err == nil {
		switch {
		case svcErr.Error != nil && svcErr.Error.Description != "":
			return svcErr.Error.Description
		case svcErr.StatusInfo != "":
			return svcErr.StatusInfo
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return msg
}
