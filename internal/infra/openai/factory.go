package openai

import (
	"net/http"

	"github.com/framevr/framevr-recognition-service/internal/domain/port"
	"go.uber.org/zap"
)

type Factory struct {
	cfg    Config
	def    *Client
	http   *http.Client
	logger *zap.Logger
}

func NewFactory(cfg Config, httpClient *http.Client, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		def:    NewClient(cfg, httpClient, logger),
		http:   httpClient,
		logger: logger,
	}
}

func (f *Factory) Recognizer(apiKey string) port.Recognizer {
	if apiKey == "" || apiKey == f.cfg.APIKey {
		return f.def
	}
	cfg := f.cfg
	cfg.APIKey = apiKey
	return NewClient(cfg, f.http, f.logger)
}
