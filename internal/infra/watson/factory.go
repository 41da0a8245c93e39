package watson

import (
	"net/http"

	"github.com/framevr/framevr-recognition-service/internal/domain/port"
	"go.uber.org/zap"
)

// Factory builds one client per credential instead of reconfiguring a
// shared one.
type Factory struct {
	creds  Credentials
	def    *Client
	http   *http.Client
	logger *zap.Logger
}

func NewFactory(creds Credentials, httpClient *http.Client, logger *zap.Logger) *Factory {
	return &Factory{
		creds:  creds,
		def:    NewClient(creds, httpClient, logger),
		http:   httpClient,
		logger: logger,
	}
}

func (f *Factory) Recognizer(apiKey string) port.Recognizer {
	if apiKey == "" || apiKey == f.creds.APIKey {
		return f.def
	}
	creds := f.creds
	creds.APIKey = apiKey
	return NewClient(creds, f.http, f.logger)
}
