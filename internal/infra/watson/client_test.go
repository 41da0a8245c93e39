package watson

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type seenRequest struct {
	path     string
	apiKey   string
	version  string
	filename string
	body     string
}

type fakeService struct {
	mu       sync.Mutex
	requests []seenRequest
	status   int
	response string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("images_file")
	seen := seenRequest{
		path:    r.URL.Path,
		apiKey:  r.URL.Query().Get("api_key"),
		version: r.URL.Query().Get("version"),
	}
	if err == nil {
		data, _ := io.ReadAll(file)
		seen.filename = header.Filename
		seen.body = string(data)
	}

	f.mu.Lock()
	f.requests = append(f.requests, seen)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
	}
	_, _ = io.WriteString(w, f.response)
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("png-bytes"), 0o644))
	return p
}

func newTestClient(t *testing.T, svc *fakeService, key string) *Client {
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	return NewClient(Credentials{APIKey: key, URL: srv.URL + "/api/"}, srv.Client(), zap.NewNop())
}

func TestClassify(t *testing.T) {
	svc := &fakeService{response: `{"images_processed":1,"images":[{"image":"__sh-g-12.5.png","classifiers":[{"classifier_id":"default","name":"default","classes":[{"class":"person","score":0.93}]}]}]}`}
	c := newTestClient(t, svc, "k1")
	img := writeImage(t, "__sh-g-12.5.png")

	res, err := c.Classify(context.Background(), img)
	require.NoError(t, err)
	require.Len(t, res.Images, 1)
	assert.Equal(t, "person", res.Images[0].Classifiers[0].Classes[0].Class)
	require.NotNil(t, res.Images[0].Time)
	assert.Equal(t, 12.5, *res.Images[0].Time)

	require.Len(t, svc.requests, 1)
	got := svc.requests[0]
	assert.Equal(t, "/api/v3/classify", got.path)
	assert.Equal(t, "k1", got.apiKey)
	assert.Equal(t, DefaultVersionDate, got.version)
	assert.Equal(t, "__sh-g-12.5.png", got.filename)
	assert.Equal(t, "png-bytes", got.body)
}

func TestDetectFacesAndRecognizeTextEndpoints(t *testing.T) {
	svc := &fakeService{response: `{"images_processed":1,"images":[{"image":"__sh-g-1.png","faces":[{"gender":{"gender":"MALE","score":0.6}}],"text":"exit","words":[{"word":"exit","score":0.8,"line_number":0}]}]}`}
	c := newTestClient(t, svc, "k")
	img := writeImage(t, "__sh-g-1.png")

	faces, err := c.DetectFaces(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "MALE", faces.Images[0].Faces[0].Gender.Gender)

	text, err := c.RecognizeText(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "exit", text.Images[0].Text)

	assert.Equal(t, "/api/v3/detect_faces", svc.requests[0].path)
	assert.Equal(t, "/api/v3/recognize_text", svc.requests[1].path)
}

func TestImageNameFallsBackToUpload(t *testing.T) {
	svc := &fakeService{response: `{"images_processed":1,"images":[{"classifiers":[]}]}`}
	c := newTestClient(t, svc, "k")

	res, err := c.Classify(context.Background(), writeImage(t, "__sh-g-3.png"))
	require.NoError(t, err)
	assert.Equal(t, "__sh-g-3.png", res.Images[0].Image)
	assert.Equal(t, 3.0, *res.Images[0].Time)
}

func TestCallFailures(t *testing.T) {
	cases := map[string]*fakeService{
		"unauthorized": {status: http.StatusUnauthorized, response: `{"error":{"code":401,"description":"Invalid API key"}}`},
		"rate limited": {status: http.StatusTooManyRequests, response: `slow down`},
		"error body":   {response: `{"status":"ERROR","statusInfo":"invalid-api-key"}`},
		"malformed":    {response: `{"images":`},
	}
	for name, svc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, svc, "k")
			_, err := c.Classify(context.Background(), writeImage(t, "__sh-g-1.png"))
			require.Error(t, err)
			assert.ErrorIs(t, err, entity.ErrRecognitionCallFailed)

			var callErr *entity.CallError
			require.ErrorAs(t, err, &callErr)
			assert.Equal(t, OpClassify, callErr.Op)
			assert.Equal(t, "__sh-g-1.png", callErr.Image)
		})
	}
}

func TestMissingImage(t *testing.T) {
	svc := &fakeService{response: `{}`}
	c := newTestClient(t, svc, "k")

	_, err := c.RecognizeText(context.Background(), filepath.Join(t.TempDir(), "gone.png"))
	assert.ErrorIs(t, err, entity.ErrRecognitionCallFailed)
	assert.Empty(t, svc.requests)
}

func TestFactoryOverride(t *testing.T) {
	svc := &fakeService{response: `{"images_processed":1,"images":[{"image":"x.png"}]}`}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	f := NewFactory(Credentials{APIKey: "default", URL: srv.URL}, srv.Client(), zap.NewNop())
	img := writeImage(t, "x.png")

	assert.Same(t, f.Recognizer(""), f.Recognizer(""))
	assert.Same(t, f.Recognizer(""), f.Recognizer("default"))

	_, err := f.Recognizer("").Classify(context.Background(), img)
	require.NoError(t, err)
	_, err = f.Recognizer("override").Classify(context.Background(), img)
	require.NoError(t, err)
	_, err = f.Recognizer("").Classify(context.Background(), img)
	require.NoError(t, err)

	require.Len(t, svc.requests, 3)
	assert.Equal(t, "default", svc.requests[0].apiKey)
	assert.Equal(t, "override", svc.requests[1].apiKey)
	assert.Equal(t, "default", svc.requests[2].apiKey, "an override must not leak into the default client")
}
