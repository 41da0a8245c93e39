package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/framevr/framevr-recognition-service/internal/domain/port"
	"github.com/framevr/framevr-recognition-service/internal/framename"
	"github.com/google/uuid"
)

type fakeRecognizer struct {
	mu    sync.Mutex
	calls []string
	// fail maps "<op>:<image base name>" to the error the call returns.
	fail map[string]error
}

func (r *fakeRecognizer) call(op, imagePath string) (*entity.ImageResponse, error) {
	name := filepath.Base(imagePath)
	r.mu.Lock()
	r.calls = append(r.calls, op+":"+name)
	err := r.fail[op+":"+name]
	r.mu.Unlock()
	if err != nil {
		return nil, &entity.CallError{Op: op, Image: name, Err: err}
	}

	res := entity.ImageResult{Image: name, Time: framename.DecodePtr(name)}
	switch op {
	case opClassify:
		res.Classifiers = []entity.Classifier{{ClassifierID: "default", Classes: []entity.Class{{Class: "sky", Score: 0.9}}}}
	case opDetectFaces:
		res.Faces = []entity.Face{{}}
	case opRecognizeText:
		res.Text = "hello"
	}
	return &entity.ImageResponse{ImagesProcessed: 1, Images: []entity.ImageResult{res}}, nil
}

func (r *fakeRecognizer) Classify(_ context.Context, p string) (*entity.ImageResponse, error) {
	return r.call(opClassify, p)
}

func (r *fakeRecognizer) DetectFaces(_ context.Context, p string) (*entity.ImageResponse, error) {
	return r.call(opDetectFaces, p)
}

func (r *fakeRecognizer) RecognizeText(_ context.Context, p string) (*entity.ImageResponse, error) {
	return r.call(opRecognizeText, p)
}

func (r *fakeRecognizer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeFactory struct {
	mu   sync.Mutex
	keys []string
	rec  port.Recognizer
}

func (f *fakeFactory) Recognizer(apiKey string) port.Recognizer {
	f.mu.Lock()
	f.keys = append(f.keys, apiKey)
	f.mu.Unlock()
	return f.rec
}

type fakeRemover struct {
	mu      sync.Mutex
	removed map[string]int
	err     error
}

func newFakeRemover() *fakeRemover { return &fakeRemover{removed: map[string]int{}} }

func (r *fakeRemover) Remove(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed[path]++
	return r.err
}

type fakeResolver struct {
	calls    int
	released int
	err      error
}

func (r *fakeResolver) Resolve(_ context.Context, media entity.MediaDescriptor) (entity.ResolvedMedia, error) {
	r.calls++
	if r.err != nil {
		return entity.ResolvedMedia{}, r.err
	}
	return entity.ResolvedMedia{
		Location: media.Source(),
		Cleanup:  func() { r.released++ },
	}, nil
}

type fakeExtractor struct {
	calls int
	times []float64
	err   error
}

func (e *fakeExtractor) ExtractScreenshots(_ context.Context, _ string, batchKey string, times []float64) ([]entity.ScreenshotFile, error) {
	e.calls++
	e.times = times
	if e.err != nil {
		return nil, e.err
	}
	return screenshots(batchKey, times...), nil
}

func screenshots(batchKey string, times ...float64) []entity.ScreenshotFile {
	files := make([]entity.ScreenshotFile, len(times))
	for i, t := range times {
		name := framename.Encode(batchKey, t)
		files[i] = entity.ScreenshotFile{Path: filepath.Join("/shots", name), Time: framename.DecodePtr(name)}
	}
	return files
}

type fakeRepo struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]entity.RecognitionJob
	history []entity.JobStatus
	create  error
	find    error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{jobs: map[uuid.UUID]entity.RecognitionJob{}} }

func (r *fakeRepo) Create(_ context.Context, job *entity.RecognitionJob) error {
	if r.create != nil {
		return r.create
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	r.history = append(r.history, job.Status)
	return nil
}

func (r *fakeRepo) Update(_ context.Context, job *entity.RecognitionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	r.history = append(r.history, job.Status)
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.RecognitionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find != nil {
		return nil, r.find
	}
	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("find job %s: %w", id, entity.ErrJobNotFound)
	}
	return &job, nil
}

type fakePublisher struct {
	msgs [][]byte
}

func (p *fakePublisher) PublishStatus(_ context.Context, msg []byte) error {
	p.msgs = append(p.msgs, msg)
	return nil
}

type dlqEntry struct {
	msg    []byte
	reason string
}

type fakeDLQ struct {
	entries []dlqEntry
}

func (d *fakeDLQ) PublishToDLQ(_ context.Context, msg []byte, reason string) error {
	d.entries = append(d.entries, dlqEntry{msg: msg, reason: reason})
	return nil
}

type notification struct {
	email, jobID, source, errorMsg string
}

type fakeNotifier struct {
	sent []notification
}

func (n *fakeNotifier) NotifyFailure(_ context.Context, userEmail, jobID, source, errorMsg string) error {
	n.sent = append(n.sent, notification{userEmail, jobID, source, errorMsg})
	return nil
}

type fakeArchiver struct {
	paths []string
	err   error
}

func (a *fakeArchiver) ZipBatches(_ context.Context, filePaths []string, outputDir string) ([]string, error) {
	a.paths = filePaths
	if a.err != nil {
		return nil, a.err
	}
	out := filepath.Join(outputDir, "frames-1.zip")
	if err := os.WriteFile(out, []byte("PK"), 0644); err != nil {
		return nil, err
	}
	return []string{out}, nil
}

type fakeStorage struct {
	keys []string
}

func (s *fakeStorage) UploadArchive(_ context.Context, objectKey string, r io.Reader, _ int64) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	s.keys = append(s.keys, objectKey)
	return nil
}
