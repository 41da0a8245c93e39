package entity

import (
	"sort"
)

// ImageResponse is what one recognition operation returns for one upload.
type ImageResponse struct {
	ImagesProcessed int           `json:"images_processed"`
	Images          []ImageResult `json:"images"`
}

// ImageResult carries whatever the operations found in one image. Image is
// the uploaded filename and Time the offset decoded from it.
type ImageResult struct {
	Image       string       `json:"image"`
	Time        *float64     `json:"time,omitempty"`
	Classifiers []Classifier `json:"classifiers,omitempty"`
	Faces       []Face       `json:"faces,omitempty"`
	Text        string       `json:"text,omitempty"`
	Words       []Word       `json:"words,omitempty"`
	Error       *ImageError  `json:"error,omitempty"`
}

type Classifier struct {
	ClassifierID string  `json:"classifier_id"`
	Name         string  `json:"name"`
	Classes      []Class `json:"classes"`
}

type Class struct {
	Class         string  `json:"class"`
	Score         float64 `json:"score"`
	TypeHierarchy string  `json:"type_hierarchy,omitempty"`
}

type Face struct {
	Age          *FaceAge      `json:"age,omitempty"`
	Gender       *FaceGender   `json:"gender,omitempty"`
	Identity     *FaceIdentity `json:"identity,omitempty"`
	FaceLocation *Location     `json:"face_location,omitempty"`
}

type FaceAge struct {
	Min   int     `json:"min,omitempty"`
	Max   int     `json:"max,omitempty"`
	Score float64 `json:"score"`
}

type FaceGender struct {
	Gender string  `json:"gender"`
	Score  float64 `json:"score"`
}

type FaceIdentity struct {
	Name          string  `json:"name"`
	Score         float64 `json:"score"`
	TypeHierarchy string  `json:"type_hierarchy,omitempty"`
}

type Location struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Word struct {
	Word       string    `json:"word"`
	Score      float64   `json:"score"`
	LineNumber int       `json:"line_number"`
	Location   *Location `json:"location,omitempty"`
}

type ImageError struct {
	ErrorID     string `json:"error_id"`
	Description string `json:"description"`
}

// Time returns the offset of the first image, if any.
func (r ImageResponse) Time() (float64, bool) {
	if len(r.Images) == 0 || r.Images[0].Time == nil {
		return 0, false
	}
	return *r.Images[0].Time, true
}

// RecognitionResult is the merge of the classify, faces and text responses
// for one frame.
type RecognitionResult = ImageResponse

// Merge folds faces and text into the classify response. Nothing is merged
// unless classify describes exactly one image, and each of faces and text
// contributes only when it also describes exactly one image.
func Merge(classify, faces, text ImageResponse) RecognitionResult {
	merged := classify
	merged.Images = append([]ImageResult(nil), classify.Images...)
	if len(merged.Images) != 1 {
		return merged
	}

	img := &merged.Images[0]
	if len(faces.Images) == 1 {
		f := faces.Images[0]
		img.Faces = f.Faces
		img.fillFrom(f)
	}
	if len(text.Images) == 1 {
		t := text.Images[0]
		img.Text = t.Text
		img.Words = t.Words
		img.fillFrom(t)
	}
	return merged
}

func (r *ImageResult) fillFrom(other ImageResult) {
	if r.Image == "" {
		r.Image = other.Image
	}
	if r.Time == nil {
		r.Time = other.Time
	}
	if r.Error == nil {
		r.Error = other.Error
	}
}

// BatchResult holds one merged result per frame that succeeded, in the
// order the frames finished.
type BatchResult []RecognitionResult

// SortByTime orders results by frame offset. Results without an offset go last.
func (b BatchResult) SortByTime() {
	sort.SliceStable(b, func(i, j int) bool {
		ti, oki := b[i].Time()
		tj, okj := b[j].Time()
		switch {
		case oki && okj:
			return ti < tj
		case oki:
			return true
		default:
			return false
		}
	})
}

type OutcomeKind string

const (
	OutcomeEmpty    OutcomeKind = "EMPTY"
	OutcomeComplete OutcomeKind = "COMPLETE"
	OutcomePartial  OutcomeKind = "PARTIAL"
)

// BatchOutcome is what a recognition request produced when it did not fail
// outright.
type BatchOutcome struct {
	Kind      OutcomeKind `json:"kind"`
	Requested int         `json:"requested"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Results   BatchResult `json:"results"`
}

func NewBatchOutcome(requested int, results BatchResult, failed int) *BatchOutcome {
	kind := OutcomeComplete
	switch {
	case requested == 0:
		kind = OutcomeEmpty
	case failed > 0:
		kind = OutcomePartial
	}
	if results == nil {
		results = BatchResult{}
	}
	return &BatchOutcome{
		Kind:      kind,
		Requested: requested,
		Succeeded: len(results),
		Failed:    failed,
		Results:   results,
	}
}
