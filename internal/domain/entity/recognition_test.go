package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func single(img ImageResult) ImageResponse {
	return ImageResponse{ImagesProcessed: 1, Images: []ImageResult{img}}
}

func TestMergeAllSingle(t *testing.T) {
	classify := single(ImageResult{
		Image:       "__sh-g-5.png",
		Time:        ptr(5),
		Classifiers: []Classifier{{ClassifierID: "default", Classes: []Class{{Class: "dog", Score: 0.9}}}},
	})
	faces := single(ImageResult{Image: "__sh-g-5.png", Time: ptr(5), Faces: []Face{{Gender: &FaceGender{Gender: "FEMALE", Score: 0.8}}}})
	text := single(ImageResult{Image: "__sh-g-5.png", Time: ptr(5), Text: "hello", Words: []Word{{Word: "hello", Score: 0.7}}})

	merged := Merge(classify, faces, text)

	require.Len(t, merged.Images, 1)
	img := merged.Images[0]
	assert.Equal(t, "dog", img.Classifiers[0].Classes[0].Class)
	assert.Equal(t, "FEMALE", img.Faces[0].Gender.Gender)
	assert.Equal(t, "hello", img.Text)
	assert.Len(t, img.Words, 1)

	tm, ok := merged.Time()
	require.True(t, ok)
	assert.Equal(t, 5.0, tm)

	assert.Empty(t, classify.Images[0].Faces, "merge must not mutate its inputs")
}

func TestMergeSkipsAmbiguousResponses(t *testing.T) {
	classify := single(ImageResult{Image: "a.png"})
	two := ImageResponse{ImagesProcessed: 2, Images: []ImageResult{
		{Image: "a.png", Faces: []Face{{}}},
		{Image: "b.png", Faces: []Face{{}}},
	}}
	text := single(ImageResult{Image: "a.png", Text: "words"})

	merged := Merge(classify, two, text)
	require.Len(t, merged.Images, 1)
	assert.Empty(t, merged.Images[0].Faces)
	assert.Equal(t, "words", merged.Images[0].Text)

	merged = Merge(classify, single(ImageResult{Faces: []Face{{}}}), ImageResponse{})
	assert.Len(t, merged.Images[0].Faces, 1)
	assert.Empty(t, merged.Images[0].Text)
}

func TestMergeNeedsSingleBase(t *testing.T) {
	empty := ImageResponse{}
	merged := Merge(empty, single(ImageResult{Faces: []Face{{}}}), single(ImageResult{Text: "x"}))
	assert.Empty(t, merged.Images)
}

func TestBatchResultSortByTime(t *testing.T) {
	b := BatchResult{
		single(ImageResult{Image: "c", Time: ptr(30)}),
		single(ImageResult{Image: "none"}),
		single(ImageResult{Image: "a", Time: ptr(1)}),
		single(ImageResult{Image: "b", Time: ptr(2.5)}),
	}
	b.SortByTime()

	var names []string
	for _, r := range b {
		names = append(names, r.Images[0].Image)
	}
	assert.Equal(t, []string{"a", "b", "c", "none"}, names)
}

func TestNewBatchOutcome(t *testing.T) {
	o := NewBatchOutcome(0, nil, 0)
	assert.Equal(t, OutcomeEmpty, o.Kind)
	assert.NotNil(t, o.Results)

	o = NewBatchOutcome(2, BatchResult{{}, {}}, 0)
	assert.Equal(t, OutcomeComplete, o.Kind)
	assert.Equal(t, 2, o.Succeeded)

	o = NewBatchOutcome(3, BatchResult{{}, {}}, 1)
	assert.Equal(t, OutcomePartial, o.Kind)
	assert.Equal(t, 1, o.Failed)
}

func TestBatchOutcomeJSON(t *testing.T) {
	outcome := NewBatchOutcome(2, BatchResult{single(ImageResult{Image: "a.png"})}, 1)

	data, err := json.Marshal(outcome)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.JSONEq(t, `"PARTIAL"`, string(fields["kind"]))
	assert.JSONEq(t, `2`, string(fields["requested"]))
	assert.JSONEq(t, `1`, string(fields["succeeded"]))
	assert.JSONEq(t, `1`, string(fields["failed"]))
	assert.Contains(t, fields, "results")
	assert.NotContains(t, fields, "Kind")
}
