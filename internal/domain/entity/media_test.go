package entity

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaDescriptorValidate(t *testing.T) {
	cases := []struct {
		name string
		desc MediaDescriptor
		ok   bool
	}{
		{"content", MediaDescriptor{Content: &ContentRef{URL: "a.mp4"}}, true},
		{"stream url", MediaDescriptor{Stream: &StreamInfo{URL: "https://youtu.be/x"}}, true},
		{"stream id", MediaDescriptor{Stream: &StreamInfo{VideoID: "abc"}}, true},
		{"neither", MediaDescriptor{}, false},
		{"both", MediaDescriptor{Stream: &StreamInfo{VideoID: "abc"}, Content: &ContentRef{URL: "a.mp4"}}, false},
		{"empty content", MediaDescriptor{Content: &ContentRef{}}, false},
		{"empty stream", MediaDescriptor{Stream: &StreamInfo{}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.desc.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidRequest))
			}
		})
	}
}

func TestStreamTarget(t *testing.T) {
	assert.Equal(t, "https://youtu.be/x", StreamInfo{URL: "https://youtu.be/x", VideoID: "y"}.Target())
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", StreamInfo{VideoID: "abc"}.Target())
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("401 unauthorized")
	callErr := &CallError{Op: "classify", Image: "a.png", Err: cause}
	assert.ErrorIs(t, callErr, ErrRecognitionCallFailed)
	assert.ErrorIs(t, callErr, cause)

	batchErr := &BatchError{Failed: 3, Sample: callErr}
	assert.ErrorIs(t, batchErr, ErrBatchFailed)
	assert.ErrorIs(t, batchErr, ErrRecognitionCallFailed)
	assert.Contains(t, batchErr.Error(), "all 3 frames failed")
	assert.Contains(t, batchErr.Error(), "401 unauthorized")
}

func TestRecognitionRequestValidate(t *testing.T) {
	media := MediaDescriptor{Content: &ContentRef{URL: "a.mp4"}}

	assert.NoError(t, RecognitionRequest{Media: media, Times: []float64{0, 1.5, 10}}.Validate())
	assert.NoError(t, RecognitionRequest{Media: media}.Validate())

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		err := RecognitionRequest{Media: media, Times: []float64{1, bad}}.Validate()
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
	assert.ErrorIs(t, RecognitionRequest{Times: []float64{1}}.Validate(), ErrInvalidRequest)
}
