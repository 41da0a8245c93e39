package main

import (
	"testing"

	"github.com/framevr/framevr-recognition-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimes(t *testing.T) {
	times, err := parseTimes(" 1, 5.5 ,10")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 5.5, 10}, times)

	times, err = parseTimes("")
	require.NoError(t, err)
	assert.Empty(t, times)

	_, err = parseTimes("1,x")
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
}

func TestBuildRequest(t *testing.T) {
	msg, err := buildRequest(options{url: "videos/a.mp4", times: "2"}, false)
	require.NoError(t, err)
	require.NotNil(t, msg.Media.Content)
	assert.Equal(t, "videos/a.mp4", msg.Media.Content.URL)
	assert.Equal(t, []float64{2}, msg.Times)

	msg, err = buildRequest(options{videoID: "abc", guid: "g", key: "k"}, false)
	require.NoError(t, err)
	require.NotNil(t, msg.Media.Stream)
	assert.Equal(t, "abc", msg.Media.Stream.VideoID)
	assert.Equal(t, "k", msg.APIKey)

	msg, err = buildRequest(options{url: "https://youtu.be/x"}, true)
	require.NoError(t, err)
	assert.NotNil(t, msg.Media.Stream)

	_, err = buildRequest(options{times: "1"}, false)
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)

	_, err = buildRequest(options{url: "a.mp4", times: "-1"}, false)
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
}

func TestRunUsageErrors(t *testing.T) {
	assert.Equal(t, exitUsage, run([]string{"-bogus"}))
	assert.Equal(t, exitUsage, run([]string{"-times", "1"}))
}
