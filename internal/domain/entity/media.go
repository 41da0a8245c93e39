package entity

import (
	"fmt"
	"net/url"
)

const youtubeWatchURL = "https://www.youtube.com/watch?v="

// StreamInfo is the handle of a streaming video that has to be downloaded
// before ffmpeg can seek in it.
type StreamInfo struct {
	URL     string `json:"url,omitempty"`
	VideoID string `json:"video_id,omitempty"`
	Format  string `json:"format,omitempty"`
}

// Target returns what the stream resolver should open.
func (s StreamInfo) Target() string {
	if s.URL != "" {
		return s.URL
	}
	if s.VideoID != "" {
		return youtubeWatchURL + url.QueryEscape(s.VideoID)
	}
	return ""
}

type ContentRef struct {
	URL string `json:"url"`
}

// MediaDescriptor points at the media to sample. Exactly one of Stream and
// Content is set. GUID names the batch and ends up in screenshot filenames.
type MediaDescriptor struct {
	GUID    string      `json:"guid"`
	Stream  *StreamInfo `json:"yt_info,omitempty"`
	Content *ContentRef `json:"content,omitempty"`
}

func (m MediaDescriptor) IsStream() bool { return m.Stream != nil }

func (m MediaDescriptor) Validate() error {
	switch {
	case m.Stream != nil && m.Content != nil:
		return fmt.Errorf("%w: descriptor has both stream and content", ErrInvalidRequest)
	case m.Stream != nil:
		if m.Stream.Target() == "" {
			return fmt.Errorf("%w: stream has neither url nor video id", ErrInvalidRequest)
		}
	case m.Content != nil:
		if m.Content.URL == "" {
			return fmt.Errorf("%w: content url is empty", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: descriptor has neither stream nor content", ErrInvalidRequest)
	}
	return nil
}

// ResolvedMedia is a location ffmpeg can open. Cleanup releases anything the
// resolver created for it and is safe to call more than once.
type ResolvedMedia struct {
	Location   string
	Downloaded bool
	Cleanup    func()
}

func (r ResolvedMedia) Release() {
	if r.Cleanup != nil {
		r.Cleanup()
	}
}

// ScreenshotFile is one extracted frame. Time is nil when the filename does
// not carry an offset.
type ScreenshotFile struct {
	Path string
	Time *float64
}

// Source is a printable description of where the media comes from.
func (m MediaDescriptor) Source() string {
	switch {
	case m.Stream != nil:
		return m.Stream.Target()
	case m.Content != nil:
		return m.Content.URL
	}
	return ""
}
