package media

import (
	"context"
	"strings"
)

// Clip is a produced media file.
type Clip struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration"`
}

// Metadata describes a media file.
type Metadata struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
}

// Style is a visual preset for the end slate.
type Style struct {
	Name       string
	Background string
	FontColor  string
	FontSize   int
	BoxColor   string
}

var styles = map[string]Style{
	"simple":   {Name: "simple", Background: "black", FontColor: "white", FontSize: 64},
	"dynamic":  {Name: "dynamic", Background: "0x1a1a40", FontColor: "0xffd34e", FontSize: 72},
	"business": {Name: "business", Background: "0x0b2545", FontColor: "white", FontSize: 60, BoxColor: "0x13315c@0.6"},
	"warm":     {Name: "warm", Background: "0x7f3c2a", FontColor: "0xfff1e0", FontSize: 64},
	"modern":   {Name: "modern", Background: "0xf2f2f2", FontColor: "0x222222", FontSize: 68},
}

// StyleFor returns the named preset; unknown names fall back to simple.
func StyleFor(name string) Style {
	if s, ok := styles[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s
	}
	return styles["simple"]
}

// EndSlate describes the closing text card.
type EndSlate struct {
	Text     string
	Duration float64
	Fade     float64
	Style    Style
}

// Engine is the media toolchain used to build clips and the final video.
type Engine interface {
	ExtractClip(ctx context.Context, source string, start, end float64, output string) (Clip, error)
	AddFade(ctx context.Context, clip Clip, fadeIn, fadeOut float64, output string) (Clip, error)
	Concat(ctx context.Context, clips []Clip, output string) (Clip, error)
	Metadata(ctx context.Context, path string) (Metadata, error)
	RenderEndSlate(ctx context.Context, slate EndSlate, output string) (Clip, error)
}
