package workflow

import (
	"promocut/internal/dimension"
	"promocut/internal/subtitles"
)

// SampleSourceID names the substituted source in sample-data mode.
const SampleSourceID = "sample"

var sampleCues = []string{
	"[sample] Meet the new everyday bottle, built to go wherever you go.",
	"[sample] The double wall keeps drinks cold for twenty four hours.",
	"[sample] A leak proof lid means it can ride in any bag.",
	"[sample] It is light enough to carry all day without noticing.",
	"[sample] Pick from six colours that match your style.",
	"[sample] Order today and get free shipping on your first bottle.",
}

// sampleLines returns labelled placeholder cues, 5s each with short gaps.
func sampleLines() []subtitles.Line {
	lines := make([]subtitles.Line, 0, len(sampleCues))
	start := 0.0
	for _, text := range sampleCues {
		lines = append(lines, subtitles.Line{Start: start, End: start + 5, Text: text})
		start += 5.5
	}
	return lines
}

// sampleTree returns a small placeholder taxonomy.
func sampleTree() *dimension.Tree {
	return dimension.NewTree(
		dimension.NewNode("performance", "Performance", 1, "cold", "hours", "leak proof").Add(
			dimension.NewNode("insulation", "Insulation", 0.8, "double wall", "cold"),
		),
		dimension.NewNode("design", "Design", 0.8, "light", "colours", "style"),
		dimension.NewNode("offer", "Offer", 0.6, "order", "free shipping"),
	)
}
