package dimension

import (
	"encoding/json"
	"fmt"

	"promocut/internal/segment"
	"promocut/internal/subtitles"
)

// NoCategory marks segments without a level-1 match; they are never selected.
const NoCategory = "none"

// LevelMatch is the best node found at one level.
type LevelMatch struct {
	NodeID        string  `json:"dimension_id"`
	NodeName      string  `json:"dimension_name"`
	RawScore      float64 `json:"score"`
	WeightedScore float64 `json:"weighted_score"`
}

// Matched reports whether the level contributed to the combined score.
func (m LevelMatch) Matched() bool {
	return m.NodeID != "" && m.NodeID != NoCategory
}

func noMatch() LevelMatch {
	return LevelMatch{NodeID: NoCategory, NodeName: NoCategory}
}

// KeywordMatch records one keyword hit in keyword mode.
type KeywordMatch struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
	Literal bool    `json:"literal,omitempty"`
}

// ScoredSegment is a segment plus its best matches per level.
type ScoredSegment struct {
	segment.Segment
	Levels   [MaxDepth]LevelMatch
	Combined float64
	Category string
	Keywords []KeywordMatch
	Sample   bool
}

type scoresJSON struct {
	Level1   LevelMatch `json:"level_1"`
	Level2   LevelMatch `json:"level_2"`
	Level3   LevelMatch `json:"level_3"`
	Combined float64    `json:"combined"`
}

type scoredJSON struct {
	File         string         `json:"file"`
	StartTime    string         `json:"start_time"`
	EndTime      string         `json:"end_time"`
	StartSeconds float64        `json:"start_seconds"`
	EndSeconds   float64        `json:"end_seconds"`
	Text         string         `json:"text"`
	Category     string         `json:"category"`
	Scores       scoresJSON     `json:"scores"`
	Keywords     []KeywordMatch `json:"keyword_matches,omitempty"`
	Sample       bool           `json:"sample,omitempty"`
}

// MarshalJSON emits the persisted scored-segment shape.
func (s ScoredSegment) MarshalJSON() ([]byte, error) {
	return json.Marshal(scoredJSON{
		File:         s.SourceID,
		StartTime:    subtitles.FormatTimestamp(s.Start),
		EndTime:      subtitles.FormatTimestamp(s.End),
		StartSeconds: s.Start,
		EndSeconds:   s.End,
		Text:         s.Text,
		Category:     s.Category,
		Scores: scoresJSON{
			Level1:   s.Levels[0],
			Level2:   s.Levels[1],
			Level3:   s.Levels[2],
			Combined: s.Combined,
		},
		Keywords: s.Keywords,
		Sample:   s.Sample,
	})
}

// UnmarshalJSON reads the persisted shape. Category defaults to the level-1 name.
func (s *ScoredSegment) UnmarshalJSON(data []byte) error {
	var raw scoredJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, end := raw.StartSeconds, raw.EndSeconds
	if start == 0 && end == 0 && raw.StartTime != "" {
		var err error
		if start, err = subtitles.ParseTimestamp(raw.StartTime); err != nil {
			return fmt.Errorf("scored segment start_time: %w", err)
		}
		if end, err = subtitles.ParseTimestamp(raw.EndTime); err != nil {
			return fmt.Errorf("scored segment end_time: %w", err)
		}
	}
	*s = ScoredSegment{
		Segment:  segment.Segment{SourceID: raw.File, Start: start, End: end, Text: raw.Text},
		Levels:   [MaxDepth]LevelMatch{raw.Scores.Level1, raw.Scores.Level2, raw.Scores.Level3},
		Combined: raw.Scores.Combined,
		Category: raw.Category,
		Keywords: raw.Keywords,
		Sample:   raw.Sample,
	}
	if s.Category == "" {
		s.Category = NoCategory
		if s.Levels[0].Matched() {
			s.Category = s.Levels[0].NodeName
		}
	}
	return nil
}
