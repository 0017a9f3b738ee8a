package dimension

import (
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"promocut/internal/services"
)

const sampleDoc = `{
  "zeta": {"name": "Battery", "keywords": ["battery", "charge"], "weight": 0.9,
    "sub_dimensions": {
      "fast": {"name": "Fast charging", "keywords": ["fast charge"], "weight": 0.8,
        "sub_dimensions": {"minutes": {"name": "Minutes", "keywords": ["thirty minutes"], "weight": 0.5}}},
      "life": {"name": "Battery life", "keywords": ["all day"], "weight": 0.6}
    }},
  "alpha": {"name": "Camera", "keywords": ["camera", "photo"], "weight": 0.7, "notes": "ignored"}
}`

func TestParseKeepsDocumentOrder(t *testing.T) {
	tree, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := strings.Join(tree.CategoryOrder(), ","); got != "Battery,Camera" {
		t.Fatalf("category order = %q, want Battery,Camera", got)
	}
	level2 := tree.Level(2)
	if len(level2) != 2 || level2[0].ID != "fast" || level2[1].ID != "life" {
		t.Fatalf("unexpected level 2 order: %+v", level2)
	}
	level3 := tree.Level(3)
	if len(level3) != 1 || level3[0].Path() != "zeta.fast.minutes" {
		t.Fatalf("unexpected level 3: %+v", level3)
	}
	if w := level3[0].EffectiveWeight(); math.Abs(w-0.9*0.8*0.5) > 1e-12 {
		t.Fatalf("effective weight = %v", w)
	}
}

func TestMarshalRoundTripPreservesOrder(t *testing.T) {
	tree, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Index(string(data), `"zeta"`) > strings.Index(string(data), `"alpha"`) {
		t.Fatalf("marshal reordered keys: %s", data)
	}
	again, err := Parse(data)
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}
	if len(again.Level(3)) != 1 || again.Roots[1].Name != "Camera" {
		t.Fatalf("round trip lost structure: %s", data)
	}
}

func TestValidateRejectsBadTrees(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero weight", `{"a": {"name": "A", "keywords": ["x"], "weight": 0}}`},
		{"weight above one", `{"a": {"name": "A", "keywords": ["x"], "weight": 1.5}}`},
		{"too deep", `{"a": {"weight": 1, "sub_dimensions": {"b": {"weight": 1, "sub_dimensions": {"c": {"weight": 1, "sub_dimensions": {"d": {"weight": 1}}}}}}}}`},
		{"empty", `{}`},
		{"not an object", `["a"]`},
		{"malformed", `{"a": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestMissingWeightDefaultsToOne(t *testing.T) {
	tree, err := Parse([]byte(`{"a": {"name": "A", "keywords": ["x"]}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tree.Roots[0].Weight != 1 {
		t.Fatalf("weight = %v, want 1", tree.Roots[0].Weight)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestFromKeywords(t *testing.T) {
	tree := FromKeywords([]string{"waterproof", " ", "battery"})
	if tree.Len() != 2 || tree.Roots[1].Name != "battery" || tree.Roots[1].Level() != 1 {
		t.Fatalf("unexpected keyword tree: %+v", tree.Roots)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("keyword tree should validate: %v", err)
	}
}
