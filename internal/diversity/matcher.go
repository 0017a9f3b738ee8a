package diversity

import (
	"log/slog"
	"slices"

	"promocut/internal/logging"
)

// SourceUsagePlan maps a source id to the stage ids it serves, in stage order.
type SourceUsagePlan map[string][]int

// Plan is the matcher output.
type Plan struct {
	Assignments     map[int]MatchCandidate `json:"assignments"`
	SourceUsage     SourceUsagePlan        `json:"source_usage"`
	DistinctSources int                    `json:"distinct_sources"`
	Required        int                    `json:"required_sources"`
	RequirementMet  bool                   `json:"requirement_met"`
	Unmatched       []int                  `json:"unmatched_stages,omitempty"`
}

// Ordered returns the assignments in stage order.
func (p Plan) Ordered(stages []Stage) []MatchCandidate {
	out := make([]MatchCandidate, 0, len(p.Assignments))
	for _, stage := range stages {
		if c, ok := p.Assignments[stage.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Matcher runs the diversity passes.
type Matcher struct {
	requirement int
	logger      *slog.Logger
}

// NewMatcher validates opts and returns a Matcher.
func NewMatcher(opts Options, logger *slog.Logger) (*Matcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{requirement: opts.MinDiversityRequirement, logger: logging.NewComponentLogger(logger, "diversity")}, nil
}

type assignment struct {
	stages []Stage
	chosen map[int]MatchCandidate
	usage  map[string]int
}

func (a *assignment) assign(stageID int, c MatchCandidate) {
	if prev, ok := a.chosen[stageID]; ok {
		a.usage[prev.SourceID]--
		if a.usage[prev.SourceID] == 0 {
			delete(a.usage, prev.SourceID)
		}
	}
	a.chosen[stageID] = c
	a.usage[c.SourceID]++
}

func (a *assignment) used(source string) bool { return a.usage[source] > 0 }

func (a *assignment) distinct() int { return len(a.usage) }

// Match assigns one candidate to each stage that has any. Candidate lists are
// re-sorted by similarity (stable) so callers may pass them in any order.
func (m *Matcher) Match(stages []Stage, candidates map[int][]MatchCandidate) Plan {
	ranked := make(map[int][]MatchCandidate, len(candidates))
	for id, cands := range candidates {
		sorted := slices.Clone(cands)
		slices.SortStableFunc(sorted, bySimilarityDesc)
		ranked[id] = sorted
	}
	a := &assignment{stages: stages, chosen: make(map[int]MatchCandidate), usage: make(map[string]int)}

	for _, stage := range stages {
		cands := ranked[stage.ID]
		if !stage.Protected || len(cands) == 0 {
			continue
		}
		a.assign(stage.ID, cands[0])
		m.decision(stage, cands[0], "protected", "protected stage keeps best match")
	}

	for _, stage := range stages {
		cands := ranked[stage.ID]
		if stage.Protected || len(cands) == 0 {
			continue
		}
		choice, reason := m.pick(a, cands)
		a.assign(stage.ID, choice)
		m.decision(stage, choice, "assigned", reason)
	}

	required := min(m.requirement, availableSources(stages, ranked))
	if a.distinct() < required {
		m.repair(a, ranked, required)
	}

	plan := Plan{
		Assignments:     a.chosen,
		SourceUsage:     make(SourceUsagePlan),
		DistinctSources: a.distinct(),
		Required:        required,
		RequirementMet:  a.distinct() >= required,
	}
	for _, stage := range stages {
		c, ok := a.chosen[stage.ID]
		if !ok {
			plan.Unmatched = append(plan.Unmatched, stage.ID)
			continue
		}
		plan.SourceUsage[c.SourceID] = append(plan.SourceUsage[c.SourceID], stage.ID)
	}
	if !plan.RequirementMet {
		logging.WarnWithContext(m.logger, "diversity requirement not met", "diversity_shortfall",
			logging.Int("distinct_sources", plan.DistinctSources),
			logging.Int("required_sources", required),
			logging.String(logging.FieldErrorHint, "add candidate videos or lower diversity.min_diversity_requirement"),
			logging.String(logging.FieldImpact, "final cut draws from fewer sources than requested"),
		)
	}
	return plan
}

// pick implements pass 2 for one non-protected stage.
func (m *Matcher) pick(a *assignment, cands []MatchCandidate) (MatchCandidate, string) {
	if a.distinct() >= m.requirement {
		return cands[0], "diversity satisfied, best match"
	}
	floor := max(RelaxedFloor, RelaxedRatio*cands[0].Similarity)
	var firstUnused *MatchCandidate
	for i := range cands {
		if a.used(cands[i].SourceID) {
			continue
		}
		if firstUnused == nil {
			firstUnused = &cands[i]
		}
		if cands[i].Similarity >= floor {
			return cands[i], "best unused source above relaxed threshold"
		}
	}
	if firstUnused != nil {
		return *firstUnused, "forced unused source"
	}
	return cands[0], "all sources used, best match"
}

// repair is pass 3: substitute unused sources into non-protected stages whose
// current source is shared with another stage, best similarity first. A stage
// holding the only use of its source is reassigned only after shift has moved
// a second stage onto that source.
func (m *Matcher) repair(a *assignment, ranked map[int][]MatchCandidate, required int) {
	type pair struct {
		stage Stage
		cand  MatchCandidate
	}
	var pairs []pair
	for _, stage := range a.stages {
		if stage.Protected {
			continue
		}
		seen := make(map[string]bool)
		for _, c := range ranked[stage.ID] {
			if seen[c.SourceID] || a.used(c.SourceID) {
				continue
			}
			seen[c.SourceID] = true
			pairs = append(pairs, pair{stage: stage, cand: c})
		}
	}
	slices.SortStableFunc(pairs, func(x, y pair) int { return bySimilarityDesc(x.cand, y.cand) })

	for _, p := range pairs {
		if a.distinct() >= required {
			return
		}
		if a.used(p.cand.SourceID) {
			continue
		}
		current, assigned := a.chosen[p.stage.ID]
		if assigned && a.usage[current.SourceID] < 2 && !m.shift(a, ranked, p.stage.ID, current.SourceID) {
			continue
		}
		a.assign(p.stage.ID, p.cand)
		m.decision(p.stage, p.cand, "forced", "diversity repair")
	}
}

// shift moves another non-protected stage that sits on a shared source onto
// source, so the stage currently holding source can be reassigned without
// losing it. It reports whether a move was made.
func (m *Matcher) shift(a *assignment, ranked map[int][]MatchCandidate, holder int, source string) bool {
	var (
		bestStage Stage
		bestCand  MatchCandidate
		found     bool
	)
	for _, stage := range a.stages {
		if stage.Protected || stage.ID == holder {
			continue
		}
		current, ok := a.chosen[stage.ID]
		if !ok || a.usage[current.SourceID] < 2 {
			continue
		}
		for _, c := range ranked[stage.ID] {
			if c.SourceID != source {
				continue
			}
			if !found || c.Similarity > bestCand.Similarity {
				bestStage, bestCand, found = stage, c, true
			}
			break
		}
	}
	if !found {
		return false
	}
	a.assign(bestStage.ID, bestCand)
	m.decision(bestStage, bestCand, "forced", "diversity repair shift")
	return true
}

// availableSources counts distinct sources offered to non-protected stages.
func availableSources(stages []Stage, ranked map[int][]MatchCandidate) int {
	sources := make(map[string]struct{})
	for _, stage := range stages {
		if stage.Protected {
			continue
		}
		for _, c := range ranked[stage.ID] {
			sources[c.SourceID] = struct{}{}
		}
	}
	return len(sources)
}

func (m *Matcher) decision(stage Stage, c MatchCandidate, result, reason string) {
	attrs := logging.DecisionAttrs("diversity_assignment", result, reason)
	attrs = append(attrs,
		logging.Int("stage_id", stage.ID),
		logging.String(logging.FieldSourceID, c.SourceID),
		logging.Float64("similarity", c.Similarity),
	)
	attrs = append(attrs, logging.TimeRange(c.WindowStart, c.WindowEnd)...)
	m.logger.Debug("stage assignment", logging.Args(attrs...)...)
}
