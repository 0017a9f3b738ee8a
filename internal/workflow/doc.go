// Package workflow runs the promo-cut pipeline.
//
// A run walks numbered stages over one input directory and one output
// directory:
//
//  1. subtitles  - collect an SRT per source video into Subtitles/
//  2. dimensions - load the topic taxonomy or keyword list into Analysis/
//  3. review     - promote the taxonomy for manual editing
//  4. matching   - segment and score every transcript into Matching/
//  5. clips      - select segments and cut them into Clips/
//  6. assembly   - order the clips and render Final/advertisement_final.mp4
//
// Stages exchange data only through the files they write, so any contiguous
// range can be re-run with --steps. The Runner resolves the range from a
// stage.Registry, holds the output directory lock for the whole run and stops
// at the first failing stage.
//
// Remix is the multi-source variant: a reference transcript is split into
// stages and each stage is filled from the candidate source that matches it
// best while enforcing a minimum number of distinct sources.
//
// Sample data is opt-in. When workflow.sample_data is set, stages that find
// no subtitles or no taxonomy substitute labelled sample content and every
// artifact derived from it carries "sample": true.
package workflow
