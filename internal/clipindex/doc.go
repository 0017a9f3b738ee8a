// Package clipindex records the clips extracted during a run.
//
// The index is a JSON object keyed by clip path and stored at
// <output>/Clips/clip_index.json. Each entry keeps the source video, the
// category the clip was selected for, its time range in the source and the
// probed media properties of the produced file. The assembly stage uses it to
// reuse clips instead of cutting them again.
//
// An Index owns its file. Callers open one per run and pass it to whatever
// needs it; concurrent Put calls from extraction workers are serialized.
package clipindex
