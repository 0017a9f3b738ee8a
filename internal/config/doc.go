// Package config reads promocut's TOML file into typed sections: paths,
// segmenter, scoring, selection, diversity, sequence, media, llm, retry,
// workflow and logging.
//
// Load resolves the file (explicit path, then ~/.config/promocut/config.toml,
// then ./promocut.toml), layers it over Default, expands "~" in paths and
// fills unset LLM credentials from OPENAI_API_KEY and PROMOCUT_OPENAI_BASE_URL.
// Validate names the offending key in every error it returns.
package config
