package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, "config", "show", "--config", env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# Config path: "+env.configPath)
	requireContains(t, out, "[paths]")
}

func TestConfigShowRedactsAPIKey(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.LLM.APIKey = "sk-secret-value"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, "config", "show", "--config", env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "sk-secret-value") {
		t.Fatalf("api key leaked:\n%s", out)
	}
	requireContains(t, out, "<redacted>")
}

func TestRedactAPIKey(t *testing.T) {
	in := "[llm]\n  api_key = 'abc'\nbase_url = ''\n"
	got := string(redactAPIKey([]byte(in)))
	want := "[llm]\n  api_key = '<redacted>'\nbase_url = ''\n"
	if got != want {
		t.Fatalf("redactAPIKey = %q, want %q", got, want)
	}
}
