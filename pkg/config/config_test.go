package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes yamlContent as config.yaml in a temp dir, creates a
// concepts/ directory next to it, and chdirs there so Load() finds both.
func writeConfig(t *testing.T, yamlContent string) {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "concepts"), 0755); err != nil {
		t.Fatalf("failed to create concepts dir: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	writeConfig(t, `
port: "3000"
env: "test"
store_path: "engine.db"
ai:
  enabled: false
`)

	t.Setenv("PORT", "4000")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "4000" {
		t.Errorf("expected Port=4000 (from env), got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}

	// YAML value survives where no env override exists
	if cfg.StorePath != "engine.db" {
		t.Errorf("expected StorePath=engine.db (from yaml), got %s", cfg.StorePath)
	}
}

func TestLoad_Defaults(t *testing.T) {
	writeConfig(t, `
ai:
  enabled: false
`)

	cfg, err := Load("dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BindAddr != "127.0.0.1" {
		t.Errorf("expected default BindAddr=127.0.0.1, got %s", cfg.BindAddr)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default Port=8080, got %s", cfg.Port)
	}
	if cfg.ConceptsDir != "concepts" {
		t.Errorf("expected default ConceptsDir=concepts, got %s", cfg.ConceptsDir)
	}
	if cfg.Pipeline.MaxEntities != 5 {
		t.Errorf("expected default Pipeline.MaxEntities=5, got %d", cfg.Pipeline.MaxEntities)
	}
	if cfg.Pipeline.MaxRows != 100 {
		t.Errorf("expected default Pipeline.MaxRows=100, got %d", cfg.Pipeline.MaxRows)
	}
	if cfg.Pipeline.MatchThreshold != 0.5 {
		t.Errorf("expected default Pipeline.MatchThreshold=0.5, got %f", cfg.Pipeline.MatchThreshold)
	}
}

func TestLoad_AIDisabledInYAML(t *testing.T) {
	writeConfig(t, `
ai:
  enabled: false
  model: "gpt-4o-mini"
`)

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.AI.Enabled {
		t.Error("expected AI.Enabled=false from yaml")
	}
}

func TestLoad_AIDisabledViaEnv(t *testing.T) {
	writeConfig(t, "port: \"8081\"\n")
	t.Setenv("AI_ENABLED", "false")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.AI.Enabled {
		t.Error("expected AI.Enabled=false from env")
	}
}

func TestLoad_AIEnabledByDefault(t *testing.T) {
	writeConfig(t, "port: \"8081\"\n")

	// AI defaults to on, so a config that never mentions it must still
	// carry a model and key.
	_, err := Load("test-version")
	if err == nil || !strings.Contains(err.Error(), "ai.model") {
		t.Errorf("expected ai.model error with AI enabled by default, got %v", err)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	_, err = Load("test-version")
	if err == nil {
		t.Error("expected error when config.yaml is missing")
	}
}

func TestLoad_MissingConceptsDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("ai:\n  enabled: false\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	_, err = Load("test-version")
	if err == nil || !strings.Contains(err.Error(), "concepts directory") {
		t.Errorf("expected concepts directory error, got %v", err)
	}
}

func TestLoad_AIEnabledRequiresModel(t *testing.T) {
	writeConfig(t, `
ai:
  enabled: true
`)
	t.Setenv("AI_API_KEY", "sk-test")

	_, err := Load("test-version")
	if err == nil || !strings.Contains(err.Error(), "ai.model") {
		t.Errorf("expected ai.model error, got %v", err)
	}
}

func TestLoad_AIEnabledRequiresKey(t *testing.T) {
	writeConfig(t, `
ai:
  enabled: true
  model: "gpt-4o-mini"
`)

	_, err := Load("test-version")
	if err == nil || !strings.Contains(err.Error(), "AI_API_KEY") {
		t.Errorf("expected AI_API_KEY error, got %v", err)
	}
}

func TestLoad_AnthropicRequiresEmbeddingBackend(t *testing.T) {
	writeConfig(t, `
ai:
  enabled: true
  provider: "anthropic"
  model: "claude-sonnet-4-20250514"
`)
	t.Setenv("AI_API_KEY", "sk-ant-test")

	_, err := Load("test-version")
	if err == nil || !strings.Contains(err.Error(), "embedding") {
		t.Errorf("expected embedding backend error, got %v", err)
	}
}

func TestLoad_UnknownProvider(t *testing.T) {
	writeConfig(t, `
ai:
  enabled: true
  provider: "cohere"
  model: "command"
`)
	t.Setenv("AI_API_KEY", "test")

	_, err := Load("test-version")
	if err == nil || !strings.Contains(err.Error(), "unknown AI provider") {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}

func TestLoadFrom_CustomPath(t *testing.T) {
	tmpDir := t.TempDir()
	conceptsDir := filepath.Join(tmpDir, "catalog")
	if err := os.Mkdir(conceptsDir, 0755); err != nil {
		t.Fatalf("failed to create concepts dir: %v", err)
	}
	configPath := filepath.Join(tmpDir, "engine.yaml")
	content := `
port: "9090"
concepts_dir: "` + conceptsDir + `"
ai:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFrom(configPath, "cli")
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected Port=9090, got %s", cfg.Port)
	}
}
