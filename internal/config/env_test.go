package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LIB_DIR=es\nANTD_TOOLS_DOTENV_ONLY=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env.local"), []byte("ANTD_TOOLS_DOTENV_ONLY=from-local\nRUN_ENV=website\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIB_DIR", "lib")

	env := LoadEnv(dir)

	if env.LibDir != "lib" {
		t.Fatalf("process env should win, got LIB_DIR=%q", env.LibDir)
	}
	if got := env.Get("ANTD_TOOLS_DOTENV_ONLY"); got != "from-dotenv" {
		t.Fatalf(".env should win over .env.local, got %q", got)
	}
	if env.RunEnv != RunEnvWebsite {
		t.Fatalf("RUN_ENV should be upper-cased, got %q", env.RunEnv)
	}
	if _, set := os.LookupEnv("ANTD_TOOLS_DOTENV_ONLY"); set {
		t.Fatal("LoadEnv must not write to the process environment")
	}
}

func TestEnvWithCopies(t *testing.T) {
	base := NewEnv(map[string]string{"NODE_ENV": "development"})
	prod := base.With("RUN_ENV", "production")

	if base.Production() {
		t.Fatal("base env must be unchanged")
	}
	if !prod.Production() {
		t.Fatal("derived env should be production")
	}
	if prod.NodeEnv != "development" {
		t.Fatalf("derived env lost NODE_ENV: %q", prod.NodeEnv)
	}
}
