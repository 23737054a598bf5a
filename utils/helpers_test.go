package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("ATLAS_TEST_STR", "value")

	if got := GetEnv("ATLAS_TEST_STR", "fallback"); got != "value" {
		t.Errorf("GetEnv = %s, want value", got)
	}
	if got := GetEnv("ATLAS_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnv = %s, want fallback", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("ATLAS_TEST_INT", "17")
	t.Setenv("ATLAS_TEST_BAD", "seventeen")

	if got := GetEnvInt("ATLAS_TEST_INT", 3); got != 17 {
		t.Errorf("GetEnvInt = %d, want 17", got)
	}
	if got := GetEnvInt("ATLAS_TEST_BAD", 3); got != 3 {
		t.Errorf("unparseable value should fall back, got %d", got)
	}
	if got := GetEnvInt("ATLAS_TEST_UNSET", 3); got != 3 {
		t.Errorf("unset value should fall back, got %d", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("ATLAS_TEST_FLOAT", "2.5")

	if got := GetEnvFloat("ATLAS_TEST_FLOAT", 1); got != 2.5 {
		t.Errorf("GetEnvFloat = %f, want 2.5", got)
	}
	if got := GetEnvFloat("ATLAS_TEST_UNSET", 1); got != 1 {
		t.Errorf("unset value should fall back, got %f", got)
	}
}

func TestCreateFolder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := CreateFolder(path); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		t.Fatalf("folder not created: %v", err)
	}
	// Idempotent.
	if err := CreateFolder(path); err != nil {
		t.Fatalf("CreateFolder on existing path: %v", err)
	}
}
