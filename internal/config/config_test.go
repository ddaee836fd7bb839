package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		shouldSet    bool
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			shouldSet:    true,
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_VAR_MISSING",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    false,
			want:         "default",
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_VAR_EMPTY",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    true,
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		shouldSet    bool
		want         int
	}{
		{
			name:         "parses integer from environment",
			key:          "TEST_INT",
			defaultValue: 3,
			envValue:     "42",
			shouldSet:    true,
			want:         42,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_INT_MISSING",
			defaultValue: 3,
			shouldSet:    false,
			want:         3,
		},
		{
			name:         "returns default when not an integer",
			key:          "TEST_INT_BAD",
			defaultValue: 3,
			envValue:     "forty-two",
			shouldSet:    true,
			want:         3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad_RequiredKeys(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("ADMIN_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error when API_KEY is missing")
	}

	t.Setenv("API_KEY", "k")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error when ADMIN_KEY is missing")
	}

	t.Setenv("ADMIN_KEY", "a")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error when GEMINI_API_KEY is missing")
	}

	t.Setenv("GEMINI_API_KEY", "g")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.EmbeddingProvider != "google" {
		t.Errorf("EmbeddingProvider = %q, want google", cfg.EmbeddingProvider)
	}

	if cfg.EmbeddingDimensions != 768 {
		t.Errorf("EmbeddingDimensions = %d, want 768", cfg.EmbeddingDimensions)
	}

	if cfg.ChatModel != "gemini-2.0-flash" {
		t.Errorf("ChatModel = %q, want gemini-2.0-flash", cfg.ChatModel)
	}
}

func TestLoad_OpenAIProviderRequiresKey(t *testing.T) {
	t.Setenv("API_KEY", "k")
	t.Setenv("ADMIN_KEY", "a")
	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error when EMBEDDING_PROVIDER=openai without OPENAI_API_KEY")
	}
}
