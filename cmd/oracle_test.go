package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spf13/viper"
)

func TestNewAssessorProviders(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	for _, provider := range []string{"", "groq", "GEMINI"} {
		core, logs := observer.New(zap.WarnLevel)

		assessor, err := newAssessor(&OracleConfig{Provider: provider}, zap.New(core))
		if err != nil {
			t.Fatalf("provider %q: unexpected error: %v", provider, err)
		}
		if assessor == nil {
			t.Fatalf("provider %q: expected an assessor", provider)
		}
		if logs.Len() != 0 {
			t.Fatalf("provider %q: expected no warnings, got %d", provider, logs.Len())
		}
	}
}

func TestNewAssessorUnsupportedProvider(t *testing.T) {
	if _, err := newAssessor(&OracleConfig{Provider: "openai"}, zap.NewNop()); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}

func TestNewAssessorMissingKeyOnlyWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	assessor, err := newAssessor(&OracleConfig{APIKeyEnv: "RESUME_SCREENER_TEST_UNSET_KEY"}, zap.New(core))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assessor == nil {
		t.Fatal("expected an assessor even without a credential")
	}
	if logs.FilterMessage("oracle credential is missing, candidates will be held").Len() != 1 {
		t.Fatalf("expected a missing credential warning, got %v", logs.All())
	}
}

func TestConfigDefaultsAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume-screener.yaml")
	content := "oracle:\n  provider: gemini\n  max-log-length: 50\nserver:\n  addr: \":9090\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if cfg.Oracle.Provider != "gemini" || cfg.Oracle.MaxLogLength != 50 {
		t.Fatalf("unexpected oracle config: %+v", cfg.Oracle)
	}
	if cfg.Oracle.Temperature != nil {
		t.Fatalf("expected unset temperature, got %v", *cfg.Oracle.Temperature)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.MaxUploadMB != 20 {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
}

func TestConfigExplicitZeroTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume-screener.yaml")
	if err := os.WriteFile(path, []byte("oracle:\n  temperature: 0\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Oracle.Temperature == nil || *cfg.Oracle.Temperature != 0 {
		t.Fatalf("expected explicit zero temperature, got %v", cfg.Oracle.Temperature)
	}
}
