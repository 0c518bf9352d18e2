package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{}
	cfg.HTTP.Port = 8080
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Storage.Backend != "local" {
		t.Errorf("expected local backend default, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.LocalDir != "./data" {
		t.Errorf("unexpected local dir default: %q", cfg.Storage.LocalDir)
	}
	if cfg.Models.EmbeddingModel != "text-embedding-3-large" {
		t.Errorf("unexpected embedding model default: %q", cfg.Models.EmbeddingModel)
	}
	if cfg.Models.ChatModel != "gpt-3.5-turbo" {
		t.Errorf("unexpected chat model default: %q", cfg.Models.ChatModel)
	}
	if cfg.RAG.ChunkSize != 1200 || cfg.RAG.ChunkOverlap != 200 {
		t.Errorf("unexpected chunking defaults: size=%d overlap=%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("unexpected write timeout default: %d", cfg.HTTP.WriteTimeoutSec)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.RAG.ChunkSize = 800
	cfg.RAG.ChunkOverlap = 100
	cfg.Models.ChatModel = "gpt-4o"
	cfg.ApplyDefaults()

	if cfg.RAG.ChunkSize != 800 || cfg.RAG.ChunkOverlap != 100 {
		t.Errorf("explicit chunking overridden: size=%d overlap=%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.Models.ChatModel != "gpt-4o" {
		t.Errorf("explicit chat model overridden: %q", cfg.Models.ChatModel)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.HTTP.Port = 0 },
			wantErr: "http.port",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.HTTP.Port = 70000 },
			wantErr: "http.port",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "s3" },
			wantErr: "storage.backend",
		},
		{
			name: "object backend without addrs",
			mutate: func(c *Config) {
				c.Storage.Backend = "object"
				c.Storage.Addrs = nil
			},
			wantErr: "storage.addrs",
		},
		{
			name: "object backend with addrs",
			mutate: func(c *Config) {
				c.Storage.Backend = "object"
				c.Storage.Addrs = []string{"localhost:6379"}
			},
		},
		{
			name: "overlap not smaller than size",
			mutate: func(c *Config) {
				c.RAG.ChunkSize = 100
				c.RAG.ChunkOverlap = 100
			},
			wantErr: "chunk_overlap",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("expected local default, got %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("expected prod, got %q", got)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ASKDOCS_TEST_PORT", "9090")
	t.Setenv("ASKDOCS_TEST_EMPTY", "")

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"set variable", "port: ${ASKDOCS_TEST_PORT}", "port: 9090"},
		{"unset with default", "dir: ${ASKDOCS_TEST_MISSING:-./data}", "dir: ./data"},
		{"set wins over default", "port: ${ASKDOCS_TEST_PORT:-1234}", "port: 9090"},
		{"empty uses default", "key: ${ASKDOCS_TEST_EMPTY:-fallback}", "key: fallback"},
		{"unset without default", "key: ${ASKDOCS_TEST_MISSING}", "key: "},
		{"no variables", "plain: value", "plain: value"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(expandEnvVars([]byte(tc.in))); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
