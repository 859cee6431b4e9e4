package config

import (
	"errors"
	"testing"
)

func TestGetAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		env        string
		configured string
		want       string
		wantSource KeySource
		wantErr    error
	}{
		{
			name:       "environment wins",
			env:        "sk-ant-REDACTED",
			configured: "sk-ant-REDACTED",
			want:       "sk-ant-REDACTED",
			wantSource: KeySourceEnv,
		},
		{
			name:       "config file",
			configured: "sk-ant-REDACTED",
			want:       "sk-ant-REDACTED",
			wantSource: KeySourceConfig,
		},
		{
			name:       "unexpanded reference is unset",
			configured: "${CREWCAL_TEST_UNSET_KEY}",
			wantSource: KeySourceNone,
			wantErr:    ErrNoAPIKey,
		},
		{
			name:       "nothing configured",
			wantSource: KeySourceNone,
			wantErr:    ErrNoAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvAnthropicKey, tt.env)
			cfg := &Config{Anthropic: AnthropicConfig{APIKey: tt.configured}}

			key, err := GetAPIKey(cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GetAPIKey error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("GetAPIKey: %v", err)
			}
			if key != tt.want {
				t.Errorf("GetAPIKey = %q, want %q", key, tt.want)
			}
			if src := GetAPIKeySource(cfg); src != tt.wantSource {
				t.Errorf("GetAPIKeySource = %q, want %q", src, tt.wantSource)
			}
		})
	}
}

func TestGetAPIKey_RejectsMalformed(t *testing.T) {
	t.Setenv(EnvAnthropicKey, "not-a-real-key")
	if _, err := GetAPIKey(Default()); err == nil {
		t.Error("expected malformed key to be rejected")
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"", true},
		{"sk-ant-short", true},
		{"sk-openai-0123456789abcdef", true},
		{"sk-ant-REDACTED", false},
	}
	for _, tt := range tests {
		if err := ValidateAPIKey(tt.key); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAPIKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":                              "(not set)",
		"hunter2":                       "****",
		"sk-ant-REDACTED": "sk-ant-...cdef",
	}
	for in, want := range tests {
		if got := MaskSecret(in); got != want {
			t.Errorf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGoogleClient(t *testing.T) {
	t.Setenv(EnvGoogleClientSecret, "")

	cfg := Default()
	if _, _, err := GoogleClient(cfg); !errors.Is(err, ErrNoGoogleClient) {
		t.Fatalf("empty client: err = %v", err)
	}

	cfg.Calendar.Google.ClientID = "client-id"
	cfg.Calendar.Google.ClientSecret = "from-file"
	id, secret, err := GoogleClient(cfg)
	if err != nil || id != "client-id" || secret != "from-file" {
		t.Fatalf("GoogleClient = %q, %q, %v", id, secret, err)
	}

	t.Setenv(EnvGoogleClientSecret, "from-env")
	if _, secret, _ := GoogleClient(cfg); secret != "from-env" {
		t.Errorf("environment secret should win, got %q", secret)
	}
}
