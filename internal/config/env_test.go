package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		content  string
		setupEnv map[string]string
		wantEnv  map[string]string
	}{
		{
			name: "valid .env file",
			content: `
# Comment line
MAILBOT_KEY1=value1
MAILBOT_KEY2=value2

MAILBOT_KEY3=value with spaces
`,
			wantEnv: map[string]string{
				"MAILBOT_KEY1": "value1",
				"MAILBOT_KEY2": "value2",
				"MAILBOT_KEY3": "value with spaces",
			},
		},
		{
			name:    "quotes and export prefix",
			content: "export MAILBOT_Q1=\"quoted value\"\nMAILBOT_Q2='single'\nMAILBOT_Q3=\"unbalanced",
			wantEnv: map[string]string{
				"MAILBOT_Q1": "quoted value",
				"MAILBOT_Q2": "single",
				"MAILBOT_Q3": "\"unbalanced",
			},
		},
		{
			name:    "value containing equals sign",
			content: "MAILBOT_URL=https://example.com/?a=b",
			wantEnv: map[string]string{"MAILBOT_URL": "https://example.com/?a=b"},
		},
		{
			name:     "process environment wins",
			content:  "MAILBOT_EXISTING=from-file",
			setupEnv: map[string]string{"MAILBOT_EXISTING": "from-env"},
			wantEnv:  map[string]string{"MAILBOT_EXISTING": "from-env"},
		},
		{
			name:    "malformed lines are skipped",
			content: "NOT_A_PAIR\n=novalue\nMAILBOT_OK=1",
			wantEnv: map[string]string{"MAILBOT_OK": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.setupEnv {
				t.Setenv(k, v)
			}
			for k := range tt.wantEnv {
				if _, ok := tt.setupEnv[k]; !ok {
					// t.Setenv restores the variable after the test; unset it for LoadEnv.
					t.Setenv(k, "")
					os.Unsetenv(k)
				}
			}

			path := filepath.Join(tmpDir, tt.name+".env")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("Failed to write env file: %v", err)
			}

			if err := LoadEnv(path); err != nil {
				t.Fatalf("LoadEnv() error = %v", err)
			}

			for k, want := range tt.wantEnv {
				if got := os.Getenv(k); got != want {
					t.Errorf("%s = %q, want %q", k, got, want)
				}
			}
		})
	}
}

func TestLoadEnv_MissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("LoadEnv() expected error for missing file")
	}
}

func TestLoadEnvOptional(t *testing.T) {
	tmpDir := t.TempDir()

	if err := LoadEnvOptional(filepath.Join(tmpDir, "missing.env")); err != nil {
		t.Errorf("LoadEnvOptional() on missing file error = %v", err)
	}

	t.Setenv("MAILBOT_OPTIONAL", "")
	os.Unsetenv("MAILBOT_OPTIONAL")

	path := filepath.Join(tmpDir, ".env")
	if err := os.WriteFile(path, []byte("MAILBOT_OPTIONAL=yes"), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	if err := LoadEnvOptional(path); err != nil {
		t.Fatalf("LoadEnvOptional() error = %v", err)
	}
	if got := os.Getenv("MAILBOT_OPTIONAL"); got != "yes" {
		t.Errorf("MAILBOT_OPTIONAL = %q, want yes", got)
	}
}
