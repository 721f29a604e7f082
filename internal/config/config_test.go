package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
log:
  level: "info"
gitlab:
  base_url: "https://gitlab.example.edu/api/v4"
  request_timeout: "20s"
  token_file: "token"
  per_page: 50
retry:
  max_attempts: 3
  initial_backoff: "1s"
  max_backoff: "30s"
clone:
  user: "course.operator"
practices:
  - id: "calculadora"
    repo: "cursosweb/2022-2023/calculadora"
  - id: "redir"
    repo: "cursosweb/2022-2023/aplicacion-redirectora"
`

func TestLoadAndValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		yaml       string
		wantErr    bool
		errSubstrs []string
	}{
		{
			name: "valid_configuration",
			yaml: validYAML,
		},
		{
			name: "rejects_empty_registry",
			yaml: `
log:
  level: "info"
gitlab:
  base_url: "https://gitlab.example.edu/api/v4"
`,
			wantErr:    true,
			errSubstrs: []string{"practices must contain at least one practice"},
		},
		{
			name: "rejects_duplicate_practice_ids",
			yaml: `
practices:
  - id: "calculadora"
    repo: "a/b"
  - id: "calculadora"
    repo: "a/c"
`,
			wantErr:    true,
			errSubstrs: []string{"duplicate id: calculadora"},
		},
		{
			name: "rejects_practice_without_repo",
			yaml: `
practices:
  - id: "calculadora"
`,
			wantErr:    true,
			errSubstrs: []string{"practices[0].repo is required"},
		},
		{
			name: "rejects_invalid_log_level",
			yaml: `
log:
  level: "verbose"
practices:
  - id: "calculadora"
    repo: "a/b"
`,
			wantErr:    true,
			errSubstrs: []string{"log.level must be one of"},
		},
		{
			name: "rejects_unknown_fields",
			yaml: `
practices:
  - id: "calculadora"
    repo: "a/b"
unknown_section:
  value: 1
`,
			wantErr:    true,
			errSubstrs: []string{"unmarshal yaml"},
		},
		{
			name: "rejects_bad_duration",
			yaml: `
gitlab:
  request_timeout: "not-a-duration"
practices:
  - id: "calculadora"
    repo: "a/b"
`,
			wantErr:    true,
			errSubstrs: []string{"parse duration"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := Load(strings.NewReader(tc.yaml))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Load() expected error, got nil")
				}
				for _, sub := range tc.errSubstrs {
					if !strings.Contains(err.Error(), sub) {
						t.Fatalf("error = %q, missing %q", err.Error(), sub)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if cfg == nil {
				t.Fatalf("Load() returned nil config")
			}
		})
	}
}

func TestLoadDerivesEscapedRepo(t *testing.T) {
	t.Parallel()

	cfg, err := Load(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	practice, ok := cfg.Practice("calculadora")
	if !ok {
		t.Fatalf("Practice(calculadora) not found")
	}
	if practice.EscapedRepo != "cursosweb%2F2022-2023%2Fcalculadora" {
		t.Fatalf("EscapedRepo = %q, want escaped slashes", practice.EscapedRepo)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(strings.NewReader(`
practices:
  - id: "calculadora"
    repo: "a/b"
`))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Fatalf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.GitLab.PerPage != 50 {
		t.Fatalf("GitLab.PerPage = %d, want 50", cfg.GitLab.PerPage)
	}
	if cfg.GitLab.RequestTimeout != 30*time.Second {
		t.Fatalf("GitLab.RequestTimeout = %v, want 30s", cfg.GitLab.RequestTimeout)
	}
	if cfg.GitLab.TokenFile != "token" {
		t.Fatalf("GitLab.TokenFile = %q, want token", cfg.GitLab.TokenFile)
	}
	if cfg.Retry.MaxAttempts != 1 {
		t.Fatalf("Retry.MaxAttempts = %d, want 1", cfg.Retry.MaxAttempts)
	}
}

func TestSelectPractices(t *testing.T) {
	t.Parallel()

	cfg, err := Load(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	testCases := []struct {
		name    string
		id      string
		wantIDs []string
		wantErr bool
	}{
		{
			name:    "named_practice",
			id:      "calculadora",
			wantIDs: []string{"calculadora"},
		},
		{
			name:    "empty_selects_last_registered",
			id:      "",
			wantIDs: []string{"redir"},
		},
		{
			name:    "all_selects_every_practice_in_order",
			id:      PracticeAll,
			wantIDs: []string{"calculadora", "redir"},
		},
		{
			name:    "unknown_practice",
			id:      "nope",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			practices, err := cfg.SelectPractices(tc.id)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("SelectPractices(%q) expected error, got nil", tc.id)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectPractices(%q) unexpected error: %v", tc.id, err)
			}
			if len(practices) != len(tc.wantIDs) {
				t.Fatalf("len(practices) = %d, want %d", len(practices), len(tc.wantIDs))
			}
			for i, want := range tc.wantIDs {
				if practices[i].ID != want {
					t.Fatalf("practices[%d].ID = %q, want %q", i, practices[i].ID, want)
				}
			}
		})
	}
}

func TestReadTokenFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("glpat-secret\nrest ignored\n"), 0o600); err != nil {
		t.Fatalf("write token file: %v", err)
	}

	token, err := ReadTokenFile(path)
	if err != nil {
		t.Fatalf("ReadTokenFile() unexpected error: %v", err)
	}
	if token != "glpat-secret" {
		t.Fatalf("token = %q, want first line only", token)
	}

	missing, err := ReadTokenFile(filepath.Join(dir, "absent"))
	if err != nil {
		t.Fatalf("ReadTokenFile(missing) unexpected error: %v", err)
	}
	if missing != "" {
		t.Fatalf("token for missing file = %q, want empty", missing)
	}
}
