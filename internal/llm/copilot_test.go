package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExchangeToken(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr string
	}{
		{"ok", http.StatusOK, `{"token":"tid=abc","expires_at":1736300000}`, "tid=abc", ""},
		{"unauthorized", http.StatusUnauthorized, `bad credentials`, "", "status 401: bad credentials"},
		{"empty token", http.StatusOK, `{"token":""}`, "", "empty Copilot token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Token gho_test" {
					t.Errorf("Authorization = %q", got)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			old := copilotTokenURL
			copilotTokenURL = srv.URL
			defer func() { copilotTokenURL = old }()

			got, err := exchangeToken(context.Background(), srv.Client(), "gho_test")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("exchangeToken() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGitHubToken(t *testing.T) {
	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "gho_env")
		got, err := githubToken()
		if err != nil || got != "gho_env" {
			t.Errorf("githubToken() = %q, %v", got, err)
		}
	})

	t.Run("editor config", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("XDG_CONFIG_HOME", dir)
		if err := os.MkdirAll(filepath.Join(dir, "github-copilot"), 0o755); err != nil {
			t.Fatal(err)
		}
		data := `{"github.com:Iv1.b507a08c87ecfe98":{"user":"ana","oauth_token":"gho_file"}}`
		if err := os.WriteFile(filepath.Join(dir, "github-copilot", "apps.json"), []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}

		got, err := githubToken()
		if err != nil || got != "gho_file" {
			t.Errorf("githubToken() = %q, %v", got, err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		if _, err := githubToken(); !errors.Is(err, ErrNoGitHubToken) {
			t.Errorf("error = %v, want ErrNoGitHubToken", err)
		}
	})
}
