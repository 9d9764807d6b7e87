package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/openai/openai-go/option"
)

const (
	copilotBaseURL = "https://api.githubcopilot.com"
	userAgent      = "Labgrid/1.0"

	// DefaultModel is the Copilot model used when none is configured.
	DefaultModel = "gpt-4o"
)

// copilotTokenURL is a var so tests can point it at a fake server.
var copilotTokenURL = "https://api.github.com/copilot_internal/v2/token"

// ErrNoGitHubToken is returned when no GitHub OAuth token can be found.
var ErrNoGitHubToken = errors.New("GitHub token not found: set GITHUB_TOKEN or sign in to GitHub Copilot in your editor")

// NewCopilotClient exchanges the local GitHub OAuth token for a Copilot
// bearer token and returns a client for the Copilot chat API.
func NewCopilotClient(ctx context.Context, model string, opts ...Option) (*OpenAIClient, error) {
	o := applyOptions(opts)
	if model == "" {
		model = DefaultModel
	}

	githubToken, err := githubToken()
	if err != nil {
		return nil, err
	}
	bearer, err := exchangeToken(ctx, &http.Client{Timeout: 30 * time.Second}, githubToken)
	if err != nil {
		return nil, fmt.Errorf("exchanging Copilot token: %w", err)
	}

	return newOpenAIClient(ProviderCopilot, model, copilotBaseURL, o.logger,
		option.WithAPIKey(bearer),
		option.WithHeader("Editor-Version", userAgent),
		option.WithHeader("Editor-Plugin-Version", userAgent),
		option.WithHeader("Copilot-Integration-Id", "vscode-chat"),
	), nil
}

func exchangeToken(ctx context.Context, hc *http.Client, githubToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, copilotTokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+githubToken)
	req.Header.Set("User-Agent", userAgent)

	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token struct {
		Token     string `json:"token"`
		ExpiresAt int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decoding token: %w", err)
	}
	if token.Token == "" {
		return "", errors.New("empty Copilot token")
	}
	return token.Token, nil
}

// githubToken returns GITHUB_TOKEN, or the oauth_token an editor plugin
// stored under <config>/github-copilot.
func githubToken() (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	for _, name := range []string{"hosts.json", "apps.json"} {
		if token := readOAuthToken(filepath.Join(dir, "github-copilot", name)); token != "" {
			return token, nil
		}
	}
	return "", ErrNoGitHubToken
}

func configDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir, nil
		}
	}
	return os.UserConfigDir()
}

// readOAuthToken returns the oauth_token of the first github.com entry in
// path, or "" when there is none.
func readOAuthToken(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var hosts map[string]struct {
		OAuthToken string `json:"oauth_token"`
	}
	if err := json.Unmarshal(data, &hosts); err != nil {
		return ""
	}
	for host, entry := range hosts {
		if strings.Contains(host, "github.com") && entry.OAuthToken != "" {
			return entry.OAuthToken
		}
	}
	return ""
}
