package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cosmelab/labgrid/internal/config"
	"github.com/cosmelab/labgrid/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  labgrid config`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInteractive(bufio.NewReader(a.in), a.out, config.DefaultConfigPath())
		},
	}
}

func runConfigInteractive(reader *bufio.Reader, w io.Writer, configPath string) error {
	fmt.Fprintf(w, "Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, fileErr := os.Stat(configPath)
	if os.IsNotExist(fileErr) {
		fmt.Fprintln(w, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(w, "Created %s\n\n", configPath)
	}

	printConfig(w, cfg)

	if !promptYesNo(reader, w, "\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Endpoint.URL = promptValue(reader, w, "Endpoint URL", cfg.Endpoint.URL)
	cfg.Endpoint.LogURL = promptValue(reader, w, "Lab log URL (empty to use endpoint URL)", cfg.Endpoint.LogURL)
	cfg.Endpoint.SubmitMode = promptValue(reader, w, "Submit mode (readable/opaque)", cfg.Endpoint.SubmitMode)
	cfg.Poll.EmailSuffix = promptValue(reader, w, "Required email suffix", cfg.Poll.EmailSuffix)
	cfg.Poll.BlockLength = promptInt(reader, w, "Recommended consecutive hours", cfg.Poll.BlockLength)
	cfg.Heatmap.Sort = promptValue(reader, w, "Sort students by (total/name)", cfg.Heatmap.Sort)
	cfg.LabLog.Projects = promptSlice(reader, w, "Projects (comma-separated)", cfg.LabLog.Projects)
	cfg.Visitor.Provider = promptValue(reader, w, "Visitor provider (estimate/local/countapi)", cfg.Visitor.Provider)
	cfg.LLM.Provider = promptValue(reader, w, "LLM provider", cfg.LLM.Provider)
	cfg.LLM.Model = promptValue(reader, w, "LLM model", cfg.LLM.Model)
	cfg.LLM.BaseURL = promptValue(reader, w, "LLM base URL (Ollama/LM Studio)", cfg.LLM.BaseURL)
	cfg.Storage.DBPath = promptValue(reader, w, "Database path", cfg.Storage.DBPath)
	cfg.UI.Theme = promptTheme(reader, w, cfg.UI.Theme)

	// Validate before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(w, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[endpoint]")
	fmt.Fprintf(w, "  url                 = %s\n", orUnset(cfg.Endpoint.URL))
	if cfg.Endpoint.LogURL != "" {
		fmt.Fprintf(w, "  log_url             = %s\n", cfg.Endpoint.LogURL)
	}
	fmt.Fprintf(w, "  timeout             = %s\n", cfg.Endpoint.Timeout)
	fmt.Fprintf(w, "  requests_per_minute = %d\n", cfg.Endpoint.RequestsPerMinute)
	fmt.Fprintf(w, "  submit_mode         = %s\n", cfg.Endpoint.SubmitMode)
	fmt.Fprintln(w, "\n[poll]")
	fmt.Fprintf(w, "  email_suffix        = %s\n", cfg.Poll.EmailSuffix)
	fmt.Fprintf(w, "  block_length        = %d\n", cfg.Poll.BlockLength)
	fmt.Fprintln(w, "\n[heatmap]")
	fmt.Fprintf(w, "  thresholds          = %v\n", cfg.Heatmap.Thresholds)
	fmt.Fprintf(w, "  first_name_only     = %t\n", cfg.Heatmap.FirstNameOnly)
	fmt.Fprintf(w, "  sort                = %s\n", cfg.Heatmap.Sort)
	fmt.Fprintf(w, "  randomize_colors    = %t\n", cfg.Heatmap.RandomizeColors)
	fmt.Fprintln(w, "\n[lablog]")
	fmt.Fprintf(w, "  projects            = %s\n", strings.Join(cfg.LabLog.Projects, ", "))
	fmt.Fprintln(w, "\n[visitor]")
	fmt.Fprintf(w, "  provider            = %s\n", cfg.Visitor.Provider)
	fmt.Fprintf(w, "  launch_date         = %s\n", cfg.Visitor.LaunchDate)
	fmt.Fprintln(w, "\n[llm]")
	fmt.Fprintf(w, "  provider            = %s\n", cfg.LLM.Provider)
	fmt.Fprintf(w, "  model               = %s\n", cfg.LLM.Model)
	fmt.Fprintf(w, "  base_url            = %s\n", cfg.LLM.BaseURL)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path             = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme               = %s\n", cfg.UI.Theme)
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func promptYesNo(reader *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, w io.Writer, label, current string) string {
	if current == "" {
		fmt.Fprintf(w, "  %s: ", label)
	} else {
		fmt.Fprintf(w, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptInt(reader *bufio.Reader, w io.Writer, label string, current int) int {
	for {
		value := promptValue(reader, w, label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		fmt.Fprintf(w, "  Invalid number %q\n", value)
	}
}

func promptSlice(reader *bufio.Reader, w io.Writer, label string, current []string) []string {
	currentStr := strings.Join(current, ", ")
	fmt.Fprintf(w, "  %s [%s]: ", label, currentStr)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func promptTheme(reader *bufio.Reader, w io.Writer, current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(promptValue(reader, w, label, current))
		if theme.IsAvailable(value) {
			return value
		}
		fmt.Fprintf(w, "  Invalid theme %q. Available: %s\n", value, options)
	}
}
