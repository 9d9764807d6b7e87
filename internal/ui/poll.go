package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cosmelab/labgrid/internal/endpoint"
	"github.com/cosmelab/labgrid/internal/poll"
	"github.com/cosmelab/labgrid/internal/tui"
)

func (a *App) pollCmd() *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Mark and submit your weekly lab availability",
		Long: `Open the availability poll.

Enter your name and campus email, then mark the hours you can be in the
lab by clicking or dragging across the grid (space toggles the cell under
the cursor, shift+arrows extend). Press enter to submit.

Running "labgrid" with no command opens the poll too.

Example:
  labgrid poll
  labgrid poll --history`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if history {
				return a.printReceipts(cmd.Context(), a.out)
			}
			return a.runPoll(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&history, "history", false, "List submissions made from this machine")
	return cmd
}

func (a *App) runPoll(ctx context.Context) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return fmt.Errorf("the poll needs an interactive terminal")
	}

	client, err := a.client(a.config.Endpoint.URL)
	if err != nil {
		return err
	}
	mode, err := endpoint.ParseMode(a.config.Endpoint.SubmitMode)
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}

	session := poll.NewSession(
		poll.NewValidator(a.config.Poll.EmailSuffix),
		client.Submitter(mode),
		poll.WithReceipts(store),
	)

	final, err := tui.RunPoll(ctx, tui.PollOptions{
		Session:     session,
		Identity:    client,
		EmailSuffix: a.config.Poll.EmailSuffix,
		BlockLength: a.config.Poll.BlockLength,
		Theme:       a.config.UI.Theme,
		Logger:      a.logger,
	})
	if err != nil {
		return fmt.Errorf("running poll: %w", err)
	}

	if final.Submitted() {
		fmt.Fprintf(a.out, "%s %d hour(s) submitted.\n",
			formatStats("Availability saved:"), final.SentHours())
	}
	return nil
}

// printReceipts lists the local submission receipts, newest first.
func (a *App) printReceipts(ctx context.Context, w io.Writer) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	receipts, err := store.ListReceipts(ctx)
	if err != nil {
		return fmt.Errorf("listing receipts: %w", err)
	}
	PrintReceipts(w, receipts)
	return nil
}

// PrintReceipts prints one line per receipt.
func PrintReceipts(w io.Writer, receipts []*poll.Receipt) {
	if len(receipts) == 0 {
		fmt.Fprintln(w, "No submissions from this machine yet.")
		return
	}
	fmt.Fprintf(w, "\n  %s\n", formatHeader("SUBMISSIONS"))
	fmt.Fprintln(w, rule())
	for _, r := range receipts {
		fmt.Fprintf(w, "  %s  %-24s %-20s %s\n",
			r.SubmittedAt.Local().Format("2006-01-02 15:04"),
			truncate(r.Email, 24),
			truncate(r.Name, 20),
			formatStats(fmt.Sprintf("%d h", len(r.Cells))))
	}
	fmt.Fprintln(w)
}
