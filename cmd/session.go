package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invoicer/internal/logger"
	"invoicer/internal/money"
	"invoicer/internal/session"
	"invoicer/internal/wizard"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and drive saved wizard sessions",
	Long: `Wizard sessions are stored in the backend selected by SESSION_BACKEND
(memory, sqlite or redis). Each session holds the current step and the
snapshot being edited.`,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [session-key]",
	Short: "Show the step and snapshot of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionSetCmd = &cobra.Command{
	Use:   "set [session-key] [snapshot-file]",
	Short: "Replace the snapshot of a session with an edited file",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionSet,
}

var sessionNextCmd = &cobra.Command{
	Use:   "next [session-key]",
	Short: "Validate the current step and advance",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionMove,
}

var sessionBackCmd = &cobra.Command{
	Use:   "back [session-key]",
	Short: "Return to the previous step",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionMove,
}

var sessionGotoCmd = &cobra.Command{
	Use:   "goto [session-key] [step]",
	Short: "Jump to a step (upload, profile, client, items, payment, preview)",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionMove,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear [session-key]",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionClear,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionShowCmd, sessionSetCmd, sessionNextCmd, sessionBackCmd, sessionGotoCmd, sessionClearCmd)

	sessionShowCmd.Flags().Bool("json", false, "Output the session as JSON")
}

// withSession opens the store and resumes the wizard for key.
func withSession(key string, fn func(ctx context.Context, w *wizard.Wizard, log zerolog.Logger) error) error {
	log := logger.WithSession("session", key)

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(30*time.Second, log)
	defer cancel()

	store, err := session.Open(ctx, cfg.GetSessionConfig())
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close session store")
		}
	}()

	state, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if state == nil {
		return fmt.Errorf("session %s not found (it may have expired)", key)
	}

	w, err := wizard.Start(ctx, store, key, time.Now())
	if err != nil {
		return fmt.Errorf("failed to resume session: %w", err)
	}
	return fn(ctx, w, log)
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return withSession(args[0], func(ctx context.Context, w *wizard.Wizard, log zerolog.Logger) error {
		if jsonOutput {
			data, err := marshalJSON(&session.State{Key: w.Key(), Step: int(w.Step()), Snapshot: w.Snapshot()})
			if err != nil {
				return err
			}
			return writeOutput(data, "", log)
		}

		s := w.Snapshot()
		totals := money.ComputeTotals(s.Items, s.Invoice.TaxRate)
		rows := [][]string{
			{"Step", w.Step().String()},
			{"Invoice", s.Invoice.Number},
			{"From", s.Profile.Heading()},
			{"Client", strings.TrimSpace(s.Client.CompanyName + " " + s.Client.ContactName)},
			{"Items", fmt.Sprint(len(s.Items))},
			{"Total", money.Display(s.Invoice.Currency, totals.Total)},
		}
		if err := wizard.Validate(w.Step(), s); err != nil {
			rows = append(rows, []string{"Missing", strings.Join(wizard.Fields(err), ", ")})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Session", w.Key()}, rows, nil, nil))
		return nil
	})
}

func runSessionSet(cmd *cobra.Command, args []string) error {
	s, err := readSnapshot(args[1])
	if err != nil {
		return err
	}
	return withSession(args[0], func(ctx context.Context, w *wizard.Wizard, log zerolog.Logger) error {
		if err := w.Replace(ctx, s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		log.Info().Str("file", args[1]).Msg("Session snapshot replaced")
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s updated at step %s\n", w.Key(), w.Step())
		return nil
	})
}

func runSessionMove(cmd *cobra.Command, args []string) error {
	return withSession(args[0], func(ctx context.Context, w *wizard.Wizard, log zerolog.Logger) error {
		var err error
		switch cmd.Name() {
		case "next":
			err = w.Next(ctx)
		case "back":
			err = w.Back(ctx)
		case "goto":
			step, ok := parseStep(args[1])
			if !ok {
				return fmt.Errorf("unknown step %q", args[1])
			}
			err = w.GoTo(ctx, step)
		}
		if err != nil {
			if len(wizard.Errors(err)) > 0 {
				return handleValidationError(err, log)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s at step %s\n", w.Key(), w.Step())
		return nil
	})
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	log := logger.WithSession("session", args[0])

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	ctx := context.Background()

	store, err := session.Open(ctx, cfg.GetSessionConfig())
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	if err := store.Delete(ctx, args[0]); err != nil {
		if errors.Is(err, session.ErrEmptyKey) {
			return fmt.Errorf("session key must not be empty")
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	log.Info().Msg("Session cleared")
	return nil
}

func parseStep(name string) (wizard.Step, bool) {
	for s := wizard.StepUpload; s <= wizard.StepPreview; s++ {
		if strings.EqualFold(strings.TrimSpace(name), s.String()) {
			return s, true
		}
	}
	return 0, false
}
