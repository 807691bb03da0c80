// ask.go implements the "canvaschat ask" one-shot command.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/canvasgpt/canvaschat/internal/chat"
	"github.com/canvasgpt/canvaschat/internal/ui"
)

var askCmd = &cobra.Command{
	Use:   "ask [message...]",
	Short: "Send one message and print the reply",
	Long: `Send a single message, optionally with an attachment, and print the
assistant's reply as plain text. Exits non-zero when the request fails.`,
	Example: `  canvaschat ask "When is the DS101 midterm?"
  canvaschat ask "Summarize this syllabus" --file syllabus.pdf`,
	RunE: runAsk,
}

var askFile string

func init() {
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "Attach a file (pdf, docx, jpg, jpeg, png, csv, xlsx)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")
	if strings.TrimSpace(message) == "" && askFile == "" {
		return fmt.Errorf("nothing to send; pass a message or --file")
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	ctrl := rt.controller()

	if askFile != "" {
		report, err := ctrl.SelectFile(askFile)
		if err != nil {
			return fmt.Errorf("attaching %s: %w", askFile, err)
		}
		if report.Notice != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Note: %s\n", report.Notice)
		}
	}

	waiting := ui.NewWaiting(cmd.ErrOrStderr(), "Waiting for the assistant...")
	waiting.Start(time.Second)
	msg, err := ctrl.Send(cmd.Context(), message)
	elapsed := waiting.Stop()

	if err != nil {
		if msg.Sender == chat.SenderSystem {
			return &sendError{text: msg.Content.PlainText(), err: err}
		}
		return err
	}

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "agent: %s, took %s\n", msg.Agent, elapsed.Round(time.Millisecond))
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg.Content.PlainText())
	return nil
}

// sendError reports a failed send with the transcript's system message as
// its text, so the failure is printed once.
type sendError struct {
	text string
	err  error
}

func (e *sendError) Error() string { return e.text }

func (e *sendError) Unwrap() error { return e.err }
