// mock_backend.go implements the "canvaschat mock-backend" command.
package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/canvasgpt/canvaschat/internal/mockbackend"
)

var mockBackendCmd = &cobra.Command{
	Use:   "mock-backend",
	Short: "Serve a local stand-in for the assistant backend",
	Long: `Serve the chat and admin endpoints with canned replies, for trying
the client without the real assistant. Include "#fail" in a message to get
an HTTP 500, or "#error" to get an error reported with status 200.`,
	RunE: runMockBackend,
}

var mockAddr string

func init() {
	mockBackendCmd.Flags().StringVar(&mockAddr, "addr", "127.0.0.1:8000", "Listen address")
}

func runMockBackend(cmd *cobra.Command, args []string) error {
	srv, err := mockbackend.NewServer(mockAddr, mockbackend.New())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	fmt.Fprintf(cmd.OutOrStdout(), "Mock backend listening on %s (ctrl+c to stop)\n", srv.URL())

	select {
	case <-ctx.Done():
		fmt.Fprintln(cmd.OutOrStdout(), "Shutting down.")
		return srv.Stop()
	case err := <-errCh:
		return err
	}
}
