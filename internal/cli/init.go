// init.go implements the "canvaschat init" command.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canvasgpt/canvaschat/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Create the config directory (default ~/.canvaschat) and write
config.yaml with default backend and attachment settings.`,
	RunE: runInit,
}

var forceFlag bool

func init() {
	initCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing config without asking")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := resolveConfigDir()
	path := filepath.Join(dir, "config.yaml")
	out := cmd.OutOrStdout()

	if _, statErr := os.Stat(path); statErr == nil && !forceFlag {
		fmt.Fprintf(out, "Warning: %s already exists.\n", path)
		fmt.Fprint(out, "Overwrite? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if backendURL != "" {
		cfg.Backend.URL = backendURL
	}
	if err := config.WriteConfig(dir, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}
