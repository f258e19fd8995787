package cli

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/bridge-listener/internal/core/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and list monitored chains",
	Run:   runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Config invalid", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CHAIN\tNAME\tTYPE\tINTERVAL\tDESTINATION")

	for _, c := range cfg.Chains {
		name := c.Name
		if name == "" {
			name = c.ChainID.Name()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.ChainID, name, c.Type, c.PollInterval, c.DestinationChainID)
	}
	_ = w.Flush()

	fmt.Printf("\nConfig OK: %d chains, channel buffer %d\n", len(cfg.Chains), cfg.Channel.Buffer)
}
