package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	root := buildRootCmd()
	if err := root.Execute(); err != nil {
		log := zerolog.New(os.Stderr)
		log.Error().Err(err).Msg("inferctl")
		os.Exit(1)
	}
}

// buildRootCmd constructs the Cobra command tree over a lazily-built app.
func buildRootCmd() *cobra.Command {
	var (
		modelsDir  string
		logLevel   string
		assumeRAM  float64
		assumeVRAM float64
	)
	root := &cobra.Command{
		Use:           "inferctl",
		Short:         "Operate the local model store: list, recommend, fetch, rm",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&modelsDir, "models-dir", "~/.inferd/models", "Directory for downloaded model artifacts")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	root.PersistentFlags().Float64Var(&assumeRAM, "assume-ram", 0, "Override detected RAM in GB")
	root.PersistentFlags().Float64Var(&assumeVRAM, "assume-vram", 0, "Override detected VRAM in GB")

	mkApp := func() (*app, error) { return newApp(modelsDir, logLevel, assumeRAM, assumeVRAM) }

	var listKind string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog tiers with installed and compatible markers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := mkApp()
			if err != nil {
				return err
			}
			return a.list(cmd.OutOrStdout(), listKind)
		},
	}
	listCmd.Flags().StringVar(&listKind, "kind", "", "Filter by kind: llm|vlm")

	var recKind string
	recommendCmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print the tier recommended for this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := mkApp()
			if err != nil {
				return err
			}
			return a.recommend(cmd.OutOrStdout(), recKind)
		},
	}
	recommendCmd.Flags().StringVar(&recKind, "kind", "llm", "Model kind: llm|vlm")

	var fetchKind string
	fetchCmd := &cobra.Command{
		Use:   "fetch [tier-id|level]",
		Short: "Download and verify a tier's artifact (host recommendation when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := mkApp()
			if err != nil {
				return err
			}
			override := ""
			if len(args) == 1 {
				override = args[0]
			}
			return a.fetch(cmd.Context(), cmd.OutOrStdout(), fetchKind, override)
		},
	}
	fetchCmd.Flags().StringVar(&fetchKind, "kind", "llm", "Model kind: llm|vlm")

	rmCmd := &cobra.Command{
		Use:   "rm <tier-id>",
		Short: "Delete a downloaded artifact and its metadata record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := mkApp()
			if err != nil {
				return err
			}
			return a.remove(cmd.OutOrStdout(), args[0])
		},
	}

	root.AddCommand(listCmd, recommendCmd, fetchCmd, rmCmd)
	return root
}
