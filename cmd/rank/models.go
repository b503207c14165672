package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"resume-ranker/internal/bootstrap"
	"resume-ranker/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models the configured provider can use for scoring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := bootstrap.BuildLLM(cmd.Context(), loadConfig())
		if err != nil {
			return err
		}
		lister, ok := client.(llm.ModelLister)
		if !ok {
			return errors.New("provider does not support listing models")
		}
		names, err := lister.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
