package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resume-ranker/internal/shared/config"
	"resume-ranker/internal/shared/telemetry"
)

const app = "rank"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "rank scores resumes against a job description",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			level := "warn"
			if viper.GetBool("debug") {
				level = "debug"
			}
			telemetry.Configure(level, viper.GetString("log-format"))
			return nil
		},
	}
)

// Execute executes the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("provider", "", "AI provider: gemini, openai or none (env LLM_PROVIDER)")
	rootCmd.PersistentFlags().String("model", "", "model name, empty for provider default (env LLM_MODEL)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")

	for _, name := range []string{"provider", "model", "debug", "log-format"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	_ = viper.BindEnv("provider", "LLM_PROVIDER")
	_ = viper.BindEnv("model", "LLM_MODEL")
}

func initConfig() error {
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	return viper.ReadInConfig()
}

// loadConfig layers flags, env and the optional config file over config.Load.
func loadConfig() config.Config {
	cfg := config.Load()
	if p := strings.ToLower(strings.TrimSpace(viper.GetString("provider"))); p != "" {
		cfg.LLMProvider = p
	}
	if m := strings.TrimSpace(viper.GetString("model")); m != "" {
		cfg.LLMModel = m
	}
	if d := viper.GetDuration("timeout"); d > 0 {
		cfg.AITimeout = d
	}
	if n := viper.GetInt("concurrency"); n > 0 {
		cfg.RankConcurrency = n
	}
	return cfg
}
