package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nathantilsley/issue-validator/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "issue-validator",
	Short: "Check that issues carry the sections their labels require",
	Long: `issue-validator checks that labelled issues contain required markdown
sections and keeps a single summary comment on each issue up to date.

Required sections are configured per label:
  bug,steps to reproduce,expected behaviour;docs,summary

Run it as a GitHub Action step (action), as a GitHub App webhook server
(serve), or against a local file (check).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .issue-validator.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("required-sections", "", "required sections per label, e.g. bug,steps;docs,summary")
	rootCmd.PersistentFlags().String("sections-file", "", "YAML file mapping labels to required sections")
	rootCmd.PersistentFlags().String("bot-login", "", "login of the account that posts validator comments")
	rootCmd.PersistentFlags().Bool("dry-run", false, "plan the comment change without writing it")
	rootCmd.PersistentFlags().String("github-api-url", "", "GitHub API base URL for GitHub Enterprise Server")
	bindFlags(rootCmd, "log-level", "required-sections", "sections-file", "bot-login", "dry-run", "github-api-url")

	rootCmd.AddCommand(actionCmd, serveCmd, checkCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error getting working directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".issue-validator")
	}

	if err := config.BindEnv(viper.GetViper()); err != nil {
		fmt.Fprintln(os.Stderr, "Error binding environment:", err)
		os.Exit(1)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlags binds the named persistent or local flags of cmd into viper.
func bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			flag = cmd.PersistentFlags().Lookup(name)
		}
		_ = viper.BindPFlag(name, flag)
	}
}
