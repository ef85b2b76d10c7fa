package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/Chative-Medical-Reimbursement/pkg/config"
	logx "github.com/tanpawarit/Chative-Medical-Reimbursement/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "reembolsos",
	Short: "Medical reimbursement assistant",
	Long: `reembolsos registers, queries and updates medical reimbursement requests.

Requests live in a CSV file. The chat command opens a conversation with an
LLM assistant whose tools depend on the user's role (Administrador or General).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configx.SetEnvFile(envFile)

		logCfg, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return fmt.Errorf("load log config: %w", err)
		}
		logx.Init(*logCfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file (default ./.env when present)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(checkLLMCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
