package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
	llmx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/llm"
	usersx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/users"
	configx "github.com/tanpawarit/Chative-Medical-Reimbursement/pkg/config"
	openrouterx "github.com/tanpawarit/Chative-Medical-Reimbursement/pkg/openrouter"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for the Contrasena column of the users file",
	Long: `Print a bcrypt hash for the Contrasena column of the users file.

Without an argument the password is read from the first line of stdin, which
keeps it out of the shell history.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFromArgs(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		hash, err := usersx.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var checkLLMTimeout time.Duration

var checkLLMCmd = &cobra.Command{
	Use:   "check-llm",
	Short: "Verify the OpenRouter key and that the configured models are reachable",
	Args:  cobra.NoArgs,
	RunE:  runCheckLLM,
}

func init() {
	checkLLMCmd.Flags().DurationVar(&checkLLMTimeout, "timeout", 15*time.Second, "request timeout")
}

func passwordFromArgs(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

func runCheckLLM(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), checkLLMTimeout)
	defer cancel()

	cfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return fmt.Errorf("load openrouter config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := openrouterx.NewClient(cfg.OpenRouterFor(contractx.RoleGeneral))
	models, err := openrouterx.ListModels(ctx, client)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "OpenRouter reachable, %d models available\n", len(models))

	var missing []string
	for _, role := range []contractx.Role{contractx.RoleAdmin, contractx.RoleGeneral} {
		name := cfg.OpenRouterFor(role).Model
		status := "ok"
		if !slices.Contains(models, name) {
			status = "not listed"
			missing = append(missing, name)
		}
		fmt.Fprintf(out, "  %-14s %-40s %s\n", role, name, status)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: models not available: %s", contractx.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
