package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	assistantx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/agents/assistant"
	orchestratorx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
	llmx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/llm"
	reimbursementx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/reimbursement"
	configx "github.com/tanpawarit/Chative-Medical-Reimbursement/pkg/config"
)

var (
	loginUser     string
	loginPassword string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a chat session with the reimbursement assistant",
	Long: `Log in and talk to the assistant. Administrators can register, query and
update requests; General users can register and query their own requests.

Type "salir" or press Ctrl+D to end the session.`,
	RunE: runChat,
}

func init() {
	for _, c := range []*cobra.Command{chatCmd, registerCmd, queryCmd, updateCmd} {
		c.Flags().StringVarP(&loginUser, "user", "u", "", "username from the users file (required)")
		c.Flags().StringVarP(&loginPassword, "password", "p", "", "password (required)")
		c.MarkFlagRequired("user")
		c.MarkFlagRequired("password")
	}
}

type chatter interface {
	HandleMessage(ctx context.Context, sessionID string, caller contractx.Caller, text string) (string, error)
	EndSession(ctx context.Context, sessionID string) error
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	acc, err := login(ctx, cfg, loginUser, loginPassword)
	if err != nil {
		return err
	}

	svc, err := newReimbursementService(cfg)
	if err != nil {
		return err
	}

	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return fmt.Errorf("load openrouter config: %w", err)
	}
	registry, err := assistantx.NewRegistry(ctx, *llmCfg, svc, cfg.MaxToolSteps)
	if err != nil {
		return err
	}

	store, cleanup, err := newStateStore(ctx, cfg.StateBackend)
	if err != nil {
		return err
	}
	defer cleanup()

	orch, err := orchestratorx.New(store, registry, orchestratorx.Config{HistoryLimit: cfg.HistoryLimit})
	if err != nil {
		return err
	}

	return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), orch, acc.Caller(), uuid.NewString())
}

func chatLoop(ctx context.Context, in io.Reader, out io.Writer, orch chatter, caller contractx.Caller, sessionID string) error {
	log.Info().Str("session_id", sessionID).Str("role", string(caller.Role)).Msg("chat session started")
	defer func() {
		if err := orch.EndSession(context.WithoutCancel(ctx), sessionID); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("end session")
		}
	}()

	fmt.Fprintf(out, "🩺 Agente de Soporte de Reembolsos\n%s\n\n", roleBanner(caller))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "salir", "exit":
			fmt.Fprintln(out, "Finalizando sesión...")
			return nil
		}

		reply, err := orch.HandleMessage(ctx, sessionID, caller, text)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Error().Err(err).Str("session_id", sessionID).Msg("handle message failed")
			fmt.Fprintln(out, chatErrorMessage(err))
			continue
		}
		fmt.Fprintf(out, "%s\n\n", reply)
	}
}

func roleBanner(caller contractx.Caller) string {
	if caller.Role == contractx.RoleAdmin {
		return fmt.Sprintf("Hola, %s. Usuario Administrador (acceso total).", caller.Name)
	}
	return fmt.Sprintf("Hola, %s. Usuario General (solo registro y consulta).", caller.Name)
}

func chatErrorMessage(err error) string {
	switch {
	case errors.Is(err, orchestratorx.ErrSessionOwner):
		return "⚠️ Esta sesión pertenece a otro usuario."
	case errors.Is(err, contractx.ErrModelInvoke):
		return "⚠️ El asistente no está disponible en este momento. Intenta nuevamente."
	default:
		return reimbursementx.FormatError(err)
	}
}
