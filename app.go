package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
	reimbursementx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/reimbursement"
	statex "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/state"
	toolx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/tool"
	usersx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/users"
	configx "github.com/tanpawarit/Chative-Medical-Reimbursement/pkg/config"
	qstashx "github.com/tanpawarit/Chative-Medical-Reimbursement/pkg/qstash"
)

const (
	backendMemory   = "memory"
	backendUpstash  = "upstash"
	backendPostgres = "postgres"
)

type AppConfig struct {
	DataFile      string `envconfig:"DATA_FILE" default:"data/dataReembolsos.csv"`
	UsersFile     string `envconfig:"USERS_FILE" default:"data/dataUsuarios.csv"`
	StateBackend  string `envconfig:"STATE_BACKEND" default:"memory"`
	HistoryLimit  int    `envconfig:"HISTORY_LIMIT" default:"20"`
	MaxToolSteps  int    `envconfig:"MAX_TOOL_STEPS" default:"5"`
	NotifyEnabled bool   `envconfig:"NOTIFY_ENABLED" default:"false"`
}

func loadAppConfig() (*AppConfig, error) {
	cfg, err := configx.New[AppConfig]("")
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	return cfg, nil
}

func newReimbursementService(cfg *AppConfig) (*reimbursementx.Service, error) {
	store, err := reimbursementx.NewCSVStore(cfg.DataFile)
	if err != nil {
		return nil, err
	}

	var opts []reimbursementx.Option
	if cfg.NotifyEnabled {
		qcfg, err := configx.New[qstashx.Config]("QSTASH")
		if err != nil {
			return nil, fmt.Errorf("load qstash config: %w", err)
		}
		client, err := qstashx.NewClient(*qcfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, reimbursementx.WithNotifier(qstashNotifier(client)))
	}

	return reimbursementx.NewService(store, opts...)
}

func qstashNotifier(client *qstashx.Client) reimbursementx.Notifier {
	return reimbursementx.NotifierFunc(func(ctx context.Context, change reimbursementx.StatusChange) error {
		id, err := client.Publish(ctx, change)
		if err != nil {
			return err
		}
		log.Debug().Str("request_id", change.RequestID).Str("message_id", id).Msg("status change published")
		return nil
	})
}

// newStateStore returns the configured session store and a cleanup func.
func newStateStore(ctx context.Context, backend string) (statex.Store, func(), error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", backendMemory:
		return statex.NewMemoryStore(), noop, nil

	case backendUpstash:
		cfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, noop, fmt.Errorf("load upstash config: %w", err)
		}
		store, err := statex.NewUpstashRedisStore(*cfg)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case backendPostgres:
		cfg, err := configx.New[statex.PostgresConfig]("POSTGRES")
		if err != nil {
			return nil, noop, fmt.Errorf("load postgres config: %w", err)
		}
		store, err := statex.NewPostgresStore(ctx, *cfg)
		if err != nil {
			return nil, noop, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("close postgres session store")
			}
		}, nil

	default:
		return nil, noop, fmt.Errorf("%w: unknown state backend %q", contractx.ErrValidation, backend)
	}
}

func login(ctx context.Context, cfg *AppConfig, username, password string) (usersx.Account, error) {
	dir, err := usersx.NewDirectory(cfg.UsersFile)
	if err != nil {
		return usersx.Account{}, err
	}
	acc, err := dir.Login(ctx, username, password)
	if err != nil {
		return usersx.Account{}, err
	}
	log.Info().Str("user", acc.Username).Str("role", string(acc.Role)).Msg("login succeeded")
	return acc, nil
}

// runTool executes one catalog tool for the caller and writes the rendered
// result. Role rules are the same ones the assistant is bound by.
func runTool(
	ctx context.Context,
	out io.Writer,
	svc toolx.Dispatcher,
	caller contractx.Caller,
	tool string,
	args map[string]any,
) error {
	res, err := toolx.NewExecutor(svc, caller)(ctx, tool, args)
	if err != nil {
		return err
	}
	if res.Error != "" {
		return errors.New(res.Error)
	}
	_, err = fmt.Fprintln(out, res.Result)
	return err
}
