package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dyluth/splatter/internal/config"
	"github.com/dyluth/splatter/internal/editor"
	"github.com/dyluth/splatter/internal/gallery"
	"github.com/dyluth/splatter/internal/printer"
	"github.com/dyluth/splatter/pkg/canvas"
	"github.com/dyluth/splatter/pkg/chain"
)

// session is a connected ledger client plus the resolved configuration.
type session struct {
	cfg    *config.SplatterConfig
	client *chain.Client
}

// loadConfig reads splatter.yml (if present) and applies env and flag
// overrides, in that order.
func loadConfig() (*config.SplatterConfig, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			fmt.Sprintf("Failed to load %s: %v", configPath, err),
			[]string{"Fix the file or remove it to use defaults"},
		)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, printer.Error("invalid environment", err.Error(), nil)
	}

	overrides := map[string]string{
		"REDIS_URL":        redisURLFlag,
		"SPLATTER_NETWORK": networkFlag,
		"SPLATTER_ACCOUNT": accountFlag,
	}
	if err := cfg.ApplyEnv(func(k string) string { return overrides[k] }); err != nil {
		return nil, printer.Error("invalid flags", err.Error(), nil)
	}
	if canvasFlag != 0 {
		cfg.CanvasID = canvasFlag
	}
	return cfg, nil
}

// connect opens the ledger client and verifies connectivity.
func connect(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(redisOpts, cfg.Network, chain.WithLockDuration(cfg.LockDuration))
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to the ledger at %s", cfg.RedisURL),
			map[string]string{"Network": cfg.Network},
			[]string{
				"Start a local ledger:\n  splatter ledger up",
				"Point splatter at another ledger:\n  splatter --redis redis://host:6379/0 ...",
			},
		)
	}

	return &session{cfg: cfg, client: client}, nil
}

func (s *session) Close() error {
	return s.client.Close()
}

// canvasID resolves the configured canvas, falling back to the newest one.
func (s *session) canvasID(ctx context.Context) (uint64, error) {
	id, err := gallery.ResolveCanvasID(ctx, s.client, s.cfg.CanvasID)
	if errors.Is(err, gallery.ErrNoCanvases) {
		return 0, printer.Error(
			"no canvases yet",
			fmt.Sprintf("Network '%s' has no canvases.", s.cfg.Network),
			[]string{"Start the first one:\n  splatter new"},
		)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve canvas: %w", err)
	}
	return id, nil
}

// openEditor loads the resolved canvas into a fresh state and wraps it in an
// editor. Writes need an account; reads do not.
func (s *session) openEditor(ctx context.Context, needAccount bool) (*editor.Editor, error) {
	if needAccount {
		if err := s.cfg.RequireAccount(); err != nil {
			return nil, printer.Error(
				"no account configured",
				"Writing to the ledger needs a sender address.",
				[]string{
					"Pass one on the command line:\n  splatter --account 0x... <command>",
					"Or set 'account' in splatter.yml or SPLATTER_ACCOUNT",
				},
			)
		}
	}

	id, err := s.canvasID(ctx)
	if err != nil {
		return nil, err
	}

	ed := editor.New(s.client, canvas.NewState(), id, s.cfg.Account, s.cfg.LockDuration)
	if err := ed.Load(ctx); err != nil {
		if chain.IsNotFound(err) {
			return nil, printer.Error(
				fmt.Sprintf("canvas %d not found", id),
				"The canvas does not exist on this network.",
				[]string{"List canvases:\n  splatter list"},
			)
		}
		return nil, err
	}
	return ed, nil
}
