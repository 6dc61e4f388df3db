package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shopfront-dev/storefront/internal/auth"
	"github.com/shopfront-dev/storefront/internal/config"
	"github.com/shopfront-dev/storefront/internal/observability"
	"github.com/shopfront-dev/storefront/internal/persistence"
	"github.com/shopfront-dev/storefront/internal/repository"
	"github.com/shopfront-dev/storefront/internal/service"
)

var verbose bool

// Execute creates the root command tree and runs it.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adminctl",
		Short: "Maintain storefront admin accounts",
		Long: `adminctl performs maintenance on the storefront admin accounts directly
against the database. It reads the same environment (and .env file) as the
server. Use it to recover when no super admin can sign in.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log database activity to stderr")

	cmd.AddCommand(newEnsureSuperCmd())
	cmd.AddCommand(newPromoteCmd())
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// env holds the collaborators a command needs. close must be called.
type env struct {
	accounts *service.AccountService
	close    func()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := zap.NewNop()
	if verbose {
		cfg.Logger.File = ""
		if logger, err = observability.NewLogger(cfg.Logger); err != nil {
			return nil, err
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	accounts := service.NewAccountService(service.AccountDependencies{
		AdminRepo: repository.NewAdminRepository(pg.PoolHandle()),
		Hasher:    auth.NewHasher(cfg.Auth.BcryptCost),
		Logger:    logger,
	})
	return &env{
		accounts: accounts,
		close: func() {
			pg.Close()
			_ = logger.Sync()
		},
	}, nil
}
