// Command invoiced serves the invoice ledger over HTTP and provides
// administrative commands for migrations, companies and tokens.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/api"
	"github.com/xraph/invoiceledger/company"
	"github.com/xraph/invoiceledger/config"
	"github.com/xraph/invoiceledger/id"
)

func main() {
	app := &cli.App{
		Name:  "invoiced",
		Usage: "multi-tenant invoice ledger",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			companyCommand(),
			tokenCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "invoiced:", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("INVOICED_JWT_SECRET is required to serve")
			}
			logger := cfg.Logger()
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	auth, err := api.NewAuthenticator(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	rt, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()
	if err := rt.ledger.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := rt.ledger.Stop(); err != nil {
			logger.Error("ledger stop failed", "error", err)
		}
	}()

	router := api.NewRouter(api.NewHandler(rt.ledger, logger), api.Options{
		Auth:           auth,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
		Production:     cfg.IsProduction(),
		Metrics:        rt.metrics,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("invoiced listening", "addr", cfg.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("invoiced shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply store migrations and exit",
		Action: func(c *cli.Context) error {
			return withLedger(c.Context, func(context.Context, *ledger.Ledger) error {
				fmt.Println("migrations applied")
				return nil
			})
		},
	}
}

func companyCommand() *cli.Command {
	return &cli.Command{
		Name:  "company",
		Usage: "manage companies",
		Subcommands: []*cli.Command{{
			Name:  "create",
			Usage: "provision a company and print its id",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Required: true},
				&cli.StringFlag{Name: "vat"},
				&cli.StringFlag{Name: "address"},
				&cli.StringFlag{Name: "email"},
				&cli.StringFlag{Name: "phone"},
			},
			Action: func(c *cli.Context) error {
				return withLedger(c.Context, func(ctx context.Context, l *ledger.Ledger) error {
					co := &company.Company{
						Name:      c.String("name"),
						VATNumber: c.String("vat"),
						Address:   c.String("address"),
						Email:     c.String("email"),
						Phone:     c.String("phone"),
					}
					if err := l.CreateCompany(ctx, co); err != nil {
						return err
					}
					fmt.Println(co.ID)
					return nil
				})
			},
		}},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint a bearer token for development",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "company", Required: true, Usage: "company id (co_...)"},
			&cli.StringFlag{Name: "user", Value: "dev"},
			&cli.StringFlag{Name: "email"},
			&cli.StringFlag{Name: "role", Value: string(ledger.RoleAdmin)},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			companyID, err := id.ParseCompanyID(c.String("company"))
			if err != nil {
				return err
			}
			role := ledger.Role(c.String("role"))
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			auth, err := api.NewAuthenticator(cfg.JWTSecret, c.Duration("ttl"))
			if err != nil {
				return err
			}
			tok, err := auth.Sign(ledger.Tenant{CompanyID: companyID, UserID: c.String("user"), Role: role}, c.String("email"))
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
}

// withLedger runs fn against a started ledger. Start applies migrations.
func withLedger(ctx context.Context, fn func(context.Context, *ledger.Ledger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	rt, err := build(ctx, cfg, cfg.Logger())
	if err != nil {
		return err
	}
	defer rt.close()
	if err := rt.ledger.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = rt.ledger.Stop() }()
	return fn(ctx, rt.ledger)
}
