package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/tablecall/internal/auth"
	"github.com/example/tablecall/internal/booking"
	"github.com/example/tablecall/internal/calendar"
	"github.com/example/tablecall/internal/config"
	"github.com/example/tablecall/internal/db"
	"github.com/example/tablecall/internal/engine"
	"github.com/example/tablecall/internal/migrate"
	"github.com/example/tablecall/internal/reconcile"
	"github.com/example/tablecall/internal/search"
	"github.com/example/tablecall/internal/vapi"
	"github.com/example/tablecall/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the webhook server, workflow engine, and dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var (
				store     booking.Store
				authStore *auth.Store
			)
			switch cfg.StoreDriver {
			case "memory":
				log.Printf("[server] memory store: bookings are not durable, dashboard disabled")
				store = booking.NewMemStore()

			case "postgres":
				d, err := db.Open(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer d.Close()

				if err := d.Ping(ctx); err != nil {
					return fmt.Errorf("db ping: %w", err)
				}

				if migrateUp {
					if err := migrate.Up(ctx, d); err != nil {
						return err
					}
				}

				hashKey, blockKey, err := cfg.CookieKeys()
				if err != nil {
					return err
				}
				authStore = auth.NewStore(d, hashKey, blockKey)
				store = booking.NewPGStore(d)

			default:
				return fmt.Errorf("unknown STORE_DRIVER %q (want postgres or memory)", cfg.StoreDriver)
			}

			eng := &engine.Engine{
				Store: store,
				Calls: vapi.New(vapi.Config{
					BaseURL:       cfg.VapiAPIURL,
					PrivateKey:    cfg.VapiPrivateKey,
					AssistantID:   cfg.VapiAssistantID,
					PhoneNumberID: cfg.VapiPhoneNumberID,
					EventsURL:     cfg.BaseURL + "/vapi/events",
					Timeout:       cfg.DispatchTimeout,
				}),
				Search: search.New(search.Config{
					AgentURL: cfg.RtrvrAgentURL,
					APIKey:   cfg.RtrvrAPIKey,
					Timeout:  cfg.SearchTimeout,
				}),
				Calendar: calendar.New(ctx, calendar.Config{
					ClientID:     cfg.GoogleClientID,
					ClientSecret: cfg.GoogleClientSecret,
					RefreshToken: cfg.GoogleRefreshToken,
					CalendarID:   cfg.GoogleCalendarID,
					Timezone:     cfg.CalendarTimezone,
				}),
				Classifier:    engine.HeuristicClassifier{},
				CustomerPhone: cfg.CustomerPhone,
				CustomerName:  cfg.CustomerName,
			}

			sweeper := &reconcile.Sweeper{
				Store:    store,
				Interval: cfg.ReconcileInterval,
				Deadline: cfg.CallDeadline,
			}
			go func() { _ = sweeper.Run(ctx) }()

			ws := &web.Server{Engine: eng, Auth: authStore}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
