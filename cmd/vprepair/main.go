package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vprepair/internal/app"
	"vprepair/internal/config"
	"vprepair/internal/domain"
	"vprepair/internal/engine"
	"vprepair/internal/logging"
	"vprepair/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "vprepair",
	Short: "Fault report intake, translation and repair workflow",
	Long: `vprepair takes fault reports written in Polish, German, English or Danish,
translates them into the workshop language and tracks each report through
assignment, repair and completion.

Reports move new -> assigned -> in_progress -> completed. Mechanics work from
a queue ordered by priority (high first) and then by age.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	// a missing .env is fine
	_ = godotenv.Load()
	viper.SetEnvPrefix("VPREPAIR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", config.Path("."), "config file")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier recorded on events")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(queueCmd())
	rootCmd.AddCommand(assetCmd())
	rootCmd.AddCommand(translateCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(statusCmd())
}

// loadConfig reads the config file and applies VPREPAIR_* environment
// overrides for values that usually live outside the file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	overrides := map[string]*string{
		"jwt_secret":      &cfg.Auth.JWTSecret,
		"database_driver": &cfg.Database.Driver,
		"database_dsn":    &cfg.Database.DSN,
		"workspace":       &cfg.Database.Workspace,
		"online_url":      &cfg.Translation.Online.URL,
		"online_api_key":  &cfg.Translation.Online.APIKey,
		"model_dir":       &cfg.Translation.Offline.ModelDir,
		"ollama_url":      &cfg.Translation.Offline.OllamaURL,
		"log_level":       &cfg.Logging.Level,
		"log_format":      &cfg.Logging.Format,
	}
	for key, dst := range overrides {
		if v := viper.GetString(key); v != "" {
			*dst = v
		}
	}
	if viper.IsSet("online_enabled") {
		cfg.Translation.Online.Enabled = viper.GetBool("online_enabled")
	}
	return cfg, cfg.Validate()
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()
	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	return withApp(ctx, func(ctx context.Context, a *app.App) error {
		return fn(ctx, a.Engine)
	})
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				cfg := a.Config
				if addr == "" {
					addr = cfg.Server.Addr
				}
				if basePath == "" {
					basePath = cfg.Server.BasePath
				}
				if cfg.Auth.JWTSecret == "" && !cfg.Auth.AllowActorHeader {
					return fmt.Errorf("VPREPAIR_JWT_SECRET is required unless auth.allow_actor_header is set")
				}
				handler, err := server.New(server.Config{
					Engine:   a.Engine,
					BasePath: basePath,
					Auth:     server.AuthConfig{JWTSecret: cfg.Auth.JWTSecret, AllowActorHeader: cfg.Auth.AllowActorHeader},
					Logger:   a.Log,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(sctx)
				}()
				a.Log.WithFields(logrus.Fields{"addr": addr, "base_path": basePath}).Info("serving vprepair API")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from config)")
	return cmd
}

func printJSONOrTable(v any, render func(table.Writer)) error {
	if viper.GetBool("json") || render == nil {
		return printJSON(v)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	render(tw)
	tw.Render()
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderReports(reps []domain.FaultReport) func(table.Writer) {
	return func(tw table.Writer) {
		tw.AppendHeader(table.Row{"ID", "Priority", "Status", "Assigned", "Lang", "Translation", "Title"})
		for _, r := range reps {
			assigned := ""
			if r.AssignedTo != nil {
				assigned = *r.AssignedTo
			}
			tw.AppendRow(table.Row{r.ID, r.Priority, r.Status(), assigned, r.OriginalLanguage, r.Translation, r.Title})
		}
	}
}

func optionalString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.DateTime)
}
