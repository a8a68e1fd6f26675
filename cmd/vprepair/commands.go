package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vprepair/internal/config"
	"vprepair/internal/domain"
	"vprepair/internal/engine"
	"vprepair/internal/server"
	"vprepair/internal/translate"
)

func assetCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "asset", Short: "Manage machines reports can point at"}
	cmd.AddCommand(assetAddCmd())
	cmd.AddCommand(assetListCmd())
	cmd.AddCommand(assetShowCmd())
	return cmd
}

func assetAddCmd() *cobra.Command {
	var opts engine.AssetCreateOptions
	cmd := &cobra.Command{
		Use:   "add <vpid> <name>",
		Short: "Register an asset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.VPID, opts.Name = args[0], args[1]
			opts.ActorID = viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.CreateAsset(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a, renderAssets([]domain.Asset{a}))
			})
		},
	}
	cmd.Flags().StringVar(&opts.Category, "category", "", "asset category")
	cmd.Flags().StringVar(&opts.Location, "location", "", "where the asset is")
	return cmd
}

func assetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				assets, err := e.ListAssets(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(assets, renderAssets(assets))
			})
		},
	}
}

func assetShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|vpid|qr>",
		Short: "Show an asset and its label payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.ResolveAsset(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"asset": a, "qr_payload": domain.QRPayload(a.VPID)})
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendRows([]table.Row{
					{"ID", a.ID},
					{"VPID", a.VPID},
					{"Name", a.Name},
					{"Category", a.Category},
					{"Location", a.Location},
					{"QR payload", domain.QRPayload(a.VPID)},
				})
				tw.Render()
				return nil
			})
		},
	}
}

func renderAssets(assets []domain.Asset) func(table.Writer) {
	return func(tw table.Writer) {
		tw.AppendHeader(table.Row{"ID", "VPID", "Name", "Category", "Location"})
		for _, a := range assets {
			tw.AppendRow(table.Row{a.ID, a.VPID, a.Name, a.Category, a.Location})
		}
	}
}

func translateCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Preview a translation without storing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.Translate(ctx, args[0], from, to)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Println(res.Text)
				if res.Outcome == translate.OutcomeFailed {
					fmt.Fprintln(os.Stderr, res.Failure.Error())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "source language (required)")
	cmd.Flags().StringVar(&to, "to", "", "target language (defaults to the workshop language)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "models", Short: "Inspect translation providers"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List installed language pairs per provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				pairs, err := e.Models(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(pairs, func(tw table.Writer) {
					tw.AppendHeader(table.Row{"Provider", "From", "To", "Engine", "Name"})
					names := make([]string, 0, len(pairs))
					for name := range pairs {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						for _, p := range pairs[name] {
							tw.AppendRow(table.Row{name, p.Source, p.Target, p.Engine, p.Name})
						}
					}
				})
			})
		},
	})
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Event log"}
	var limit int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				evts, err := e.Events(ctx, limit)
				if err != nil {
					return err
				}
				return printJSONOrTable(evts, renderEvents(evts))
			})
		},
	}
	tail.Flags().IntVar(&limit, "limit", 20, "max events")
	cmd.AddCommand(tail)
	return cmd
}

func renderEvents(evts []domain.Event) func(table.Writer) {
	return func(tw table.Writer) {
		tw.AppendHeader(table.Row{"ID", "Time", "Type", "Entity", "Actor", "Payload"})
		for _, ev := range evts {
			tw.AppendRow(table.Row{ev.ID, ev.TS.Local().Format(time.DateTime), ev.Type, ev.EntityKind + ":" + ev.EntityID, ev.ActorID, ev.Payload})
		}
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Count reports per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				counts, err := e.Stats(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(counts, func(tw table.Writer) {
					tw.AppendHeader(table.Row{"Status", "Reports"})
					for _, st := range []domain.Status{domain.StatusNew, domain.StatusAssigned, domain.StatusInProgress, domain.StatusCompleted} {
						tw.AppendRow(table.Row{st, counts[st]})
					}
				})
			})
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Config helpers"}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("config")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate config and environment overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cfg)
			}
			fmt.Printf("ok: driver=%s target=%s pivot=%s providers=%v\n",
				cfg.Database.Driver, cfg.Translation.Target, cfg.Translation.Pivot, cfg.Translation.Providers)
			return nil
		},
	})
	return cmd
}

func tokenCmd() *cobra.Command {
	var roles []string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <actor>",
		Short: "Issue a bearer token for the HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("VPREPAIR_JWT_SECRET is required")
			}
			claims := jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())}
			if ttl > 0 {
				claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
			}
			tok, err := server.IssueToken(cfg.Auth.JWTSecret, args[0], roles, claims)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to grant, e.g. supervisor (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime (0 = no expiry)")
	return cmd
}
