package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vprepair/internal/domain"
	"vprepair/internal/engine"
	"vprepair/internal/translate"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Submit and work on fault reports"}
	cmd.AddCommand(reportSubmitCmd())
	cmd.AddCommand(reportListCmd())
	cmd.AddCommand(reportShowCmd())
	cmd.AddCommand(reportAssignCmd())
	cmd.AddCommand(reportStartCmd())
	cmd.AddCommand(reportCompleteCmd())
	cmd.AddCommand(reportPriorityCmd())
	cmd.AddCommand(reportRetranslateCmd())
	cmd.AddCommand(reportEventsCmd())
	return cmd
}

func reportSubmitCmd() *cobra.Command {
	var sub engine.Submission
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a fault report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sub.ReporterID == "" {
				sub.ReporterID = viper.GetString("actor-id")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rep, res, err := e.SubmitReport(ctx, sub)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"report": rep, "translation_result": res})
				}
				printReport(rep)
				if !res.OK() {
					fmt.Printf("\n%s\n", res.Failure.Error())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sub.Description, "description", "", "fault description (required)")
	cmd.Flags().StringVar(&sub.SourceLanguage, "lang", "", "language of the description: da, en, de, pl (required)")
	cmd.Flags().StringVar(&sub.Title, "title", "", "short title (defaults to start of description)")
	cmd.Flags().StringVar(&sub.AssetRef, "asset", "", "asset id, VPID or QR payload")
	cmd.Flags().StringVar(&sub.Priority, "priority", "normal", "high, normal or low")
	cmd.Flags().StringVar(&sub.ImageRef, "image", "", "image reference")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("lang")
	return cmd
}

func reportListCmd() *cobra.Command {
	var status, assigned, asset string
	var open, failed bool
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := domain.ReportFilter{AssignedTo: assigned, AssetID: asset, OpenOnly: open, TranslationFailed: failed, Limit: limit}
			if status != "" {
				st, err := domain.ParseStatus(status)
				if err != nil {
					return err
				}
				f.Status = st
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				reps, err := e.ListReports(ctx, f)
				if err != nil {
					return err
				}
				return printJSONOrTable(reps, renderReports(reps))
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new, assigned, in_progress or completed")
	cmd.Flags().StringVar(&assigned, "assigned-to", "", "mechanic id")
	cmd.Flags().StringVar(&asset, "asset", "", "asset id")
	cmd.Flags().BoolVar(&open, "open", false, "only reports not completed")
	cmd.Flags().BoolVar(&failed, "translation-failed", false, "only reports whose translation failed")
	cmd.Flags().IntVar(&limit, "limit", 50, "max reports")
	return cmd
}

func reportShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rep, err := e.GetReport(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				printReport(rep)
				return nil
			})
		},
	}
}

func printReport(r domain.FaultReport) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendRows([]table.Row{
		{"ID", r.ID},
		{"Title", r.Title},
		{"Status", r.Status()},
		{"Priority", r.Priority},
		{"Original (" + string(r.OriginalLanguage) + ")", r.OriginalText},
		{"Translated (" + string(r.TargetLanguage) + ")", r.TranslatedText},
		{"Translation", r.Translation},
		{"Asset", optionalString(r.AssetID)},
		{"Assigned to", optionalString(r.AssignedTo)},
		{"Started", optionalTime(r.StartedAt)},
		{"Completed", optionalTime(r.CompletedAt)},
		{"Completed by", optionalString(r.CompletedBy)},
		{"Created", r.CreatedAt.Local().Format("2006-01-02 15:04:05")},
	})
	tw.Render()
}

func reportAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> <mechanic>",
		Short: "Assign a new report to a mechanic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflowStep(cmd, func(ctx context.Context, e engine.Engine) (domain.FaultReport, error) {
				return e.Assign(ctx, args[0], args[1], viper.GetString("actor-id"))
			})
		},
	}
}

func reportStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start work on an assigned report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflowStep(cmd, func(ctx context.Context, e engine.Engine) (domain.FaultReport, error) {
				return e.Start(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
}

func reportCompleteCmd() *cobra.Command {
	var mechanic string
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete an in-progress report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflowStep(cmd, func(ctx context.Context, e engine.Engine) (domain.FaultReport, error) {
				return e.Complete(ctx, args[0], mechanic)
			})
		},
	}
	cmd.Flags().StringVar(&mechanic, "by", "", "mechanic completing the repair (defaults to the assignee)")
	return cmd
}

func reportPriorityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "priority <id> <high|normal|low>",
		Short: "Change report priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflowStep(cmd, func(ctx context.Context, e engine.Engine) (domain.FaultReport, error) {
				return e.SetPriority(ctx, args[0], args[1], viper.GetString("actor-id"))
			})
		},
	}
}

func workflowStep(cmd *cobra.Command, fn func(context.Context, engine.Engine) (domain.FaultReport, error)) error {
	return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
		rep, err := fn(ctx, e)
		if err != nil {
			return err
		}
		if viper.GetBool("json") {
			return printJSON(rep)
		}
		fmt.Printf("%s: %s\n", rep.ID, rep.Status())
		return nil
	})
}

func reportRetranslateCmd() *cobra.Command {
	var failed bool
	var limit int
	cmd := &cobra.Command{
		Use:   "retranslate [id]",
		Short: "Translate stored original text again",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if failed == (len(args) == 1) {
				return fmt.Errorf("give a report id or --failed")
			}
			actor := viper.GetString("actor-id")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if failed {
					reps, err := e.RetranslateFailed(ctx, limit, actor)
					if perr := printJSONOrTable(reps, renderReports(reps)); perr != nil {
						return perr
					}
					return err
				}
				rep, res, err := e.Retranslate(ctx, args[0], actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"report": rep, "translation_result": res})
				}
				fmt.Printf("%s: %s\n%s\n", rep.ID, res.Outcome, rep.TranslatedText)
				if res.Outcome == translate.OutcomeFailed {
					fmt.Println(res.Failure.Error())
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&failed, "failed", false, "retry every report whose translation failed")
	cmd.Flags().IntVar(&limit, "limit", 0, "max reports with --failed (0 = all)")
	return cmd
}

func reportEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events <id>",
		Short: "Show the history of a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				evts, err := e.ReportEvents(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(evts, renderEvents(evts))
			})
		},
	}
}

func queueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue <mechanic>",
		Short: "Open reports for a mechanic, most urgent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				reps, err := e.OpenReportsFor(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(reps, renderReports(reps))
			})
		},
	}
}
