package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yungbote/imtrack-backend/internal/app"
	"github.com/yungbote/imtrack-backend/internal/modules/certificates"
	"github.com/yungbote/imtrack-backend/internal/modules/materials"
	"github.com/yungbote/imtrack-backend/internal/platform/logger"
	"github.com/yungbote/imtrack-backend/internal/services"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "imctl",
		Short:         "Maintenance commands for the instructional materials tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (env vars override it)")
	root.AddCommand(
		newBackfillCmd(opts),
		newAnalyzeCmd(),
		newReissueCmd(opts),
		newRemindCmd(opts),
	)
	return root
}

// withApp boots the application without the HTTP surface.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := app.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newBackfillCmd(opts *rootOptions) *cobra.Command {
	var bf certificates.BackfillOptions
	cmd := &cobra.Command{
		Use:   "backfill-pdfs",
		Short: "Convert certificates that were issued without a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				rep, err := a.Certificates.BackfillPDFs(ctx, bf)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().IntVar(&bf.Limit, "limit", 0, "maximum certificates to process (0 = all)")
	cmd.Flags().BoolVar(&bf.DryRun, "dry-run", false, "list pending certificates without converting")
	return cmd
}

type analyzeOutput struct {
	File  string `json:"file"`
	Notes string `json:"notes"`
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Report which required sections a document is missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer := services.NewSectionAnalyzer(logger.Nop())
			notes := analyzer.Analyze(cmd.Context(), args[0])
			return printJSON(cmd.OutOrStdout(), analyzeOutput{File: args[0], Notes: notes})
		},
	}
}

func newReissueCmd(opts *rootOptions) *cobra.Command {
	var materialID, userID uint
	cmd := &cobra.Command{
		Use:   "reissue",
		Short: "Issue a replacement certificate for one author of a material",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if materialID == 0 || userID == 0 {
				return fmt.Errorf("--material and --user are required")
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				res, err := a.Certificates.Reissue(ctx, materialID, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().UintVar(&materialID, "material", 0, "instructional material id")
	cmd.Flags().UintVar(&userID, "user", 0, "author user id")
	return cmd
}

func newRemindCmd(opts *rootOptions) *cobra.Command {
	var ro materials.RemindOptions
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Mail deadline and past-due reminders for missing documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				rep, err := a.Materials.Remind(ctx, ro)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().IntVar(&ro.WithinDays, "within", 3, "days ahead to include")
	cmd.Flags().BoolVar(&ro.DryRun, "dry-run", false, "count without sending")
	return cmd
}
