package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ticketferry/ticketferry/pkg/config"
	"github.com/ticketferry/ticketferry/pkg/connector"
	"github.com/ticketferry/ticketferry/pkg/connector/zendesk"
	"github.com/ticketferry/ticketferry/pkg/export"
	"github.com/ticketferry/ticketferry/pkg/logger"
	"github.com/ticketferry/ticketferry/pkg/syncer"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	root := &cobra.Command{
		Use:   "ticketferry",
		Short: "Ticketferry - helpdesk data export and sync tool",
		Long: `Ticketferry extracts tickets, conversations, people and knowledge base
content from helpdesk platforms and writes them as canonical JSONL files,
ready for import elsewhere.`,
	}

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Ticketferry v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// Sources command to show supported platforms
	root.AddCommand(&cobra.Command{
		Use:   "sources",
		Short: "List supported helpdesk sources",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Supported sources:")
			for _, source := range connector.Sources() {
				fmt.Printf("  - %s\n", source)
			}
		},
	})

	root.AddCommand(newVerifyCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newSyncCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newVerifyCmd checks that the configured credentials reach the source.
func newVerifyCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify source credentials without exporting anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(configFile)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			conn, err := connector.New(cfg, log)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			result, err := conn.Verify(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Source:  %s\n", result.Source)
			if result.Account != "" {
				fmt.Printf("Account: %s\n", result.Account)
			}
			if result.User != "" {
				fmt.Printf("User:    %s\n", result.User)
			}
			for k, v := range result.Details {
				fmt.Printf("%s: %s\n", k, v)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to job configuration file (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// newExportCmd runs a full export.
func newExportCmd() *cobra.Command {
	var configFile, outputDir string
	var resources []string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a source to canonical JSONL files",
		Long: `Export runs every resource pass for the configured source and writes
tickets.jsonl, messages.jsonl, customers.jsonl, organizations.jsonl,
kb_articles.jsonl, rules.jsonl and a manifest.json into the output
directory. Re-running against the same directory overwrites the prior
run.

Example:
  ticketferry export --config zendesk.yaml --output ./export`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(configFile)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if len(resources) > 0 {
				cfg.Resources = resources
			}

			conn, err := connector.New(cfg, log)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			report, err := export.New(conn, cfg, log).Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Export of %s finished in %s\n", report.Source, report.Duration)
			fmt.Printf("  tickets:       %d\n", report.Counts.Tickets)
			fmt.Printf("  messages:      %d\n", report.Counts.Messages)
			fmt.Printf("  customers:     %d\n", report.Counts.Customers)
			fmt.Printf("  organizations: %d\n", report.Counts.Organizations)
			fmt.Printf("  kb articles:   %d\n", report.Counts.KBArticles)
			fmt.Printf("  rules:         %d\n", report.Counts.Rules)
			fmt.Printf("Manifest: %s\n", report.ManifestPath)
			for _, w := range report.Warnings {
				if w.Ref != "" {
					fmt.Printf("Warning (%s %s): %s\n", w.Resource, w.Ref, w.Message)
				} else {
					fmt.Printf("Warning (%s): %s\n", w.Resource, w.Message)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to job configuration file (required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (overrides config)")
	cmd.Flags().StringSliceVar(&resources, "resources", nil, "Restrict export to these resources (e.g. tickets,messages)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// newSyncCmd fetches one ticket with everything attached to it and lands
// the bundle in the output directory. Zendesk only.
func newSyncCmd() *cobra.Command {
	var configFile, ticketID, tenant, workspace, eventFile, outputDir string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync a single ticket and its related entities",
		Long: `Sync fetches one ticket, its full conversation, every person it touches
and its organization, group, brand and form references, then writes the
bundle under <output>/bundles/. The raw event payload, when given, is
recorded in <output>/events.jsonl before any fetching starts.

Example:
  ticketferry sync --config zendesk.yaml --ticket-id 12345 --tenant acme`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(configFile)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cfg.Source != "zendesk" {
				return fmt.Errorf("sync supports zendesk only, config names %q", cfg.Source)
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			var rawEvent []byte
			if eventFile != "" {
				rawEvent, err = os.ReadFile(eventFile)
				if err != nil {
					return fmt.Errorf("failed to read event file: %w", err)
				}
			}

			source, err := zendesk.New(cfg, log)
			if err != nil {
				return err
			}
			ingestor, err := syncer.NewFileIngestor(cfg.OutputDir)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			bundle, err := syncer.New(source, ingestor, log).SyncTicketByID(ctx, &syncer.Request{
				Tenant:    tenant,
				Workspace: workspace,
				TicketID:  ticketID,
				RawEvent:  rawEvent,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Synced ticket %s: %d messages, %d users\n",
				bundle.Ticket.ID, len(bundle.Messages), len(bundle.Users))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to job configuration file (required)")
	cmd.Flags().StringVar(&ticketID, "ticket-id", "", "External ID of the ticket to sync (required)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant the bundle belongs to")
	cmd.Flags().StringVar(&workspace, "workspace", "", "Workspace within the tenant")
	cmd.Flags().StringVar(&eventFile, "event-file", "", "Path to a raw webhook payload to record as the audit event")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (overrides config)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("ticket-id")
	return cmd
}

// setup loads the job config and initializes the global logger at the
// configured level.
func setup(configFile string) (*config.JobConfig, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}
	if err := logger.Init(logger.Config{Level: level, Encoding: "json"}); err != nil {
		return nil, nil, err
	}
	return cfg, logger.Get(), nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
