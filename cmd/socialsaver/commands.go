package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"socialsaver/internal/bootstrap"
	"socialsaver/internal/classifier"
	"socialsaver/internal/domain"
	"socialsaver/internal/pipeline"
	"socialsaver/internal/scraper"
	"socialsaver/internal/storage"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the WhatsApp webhook and the Telegram bot",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"env":         cfg.Env,
		"database":    cfg.Database.URL,
		"ai_provider": cfg.AI.Provider,
		"scraper":     cfg.Scraper.Backend,
		"telegram":    cfg.Telegram.BotToken != "",
	}).Info("Configuration loaded successfully")

	app, err := bootstrap.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing store...")
		if err := app.Close(); err != nil {
			log.WithError(err).Error("Error closing store")
		}
	}()

	log.Info("Social Saver is running. Press Ctrl+C to exit.")
	if err := app.Run(cmd.Context()); err != nil {
		return err
	}
	log.Info("Social Saver shut down gracefully.")
	return nil
}

// extractResult is what the extract command prints.
type extractResult struct {
	Platform     domain.Platform `json:"platform"`
	URL          string          `json:"url"`
	PostID       string          `json:"post_id,omitempty"`
	Caption      string          `json:"caption"`
	Title        string          `json:"title,omitempty"`
	Hashtags     []string        `json:"hashtags"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
	Category     domain.Category `json:"category,omitempty"`
	Summary      string          `json:"summary,omitempty"`
}

func extractCommand() *cobra.Command {
	var skipAI bool
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Scrape and classify one link without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			log.SetOutput(os.Stderr)

			scraperSvc := scraper.NewService(bootstrap.NewFetcher(cfg.Scraper, log), log)
			var classifierSvc classifier.Classifier
			if !skipAI {
				completer, err := bootstrap.NewCompleter(cmd.Context(), cfg.AI)
				if err != nil {
					return err
				}
				classifierSvc = classifier.NewService(completer, classifier.Options{
					MaxTokens:   cfg.AI.MaxTokens,
					Temperature: &cfg.AI.Temperature,
				}, nil, log)
			}

			res, err := extractLink(cmd.Context(), scraperSvc, classifierSvc, args[0], log)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().BoolVar(&skipAI, "no-ai", false, "skip classification")
	return cmd
}

// capturingScraper keeps the last metadata it returned.
type capturingScraper struct {
	scraper.Scraper
	md scraper.Metadata
}

func (c *capturingScraper) Extract(ctx context.Context, rawURL string) scraper.Metadata {
	c.md = c.Scraper.Extract(ctx, rawURL)
	return c.md
}

// extractLink scrapes rawURL and, when c is set, classifies it the same way
// ingestion would, without saving anything.
func extractLink(ctx context.Context, s scraper.Scraper, c classifier.Classifier, rawURL string, log logrus.FieldLogger) (extractResult, error) {
	link, ok := pipeline.ExtractURL(rawURL)
	if !ok {
		return extractResult{}, fmt.Errorf("not an http(s) link: %q", rawURL)
	}
	link = pipeline.StripQuery(link)

	var md scraper.Metadata
	var record *domain.SavedContent
	if c == nil {
		md = s.Extract(ctx, link)
	} else {
		capture := &capturingScraper{Scraper: s}
		out := pipeline.New(capture, c, nil, nil, log).Process(ctx, "cli", link)
		md, record = capture.md, out.Record
	}

	res := extractResult{
		Platform:     md.Platform,
		URL:          md.URL,
		PostID:       md.PostID,
		Caption:      md.Caption,
		Title:        md.Title,
		Hashtags:     md.Hashtags,
		ThumbnailURL: md.ThumbnailURL,
	}
	if record != nil {
		res.Caption = record.Caption
		res.Category = record.Category
		res.Summary = record.Summary
	}
	return res, nil
}

func listCommand() *cobra.Command {
	var (
		limit    int
		archived bool
	)
	cmd := &cobra.Command{
		Use:   "list <user_id>",
		Short: "Print a user's newest saved links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			log.SetOutput(os.Stderr)

			store, err := storage.Open(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.List(cmd.Context(), storage.ListQuery{UserID: args[0], Limit: limit, Archived: archived})
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No saved content for %s\n", args[0])
				return nil
			}
			renderTable(cmd, items)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")
	cmd.Flags().BoolVar(&archived, "archived", false, "show archived records instead")
	return cmd
}

func renderTable(cmd *cobra.Command, items []domain.SavedContent) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Saved", "Platform", "Category", "Title / URL", "Summary"})
	for _, c := range items {
		label := c.Title
		if label == "" {
			label = c.OriginalURL
		}
		t.AppendRow(table.Row{
			c.ID,
			c.CreatedAt.Local().Format("2006-01-02 15:04"),
			c.Platform,
			c.Category,
			truncate(label, 60),
			truncate(c.Summary, 80),
		})
	}
	t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
