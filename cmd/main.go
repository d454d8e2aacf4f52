package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/xhad/advisor/internal/models"
	"github.com/xhad/advisor/internal/types"
	"github.com/xhad/advisor/pkg/catalog"
	"github.com/xhad/advisor/pkg/config"
	"github.com/xhad/advisor/pkg/llm"
	"github.com/xhad/advisor/pkg/processor"
	"github.com/xhad/advisor/pkg/profile"
	"github.com/xhad/advisor/pkg/retrieval"
	"github.com/xhad/advisor/pkg/store"
	"github.com/xhad/advisor/server"
)

func main() {
	var (
		configPath string
		serve      bool
		ingestURL  string
		userID     string
	)

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.BoolVar(&serve, "serve", false, "Run the HTTP/WebSocket server instead of the CLI")
	flag.StringVar(&ingestURL, "ingest-url", "", "Crawl this URL into the knowledge base before starting")
	flag.StringVar(&userID, "user", "cli", "Profile identifier for this session")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %s: %s", e.Field, e.Message)
		}
		os.Exit(1)
	}

	if serve {
		if err := server.Run(cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := run(cfg, ingestURL, userID); err != nil {
		log.Fatal(err)
	}
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(cfg *config.Config, ingestURL, userID string) error {
	ctx := context.Background()

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	docs := catalog.New()

	var vector types.Retriever
	if cfg.Database.URL != "" {
		embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			BaseURL: cfg.LLM.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize embedder: %v", err)
		}

		vectorStore, err := store.NewVectorStore(store.VectorStoreConfig{
			ConnString: cfg.Database.URL,
			TableName:  cfg.Database.TableName,
			VectorDim:  cfg.Database.VectorDim,
			BatchSize:  cfg.Database.BatchSize,
			Embedder:   embedder,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize vector store: %v", err)
		}
		defer vectorStore.Close()
		vector = vectorStore

		if ingestURL != "" {
			if err := ingest(ctx, cfg, ingestURL, docs, vectorStore); err != nil {
				return err
			}
		}
	} else if ingestURL != "" {
		// No database: ingested pages still join the in-memory catalog.
		if err := ingest(ctx, cfg, ingestURL, docs, nil); err != nil {
			return err
		}
	}

	retriever := retrieval.NewService(retrieval.ServiceConfig{
		Vector:    vector,
		Source:    docs,
		Limit:     cfg.Retrieval.Limit,
		Threshold: cfg.Retrieval.Threshold,
	})

	profiles := store.NewMemoryStore()
	extractorCfg := profile.ExtractorConfig{
		PreferencesCap:  cfg.Profile.PreferencesCap,
		ExpectationsCap: cfg.Profile.ExpectationsCap,
	}

	color.Cyan("\nFinancial advisory chat (type 'exit' to quit, 'profile' to review, 'reset' to start over)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "":
			continue
		case "exit":
			return nil
		case "profile":
			printProfile(ctx, profiles, userID)
			continue
		case "reset":
			if err := profiles.Set(ctx, userID, profile.Empty()); err != nil {
				color.Red("Error resetting profile: %v\n", err)
			} else {
				color.Yellow("Profile cleared.\n")
			}
			continue
		}

		current := loadProfile(ctx, profiles, userID)
		updates := profile.ExtractUpdatesWithConfig(query, current, extractorCfg)
		updated := profile.ApplyWithThreshold(current, updates, cfg.Profile.ApplyThreshold)
		if err := profiles.Set(ctx, userID, updated); err != nil {
			color.Red("Error saving profile: %v\n", err)
		}

		for _, u := range updates {
			if u.Confidence > cfg.Profile.ApplyThreshold {
				color.Yellow("  noted %s (%.0f%% confident)\n", u.Field, u.Confidence*100)
			}
		}

		querySpinner := getSpinner("Searching knowledge base...")
		ranked := retriever.RetrieveForProfile(ctx, query, &updated, 0)
		querySpinner.Finish()
		fmt.Print("\r")

		docContext := retrieval.FormatAsContext(ranked)
		summary := retrieval.ProfileBlock(&updated)
		if summary != "" {
			summary += "\n\n"
		}
		summary += profile.Summarize(updated)

		if cfg.UI.Streaming {
			stream, err := chatEngine.ChatStream(ctx, query, docContext, summary)
			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}

			fmt.Print("\n")
			assistantPrompt("Advisor: ")
			for chunk := range stream {
				fmt.Print(chunk)
			}
			fmt.Print("\n")
		} else {
			responseSpinner := getSpinner("Generating response...")
			response, err := chatEngine.Chat(ctx, query, docContext, summary)
			responseSpinner.Finish()
			fmt.Print("\r")

			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}
			assistantPrompt("Advisor: %s\n", response)
		}

		if len(ranked) > 0 {
			color.Blue("\nSources:")
			for _, src := range retrieval.ToChatSources(ranked) {
				color.Blue("  - %s (%.2f)", src.Title, src.Relevancy)
			}
			fmt.Println()
		}

		color.Yellow("Profile %d%% complete\n", profile.CompletionPercentage(updated))
	}

	return nil
}

func ingest(ctx context.Context, cfg *config.Config, startURL string, docs *catalog.Catalog, vectorStore *store.VectorStore) error {
	color.Blue("\nIngesting %s\n", startURL)

	var crawledCount int32
	ingester, err := catalog.NewIngester(catalog.IngesterConfig{
		BaseURL:           startURL,
		MaxDepth:          cfg.Ingest.MaxDepth,
		RateLimit:         cfg.Ingest.RateLimit,
		IgnorePatterns:    cfg.Ingest.IgnorePatterns,
		AllowedExtensions: cfg.Ingest.AllowedExtensions,
		OnProgress: func(url string) {
			atomic.AddInt32(&crawledCount, 1)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize ingester: %v", err)
	}

	crawlBar := getProgressBar(-1, "Crawling pages...")
	startTime := time.Now()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			count := atomic.LoadInt32(&crawledCount)
			crawlBar.Set(int(count))
			elapsed := time.Since(startTime).Seconds()
			if elapsed > 0 && count > 0 {
				crawlBar.Describe(color.BlueString(
					"Crawling pages... (%.1f pages/sec)", float64(count)/elapsed))
			}
			time.Sleep(100 * time.Millisecond)
		}
	}()

	crawled, err := ingester.Ingest(ctx, startURL)
	close(done)
	crawlBar.Finish()
	if err != nil {
		return fmt.Errorf("failed to ingest documents: %v", err)
	}
	color.Green("\nIngested %d documents\n", len(crawled))

	for _, doc := range crawled {
		docs.Add(doc)
	}

	if vectorStore == nil {
		return nil
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{})
	processed, err := proc.Process(crawled)
	if err != nil {
		return fmt.Errorf("failed to process documents: %v", err)
	}

	storageBar := getProgressBar(len(processed), "Indexing in vector database...")
	batchSize := cfg.Database.BatchSize
	for i := 0; i < len(processed); i += batchSize {
		end := i + batchSize
		if end > len(processed) {
			end = len(processed)
		}
		batch := processed[i:end]

		if err := vectorStore.Index(ctx, batch); err != nil {
			return fmt.Errorf("failed to index batch: %v", err)
		}
		storageBar.Add(len(batch))
	}
	color.Green("\nIndexing complete\n")

	return nil
}

func loadProfile(ctx context.Context, profiles types.ProfileStore, userID string) models.ClientProfile {
	p, err := profiles.Get(ctx, userID)
	if err != nil || p == nil {
		return profile.Empty()
	}
	return *p
}

func printProfile(ctx context.Context, profiles types.ProfileStore, userID string) {
	p := loadProfile(ctx, profiles, userID)

	block := retrieval.ProfileBlock(&p)
	if block == "" {
		color.Yellow("Nothing on file yet. Tell me about your goals to get started.\n")
		return
	}

	fmt.Println(block)
	color.Yellow("\n%d%% complete", profile.CompletionPercentage(p))
	if missing := profile.MissingFields(p); len(missing) > 0 {
		color.Yellow("Still needed: %s\n", strings.Join(missing, ", "))
	}
}
