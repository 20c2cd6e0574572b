package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EnricoHuber/home-chatbot/internal/config"
	"github.com/EnricoHuber/home-chatbot/internal/service"
)

func KnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the knowledge base",
		Long:  "Add, delete and inspect knowledge items",
	}

	cmd.AddCommand(KnowledgeAddCmd())
	cmd.AddCommand(KnowledgeDeleteCmd())
	cmd.AddCommand(KnowledgeStatsCmd())
	cmd.AddCommand(KnowledgeSeedCmd())

	return cmd
}

func KnowledgeAddCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a knowledge item",
		Long:  "Embed the given text and store it in the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runKnowledgeAdd(args[0], category, outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category (pulizia, utenze, manutenzione, casa, generale)")

	return cmd
}

func runKnowledgeAdd(text, category, outputFormat string) error {
	ctx := context.Background()

	ingestor, cleanup, err := buildIngestor(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	item, err := ingestor.Ingest(ctx, text, category)
	if err != nil {
		return fmt.Errorf("failed to add knowledge: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":         item.ID,
			"category":   item.Category,
			"created_at": item.CreatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Knowledge item added: %s (%s)\n", item.ID, item.Category)
	}

	return nil
}

func KnowledgeDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a knowledge item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKnowledgeDelete(args[0])
		},
	}

	return cmd
}

func runKnowledgeDelete(id string) error {
	ctx := context.Background()

	ingestor, cleanup, err := buildIngestor(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := ingestor.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete knowledge item: %w", err)
	}

	fmt.Printf("Knowledge item deleted: %s\n", id)
	return nil
}

func KnowledgeStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runKnowledgeStats(outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runKnowledgeStats(outputFormat string) error {
	ctx := context.Background()

	ingestor, cleanup, err := buildIngestor(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := ingestor.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Knowledge items: %d\n", stats.Total)
		for category, count := range stats.Categories {
			fmt.Printf("  %s: %d\n", category, count)
		}
	}

	return nil
}

func KnowledgeSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the base knowledge into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKnowledgeSeed()
		},
	}

	return cmd
}

func runKnowledgeSeed() error {
	ctx := context.Background()

	ingestor, cleanup, err := buildIngestor(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := service.SeedBaseKnowledge(ctx, ingestor, nil); err != nil {
		return fmt.Errorf("failed to seed base knowledge: %w", err)
	}

	fmt.Println("Base knowledge seeded")
	return nil
}

// buildIngestor wires an Ingestor against the configured store. The returned
// cleanup closes the store when it supports closing.
func buildIngestor(ctx context.Context) (*service.Ingestor, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { st.Close() }

	ingestor := service.NewIngestor(newEmbedder(cfg), st, nil, nil)
	return ingestor, cleanup, nil
}
