package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EnricoHuber/home-chatbot/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "homechatd",
		Short: "Home chatbot daemon and CLI",
		Long:  "Home assistant chatbot daemon for running the API server and managing the knowledge base",
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.KnowledgeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
