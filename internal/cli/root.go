// Package cli defines the llm-bridge command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "llm-bridge",
	Short: "Cross-protocol chat completion gateway",
	Long: `llm-bridge translates chat completion requests between OpenAI,
OpenRouter, Groq, Anthropic and Gemini wire formats, for both completed
responses and SSE streams.`,
	Run: func(c *cobra.Command, args []string) {
		serveCmd.Run(c, args)
	},
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ./config.yaml)")
}
