package cmd

import (
	"github.com/marketintel/crawler/cmd/crawlcmd"
	"github.com/marketintel/crawler/cmd/statscmd"
	"github.com/marketintel/crawler/version"
	"github.com/spf13/cobra"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "run a full catalog crawl.",
	Long:  "run a full catalog crawl.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		crawlcmd.Run(configPath)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "report aggregates over a crawled database.",
	Long:  "report aggregates over a crawled database.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		statscmd.Run(dbPath, topN)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version.",
	Long:  "print version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version.Printer()
	},
}

func Execute() {
	var rootCmd = &cobra.Command{
		Use: "crawler",
	}
	rootCmd.AddCommand(crawlCmd, statsCmd, versionCmd)
	rootCmd.Execute()
}

var configPath string
var dbPath string
var topN int

func init() {
	crawlCmd.Flags().StringVar(&configPath, "config", "config.toml", "set crawl config file path")
	statsCmd.Flags().StringVar(&dbPath, "db", "books.db", "set database path")
	statsCmd.Flags().IntVar(&topN, "top", 10, "set size of the opportunity ranking")
}
