package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cafecerca",
		Short: "Find cafes near a Mar del Plata address and rank them by votes",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(searchCmd())
	root.AddCommand(voteCmd())
	root.AddCommand(rankingCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func searchCmd() *cobra.Command {
	var (
		address    string
		radiusKM   float64
		roaster    string
		minScore   float64
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Geocode an address and list cafes within a radius",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(address, radiusKM, roaster, minScore, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "street address to search from (required)")
	cmd.Flags().Float64Var(&radiusKM, "radius", 0, "radius in km (default: from config)")
	cmd.Flags().StringVar(&roaster, "roaster", "", "only cafes with this roaster")
	cmd.Flags().Float64Var(&minScore, "min-score", -1, "minimum cafe score")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.MarkFlagRequired("address")
	return cmd
}

func voteCmd() *cobra.Command {
	var (
		voterID string
		cafe    string
		score   float64
	)

	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Record a 1-10 vote for a cafe",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVote(voterID, cafe, score)
		},
	}

	cmd.Flags().StringVar(&voterID, "voter", "", "voter identity (default: random)")
	cmd.Flags().StringVar(&cafe, "cafe", "", "cafe name (required)")
	cmd.Flags().Float64Var(&score, "score", 0, "score 1-10 (required)")
	cmd.MarkFlagRequired("cafe")
	cmd.MarkFlagRequired("score")
	return cmd
}

func rankingCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Show the vote ranking across all cafes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRanking(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the cafe dataset and report coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck()
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, false)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with catalog refresh and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, true)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
