package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tributary-io/tributary"
)

func newRootCmd() *cobra.Command {
	var (
		catalogLocation string
		eventLocation   string
		outputLocation  string
		maxConcurrency  int
		verbose         bool
	)

	rootCmd := &cobra.Command{
		Use:   "tributary",
		Short: "tributary - batch ETL from raw catalog/event JSON to partitioned Parquet",
		Long: `tributary reads semi-structured catalog and playback-event records,
reshapes them into five analytics relations (items, producers, actors,
time, play_facts) and writes them back out as partitioned Parquet files,
locally or on S3. Locations default to the tributaryrc settings file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			options := []tributary.Option{tributary.WithVerbose(verbose)}
			if catalogLocation != "" {
				options = append(options, tributary.WithCatalogLocation(catalogLocation))
			}
			if eventLocation != "" {
				options = append(options, tributary.WithEventLocation(eventLocation))
			}
			if outputLocation != "" {
				options = append(options, tributary.WithOutputLocation(outputLocation))
			}
			if maxConcurrency > 0 {
				options = append(options, tributary.WithMaxConcurrency(maxConcurrency))
			}

			driver, err := tributary.NewDriver(options...)
			if err != nil {
				return err
			}
			driver.Main()
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&catalogLocation, "catalog", "", "base location of raw catalog records")
	flags.StringVar(&eventLocation, "events", "", "base location of raw event records")
	flags.StringVarP(&outputLocation, "output", "o", "", "base location derived relations are written under")
	flags.IntVar(&maxConcurrency, "max-concurrency", 0, "maximum concurrently written partition files")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return rootCmd
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
