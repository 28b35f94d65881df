package main

import (
	"fmt"

	"github.com/kronroe-db/kronroe"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func openGraph(cmd *cobra.Command) (*kronroe.TemporalGraph, error) {
	cfg, err := kronroe.LoadCLIConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	dbFlag, _ := cmd.Flags().GetString("db")
	path := cfg.DBPath
	if dbFlag != "" {
		path = dbFlag
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmdErrWriter}).With().Timestamp().Logger()

	return kronroe.Open(path, kronroe.Config{
		Features: cfg.EngineFeatures(),
		Logger:   logger,
	})
}

func fmtFact(f kronroe.Fact) string {
	status := "current"
	if !f.Current() {
		status = "superseded"
	}
	if !f.Active() {
		status += ", invalidated"
	}
	return fmt.Sprintf("%s  %s %s %s  (valid_from=%s, confidence=%.2f, %s)",
		f.ID, f.Subject, f.Predicate, f.Object.String(),
		f.ValidFrom.Format("2006-01-02T15:04:05Z"), f.Confidence, status)
}
