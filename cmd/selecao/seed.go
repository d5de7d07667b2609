package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"selecao/internal/seed"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the document store with selection processes",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "YAML file with process definitions, defaults to the bundled set",
		},
		&cli.BoolFlag{
			Name:  "prune",
			Usage: "Delete processes missing from the definitions when they have no applications",
		},
		&cli.IntFlag{
			Name:  "fake-applications",
			Usage: "Number of fake applications to add to every process",
			Value: 0,
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Remove previously seeded fake applications first",
		},
	},
	Action: func(c *cli.Context) error {
		logger := logrus.New()

		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		ds, closeStore, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		repos := newRepositories(ds)

		definitions, err := seed.LoadProcesses(c.String("file"))
		if err != nil {
			return err
		}

		logger.Info("Seeding processes...")
		result, err := seed.SeedProcesses(ctx, repos.processes, definitions, c.Bool("prune"))
		if err != nil {
			return fmt.Errorf("failed to seed processes: %w", err)
		}

		if len(result.Kept) > 0 {
			logger.WithField("processes", result.Kept).Warn("kept processes that still hold applications")
		}

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		added, err := seed.SeedFakeApplications(
			ctx,
			repos.processes,
			repos.applications,
			cfg.ResearchAreas,
			c.Int("fake-applications"),
			c.Bool("reset"),
			rng,
		)
		if err != nil {
			return fmt.Errorf("failed to seed fake applications: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"created":      result.Created,
			"updated":      result.Updated,
			"deleted":      result.Deleted,
			"applications": added,
		}).Info("seed complete")

		return nil
	},
}
