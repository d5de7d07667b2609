package main

import (
	"context"
	"fmt"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var processCommand = &cli.Command{
	Name:  "process",
	Usage: "Inspect selection processes in the document store",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List processes and whether registration is open",
			Action: func(c *cli.Context) error {
				ctx := context.Background()
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}

				ds, closeStore, err := openStore(ctx, cfg, logrus.New())
				if err != nil {
					return err
				}
				defer closeStore()

				location, err := time.LoadLocation(cfg.Timezone)
				if err != nil {
					return fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
				}

				repos := newRepositories(ds)
				active, err := repos.processes.ActiveProcesses(ctx, time.Now().In(location))
				if err != nil {
					return err
				}

				open := make(map[string]bool, len(active))
				for _, p := range active {
					open[p.ID] = true
				}

				processes, err := repos.processes.Processes(ctx)
				if err != nil {
					return err
				}

				for _, p := range processes {
					state := "closed"
					if open[p.ID] {
						state = "open"
					}
					fmt.Printf("%-40s %s..%s  %s\n", p.ID, p.StartDate, p.EndDate, state)
				}
				return nil
			},
		},
		{
			Name:      "show",
			Usage:     "Dump a process with its applications and news",
			ArgsUsage: "<process id>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return fmt.Errorf("expected exactly one process id")
				}
				id := c.Args().First()

				ctx := context.Background()
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}

				ds, closeStore, err := openStore(ctx, cfg, logrus.New())
				if err != nil {
					return err
				}
				defer closeStore()

				repos := newRepositories(ds)
				process, err := repos.processes.Process(ctx, id)
				if err != nil {
					return err
				}

				applications, err := repos.applications.Applications(ctx, id)
				if err != nil {
					return err
				}

				news, err := repos.news.NewsByProcess(ctx, id)
				if err != nil {
					return err
				}

				pp.Println(process)
				fmt.Printf("%d applications\n", len(applications))
				for _, a := range applications {
					fmt.Printf("  %s  %s\n", a.ID, a.Status)
				}
				pp.Println(news)
				return nil
			},
		},
	},
}
