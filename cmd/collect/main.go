package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/LJTian/BizPlanner/internal/aggregator"
	"github.com/LJTian/BizPlanner/internal/collector"
	"github.com/LJTian/BizPlanner/internal/processor"
)

// 只执行一次抓取并把摘要打印到标准输出，适合手动检查订阅源
func main() {
	app := &cli.App{
		Name:  "collect",
		Usage: "Fetch all news feeds once and print the digest as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "feeds",
				Aliases: []string{"f"},
				Usage:   "TOML file with [[feeds]] entries, built-in list when empty",
				EnvVars: []string{"FEEDS_FILE"},
			},
			&cli.StringFlag{
				Name:    "order",
				Value:   string(processor.OrderShuffle),
				Usage:   "article order: shuffle or recency",
				EnvVars: []string{"NEWS_ORDER"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   collector.DefaultFeedTimeout,
				Usage:   "per-feed request timeout",
				EnvVars: []string{"FEED_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:  "date",
				Usage: "date echoed as requestDate, defaults to today (UTC)",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "indent JSON output",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	sources, err := collector.LoadFeedSources(c.String("feeds"))
	if err != nil {
		return err
	}

	agg := aggregator.New(
		collector.NewRSSFetcher(c.Duration("timeout")),
		sources,
		processor.NewDigestProcessor(processor.ParseOrder(c.String("order"))),
	)

	ctx, cancel := context.WithTimeout(c.Context, time.Minute)
	defer cancel()

	d, err := agg.Build(ctx)
	if err != nil {
		return err
	}
	d.RequestDate = c.String("date")
	if d.RequestDate == "" {
		d.RequestDate = time.Now().UTC().Format("2006-01-02")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if c.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(d)
}
