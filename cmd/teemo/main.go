package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"teemo/internal/config"
	"teemo/internal/features"
	"teemo/internal/logging"
	"teemo/internal/pipeline"
	"teemo/internal/riot"
	"teemo/internal/storage"
)

const usage = `Usage: teemo [flags] <command> [args]

Commands:
  predict NAME...         predict outcomes for the players' match history (default)
  fetch KIND NAME...      fetch a resource: mastery, league, position, masteries, matchlist
  history NAME...         print the players' raw match statistics
  replay FILE...          score statistics exported to JSONL (.jsonl or .jsonl.gz)
  validate-key            check that RIOT_API_KEY is accepted

Flags:
`

func main() {
	if err := run(); err != nil {
		log.Fatalf("teemo: %v", err)
	}
}

func run() error {
	modelPath := flag.String("model", "", "Model artifact path (overrides MODEL_PATH)")
	slotLimit := flag.Int("slot-limit", 0, "Participant slots scanned per match (overrides HISTORY_SLOT_LIMIT)")
	dedupe := flag.Bool("dedupe", false, "Fetch a match only once across players")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if path := config.LoadDotEnv(); path == "" {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}
	if *slotLimit > 0 {
		cfg.History.SlotLimit = *slotLimit
	}
	if *dedupe {
		cfg.History.Dedupe = true
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := pipeline.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	args := flag.Args()
	command := "predict"
	if len(args) > 0 {
		switch args[0] {
		case "predict", "fetch", "history", "replay", "validate-key":
			command, args = args[0], args[1:]
		}
	}

	switch command {
	case "predict":
		if len(args) == 0 {
			flag.Usage()
			return fmt.Errorf("no player names given")
		}
		preds, err := svc.Pipeline.PredictWins(ctx, args)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, preds)

	case "fetch":
		if len(args) < 2 {
			flag.Usage()
			return fmt.Errorf("fetch needs a kind and at least one name")
		}
		rows, err := fetch(ctx, svc.Client, args[0], args[1:])
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, rows)

	case "history":
		if len(args) == 0 {
			flag.Usage()
			return fmt.Errorf("no player names given")
		}
		report, err := svc.Pipeline.History(ctx, args)
		if err != nil {
			return err
		}
		if malformed := report.Malformed(); len(malformed) > 0 {
			logger.Warn("malformed participant slots", zap.Int("count", len(malformed)))
		}
		return printJSON(os.Stdout, report.Stats())

	case "replay":
		if len(args) == 0 {
			flag.Usage()
			return fmt.Errorf("no export files given")
		}
		return replay(svc.Pipeline, args)

	case "validate-key":
		valid, err := svc.Client.ValidateKey(ctx)
		if err != nil {
			return fmt.Errorf("could not validate key: %w", err)
		}
		if !valid {
			return fmt.Errorf("API key is expired or invalid")
		}
		fmt.Println("API key is valid")
		return nil
	}
	return nil
}

// fetch runs the resource fetcher named by kind
func fetch(ctx context.Context, client *riot.Client, kind string, names []string) (any, error) {
	switch kind {
	case "mastery":
		return client.FetchChampionMastery(ctx, names)
	case "league":
		return client.FetchLeague(ctx, names)
	case "position":
		return client.FetchPosition(ctx, names)
	case "masteries":
		return client.FetchMasteries(ctx, names)
	case "matchlist":
		return client.FetchMatchLists(ctx, names)
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
}

func replay(p *pipeline.Pipeline, files []string) error {
	var stats []features.Stats
	for _, path := range files {
		records, err := storage.ReadFile(path)
		if err != nil {
			return err
		}
		for _, r := range records {
			stats = append(stats, r.Stats)
		}
	}

	result, err := p.Score(stats)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, result)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
