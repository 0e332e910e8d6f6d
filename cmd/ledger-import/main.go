package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"salesledger/internal/amqp"
	"salesledger/internal/cli"
	"salesledger/internal/config"
	"salesledger/internal/ledger"
	gsheet "salesledger/internal/ledger/google"
	"salesledger/internal/ledger/memory"
	"salesledger/internal/log"
	"salesledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentImport)

	from := flag.String("from", "csv", "ledger source to import: csv or sheets")
	csvPath := flag.String("csv", "", "CSV export to import (defaults to LEDGER_CSV_PATH)")
	dbPath := flag.String("db", "", "SQLite database to write (defaults to SQLITE_DB_PATH)")
	publish := flag.Bool("publish", true, "announce the batch on AMQP when AMQP_URL is set")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall import deadline")
	flag.Parse()

	cfg := config.Load()
	if *csvPath != "" {
		cfg.LedgerCSVPath = *csvPath
	}
	if *dbPath != "" {
		cfg.SQLiteDBPath = *dbPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := cli.SignalContext(ctx, logger)
	defer stop()

	batch, err := run(ctx, cfg, *from, *publish, logger)
	if err != nil {
		cli.Fatal(logger, "Ledger import failed", err)
	}
	fmt.Printf("Imported %d rows as batch %s\n", batch.Rows, batch.ID)
}

func run(ctx context.Context, cfg *config.Config, from string, publish bool, logger *log.Logger) (ledger.Batch, error) {
	source, name, err := openSource(ctx, cfg, from)
	if err != nil {
		return ledger.Batch{}, err
	}

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return ledger.Batch{}, err
	}
	defer repo.Close()

	var publisher services.ReloadPublisher
	if publish && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, running servers will not be notified", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	return services.NewImportService(repo, publisher).Import(ctx, source, name)
}

// openSource returns the ledger to copy and a name recorded on the batch.
func openSource(ctx context.Context, cfg *config.Config, from string) (ledger.Source, string, error) {
	switch from {
	case "csv":
		if _, err := os.Stat(cfg.LedgerCSVPath); err != nil {
			return nil, "", fmt.Errorf("ledger CSV: %w", err)
		}
		return memory.NewFromFile(cfg.LedgerCSVPath), "csv:" + cfg.LedgerCSVPath, nil
	case "sheets":
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			return nil, "", err
		}
		return client, "sheets:" + cfg.GoogleSpreadsheetID, nil
	default:
		return nil, "", fmt.Errorf("unknown source %q: expected csv or sheets", from)
	}
}
