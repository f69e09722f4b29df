package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nearscan/explorer-api/internal/export"
	"github.com/nearscan/explorer-api/pkg/db/postgres/chain"
	"github.com/nearscan/explorer-api/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	// Parse flags
	account := flag.String("account", "", "Account to export (required)")
	start := flag.String("start", "", "Start date, YYYY-MM-DD (required)")
	end := flag.String("end", "", "End date, YYYY-MM-DD (required)")
	receipts := flag.Bool("receipts", false, "Export receipts instead of transactions")
	out := flag.String("o", "", "Output file (default: stdout)")
	dbURL := flag.String("db", os.Getenv("POSTGRES_URL"), "PostgreSQL URL (default: $POSTGRES_URL)")
	flag.Parse()

	if *account == "" || *start == "" || *end == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *dbURL == "" {
		slog.Error("no database URL: set POSTGRES_URL or pass -db")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startDate, err := utils.ParseDate(*start)
	if err != nil {
		slog.Error("invalid start date", "err", err)
		os.Exit(1)
	}
	endDate, err := utils.ParseDate(*end)
	if err != nil {
		slog.Error("invalid end date", "err", err)
		os.Exit(1)
	}
	if endDate.Before(startDate) {
		slog.Error("end date is before start date")
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		slog.Error("failed to create logger", "err", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to PostgreSQL. The cost gate is irrelevant here; exports
	// never count.
	store, err := chain.New(ctx, logger, *dbURL, chain.GateConfig{}, nil)
	if err != nil {
		slog.Error("failed to connect to postgres", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			slog.Error("failed to create output file", "path", *out, "err", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	rng := chain.ExportRange{
		Account: *account,
		StartNs: utils.DayStartNanos(startDate),
		EndNs:   utils.DayStartNanos(endDate),
	}

	var rowCount int
	if *receipts {
		rows, err := store.AccountReceiptsForExport(ctx, rng)
		if err != nil {
			slog.Error("export query failed", "account", *account, "err", err)
			os.Exit(1)
		}
		if err := export.WriteReceipts(w, rows); err != nil {
			slog.Error("csv write failed", "err", err)
			os.Exit(1)
		}
		rowCount = len(rows)
	} else {
		rows, err := store.AccountTxnsForExport(ctx, rng)
		if err != nil {
			slog.Error("export query failed", "account", *account, "err", err)
			os.Exit(1)
		}
		if err := export.WriteTxns(w, rows); err != nil {
			slog.Error("csv write failed", "err", err)
			os.Exit(1)
		}
		rowCount = len(rows)
	}

	if *out != "" {
		fmt.Fprintf(os.Stderr, "Exported %d rows to %s\n", rowCount, *out)
	}
	if rowCount == chain.ExportRowLimit {
		fmt.Fprintf(os.Stderr, "Hit the %d row limit; narrow the date range for a complete export\n", chain.ExportRowLimit)
	}
}
