// Command ledgerctl runs ledger maintenance from the shell: importing a new
// consumer file, clearing a finished cycle, and backing up or restoring the
// follow-up history.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"dues-ledger/internal/config"
	"dues-ledger/internal/database"
	"dues-ledger/internal/logger"
	"dues-ledger/internal/models"
	"dues-ledger/internal/repositories"
	"dues-ledger/internal/services"
)

const usage = `usage: ledgerctl <command> [flags]

commands:
  import   -file <path.xlsx|path.csv>   merge a consumer file into the ledger
  purge    -confirm                     remove every consumer (history is kept)
  backup   -out <path>                  write history and settings to a JSON file
  restore  -in <path>                   replace history and settings from a backup
  stats                                 print today's dashboard counters
`

type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	ledger   *services.LedgerService
	imports  *services.ImportService
	backup   *services.BackupService
	query    *services.QueryService
	settings *services.SettingsService
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}
	log := logger.New(cfg.Log)

	db, err := database.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	consumerRepo := repositories.NewConsumerRepository()
	historyRepo := repositories.NewHistoryRepository()
	settingsRepo := repositories.NewSettingsRepository()

	a := &app{cfg: cfg, log: log}
	a.ledger = services.NewLedgerService(db, consumerRepo, log)
	a.settings = services.NewSettingsService(db, settingsRepo, log)
	a.imports = services.NewImportService(a.ledger, log)
	a.backup = services.NewBackupService(db, historyRepo, settingsRepo, log)
	a.query = services.NewQueryService(a.ledger, services.NewJournalService(db, historyRepo, log), a.settings, cfg.Location())

	if err := a.run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		log.WithError(err).Error("Command failed")
		db.Close()
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ExitOnError)

	switch command {
	case "import":
		file := fs.String("file", "", "consumer spreadsheet (.xlsx or .csv)")
		fs.Parse(args)
		return a.importFile(ctx, *file)
	case "purge":
		confirm := fs.Bool("confirm", false, "confirm removal of every consumer")
		fs.Parse(args)
		if !*confirm {
			return services.ErrPurgeNotConfirmed
		}
		return a.ledger.Purge(ctx)
	case "backup":
		out := fs.String("out", fmt.Sprintf("mra-backup-%s.json", time.Now().Format(models.DateLayout)), "output file")
		fs.Parse(args)
		return a.writeBackup(ctx, *out)
	case "restore":
		in := fs.String("in", "", "backup file to restore")
		fs.Parse(args)
		return a.restore(ctx, *in)
	case "stats":
		fs.Parse(args)
		return a.printStats(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) importFile(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("-file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if a.cfg.Import.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Import.Timeout)
		defer cancel()
	}

	result, err := a.imports.Import(ctx, path, f)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d consumers (%d rows skipped)\n", result.RecordsCount, result.Skipped)
	return nil
}

func (a *app) writeBackup(ctx context.Context, path string) error {
	data, err := a.backup.ExportJSON(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	fmt.Printf("Backup written to %s\n", path)
	return nil
}

func (a *app) restore(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("-in is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	result, err := a.backup.Restore(ctx, data)
	if err != nil {
		return err
	}
	fmt.Printf("Restored %d history entries (settings restored: %v)\n", result.HistoryCount, result.SettingsRestored)
	return nil
}

func (a *app) printStats(ctx context.Context) error {
	stats, err := a.query.Dashboard(ctx)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
