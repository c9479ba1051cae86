package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/251027-Java/P3-Group2/trade-service/internal/config"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/application"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
	dbbadger "github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/storage/db/badger"
	postgresdb "github.com/251027-Java/P3-Group2/trade-service/internal/infrastructure/storage/db/pg"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	app = &cobra.Command{
		Use:          "migration",
		Short:        "trade storage migration",
		Long:         "this tool copies the trades and the undelivered outbox events of a trade service from a storage backend to another one",
		Version:      formatVersion(),
		RunE:         action,
		SilenceUsage: true,
	}

	sourceType      string
	destinationType string
	datadir         string
	pgConnectAddr   string
	prune           bool
)

func init() {
	flags := app.Flags()
	flags.StringVar(&sourceType, "from", application.DBBadger, "the storage to read from (badger or postgres)")
	flags.StringVar(&destinationType, "to", application.DBPostgres, "the storage to write to (badger or postgres)")
	flags.StringVar(&datadir, "datadir", "", "the datadir of the trade service, required for badger")
	flags.StringVar(&pgConnectAddr, "pg-connect-addr", "", "the postgres connection string, required for postgres")
	flags.BoolVar(&prune, "prune", false, "delete the migrated trades from the source storage")
}

func main() {
	if err := app.Execute(); err != nil {
		log.Fatal(err)
	}
}

func action(cmd *cobra.Command, _ []string) (err error) {
	if sourceType == destinationType {
		return fmt.Errorf("source and destination storage must differ")
	}

	ctx := context.Background()

	src, err := openRepoManager(ctx, sourceType)
	if err != nil {
		return fmt.Errorf("failed to open source storage: %w", err)
	}
	defer src.Close()

	dst, err := openRepoManager(ctx, destinationType)
	if err != nil {
		return fmt.Errorf("failed to open destination storage: %w", err)
	}
	defer dst.Close()

	start := time.Now()
	log.Infof("migrating data from %s to %s...", sourceType, destinationType)

	stats, err := migrate(ctx, src, dst, prune)
	if err != nil {
		return err
	}

	log.Infof(
		"migrated %d trades and %d outbox events in %fs",
		stats.trades, stats.events, time.Since(start).Seconds(),
	)
	return nil
}

func openRepoManager(ctx context.Context, dbType string) (ports.RepoManager, error) {
	switch dbType {
	case application.DBBadger:
		if datadir == "" {
			return nil, fmt.Errorf("missing datadir")
		}
		return dbbadger.NewRepoManager(filepath.Join(datadir, config.DbLocation), nil)
	case application.DBPostgres:
		if pgConnectAddr == "" {
			return nil, fmt.Errorf("missing postgres connection string")
		}
		return postgresdb.NewService(ctx, pgConnectAddr)
	default:
		return nil, fmt.Errorf("unsupported storage type %s", dbType)
	}
}

func formatVersion() string {
	return fmt.Sprintf(
		"Version: %s\nCommit: %s\nDate: %s",
		version, commit, date,
	)
}
