package postgresdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

const (
	postgresDriver  = "pgx"
	migrationDriver = "pgx5"
	migrationDir    = "migration"

	uniqueViolation = "23505"

	tradePrimaryKey       = "trades_pkey"
	offeredCardPrimaryKey = "trade_offered_cards_pkey"
)

//go:embed migration/*.sql
var migrations embed.FS

type repoManager struct {
	db *bun.DB

	tradeRepository  domain.TradeRepository
	outboxRepository domain.OutboxRepository
}

// NewService connects to the postgres db identified by the given
// connection string and makes sure the schema exists.
func NewService(ctx context.Context, dataSource string) (ports.RepoManager, error) {
	sqldb, err := sql.Open(postgresDriver, dataSource)
	if err != nil {
		return nil, err
	}
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := migrateDb(dataSource); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating db schema: %w", err)
	}

	rm := &repoManager{db: db}
	rm.tradeRepository = NewTradeRepositoryImpl(db, rm.execTx)
	rm.outboxRepository = NewOutboxRepositoryImpl(db, rm.execTx)

	return rm, nil
}

func (r *repoManager) TradeRepository() domain.TradeRepository {
	return r.tradeRepository
}

func (r *repoManager) OutboxRepository() domain.OutboxRepository {
	return r.outboxRepository
}

func (r *repoManager) Close() {
	if err := r.db.Close(); err != nil {
		log.WithError(err).Warn("failed to close postgres connection")
	}
}

func (r *repoManager) execTx(
	ctx context.Context,
	txBody func(ctx context.Context, tx bun.Tx) error,
) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, txBody)
}

func migrateDb(dataSource string) error {
	source, err := iofs.New(migrations, migrationDir)
	if err != nil {
		return err
	}

	sqldb, err := sql.Open(postgresDriver, dataSource)
	if err != nil {
		return err
	}
	driver, err := pgxmigrate.WithInstance(sqldb, &pgxmigrate.Config{})
	if err != nil {
		sqldb.Close()
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, migrationDriver, driver)
	if err != nil {
		driver.Close()
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// isUniqueViolation returns whether err is a unique violation, optionally
// restricted to the given constraints.
func isUniqueViolation(err error, constraints ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	if len(constraints) <= 0 {
		return true
	}
	for _, c := range constraints {
		if pgErr.ConstraintName == c {
			return true
		}
	}
	return false
}
