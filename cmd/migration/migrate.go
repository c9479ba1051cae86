package main

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

type migrationStats struct {
	trades int
	events int
}

// migrate copies every trade and every pending outbox event from src to dst.
// The destination must not contain any trade. Trades keep their ids, so that
// the copied events and the external clients still refer to them. With prune
// set, the migrated trades are removed from src once everything is copied.
func migrate(
	ctx context.Context, src, dst ports.RepoManager, prune bool,
) (*migrationStats, error) {
	existing, err := dst.TradeRepository().GetAllTrades(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf(
			"destination storage is not empty: found %d trades", len(existing),
		)
	}

	trades, err := src.TradeRepository().GetAllTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].ID < trades[j].ID
	})

	stats := &migrationStats{}
	for _, t := range trades {
		trade := t
		if err := dst.TradeRepository().RestoreTrade(ctx, &trade); err != nil {
			return nil, fmt.Errorf("failed to migrate trade %d: %w", trade.ID, err)
		}
		stats.trades++
	}

	events, err := src.OutboxRepository().GetEventsByStatus(
		ctx, domain.OutboxStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read outbox events: %w", err)
	}
	for _, e := range events {
		event := e
		if err := dst.OutboxRepository().AddEvent(ctx, &event); err != nil {
			return nil, fmt.Errorf("failed to migrate event %s: %w", event.ID, err)
		}
		stats.events++
	}

	if prune {
		for _, trade := range trades {
			if err := src.TradeRepository().DeleteTrade(ctx, trade.ID); err != nil {
				return nil, fmt.Errorf(
					"failed to prune trade %d from source: %w", trade.ID, err,
				)
			}
		}
		log.Infof("pruned %d trades from source storage", len(trades))
	}

	return stats, nil
}
