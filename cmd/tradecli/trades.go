package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/domain"
)

var (
	tradeFlag = cli.Int64Flag{
		Name:     "trade",
		Usage:    "the id of the trade",
		Required: true,
	}
	ownerFlag = cli.Int64Flag{
		Name:     "owner",
		Usage:    "the id of the listing owner taking the decision",
		Required: true,
	}
)

var createtrade = cli.Command{
	Name:  "create",
	Usage: "propose a trade for a listing",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:     "listing",
			Usage:    "the id of the listing",
			Required: true,
		},
		&cli.Int64Flag{
			Name:     "user",
			Usage:    "the id of the requesting user",
			Required: true,
		},
		&cli.Int64SliceFlag{
			Name:     "card",
			Usage:    "the id of an offered card, repeat the flag to offer more",
			Required: true,
		},
	},
	Action: createTradeAction,
}

var accepttrade = cli.Command{
	Name:   "accept",
	Usage:  "accept a pending trade",
	Flags:  []cli.Flag{&tradeFlag, &ownerFlag},
	Action: acceptTradeAction,
}

var declinetrade = cli.Command{
	Name:   "decline",
	Usage:  "decline a pending trade",
	Flags:  []cli.Flag{&tradeFlag, &ownerFlag},
	Action: declineTradeAction,
}

var gettrade = cli.Command{
	Name:   "trade",
	Usage:  "get the details of a trade",
	Flags:  []cli.Flag{&tradeFlag},
	Action: getTradeAction,
}

var listtrades = cli.Command{
	Name:  "trades",
	Usage: "get a list of trades, either all or filtered by listing or user",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "listing",
			Usage: "list only the trades for this listing",
		},
		&cli.Int64Flag{
			Name:  "user",
			Usage: "list only the trades requested by this user",
		},
		&cli.StringFlag{
			Name:  "status",
			Usage: "list only the trades with this status (pending, accepted, rejected or cancelled)",
		},
	},
	Action: listTradesAction,
}

func createTradeAction(ctx *cli.Context) error {
	resp, err := doRequest(http.MethodPost, "/api/trades", map[string]interface{}{
		"listingId":        ctx.Int64("listing"),
		"requestingUserId": ctx.Int64("user"),
		"offeredCardIds":   ctx.Int64Slice("card"),
	})
	if err != nil {
		return err
	}

	printRespJSON(ctx, resp)
	return nil
}

func acceptTradeAction(ctx *cli.Context) error {
	return decideTrade(ctx, "accept")
}

func declineTradeAction(ctx *cli.Context) error {
	return decideTrade(ctx, "decline")
}

func decideTrade(ctx *cli.Context, decision string) error {
	path := fmt.Sprintf(
		"/api/trades/%d/%s?listingOwnerId=%d",
		ctx.Int64("trade"), decision, ctx.Int64("owner"),
	)
	resp, err := doRequest(http.MethodPut, path, nil)
	if err != nil {
		return err
	}

	printRespJSON(ctx, resp)
	return nil
}

func getTradeAction(ctx *cli.Context) error {
	path := fmt.Sprintf("/api/trades/%d", ctx.Int64("trade"))
	resp, err := doRequest(http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	printRespJSON(ctx, resp)
	return nil
}

func listTradesAction(ctx *cli.Context) error {
	if ctx.IsSet("listing") && ctx.IsSet("user") {
		return fmt.Errorf("listing and user filters are mutually exclusive")
	}

	path := "/api/trades"
	if ctx.IsSet("listing") {
		path = fmt.Sprintf("/api/trades/listing/%d", ctx.Int64("listing"))
	}
	if ctx.IsSet("user") {
		path = fmt.Sprintf("/api/trades/user/%d", ctx.Int64("user"))
	}
	if ctx.IsSet("status") {
		status, err := domain.ParseTradeStatus(ctx.String("status"))
		if err != nil {
			return err
		}
		path = fmt.Sprintf("%s?status=%s", path, status)
	}

	resp, err := doRequest(http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	printRespJSON(ctx, resp)
	return nil
}
