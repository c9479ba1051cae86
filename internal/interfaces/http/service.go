package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/251027-Java/P3-Group2/trade-service/internal/interfaces"
)

const shutdownTimeout = 10 * time.Second

type ServiceOpts struct {
	Address  string
	TradeSvc TradeService
}

func (o ServiceOpts) validate() error {
	if o.Address == "" {
		return fmt.Errorf("missing listening address")
	}
	if o.TradeSvc == nil {
		return fmt.Errorf("trade app service must not be null")
	}
	return nil
}

type service struct {
	opts   ServiceOpts
	server *http.Server
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	return &service{opts: opts}, nil
}

// NewRouter returns the REST routes of the trade service together with the
// health and metrics endpoints.
func NewRouter(tradeSvc TradeService) *mux.Router {
	h := &tradeHandler{tradeSvc}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/health", health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/trades").Subrouter()
	api.Use(instrument)
	api.HandleFunc("", h.createTrade).Methods(http.MethodPost)
	api.HandleFunc("", h.listTrades).Methods(http.MethodGet)
	api.HandleFunc("/listing/{listingId}", h.listTradesByListing).Methods(http.MethodGet)
	api.HandleFunc("/user/{userId}", h.listTradesByUser).Methods(http.MethodGet)
	api.HandleFunc("/{tradeId}", h.getTrade).Methods(http.MethodGet)
	api.HandleFunc("/{tradeId}/accept", h.acceptTrade).Methods(http.MethodPut)
	api.HandleFunc("/{tradeId}/decline", h.declineTrade).Methods(http.MethodPut)

	return router
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Handler:           NewRouter(s.opts.TradeSvc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(lis); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server stopped unexpectedly")
		}
	}()

	log.Infof("trade interface is listening on %s", s.opts.Address)
	return nil
}

func (s *service) Stop() {
	if s.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop http server")
	}
	log.Debug("disabled trade interface")
}
