package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atinyakov/researchhive/internal/client/backend"
	"github.com/atinyakov/researchhive/internal/client/blob"
	"github.com/atinyakov/researchhive/internal/client/comic"
	"github.com/atinyakov/researchhive/internal/client/mcq"
	"github.com/atinyakov/researchhive/internal/client/pipeline"
	"github.com/atinyakov/researchhive/internal/client/qa"
	"github.com/atinyakov/researchhive/internal/client/session"
	"github.com/atinyakov/researchhive/internal/client/shell"
	"github.com/atinyakov/researchhive/internal/client/upload"
	"github.com/atinyakov/researchhive/internal/config"
	"github.com/atinyakov/researchhive/internal/db"
	"github.com/atinyakov/researchhive/internal/logger"
	"github.com/atinyakov/researchhive/internal/repository"
	"github.com/atinyakov/researchhive/internal/service"
	"github.com/atinyakov/researchhive/internal/viewer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

var showVer = flag.Bool("version", false, "show build version and date")

func main() {
	opts, err := config.Parse()
	if err != nil {
		log.Fatal(err)
	}

	if *showVer {
		fmt.Printf("ResearchHive Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	l := logger.New()
	if err := l.Init(opts.LogLevel); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, l.Log); err != nil {
		l.Log.Fatal("client stopped", zap.Error(err))
	}
}

func run(ctx context.Context, opts *config.Options, lg *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	httpClient := &http.Client{Timeout: opts.RequestTimeout}

	// The session needs the client and the client may need the session's
	// token, so the token is read through a closure.
	var sess *session.Store
	var clientOpts []backend.Option
	if opts.AttachToken {
		clientOpts = append(clientOpts, backend.WithBearerToken(func() string { return sess.Token() }))
	}
	client := backend.New(httpClient, opts.BackendURL, lg.Named("backend"), clientOpts...)

	sess = session.New(client, opts.SessionFile, lg.Named("session"))
	sess.Restore()

	store := blob.NewStore(lg.Named("blob"))
	defer store.ReleaseAll()

	up := upload.New(client)
	pipeOpts := []pipeline.Option{pipeline.WithMetrics(pipeline.NewMetrics(reg))}

	deps := shell.Deps{
		Session: sess,
		MCQ:     mcq.New(client, up, lg.Named("mcq")),
		QA:      qa.New(client, up, lg.Named("qa")),
		Comic:   comic.New(client, store, lg.Named("comic")),
		Store:   store,
	}

	if opts.DatabaseDSN != "" {
		conn, err := db.InitPostgres(ctx, opts.DatabaseDSN)
		if err != nil {
			return err
		}
		defer conn.Close()

		db.StartRetentionCleaner(ctx, conn, time.Hour, opts.HistoryRetention, lg.Named("history"))
		history := service.NewHistoryService(repository.NewPostgresRunRepository(conn))
		pipeOpts = append(pipeOpts, pipeline.WithRecorder(history, sess.Username))
		deps.History = history
	}

	orch := pipeline.New(client, up, store, lg.Named("pipeline"), pipeOpts...)
	defer orch.Discard()
	deps.Pipeline = orch

	sess.OnLogout(func() {
		orch.Discard()
		deps.Comic.Close()
	})

	if opts.ViewerAddr != "" {
		h := &viewer.Handler{Store: store, Log: lg.Named("viewer")}
		srv, err := viewer.Listen(opts.ViewerAddr, viewer.NewRouter(h, reg, lg.Named("viewer")), lg.Named("viewer"))
		if err != nil {
			return fmt.Errorf("start artifact viewer: %w", err)
		}
		deps.ViewerURL = srv.BaseURL()

		viewerCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := srv.Serve(viewerCtx); err != nil {
				lg.Error("artifact viewer stopped", zap.Error(err))
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	lg.Info("client started",
		zap.String("backend", opts.BackendURL),
		zap.Bool("authenticated", sess.Authenticated()),
		zap.Bool("history", deps.History != nil),
	)

	shell.New(deps, os.Stdin, os.Stdout, lg.Named("shell")).Run(ctx)
	return nil
}
