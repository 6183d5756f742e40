package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"

	api "github.com/classworks/gradekeeper/internal/api/http"
	"github.com/classworks/gradekeeper/internal/auth"
	"github.com/classworks/gradekeeper/internal/config"
	"github.com/classworks/gradekeeper/internal/courseload"
	"github.com/classworks/gradekeeper/internal/db"
	"github.com/classworks/gradekeeper/internal/grader"
	"github.com/classworks/gradekeeper/internal/inspect"
	"github.com/classworks/gradekeeper/internal/judge"
	"github.com/classworks/gradekeeper/internal/roster"
	"github.com/classworks/gradekeeper/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("gradekeeperd", flag.ExitOnError)
	var (
		_        = fs.String("config", "", "config file (optional), json format")
		addr     = fs.String("addr", cfg.HTTPAddr, "listen address")
		dbDriver = fs.String("db-driver", cfg.DBDriver, "database driver (sqlite|postgres)")
		dbDSN    = fs.String("db-dsn", cfg.DBDSN, "database dsn")
		seed     = fs.String("courseload", cfg.CourseloadPath, "YAML course seed applied at startup")
	)
	if err := ff.Parse(fs, os.Args[1:],
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.JSONParser),
		ff.WithEnvVarPrefix("GRADEKEEPER"),
	); err != nil {
		log.Fatalf("parse flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	openCtx, openCancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, db.Driver(*dbDriver), *dbDSN)
	openCancel()
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	st := store.NewSQLStore(dbh)

	if *seed != "" {
		cl, err := courseload.Load(*seed)
		if err != nil {
			log.Fatalf("courseload: %v", err)
		}
		if err := cl.Apply(ctx, st); err != nil {
			log.Fatalf("courseload apply: %v", err)
		}
		log.Printf("applied course seed %s", *seed)
	}

	cache := inspect.NewURLCache(cfg.URLCachePath)
	if err := cache.Load(); err != nil {
		log.Printf("url cache %s: %v", cfg.URLCachePath, err)
	}

	opts := []grader.Option{
		grader.WithWorkDir(cfg.WorkDir),
		grader.WithClassroomHost(cfg.ClassroomHost),
	}
	if cfg.JudgeBaseURL != "" {
		opts = append(opts, grader.WithJudge(judge.New(cfg.JudgeBaseURL)))
	}
	svc := grader.NewService(st, grader.DefaultRegistry(), cache, opts...)

	var syncer *roster.Syncer
	if cfg.EnableRosterSync && cfg.ClassroomBaseURL != "" {
		cls := roster.NewClient(roster.Config{
			BaseURL:      cfg.ClassroomBaseURL,
			TokenURL:     cfg.ClassroomTokenURL,
			ClientID:     cfg.ClassroomClientID,
			ClientSecret: cfg.ClassroomSecret,
		})
		syncer = roster.NewSyncer(st, cls, nil)
		go syncer.Run(ctx, cfg.RosterSyncInterval)
	}

	handler := api.NewRouter(api.Deps{
		Store:   st,
		Grader:  svc,
		Syncer:  syncer,
		Auth:    auth.NewAuthService(cfg.JWTSecret),
		Origins: cfg.CORSOrigins,
	})

	srv := &http.Server{Addr: *addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Printf("gradekeeperd listening on %s (db=%s)", *addr, *dbDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("serve: %v", err)
	}
	if err := cache.Save(); err != nil {
		log.Printf("persist url cache: %v", err)
	}
}
