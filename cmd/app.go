package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listlens/listlens/internal/analysis"
	"github.com/listlens/listlens/internal/config"
	"github.com/listlens/listlens/internal/gate"
	"github.com/listlens/listlens/internal/kv"
	"github.com/listlens/listlens/internal/review"
	"github.com/listlens/listlens/internal/storage"
)

// app is everything a command needs, built from the configuration.
type app struct {
	cfg      *config.Config
	kv       kv.Store
	sessions *storage.SessionStore
	closeKV  func() error
}

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, closeKV, err := openKV(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg: cfg,
		kv:  store,
		sessions: storage.New(store, storage.Options{
			ThumbnailWidth:   cfg.Encoder.ThumbnailWidth,
			ThumbnailQuality: cfg.Encoder.ThumbnailQuality,
		}),
		closeKV: closeKV,
	}, nil
}

// Close waits for background writes and releases the store.
func (a *app) Close() {
	a.sessions.Wait()
	if err := a.closeKV(); err != nil {
		slog.Error("Failed to close store", "err", err)
	}
}

func (a *app) analysis() (*analysis.Service, error) {
	pc := a.cfg.ProviderConfig(a.cfg.Provider)
	provider, err := analysis.OpenProvider(a.cfg.Provider, analysis.ProviderOptions{
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return analysis.NewService(provider, a.cfg.Provider, a.cfg.ActiveModel()), nil
}

func (a *app) reconciler(reviewer review.Reviewer) *review.Reconciler {
	return review.New(reviewer, a.sessions, review.Options{
		Timeout:        a.cfg.Review.Timeout,
		AutoCheckEdits: a.cfg.Review.AutoCheckEdits,
	})
}

func (a *app) gate() *gate.Gate {
	return gate.New(a.kv, gate.Options{
		Secret:     []byte(a.cfg.Gate.JWTSecret),
		DailyQuota: a.cfg.Gate.DailyQuota,
	})
}

func openKV(ctx context.Context, cfg config.StoreConfig) (kv.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		slog.Warn("Using in-memory store; lists are lost on exit")
		return kv.NewMemory(), noop, nil
	case config.BackendSQLite:
		db, err := kv.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("Opened sqlite store", "path", cfg.SQLitePath)
		return db, db.Close, nil
	case config.BackendS3:
		s, err := kv.OpenS3(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("Opened s3 store", "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)
		return s, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
