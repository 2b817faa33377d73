// Package gate decides whether a caller may spend a vision analysis: it
// checks a bearer token and a per-subject daily quota.
package gate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/kv"
)

// Anonymous is the subject used when the gate is disabled.
const Anonymous = "anonymous"

const quotaPrefix = "quota/"

type Options struct {
	// Secret signs tokens. An empty secret disables the gate.
	Secret []byte
	// DailyQuota caps analyses per subject per UTC day. Zero means no cap.
	DailyQuota int
	Now        func() time.Time
}

type Gate struct {
	store kv.Store
	opts  Options
	mu    sync.Mutex
}

func New(store kv.Store, opts Options) *Gate {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gate{store: store, opts: opts}
}

func (g *Gate) Enabled() bool {
	return len(g.opts.Secret) > 0
}

// Issue signs a token for subject valid for ttl.
func (g *Gate) Issue(subject string, ttl time.Duration) (string, error) {
	if !g.Enabled() {
		return "", errors.New("gate secret is not configured")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}

	now := g.opts.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(g.opts.Secret)
}

// Authenticate returns the subject of a valid token.
func (g *Gate) Authenticate(token string) (string, error) {
	if !g.Enabled() {
		return Anonymous, nil
	}

	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return "", fmt.Errorf("%w: missing token", common.ErrUnauthenticated)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return g.opts.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.opts.Now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: invalid token", common.ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// Reservation is one analysis counted against a subject's quota. Callers
// release it when the analysis does not produce a list.
type Reservation struct {
	Subject string

	gate *Gate
	// key is the counter the slot was taken from; empty when no quota applies
	// or after release.
	key string
}

// Reserve authenticates token and takes one analysis from its subject's
// quota. The check and the increment happen under one lock, so concurrent
// callers cannot overshoot the cap.
func (g *Gate) Reserve(ctx context.Context, token string) (*Reservation, error) {
	subject, err := g.Authenticate(token)
	if err != nil {
		return nil, err
	}
	res := &Reservation{Subject: subject, gate: g}
	if !g.Enabled() || g.opts.DailyQuota <= 0 {
		return res, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := g.key(subject)
	used, err := g.count(ctx, key)
	if err != nil {
		return nil, err
	}
	if used >= g.opts.DailyQuota {
		return nil, fmt.Errorf("%w: %d of %d analyses used today", common.ErrQuotaExceeded, used, g.opts.DailyQuota)
	}
	if err := g.put(ctx, key, used+1); err != nil {
		return nil, err
	}
	res.key = key
	return res, nil
}

// Release returns the reserved analysis to the quota. Calling it again is a
// no-op.
func (r *Reservation) Release(ctx context.Context) error {
	g := r.gate
	g.mu.Lock()
	defer g.mu.Unlock()

	if r.key == "" {
		return nil
	}
	used, err := g.count(ctx, r.key)
	if err != nil {
		return err
	}
	if err := g.put(ctx, r.key, max(used-1, 0)); err != nil {
		return err
	}
	r.key = ""
	return nil
}

// Remaining returns how many analyses subject has left today, or -1 when
// there is no cap.
func (g *Gate) Remaining(ctx context.Context, subject string) (int, error) {
	if !g.Enabled() || g.opts.DailyQuota <= 0 {
		return -1, nil
	}
	used, err := g.count(ctx, g.key(subject))
	if err != nil {
		return 0, err
	}
	return max(g.opts.DailyQuota-used, 0), nil
}

func (g *Gate) key(subject string) string {
	return quotaPrefix + subject + "/" + g.opts.Now().UTC().Format(time.DateOnly)
}

func (g *Gate) count(ctx context.Context, key string) (int, error) {
	data, err := g.store.Get(ctx, key)
	if errors.Is(err, common.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota: %w", err)
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("corrupt quota counter %s: %w", key, err)
	}
	return n, nil
}

func (g *Gate) put(ctx context.Context, key string, used int) error {
	if err := g.store.Put(ctx, key, []byte(strconv.Itoa(used))); err != nil {
		return fmt.Errorf("failed to record quota: %w", err)
	}
	return nil
}
