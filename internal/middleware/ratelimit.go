package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"vet-clinic-records/internal/platform/httpx"
	"vet-clinic-records/internal/platform/logger"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// ThrottleRecorder recibe los rechazos (métrica de login).
type ThrottleRecorder interface {
	Login(outcome string)
}

type LoginLimitConfig struct {
	Requests int           // intentos por ventana
	Window   time.Duration // ventana
	KeyFunc  func(*http.Request) string
	Recorder ThrottleRecorder
}

// LoginLimiter limita intentos de login por IP. Con Redis el contador es
// compartido entre instancias; sin Redis (o si Redis falla) se usa un
// limitador local en memoria.
type LoginLimiter struct {
	redis    *redis_rate.Limiter
	local    *localLimiter
	limit    redis_rate.Limit
	keyFunc  func(*http.Request) string
	recorder ThrottleRecorder
}

func NewLoginLimiter(rdb *redis.Client, cfg LoginLimitConfig) *LoginLimiter {
	if cfg.Requests <= 0 {
		cfg.Requests = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	l := &LoginLimiter{
		local: newLocalLimiter(),
		limit: redis_rate.Limit{
			Rate:   cfg.Requests,
			Burst:  cfg.Requests,
			Period: cfg.Window,
		},
		keyFunc:  cfg.KeyFunc,
		recorder: cfg.Recorder,
	}
	if rdb != nil {
		l.redis = redis_rate.NewLimiter(rdb)
	}
	return l
}

func (l *LoginLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.keyFunc(r)
		res := l.allow(r.Context(), key)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit.Rate))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed == 0 {
			retry := int(res.RetryAfter.Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			if l.recorder != nil {
				l.recorder.Login("throttled")
			}
			httpx.WriteStatus(w, r, http.StatusTooManyRequests,
				fmt.Sprintf("too many login attempts, retry after %d seconds", retry))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *LoginLimiter) allow(ctx context.Context, key string) *redis_rate.Result {
	if l.redis != nil {
		res, err := l.redis.Allow(ctx, key, l.limit)
		if err == nil {
			return res
		}
		logger.FromContext(ctx).Warn("rate limiter: redis unavailable, using local limiter", map[string]any{"err": err})
	}
	return l.local.allow(key, l.limit, time.Now())
}

// KeyByIP usa RemoteAddr; chimw.RealIP ya lo reescribió con X-Real-IP / X-Forwarded-For.
func KeyByIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ratelimit:login:" + ip
}

// -------------------------
// Limitador local
// -------------------------

const localEntryTTL = 10 * time.Minute

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

type localLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastPrune time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{entries: map[string]*limiterEntry{}}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit, now time.Time) *redis_rate.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Poda perezosa, sin goroutines de fondo.
	if now.Sub(l.lastPrune) > localEntryTTL {
		for k, e := range l.entries {
			if now.Sub(e.lastAccess) > localEntryTTL {
				delete(l.entries, k)
			}
		}
		l.lastPrune = now
	}

	perSec := float64(limit.Rate) / limit.Period.Seconds()
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(perSec), limit.Burst)}
		l.entries[key] = e
	}
	e.lastAccess = now

	allowed := e.limiter.AllowN(now, 1)
	remaining := int(e.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: -1,
		ResetAfter: time.Duration(float64(time.Second) / perSec),
	}
	if allowed {
		res.Allowed = 1
	} else {
		res.RetryAfter = time.Duration(float64(time.Second) / perSec)
	}
	return res
}
