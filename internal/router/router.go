package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	mem "vet-clinic-records/internal/adapters/storage/memory"
	pg "vet-clinic-records/internal/adapters/storage/postgres"
	"vet-clinic-records/internal/adapters/storage/redisstore"
	_ "vet-clinic-records/internal/docs"
	"vet-clinic-records/internal/domain/clinical"
	"vet-clinic-records/internal/domain/permissions"
	"vet-clinic-records/internal/domain/pets"
	"vet-clinic-records/internal/domain/reports"
	"vet-clinic-records/internal/domain/sessions"
	"vet-clinic-records/internal/domain/users"
	"vet-clinic-records/internal/middleware"
	"vet-clinic-records/internal/platform/httpx"
	"vet-clinic-records/internal/platform/logger"
	"vet-clinic-records/internal/platform/metrics"
	"vet-clinic-records/internal/platform/password"
)

type Options struct {
	Logger logger.Logger // nil = Nop

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	Pool *pgxpool.Pool

	// Opcional: sesiones y rate limit de login en Redis. Si no, en proceso.
	Redis         *redis.Client
	SessionPrefix string

	Metrics *metrics.Metrics // nil = registry propio

	SessionTTL time.Duration
	Cookie     sessions.CookieConfig
	BcryptCost int
	LoginLimit middleware.LoginLimitConfig

	// Bootstrap del primer admin; se ignora si Username está vacío.
	Bootstrap BootstrapAdmin

	// Reloj para sesiones y reportes. nil = time.Now.
	Now func() time.Time
}

type BootstrapAdmin struct {
	Username string
	Email    string
	Password string
}

type repos struct {
	users    users.Repository
	pets     pets.Repository
	clinical clinical.Repository
	reports  reports.Repository
	sessions sessions.Store
}

func buildRepos(opts Options) repos {
	var rp repos

	if opts.Pool != nil {
		rp.users = pg.NewUsersRepo(opts.Pool)
		rp.pets = pg.NewPetsRepo(opts.Pool)
		rp.clinical = pg.NewClinicalRepo(opts.Pool)
		rp.reports = pg.NewReportsRepo(opts.Pool)
	} else {
		petRepo := mem.NewPetRepo()
		clinicalRepo := mem.NewClinicalRepo()
		rp.users = mem.NewUserRepo()
		rp.pets = petRepo
		rp.clinical = clinicalRepo
		rp.reports = mem.NewReportRepo(petRepo, clinicalRepo)
	}

	if opts.Redis != nil {
		rp.sessions = redisstore.NewSessionStore(opts.Redis, opts.SessionPrefix).WithClock(opts.Now)
	} else {
		rp.sessions = mem.NewSessionStore().WithClock(opts.Now)
	}
	return rp
}

func NewRouter(ctx context.Context, opts Options) (http.Handler, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New("vetclinic")
	}

	hasher, err := password.NewHasher(opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	rp := buildRepos(opts)

	// Services por módulo
	usersSvc := users.NewService(rp.users, hasher)
	sessionsSvc := sessions.NewService(rp.sessions, usersSvc, opts.SessionTTL)
	petsSvc := pets.NewService(rp.pets)
	clinicalSvc := clinical.NewService(rp.clinical, petsSvc)
	reportsSvc := reports.NewService(rp.reports)
	if opts.Now != nil {
		sessionsSvc.WithClock(opts.Now)
		reportsSvc.WithClock(opts.Now)
	}

	if b := opts.Bootstrap; b.Username != "" {
		created, err := usersSvc.EnsureAdmin(ctx, b.Username, b.Email, b.Password)
		if err != nil {
			return nil, err
		}
		if created {
			log.Info("bootstrap admin created", map[string]any{"username": b.Username})
		}
	}

	limitCfg := opts.LoginLimit
	limitCfg.Recorder = m
	limiter := middleware.NewLoginLimiter(opts.Redis, limitCfg)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover)
	r.Use(m.Middleware)
	r.Use(middleware.AuthContext(sessionsSvc, opts.Cookie.Name))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", readiness(opts.Pool, opts.Redis))
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	sessions.RegisterRoutes(r, sessionsSvc, sessions.HandlerOptions{
		Cookie:           opts.Cookie,
		LoginMiddlewares: []func(http.Handler) http.Handler{limiter.Handler},
		Recorder:         m,
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		users.RegisterRoutes(r, usersSvc)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.Require(permissions.CapManagePets))
		pets.RegisterRoutes(r, petsSvc, clinicalSvc)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.Require(permissions.CapAccessVaccination))
		clinical.RegisterRoutes(r, clinicalSvc)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.Require(permissions.CapAccessReports))
		reports.RegisterRoutes(r, reportsSvc)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteStatus(w, r, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r, nil
}

// readiness pinguea solo lo que esté configurado.
func readiness(pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				logger.FromContext(ctx).Error("readiness: database", map[string]any{"err": err})
				httpx.WriteStatus(w, r, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.FromContext(ctx).Error("readiness: redis", map[string]any{"err": err})
				httpx.WriteStatus(w, r, http.StatusServiceUnavailable, "redis unavailable")
				return
			}
		}
		httpx.WriteMessage(w, r, http.StatusOK, "ready")
	}
}
