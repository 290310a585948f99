package router

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "pawfect-match/docs"
	"pawfect-match/internal/adapters/geocoding/nominatim"
	"pawfect-match/internal/adapters/geocoding/rediscache"
	"pawfect-match/internal/adapters/geocoding/static"
	mem "pawfect-match/internal/adapters/storage/memory"
	pg "pawfect-match/internal/adapters/storage/postgres"
	"pawfect-match/internal/config"
	"pawfect-match/internal/domain/adopters"
	"pawfect-match/internal/domain/animals"
	"pawfect-match/internal/domain/candidates"
	"pawfect-match/internal/domain/geo"
	"pawfect-match/internal/domain/matches"
	"pawfect-match/internal/domain/owners"
	"pawfect-match/internal/middleware"
	"pawfect-match/internal/platform/httpclient"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/platform/metrics"
	"pawfect-match/internal/ports/auth"
	"pawfect-match/internal/ports/geocoding"
	"pawfect-match/internal/realtime"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: cache de geocoding.
	Redis *redis.Client

	// Opcional: sin limiter no hay rate limit.
	RateLimiter *middleware.RateLimiter

	Config   *config.Config
	Logger   logger.Logger
	Registry *prometheus.Registry

	// Geocoder reemplaza la cadena armada desde Config (tests).
	Geocoder geocoding.Geocoder
}

// Router expone el handler HTTP y el hub, que main necesita para el apagado.
type Router struct {
	http.Handler
	Hub     *realtime.Hub
	Matches *matches.Service
}

func NewRouter(opts Options) *Router {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Load()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	rec := metrics.NewCollector(reg)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler(reg))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		ownerRepo   owners.Repository
		adopterRepo adopters.Repository
		animalRepo  animals.Repository
		matchRepo   matches.Repository
	)
	if opts.DB != nil {
		ownerRepo = pg.NewOwnerRepo(opts.DB)
		adopterRepo = pg.NewAdopterRepo(opts.DB)
		animalRepo = pg.NewAnimalRepo(opts.DB)
		matchRepo = pg.NewMatchRepo(opts.DB)
	} else {
		ownerRepo = mem.NewOwnerRepo()
		adopterRepo = mem.NewAdopterRepo()
		animalRepo = mem.NewAnimalRepo()
		matchRepo = mem.NewMatchRepo()
	}

	g := opts.Geocoder
	if g == nil {
		g = buildGeocoder(cfg, opts.Redis, log)
	}
	resolver := geo.NewResolver(g, geo.ResolverOptions{
		Retries: cfg.GeocodeRetries,
		Logger:  log.With(map[string]any{"component": "geocoding"}),
		Metrics: rec,
	})

	// Services por módulo
	ownersSvc := owners.NewService(ownerRepo, resolver)
	adoptersSvc := adopters.NewService(adopterRepo, resolver)
	animalsSvc := animals.NewService(animalRepo, ownersSvc, resolver, log.With(map[string]any{"component": "animals"}))

	hub := realtime.NewHub(realtime.Options{
		Logger:  log.With(map[string]any{"component": "realtime"}),
		Metrics: rec,
	})

	matchesSvc := matches.NewService(matches.Deps{
		Repo:      matchRepo,
		Animals:   animalsSvc,
		Adopters:  adoptersSvc,
		Owners:    ownersSvc,
		Publisher: hub,
		Logger:    log.With(map[string]any{"component": "matches"}),
		Metrics:   rec,
	}, matches.Options{AllowReapply: cfg.AllowReapply})

	candidatesSvc := candidates.NewService(candidates.Deps{
		Animals:  animalsSvc,
		Adopters: adoptersSvc,
		Owners:   ownersSvc,
		Matched:  matchesSvc,
		Logger:   log.With(map[string]any{"component": "candidates"}),
		Metrics:  rec,
	})

	// dependencias cruzadas por setter: owners -> animals -> matches
	ownersSvc.SetAnimals(animalsSvc)
	animalsSvc.SetMatchIndex(matchesSvc)
	hub.SetHooks(hubHooks(matchesSvc, log))

	// Rutas por módulo
	owners.RegisterRoutes(r, ownersSvc)
	adopters.RegisterRoutes(r, adoptersSvc)
	candidates.RegisterRoutes(r, candidatesSvc)
	animals.RegisterRoutes(r, animalsSvc)
	matches.RegisterRoutes(r, matchesSvc)

	r.Get("/ws", hub.Handler(realtime.HandlerOptions{
		Verifier:       opts.AuthVerifier,
		AllowedOrigins: cfg.WSAllowedOrigins,
		SendBuffer:     cfg.WSSendBuffer,
	}))

	return &Router{Handler: r, Hub: hub, Matches: matchesSvc}
}

func hubHooks(svc *matches.Service, log logger.Logger) realtime.Hooks {
	return realtime.Hooks{
		CanJoin: svc.CanJoin,
		PostMessage: func(ctx context.Context, caller auth.Claims, matchID, text string) error {
			_, err := svc.PostMessage(ctx, caller, matchID, text)
			return err
		},
		OnConnect: func(ctx context.Context, userID string) {
			if _, err := svc.ReplayPending(ctx, userID); err != nil {
				log.Warn("replay pending failed", map[string]any{"user_id": userID, "err": err})
			}
		},
	}
}

// buildGeocoder: static o nominatim, con cache Redis delante si hay cliente.
func buildGeocoder(cfg *config.Config, rdb *redis.Client, log logger.Logger) geocoding.Geocoder {
	var g geocoding.Geocoder = static.New()

	if cfg.Geocoder == "nominatim" {
		client, err := httpclient.NewWithBaseURL(cfg.NominatimURL, cfg.GeocodeTimeout)
		if err != nil {
			log.Warn("nominatim disabled, using static geocoder", map[string]any{"err": err})
		} else {
			// un intento por llamada: los reintentos los hace geo.Resolver
			client.Retries = 0
			g = nominatim.New(client)
		}
	}

	if rdb != nil {
		g = rediscache.New(g, rdb, cfg.GeocodeCacheTTL, log.With(map[string]any{"component": "geocode_cache"}))
	}
	return g
}
