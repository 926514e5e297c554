package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/layer-3/gatekeeper/adapters/events"
	"github.com/layer-3/gatekeeper/adapters/store"
	"github.com/layer-3/gatekeeper/adapters/tokenizer"
	"github.com/layer-3/gatekeeper/audit"
	"github.com/layer-3/gatekeeper/config"
	"github.com/layer-3/gatekeeper/csrf"
	"github.com/layer-3/gatekeeper/ports"
	"github.com/layer-3/gatekeeper/ratelimit"
	"github.com/layer-3/gatekeeper/service"
	httptransport "github.com/layer-3/gatekeeper/transport/http"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "gatekeeper").Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	signKey, err := loadSigningKey(cfg.Server.SigningKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid signing key")
	}

	var (
		kvStore   ports.Store
		publisher ports.EventPublisher
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to parse Redis URL")
		}
		redisClient := redis.NewClient(opts)

		wmPublisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Redis publisher")
		}

		kvStore = store.NewRedisStore(redisClient)
		publisher = events.NewWatermillPublisher(wmPublisher)
		log.Info().Msg("using redis store and event stream")
	} else {
		memStore := store.NewMemoryStore()
		go func() {
			for range time.Tick(time.Minute) {
				memStore.Sweep()
			}
		}()
		kvStore = memStore
		log.Info().Msg("using in-memory store; events stay local")
	}

	auditLog := audit.NewLogger(log, publisher)

	authService := service.NewAuthService(
		kvStore,
		tokenizer.NewJWTTokenizer(signKey),
		auditLog,
		cfg.Session.ChallengeTTL,
		cfg.Session.SessionTTL,
	)
	csrfManager := csrf.NewManager(cfg.Csrf.Secret, cfg.Csrf.TokenTTL)

	limiter := ratelimit.NewLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	go func() {
		for range time.Tick(5 * time.Minute) {
			limiter.Sweep()
		}
	}()

	cookies := httptransport.NewCookieManager(cfg.Production())

	router := httptransport.SetupRouter(authService, csrfManager, limiter, cookies, auditLog)

	log.Info().Str("addr", cfg.Server.ListenAddr).Msg("starting server")
	if err := router.Run(cfg.Server.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// loadSigningKey parses a hex-encoded DER EC private key, or generates an
// ephemeral one. With an ephemeral key, sessions do not survive restarts;
// acceptable for a single-authority deployment.
func loadSigningKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if hexKey == "" {
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	der, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, err
	}
	return x509.ParseECPrivateKey(der)
}
