package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/handlers"
	"github.com/lieuxdexception/site/internal/app"
	"github.com/lieuxdexception/site/internal/consent"
	"github.com/lieuxdexception/site/internal/oidc"
	"github.com/lieuxdexception/site/internal/site"
	"github.com/lieuxdexception/site/internal/storage"
	"github.com/lieuxdexception/site/internal/tokens"
	"github.com/lieuxdexception/site/pkg/logger"
	"github.com/lieuxdexception/site/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var startTime = time.Now()

// newRouter mounts the public site, the JSON APIs and the ops endpoints on
// a fresh engine.
func newRouter(ctx context.Context, d *app.Deps) (*gin.Engine, error) {
	cfg := d.Config

	r := gin.New()
	r.Use(middleware.RequestID(), gin.Logger(), gin.Recovery())
	r.Use(cors(cfg.Server.Environment, cfg.Site.BaseURL))

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware("global", cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	auth := handlers.NewAuthHandler(cfg, d.Users, d.Sessions, d.Blacklist)
	kc := cfg.Keycloak
	if kc.URL != "" && kc.Realm != "" && kc.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, oidc.IssuerURL(strings.TrimRight(kc.URL, "/"), kc.Realm), kc.ClientID)
		if err != nil {
			// the handler retries discovery on the first login
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			auth.WithIDVerifier(ver)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readiness(d, auth))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	if d.MinIO == nil {
		r.GET(app.MediaPath+"/*key", serveMedia(d.Store))
	}

	(&consent.Handler{Secure: strings.HasPrefix(cfg.Site.BaseURL, "https://")}).Register(r)
	auth.Register(r.Group("/"))

	admin := &handlers.AdminHandler{
		Venues:  d.Venues,
		Content: d.Content,
		Media:   d.Media,
		Store:   d.Store,
		Leads:   d.Leads,
		Users:   d.Users,
		Audit:   d.Audit,
	}
	admin.Register(r.Group("/"), middleware.AuthMiddleware(tokens.NewVerifier(cfg.JWT.Secret), d.Blacklist))

	s := &site.Site{
		Name:        cfg.Site.Name,
		BaseURL:     cfg.Site.BaseURL,
		AnalyticsID: cfg.Site.AnalyticsID,
		Venues:      d.Venues,
		Content:     d.Content,
		Media:       d.Media,
		Leads:       d.Leads,
		Store:       d.Store,
	}
	s.ContactLimiter = middleware.ContactLimit(d.Redis, cfg.RateLimit.ContactLimit, cfg.RateLimit.ContactWindow, s.ContactRejected)
	if err := s.Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

// cors allows any origin in development and only the site itself otherwise.
func cors(env, baseURL string) gin.HandlerFunc {
	origin := baseURL
	if env == "development" || origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		h.Set("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// readiness answers 200 only when every configured backend responds. Odoo
// is reported but never blocks: CRM outages leave leads pending.
func readiness(d *app.Deps, auth *handlers.AuthHandler) gin.HandlerFunc {
	cfg := d.Config
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		deps := map[string]bool{}
		if cfg.MongoDB.URI != "" {
			deps["mongo"] = d.Mongo != nil && d.Mongo.Ping(ctx, nil) == nil
		} else {
			deps["mongo"] = true
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = d.Redis != nil && d.Redis.Ping(ctx).Err() == nil
		} else {
			deps["redis"] = true
		}
		if d.MinIO != nil {
			deps["storage"] = d.MinIO.Ping(ctx) == nil
		} else {
			deps["storage"] = true
		}
		if cfg.Keycloak.URL != "" {
			deps["oidc"] = auth.VerifierReady()
		} else {
			deps["oidc"] = true
		}

		ready := true
		for _, ok := range deps {
			ready = ready && ok
		}
		deps["odoo"] = d.CRM != nil

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	}
}

// serveMedia streams objects of the in-memory store, which has no URL of
// its own.
func serveMedia(store storage.BlobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := storage.CleanKey(c.Param("key"))
		if err != nil || key == "" {
			c.Status(http.StatusNotFound)
			return
		}
		rc, err := store.Download(c.Request.Context(), key)
		if errors.Is(err, storage.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Errorf("media %s: %v", key, err)
			c.Status(http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		c.Header("Content-Type", storage.ContentTypeFor(key))
		c.Header("Cache-Control", "public, max-age=86400")
		c.Status(http.StatusOK)
		_, _ = io.Copy(c.Writer, rc)
	}
}
