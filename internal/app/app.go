// Package app builds the services shared by the site server and sitectl
// from a loaded configuration. Every backing service is optional: without
// Mongo, Redis, MinIO, NATS or Odoo settings the matching in-memory or
// disabled implementation is used.
package app

import (
	"context"
	"time"

	"github.com/lieuxdexception/site/internal/audit"
	"github.com/lieuxdexception/site/internal/config"
	"github.com/lieuxdexception/site/internal/content"
	"github.com/lieuxdexception/site/internal/database"
	"github.com/lieuxdexception/site/internal/events"
	"github.com/lieuxdexception/site/internal/images"
	"github.com/lieuxdexception/site/internal/leads"
	"github.com/lieuxdexception/site/internal/media"
	"github.com/lieuxdexception/site/internal/odoo"
	"github.com/lieuxdexception/site/internal/runs"
	"github.com/lieuxdexception/site/internal/sessions"
	"github.com/lieuxdexception/site/internal/storage"
	"github.com/lieuxdexception/site/internal/users"
	"github.com/lieuxdexception/site/internal/venues"
	"github.com/lieuxdexception/site/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// MediaPath is where the server exposes the in-memory store.
const MediaPath = "/media"

// Options tunes Build. The server retries Mongo at startup; sitectl fails fast.
type Options struct {
	MongoAttempts int
}

// Deps are the wired services. Fields for unconfigured backends are nil
// (Mongo, Redis, MinIO, CRM) and the services run on memory instead.
type Deps struct {
	Config *config.Config

	Mongo *mongo.Client
	Redis *redis.Client
	MinIO *storage.MinIOStorage
	CRM   *odoo.Client
	Bus   events.Publisher
	Sub   events.Subscriber

	Store     storage.BlobStore
	Venues    *venues.Service
	Content   *content.Service
	Media     *media.Service
	Leads     *leads.Service
	Users     *users.Service
	Sessions  *sessions.Service
	Blacklist *sessions.Blacklist
	Audit     audit.Recorder
	Runs      *runs.Store

	log *logger.Component
}

// Build connects what cfg asks for and wires the services on top. Only a
// broken presets file or object store is fatal; unreachable Mongo and Redis
// degrade to memory with a warning.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Deps, error) {
	if opts.MongoAttempts <= 0 {
		opts.MongoAttempts = 1
	}
	d := &Deps{Config: cfg, log: logger.For("app")}

	presets, err := images.LoadPresets(cfg.Images.PresetsFile)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Enabled() {
		m, err := storage.NewMinIOStorage(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		d.MinIO = m
		d.Store = m
	} else {
		d.Store = storage.NewMemoryStore(cfg.Site.BaseURL + MediaPath)
	}

	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			d.log.Warnf("redis %s:%s unreachable (%v); sessions and limits stay in memory", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = client.Close()
		} else {
			d.Redis = client
			d.log.Infof("connected to redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	var db *mongo.Database
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, opts.MongoAttempts, func(attempt int, err error) {
			d.log.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, opts.MongoAttempts, err)
		})
		if err != nil {
			d.log.Warnf("%v; using in-memory repositories", err)
		} else {
			d.Mongo = client
			db = client.Database(cfg.MongoDB.Database)
			if err := database.EnsureIndexes(ctx, db); err != nil {
				d.log.Warnf("ensure indexes: %v", err)
			}
		}
	}

	var crm leads.CRM
	if cfg.Odoo.Enabled() {
		c, err := odoo.NewClient(odoo.Config{
			URL:      cfg.Odoo.URL,
			Database: cfg.Odoo.Database,
			Username: cfg.Odoo.Username,
			APIKey:   cfg.Odoo.APIKey,
			Timeout:  cfg.Odoo.Timeout,
		})
		if err != nil {
			d.log.Warnf("odoo client: %v; leads will not be synced", err)
		} else {
			d.CRM = c
			crm = c
		}
	}

	natsOn := false
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSBus(cfg.NATS.URL)
		if err != nil {
			d.log.Warnf("%v; falling back to in-process events", err)
		} else {
			d.Bus, d.Sub = bus, bus
			natsOn = true
		}
	}
	if d.Bus == nil {
		bus := events.NewMemoryBus()
		d.Bus, d.Sub = bus, bus
	}

	var (
		venueRepo  venues.Repository
		pageRepo   content.PageRepository
		tlRepo     content.TimelineRepository
		mediaRepo  media.Repository
		leadRepo   leads.Repository
		userRepo   users.UserRepository
		sessRepo   sessions.Repository
		runsColl   *mongo.Collection
		auditStore audit.Recorder
	)
	if db != nil {
		venueRepo = venues.NewMongoRepo(db.Collection(database.CollVenues))
		cr := content.NewMongoRepo(db.Collection(database.CollPages), db.Collection(database.CollTimeline))
		pageRepo, tlRepo = cr, cr
		mediaRepo = media.NewMongoRepo(db.Collection(database.CollMedia))
		leadRepo = leads.NewMongoRepo(db.Collection(database.CollLeads))
		userRepo = users.NewMongoUserRepository(db.Collection(database.CollUsers))
		sessRepo = sessions.NewMongoRepository(db.Collection(database.CollSessions))
		auditStore = audit.NewMongoRecorder(db.Collection(database.CollAudit))
		runsColl = db.Collection(database.CollRuns)
	} else {
		venueRepo = venues.NewMemoryRepo()
		cr := content.NewMemoryRepo()
		pageRepo, tlRepo = cr, cr
		mediaRepo = media.NewMemoryRepo()
		leadRepo = leads.NewMemoryRepo()
		userRepo = users.NewMemoryUserRepository()
		sessRepo = sessions.NewMemoryRepository()
		auditStore = audit.NewMemoryRecorder()
	}
	// Redis sessions win over Mongo ones when both are configured.
	if d.Redis != nil {
		sessRepo = sessions.NewRedisRepository(d.Redis, "session:")
	}

	d.Venues = venues.NewService(venueRepo)
	d.Content = content.NewService(pageRepo, tlRepo)
	d.Media = media.NewService(mediaRepo, d.Store, presets, cfg.Images.MaxUploadBytes)
	d.Leads = leads.NewService(leadRepo, leads.Options{
		CRM:         crm,
		Publisher:   d.Bus,
		SyncMode:    cfg.Odoo.SyncMode,
		MaxAttempts: cfg.Odoo.MaxAttempts,
	})
	d.Sessions = sessions.NewService(sessRepo)
	d.Blacklist = sessions.NewBlacklist(d.Redis)
	d.Users = users.NewService(userRepo, cfg.Site.AdminEmails, d.Sessions)
	d.Audit = auditStore
	d.Runs = runs.NewStore(runsColl)

	d.log.Infof("services ready: mongo=%v redis=%v minio=%v odoo=%v nats=%v",
		d.Mongo != nil, d.Redis != nil, d.MinIO != nil, d.CRM != nil, natsOn)
	return d, nil
}

// Presets returns the image presets in use, for sitectl optimize-images.
func (d *Deps) Presets() ([]images.Preset, error) {
	return images.LoadPresets(d.Config.Images.PresetsFile)
}

// Close releases every connection Build opened.
func (d *Deps) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if d.Bus != nil {
		_ = d.Bus.Close()
	}
	if d.CRM != nil {
		_ = d.CRM.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.Mongo != nil {
		if err := d.Mongo.Disconnect(ctx); err != nil {
			d.log.Warnf("mongo disconnect: %v", err)
		}
	}
}
