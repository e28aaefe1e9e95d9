package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/barface/internal/ai"
	"github.com/kozaktomas/barface/internal/config"
	"github.com/kozaktomas/barface/internal/database"
	"github.com/kozaktomas/barface/internal/database/mariadb"
	"github.com/kozaktomas/barface/internal/database/postgres"
	"github.com/kozaktomas/barface/internal/fingerprint"
	"github.com/kozaktomas/barface/internal/recognition"
	"github.com/sirupsen/logrus"
)

// backend holds the storage and recognition services shared by the commands.
type backend struct {
	pool       *postgres.Pool
	mariadb    *mariadb.Pool
	faces      database.FaceWriter
	profiles   database.ProfileWriter
	recognizer *recognition.Service
	analyzer   ai.FaceAnalyzer // nil when disabled
	log        logrus.FieldLogger
}

// openBackend connects the face store, the profile store and the recognition
// service. Close must be called when the command is done.
func openBackend(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*backend, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	log.Info("connecting to PostgreSQL")
	pool, err := postgres.Initialize(ctx, &cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	b := &backend{pool: pool, log: log}

	if cfg.UseMariaDBProfiles() {
		if cfg.MariaDB.DSN == "" {
			b.Close()
			return nil, errors.New("MARIADB_DSN is required when PROFILE_STORE=mariadb")
		}
		log.Info("connecting to MariaDB profile store")
		b.mariadb, err = mariadb.Initialize(ctx, cfg.MariaDB.DSN)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
	}

	if b.faces, err = database.GetFaceWriter(); err != nil {
		b.Close()
		return nil, err
	}
	if b.profiles, err = database.GetProfileWriter(); err != nil {
		b.Close()
		return nil, err
	}

	b.analyzer = newAnalyzer(ctx, cfg, log)
	b.recognizer = recognition.NewService(
		fingerprint.NewEmbeddingClient(cfg.Embedding.URL),
		b.analyzer,
		b.faces,
		cfg.Collection.MaxDistance,
		log,
	)
	return b, nil
}

// newAnalyzer returns the configured face analyzer, or nil when it cannot be
// created. Faces are then enrolled without gender and smile attributes.
func newAnalyzer(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) ai.FaceAnalyzer {
	analyzer, err := ai.NewFaceAnalyzer(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("face analyzer disabled")
		return nil
	}
	log.WithFields(logrus.Fields{
		"provider": cfg.Analyzer.Provider,
		"model":    analyzer.Name(),
	}).Info("face analyzer ready")
	return analyzer
}

// ensureCollection creates the face collection, an existing one is kept.
func ensureCollection(ctx context.Context, rec recognition.Recognizer, collectionID string, log logrus.FieldLogger) error {
	err := rec.CreateCollection(ctx, collectionID)
	switch {
	case err == nil:
		log.WithField("collection", collectionID).Info("collection created")
	case errors.Is(err, recognition.ErrCollectionExists):
		log.WithField("collection", collectionID).Info("collection already exists")
	default:
		return err
	}
	return nil
}

// saveHNSWIndex persists the face index when a path is configured.
func saveHNSWIndex(log logrus.FieldLogger) {
	rebuilder := database.GetFaceHNSWRebuilder()
	if rebuilder == nil || !rebuilder.IsHNSWEnabled() {
		return
	}
	if err := rebuilder.SaveHNSWIndex(); err != nil {
		log.WithError(err).Warn("failed to save face HNSW index")
	}
}

func (b *backend) Close() {
	if b.mariadb != nil {
		if err := b.mariadb.Close(); err != nil {
			b.log.WithError(err).Warn("failed to close MariaDB")
		}
	}
	if b.pool != nil {
		if err := b.pool.Close(); err != nil {
			b.log.WithError(err).Warn("failed to close PostgreSQL")
		}
	}
}
