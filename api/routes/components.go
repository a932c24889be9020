package routes

import (
	"fmt"
	"strings"

	"github.com/raulk/clock"

	"adslot/internal/content"
	"adslot/internal/placements"
	"adslot/internal/shared/config"
	"adslot/internal/shared/database"
	"adslot/pkg/logger"
)

// newContentStore picks the ad content backend
func newContentStore(cfg *config.Config) (content.Store, error) {
	switch strings.ToLower(cfg.Content.Backend) {
	case "memory":
		return content.NewMemoryStore(cfg.PublicURL + cfg.GetAPIBasePath() + "/content"), nil
	case "lighthouse":
		return content.NewLighthouseStore(content.LighthouseConfig{
			APIKey:       cfg.Content.LighthouseAPIKey,
			UploadURL:    cfg.Content.UploadURL,
			GatewayURL:   cfg.Content.GatewayURL,
			Timeout:      cfg.Content.Timeout,
			MaxFetchSize: cfg.Content.MaxUploadSize,
		}, nil)
	}
	return nil, fmt.Errorf("unknown content backend %q", cfg.Content.Backend)
}

// newSlotStore picks where slot records live
func newSlotStore(cfg *config.Config, db *database.DB, contentStore content.Store, clk clock.Clock) (placements.Store, error) {
	switch strings.ToLower(cfg.Placement.StoreBackend) {
	case "memory":
		logger.GetDefault().Warn("Slot records are kept in memory and are lost on restart")
		return placements.NewMemoryStore(), nil
	case "snapshot":
		var head placements.HeadPointer
		if strings.EqualFold(cfg.Placement.SnapshotHead, "memory") {
			head = placements.NewMemoryHead("")
		} else {
			head = placements.NewRedisHead(db.Redis)
		}
		return placements.NewSnapshotStore(contentStore, head, cfg.Placement.SnapshotStaleness, clk), nil
	case "redis":
		return placements.NewRedisStore(db.Redis), nil
	case "postgres":
		return placements.NewGormStore(db.PostgreSQL), nil
	}
	return nil, fmt.Errorf("unknown placement store %q", cfg.Placement.StoreBackend)
}

func newLocker(cfg *config.Config, db *database.DB) placements.Locker {
	if strings.EqualFold(cfg.Placement.Locker, "redis") && db.Redis != nil {
		return placements.NewRedisLocker(db.Redis, cfg.Placement.LockTTL, cfg.Placement.LockWait)
	}
	return placements.NewKeyedLocker()
}
