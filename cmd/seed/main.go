package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"adslot/api/routes"
	"adslot/internal/content"
	"adslot/internal/notifications"
	"adslot/internal/placements"
	"adslot/internal/shared/config"
	"adslot/internal/shared/database"
	"adslot/internal/shared/middleware"
	"adslot/internal/slots"
)

const (
	demoPublisher  = "0x6d63C3DD44983CddEeA8cB2e730b82daE2E91E32"
	demoAdvertiser = "0x742d35Cc6634C0532925a3b8D4C9db96C4b4d8b6"
)

type demoSlot struct {
	SlotID     string
	Identifier string
	Size       slots.Size
	Category   string
	BasePrice  string
	ContentURL string
}

var demoSlots = []demoSlot{
	{"demo-header", "Demo header banner", slots.SizeBanner, "demo", "0.25", "https://picsum.photos/728/90?random=1"},
	{"demo-square", "Demo square", slots.SizeSquare, "demo", "0.15", "https://picsum.photos/300/250?random=2"},
	{"demo-mobile", "Demo mobile banner", slots.SizeMobile, "demo", "0.08", "https://picsum.photos/320/60?random=3"},
	{"header-banner", "Header banner", slots.SizeBanner, "news", "0.25", "https://picsum.photos/728/90?random=4"},
	{"sidebar", "Sidebar skyscraper", slots.SizeSidebar, "news", "0.12", "https://picsum.photos/160/600?random=5"},
	{"mid-article", "Mid article square", slots.SizeSquare, "news", "0.18", "https://picsum.photos/300/250?random=6"},
	{"footer-banner", "Footer banner", slots.SizeBanner, "news", "0.20", "https://picsum.photos/728/90?random=7"},
}

type Seeder struct {
	db        *database.DB
	allocator placements.Allocator
}

func main() {
	fmt.Println("Starting ad slot seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	appRouter, err := routes.NewRouter(cfg, db, notifications.NewLogPublisher())
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}

	seeder := &Seeder{db: db, allocator: appRouter.Allocator()}
	ctx := context.Background()

	fmt.Println("\nSeeding slots...")
	if err := seeder.SeedSlots(ctx); err != nil {
		log.Fatalf("Failed to seed slots: %v", err)
	}

	minutes := 60
	if v, err := strconv.Atoi(os.Getenv("SEED_PLACEMENT_MINUTES")); err == nil && v > 0 {
		minutes = v
	}
	fmt.Println("\nSeeding test placements...")
	if err := seeder.SeedPlacements(ctx, minutes); err != nil {
		log.Fatalf("Failed to seed placements: %v", err)
	}

	fmt.Println("\nAccess tokens (24h):")
	for _, role := range []string{middleware.RolePublisher, middleware.RoleFacilitator, middleware.RoleAdmin} {
		token, err := middleware.IssueAccessToken(cfg.JWT.Secret, demoPublisher, role, 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to issue %s token: %v", role, err)
		}
		fmt.Printf("  %-12s %s\n", role, token)
	}

	fmt.Println("\nSeeding completed.")
}

// SeedSlots registers the demo slots, replacing any earlier copies
func (s *Seeder) SeedSlots(ctx context.Context) error {
	ids := make([]string, 0, len(demoSlots))
	for _, d := range demoSlots {
		ids = append(ids, d.SlotID)
	}
	if err := s.db.PostgreSQL.WithContext(ctx).Where("slot_id IN ?", ids).Delete(&slots.AdSlot{}).Error; err != nil {
		return fmt.Errorf("failed to clear demo slots: %w", err)
	}

	for _, d := range demoSlots {
		width, height := d.Size.DefaultDimensions()
		slot := &slots.AdSlot{
			SlotID:          d.SlotID,
			Identifier:      d.Identifier,
			Size:            d.Size,
			Width:           width,
			Height:          height,
			BasePrice:       decimal.RequireFromString(d.BasePrice),
			DurationOptions: slots.StringList{"1h", "6h", "24h"},
			Category:        d.Category,
			WebsiteURL:      "https://example.com",
			PublisherWallet: demoPublisher,
		}
		if err := s.db.PostgreSQL.WithContext(ctx).Create(slot).Error; err != nil {
			return fmt.Errorf("failed to create slot %s: %w", d.SlotID, err)
		}
		fmt.Printf("  %-14s %s USDC\n", d.SlotID, d.BasePrice)
	}
	return nil
}

// SeedPlacements claims every demo slot that is still free
func (s *Seeder) SeedPlacements(ctx context.Context, minutes int) error {
	for _, d := range demoSlots {
		occupant, err := s.allocator.GetOccupant(ctx, d.SlotID)
		if err != nil {
			return err
		}
		if occupant != nil {
			fmt.Printf("  %-14s already occupied by %s\n", d.SlotID, occupant.PlacementID)
			continue
		}

		ref, err := content.ComputeRef([]byte(d.ContentURL))
		if err != nil {
			return err
		}
		result, err := s.allocator.SubmitClaim(ctx, placements.Claim{
			SlotID:          d.SlotID,
			BidderAddress:   demoAdvertiser,
			ContentRef:      ref,
			ContentURL:      d.ContentURL,
			Price:           d.BasePrice,
			DurationMinutes: minutes,
			TransactionRef:  "seed",
		})
		if err != nil {
			return fmt.Errorf("failed to claim %s: %w", d.SlotID, err)
		}
		fmt.Printf("  %-14s %s (%s)\n", d.SlotID, result.PlacementID, result.ActivationStatus)
	}
	return nil
}
