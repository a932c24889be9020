package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// This file centralizes all Redis keys and TTL values for the adslot service
// Pattern: adslot:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

// Semi-Static Data (Medium TTL: changes occasionally)
const (
	TTL_SEMI_STATIC_SHORT = 1 * time.Hour    // 1 hour - for slot configurations
	TTL_SEMI_STATIC_QUICK = 15 * time.Minute // 15 minutes - for slot listings
)

// Dynamic Data (Short TTL: changes frequently)
const (
	TTL_DYNAMIC_MEDIUM = 10 * time.Minute // 10 minutes - for analytics summaries
)

// Highly Dynamic (Micro TTL: real-time sensitive)
const (
	TTL_REALTIME_SHORT = 30 * time.Second // 30 seconds - for snapshot staleness
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "adslot"
)

// ================== SLOTS MODULE ==================

const (
	CACHE_KEY_SLOTS_LIST  = CACHE_PREFIX + ":slots:list"   // + :page:X:limit:Y
	CACHE_KEY_SLOT_DETAIL = CACHE_PREFIX + ":slots:detail:" // + slot-id

	TTL_SLOTS_LIST  = TTL_SEMI_STATIC_QUICK
	TTL_SLOT_DETAIL = TTL_SEMI_STATIC_SHORT
)

// ================== PLACEMENTS MODULE ==================

const (
	// Per-slot occupancy records for the redis slot store
	CACHE_KEY_SLOT_RECORD = CACHE_PREFIX + ":placements:record:" // + slot-id
	CACHE_KEY_SLOT_IDS    = CACHE_PREFIX + ":placements:slots"

	// Per-slot mutation lock shared by API instances
	CACHE_KEY_SLOT_LOCK = CACHE_PREFIX + ":placements:lock:" // + slot-id

	// Content reference of the latest placements snapshot
	CACHE_KEY_SNAPSHOT_HEAD = CACHE_PREFIX + ":placements:snapshot:head"
)

// ================== ANALYTICS MODULE ==================

const (
	CACHE_KEY_ANALYTICS_SLOT = CACHE_PREFIX + ":analytics:slot:" // + slot-id

	TTL_ANALYTICS_SLOT = TTL_DYNAMIC_MEDIUM
)

// ================== INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_SLOTS_ALL = CACHE_PREFIX + ":slots:*"
	PATTERN_INVALIDATE_ANALYTICS = CACHE_PREFIX + ":analytics:*"
)

// ================== HELPER FUNCTIONS ==================

// BuildSlotListKey constructs the slot listing key
// Example: BuildSlotListKey(1, 20) -> "adslot:slots:list:page:1:limit:20"
func BuildSlotListKey(page, limit int) string {
	return CACHE_KEY_SLOTS_LIST + ":page:" + fmt.Sprintf("%d", page) + ":limit:" + fmt.Sprintf("%d", limit)
}

func BuildSlotDetailKey(slotID string) string {
	return CACHE_KEY_SLOT_DETAIL + slotID
}

func BuildSlotRecordKey(slotID string) string {
	return CACHE_KEY_SLOT_RECORD + slotID
}

func BuildAnalyticsSlotKey(slotID string) string {
	return CACHE_KEY_ANALYTICS_SLOT + slotID
}
