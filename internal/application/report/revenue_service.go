package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
)

// DefaultCacheTTL bounds how stale a cached revenue report may get even
// without invalidation.
const DefaultCacheTTL = 5 * time.Minute

// RevenueBucket is the revenue of one currency over the requested range
type RevenueBucket struct {
	Currency  string          `json:"currency"`
	Total     decimal.Decimal `json:"total"`
	SaleCount int64           `json:"sale_count"`
}

// RevenueReport is the dashboard revenue summary for a shop and date range
type RevenueReport struct {
	ShopID   uuid.UUID       `json:"shop_id"`
	From     time.Time       `json:"from"`
	To       time.Time       `json:"to"`
	Buckets  []RevenueBucket `json:"buckets"`
	CachedAt time.Time       `json:"cached_at"`
}

// RevenueCache caches revenue reports. Implementations live in the
// infrastructure layer (Redis in production, in-memory for tests).
type RevenueCache interface {
	// Get returns the cached report for the key, or (nil, nil) on a miss
	Get(ctx context.Context, key string) (*RevenueReport, error)
	// Set stores the report under the key with a TTL
	Set(ctx context.Context, key string, report *RevenueReport, ttl time.Duration) error
	// InvalidateShop drops every cached report of one shop
	InvalidateShop(ctx context.Context, tenantID, shopID uuid.UUID) error
}

// RevenueService serves the revenue dashboard query, read-through cached.
type RevenueService struct {
	saleRepo sales.SaleRepository
	cache    RevenueCache
	clock    shared.Clock
	ttl      time.Duration
}

// NewRevenueService creates a new RevenueService. cache may be nil, which
// disables caching.
func NewRevenueService(saleRepo sales.SaleRepository, cache RevenueCache, clock shared.Clock) *RevenueService {
	return &RevenueService{
		saleRepo: saleRepo,
		cache:    cache,
		clock:    clock,
		ttl:      DefaultCacheTTL,
	}
}

// SetTTL overrides the cache TTL
func (s *RevenueService) SetTTL(ttl time.Duration) {
	s.ttl = ttl
}

// GetRevenue returns the per-currency revenue of completed sales for a shop
// over [from, to). Results come from the cache when fresh.
func (s *RevenueService) GetRevenue(ctx context.Context, tenantID, shopID uuid.UUID, from, to time.Time) (*RevenueReport, error) {
	if !to.After(from) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Range end must be after range start")
	}

	key := revenueKey(tenantID, shopID, from, to)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != nil {
			return cached, nil
		}
	}

	totals, err := s.saleRepo.RevenueTotals(ctx, tenantID, shopID, from, to)
	if err != nil {
		return nil, err
	}

	buckets := make([]RevenueBucket, 0, len(totals))
	for _, total := range totals {
		buckets = append(buckets, RevenueBucket{
			Currency:  string(total.Currency),
			Total:     total.Total,
			SaleCount: total.Count,
		})
	}
	report := &RevenueReport{
		ShopID:   shopID,
		From:     from,
		To:       to,
		Buckets:  buckets,
		CachedAt: s.clock.Now(),
	}

	if s.cache != nil {
		// cache failures only cost the next read a query
		_ = s.cache.Set(ctx, key, report, s.ttl)
	}
	return report, nil
}

// Invalidate drops the shop's cached reports. Called when a sale is recorded
// or cancelled.
func (s *RevenueService) Invalidate(ctx context.Context, tenantID, shopID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateShop(ctx, tenantID, shopID)
}

func revenueKey(tenantID, shopID uuid.UUID, from, to time.Time) string {
	return fmt.Sprintf("revenue:%s:%s:%d:%d", tenantID, shopID, from.Unix(), to.Unix())
}
