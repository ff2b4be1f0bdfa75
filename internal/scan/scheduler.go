package scan

import (
	"context"
	"runtime/debug"
	"time"
)

// ScanCycle processes one bounded batch of due queries. A panic anywhere in
// the cycle is logged and swallowed; whatever was persisted before the
// failure is kept and the next cycle starts fresh.
func (s *Scanner) ScanCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Errorf("ScanCycle: CYCLE CRASHED: %+v, stack trace:\n%s", r, debug.Stack())
		}
	}()

	s.Logger.Info("ScanCycle: Starting scan cycle")
	queries, err := s.DB.SearchQueriesFindDue(ctx, s.Policy.MaxQueriesPerCycle)
	if err != nil {
		s.Logger.Errorf("ScanCycle: Error getting due SearchQueries from DB, err: %v", err)
		return
	}
	s.Logger.Infof("ScanCycle: Retrieved %d due SearchQuery(s) from DB", len(queries))

	for i, q := range queries {
		spec, ok := s.Catalog.Products[q.ProductKey]
		if !ok {
			s.Logger.Errorf("ScanCycle: No catalog entry for ProductKey: %s, skipping", q.ProductKey)
			continue
		}
		s.Logger.Infof("ScanCycle: Scanning ProductKey: %s, query: %q, bounds: %.2f-%.2f",
			q.ProductKey, q.SearchText, q.PriceFrom, q.PriceTo)
		found := s.scanQuery(ctx, q, spec)
		if err := s.DB.SearchQueryCycleUpdate(ctx, q.ProductKey, found); err != nil {
			s.Logger.Errorf("ScanCycle: Error updating SearchQuery cycle state for ProductKey: %s, err: %v", q.ProductKey, err)
		}
		s.Logger.Infof("ScanCycle: Finished ProductKey: %s, new deals: %d", q.ProductKey, found)
		if i < len(queries)-1 {
			s.sleep(s.Policy.QueryDelay)
		}
	}
	s.Logger.Info("ScanCycle: Finished scan cycle")
}

// ScanInInterval runs a cycle on every tick, or earlier when Trigger is
// called, until ctx is cancelled. Cycle failures never terminate the loop.
func (s *Scanner) ScanInInterval(ctx context.Context, ticker *time.Ticker) {
	for {
		select {
		case <-ticker.C:
			s.ScanCycle(ctx)
		case <-s.trigger:
			s.ScanCycle(ctx)
		case <-ctx.Done():
			s.Logger.Info("ScanInInterval: Context done, stopping scheduler")
			return
		}
	}
}

// Trigger requests an immediate cycle. Returns false when a trigger is
// already pending.
func (s *Scanner) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}
