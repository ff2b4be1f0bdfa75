// Package scan drives the deal-finding pipeline: for each due search query it
// paginates the marketplace search, runs every listing through the filter and
// enrichment stages in strict order, persists survivors and notifies them.
// Everything runs on a single goroutine; rate limiting is explicit sleeps
// between pages, listings and queries.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"dealfinder/internal/bundle"
	"dealfinder/internal/catalog"
	"dealfinder/internal/client"
	"dealfinder/internal/database"
	"dealfinder/internal/filter"
	"dealfinder/internal/misc"
	"dealfinder/internal/model"
	"dealfinder/internal/pricing"
)

type store interface {
	SearchQueryUpsert(ctx context.Context, q database.SearchQuery) error
	SearchQueriesFindDue(ctx context.Context, limit int) ([]database.SearchQuery, error)
	SearchQueryCycleUpdate(ctx context.Context, productKey string, found int) error
	TrackedItemExists(ctx context.Context, listingID string) (bool, error)
	TrackedItemInsert(ctx context.Context, ti database.TrackedItem) error
}

type marketplace interface {
	SearchListings(ctx context.Context, p client.SearchParams) ([]model.Listing, error)
	ListingDetail(ctx context.Context, url string, useCache bool) (model.ListingDetail, error)
	RefreshSession(ctx context.Context) error
}

type notifier interface {
	DiscordNotifyDeal(ctx context.Context, n client.DealNotification) error
}

type logger interface {
	Debug(v ...any)
	Info(v ...any)
	Error(v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

// Policy bundles the pacing and bounds of a scan cycle. Delays of zero skip
// the sleep, which is what tests rely on.
type Policy struct {
	MaxPagesPerSearch   int
	PerPage             int
	MaxQueriesPerCycle  int
	PageRetries         int
	PageDelay           time.Duration
	ListingDelay        time.Duration
	QueryDelay          time.Duration
	RetryDelay          time.Duration
	SessionResetDelay   time.Duration
	MinSellerReputation int
	SearchOrder         string
}

// DefaultPolicy mirrors the pacing the marketplace tolerates in practice.
func DefaultPolicy() Policy {
	return Policy{
		MaxPagesPerSearch:  12,
		PerPage:            24,
		MaxQueriesPerCycle: 5,
		PageRetries:        3,
		PageDelay:          6 * time.Second,
		ListingDelay:       1 * time.Second,
		QueryDelay:         15 * time.Second,
		RetryDelay:         10 * time.Second,
		SessionResetDelay:  60 * time.Second,
		SearchOrder:        "newest_first",
	}
}

type Scanner struct {
	DB       store
	Market   marketplace
	Notifier notifier
	Catalog  *catalog.Catalog
	Policy   Policy
	Logger   logger

	trigger chan struct{}
}

func NewScanner(db store, market marketplace, notifier notifier, cat *catalog.Catalog, policy Policy, log logger) *Scanner {
	return &Scanner{
		DB:       db,
		Market:   market,
		Notifier: notifier,
		Catalog:  cat,
		Policy:   policy,
		Logger:   log,
		trigger:  make(chan struct{}, 1),
	}
}

// SyncCatalog upserts one Search Query per Product Spec with price bounds
// derived from the spec's band. Idempotent; run at every startup.
func (s *Scanner) SyncCatalog(ctx context.Context) error {
	for _, key := range s.Catalog.Keys() {
		spec := s.Catalog.Products[key]
		q := database.SearchQuery{
			ProductKey: key,
			SearchText: spec.SearchText(),
			PriceFrom:  spec.Band.MinBuy,
			PriceTo:    spec.Band.MaxBuy,
		}
		if err := s.DB.SearchQueryUpsert(ctx, q); err != nil {
			return errors.Wrapf(err, "error syncing catalog entry: %s", key)
		}
	}
	s.Logger.Infof("SyncCatalog: Synced %d SearchQueries from catalog", len(s.Catalog.Products))
	return nil
}

// processListing runs one listing through the pipeline stages in strict
// order. Each stage is a potential exit point; an error return means an
// infrastructure failure, not a rejection.
func (s *Scanner) processListing(ctx context.Context, spec catalog.ProductSpec, l model.Listing) (listingResult, error) {
	exists, err := s.DB.TrackedItemExists(ctx, l.ID)
	if err != nil {
		return listingResult{}, err
	}
	if exists {
		return listingResult{outcome: outcomeDuplicate, rejection: rejection{stage: stageDedup}}, nil
	}

	if excluded, term := s.titleExcluded(spec, l.Title); excluded {
		return rejected(stageTitle, "excluded term: "+term), nil
	}
	if !filter.RequiredPresent(l.Title, spec.MustContain) {
		return rejected(stageTitle, "missing required keywords"), nil
	}

	// Green light: fetch the listing page. Enrichment failure is not listing
	// failure; the listing continues with an unknown description/reputation.
	detail, err := s.Market.ListingDetail(ctx, l.URL, true)
	if err != nil {
		s.Logger.Errorf("processListing: Error enriching ListingID: %s, continuing without description, err: %v", l.ID, err)
		detail = model.ListingDetail{}
	}

	if minRep := s.minReputation(spec); minRep > 0 && detail.SellerReputation != nil && *detail.SellerReputation < minRep {
		return rejected(stageReputation,
			fmt.Sprintf("seller reputation %d below minimum %d", *detail.SellerReputation, minRep)), nil
	}

	if excluded, term := filter.DescriptionExcluded(detail.Description, s.Catalog.Filters.DescriptionExcluded); excluded {
		return rejected(stageDescription, "excluded term: "+term), nil
	}

	variant := bundle.ClassifyListing(l.Title, detail.Description, spec.Key)
	profit, margin := pricing.Score(spec, variant, l.Price)
	quality := pricing.QualityScore(detail.Description, s.Catalog.Filters.PositiveIndicators)

	ti := database.TrackedItem{
		ListingID:         l.ID,
		ProductKey:        spec.Key,
		Title:             l.Title,
		Price:             l.Price,
		Currency:          l.Currency,
		URL:               l.URL,
		PhotoURL:          l.PhotoURL,
		Description:       detail.Description,
		Seller:            l.Uploader,
		SellerReputation:  detail.SellerReputation,
		TitlePassed:       true,
		DescriptionPassed: true,
		Variant:           variant,
		Profit:            profit,
		Margin:            margin,
		Quality:           quality,
		NotifiedAt:        primitive.NewDateTimeFromTime(time.Now()),
	}
	// The insert is what makes the listing permanently "seen". It must land
	// before the notification attempt so a failed notification is never
	// re-sent on the next cycle.
	if err := s.DB.TrackedItemInsert(ctx, ti); err != nil {
		if errors.Is(err, database.ErrTrackedItemExists) {
			return listingResult{outcome: outcomeDuplicate, rejection: rejection{stage: stageDedup}}, nil
		}
		return listingResult{}, err
	}

	if err := s.Notifier.DiscordNotifyDeal(ctx, client.DealNotification{
		ProductKey: spec.Key,
		Variant:    variant,
		Title:      l.Title,
		URL:        l.URL,
		PhotoURL:   l.PhotoURL,
		Seller:     l.Uploader,
		Reputation: detail.SellerReputation,
		Price:      l.Price,
		Currency:   l.Currency,
		Profit:     profit,
		Margin:     margin,
		Quality:    quality,
	}); err != nil {
		s.Logger.Errorf("processListing: Error notifying deal for ListingID: %s, not retrying, err: %v", l.ID, err)
	}

	return listingResult{outcome: outcomeTracked}, nil
}

func (s *Scanner) titleExcluded(spec catalog.ProductSpec, title string) (bool, string) {
	if excluded, term := filter.TitleExcluded(title, s.Catalog.Filters.TitleExcluded); excluded {
		return true, term
	}
	return filter.TitleExcluded(title, spec.Exclude)
}

func (s *Scanner) minReputation(spec catalog.ProductSpec) int {
	if spec.MinSellerReputation > 0 {
		return spec.MinSellerReputation
	}
	return s.Policy.MinSellerReputation
}

// scanQuery paginates one query's search until an empty or short page and
// returns the number of newly tracked deals. A blocked response aborts the
// remaining pages but keeps what was already collected.
func (s *Scanner) scanQuery(ctx context.Context, q database.SearchQuery, spec catalog.ProductSpec) int {
	found := 0
	for page := 1; page <= s.Policy.MaxPagesPerSearch; page++ {
		listings, err := s.searchPage(ctx, q, page)
		if err != nil {
			if errors.Is(err, client.ErrSearchBlocked) {
				s.Logger.Errorf("scanQuery: Search blocked for ProductKey: %s on page %d, aborting remaining pages, err: %v",
					q.ProductKey, page, err)
				s.sleep(s.Policy.SessionResetDelay)
				if err := s.Market.RefreshSession(ctx); err != nil {
					s.Logger.Errorf("scanQuery: Error refreshing marketplace session, err: %v", err)
				}
			} else {
				s.Logger.Errorf("scanQuery: Giving up on page %d for ProductKey: %s, err: %v", page, q.ProductKey, err)
			}
			break
		}
		if len(listings) == 0 {
			s.Logger.Debugf("scanQuery: Empty page %d for ProductKey: %s, end of results", page, q.ProductKey)
			break
		}

		for _, l := range listings {
			res, err := s.processListing(ctx, spec, l)
			if err != nil {
				s.Logger.Errorf("processListing: Error processing ListingID: %s, Title: %s, skipping, err: %v",
					l.ID, misc.StringLimit(l.Title, 45), err)
			} else {
				switch res.outcome {
				case outcomeTracked:
					found++
					s.Logger.Infof("scanQuery: Tracked new deal, ListingID: %s, Title: %s, Price: %.2f",
						l.ID, misc.StringLimit(l.Title, 45), l.Price)
				case outcomeDuplicate:
					s.Logger.Debugf("scanQuery: Already tracked, ListingID: %s", l.ID)
				case outcomeRejected:
					s.Logger.Debugf("scanQuery: Rejected at %s, ListingID: %s, Title: %s, reason: %s",
						res.rejection.stage, l.ID, misc.StringLimit(l.Title, 45), res.rejection.reason)
				}
			}
			s.sleep(s.Policy.ListingDelay)
		}

		if len(listings) < s.Policy.PerPage {
			break
		}
		s.sleep(s.Policy.PageDelay)
	}
	return found
}

// searchPage retries transient search errors a bounded number of times.
// Blocked responses are returned immediately for the caller to handle.
func (s *Scanner) searchPage(ctx context.Context, q database.SearchQuery, page int) ([]model.Listing, error) {
	params := client.SearchParams{
		Query:     q.SearchText,
		PriceFrom: q.PriceFrom,
		PriceTo:   q.PriceTo,
		Page:      page,
		PerPage:   s.Policy.PerPage,
		Order:     s.Policy.SearchOrder,
	}
	var lastErr error
	for attempt := 0; attempt <= s.Policy.PageRetries; attempt++ {
		if attempt > 0 {
			s.Logger.Infof("searchPage: Retrying page %d for ProductKey: %s, attempt %d/%d",
				page, q.ProductKey, attempt, s.Policy.PageRetries)
			s.sleep(s.Policy.RetryDelay)
		}
		listings, err := s.Market.SearchListings(ctx, params)
		if err == nil {
			return listings, nil
		}
		if errors.Is(err, client.ErrSearchBlocked) {
			return nil, err
		}
		lastErr = err
		s.Logger.Errorf("searchPage: Transient search error on page %d for ProductKey: %s, err: %v", page, q.ProductKey, err)
	}
	return nil, lastErr
}

func (s *Scanner) sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
