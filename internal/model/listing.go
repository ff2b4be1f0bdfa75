package model

// Listing is the normalized summary of a marketplace listing as returned by
// the search API. The raw payload's optional shapes (photo, uploader) are
// flattened here so later pipeline stages never branch on the external form.
type Listing struct {
	ID       string
	Title    string
	Price    float64
	Currency string
	URL      string
	PhotoURL string
	Uploader string
}

// ListingDetail holds what the enrichment stage could extract from a listing
// page. SellerReputation is nil when no reputation count was obtainable,
// which is distinct from a seller with zero feedback.
type ListingDetail struct {
	Description      string
	SellerReputation *int
}
