// Package catalog loads the static product catalog: which products to track,
// their keyword sets, their price bands, and the shared filter term lists.
// The catalog is loaded once at startup and treated as immutable.
package catalog

import (
	_ "embed"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

//go:embed catalog.toml
var defaultCatalogTOML []byte

// PriceBand is a product's buy/sell envelope. MinBuy and MaxBuy bound the
// search query; TargetList is the expected resale price used for profit;
// MinProfit is advisory metadata for the notification.
type PriceBand struct {
	MaxBuy     float64
	MinBuy     float64
	TargetList float64
	MinProfit  float64
}

// ProductSpec is one tracked product.
type ProductSpec struct {
	Key                 string
	SearchTerms         []string
	MustContain         []string
	Exclude             []string
	Band                PriceBand
	MinSellerReputation int
	VariantTargets      map[string]float64
}

// SearchText returns the fixed search term for the product, falling back to
// the product key itself.
func (p ProductSpec) SearchText() string {
	if len(p.SearchTerms) > 0 {
		return p.SearchTerms[0]
	}
	return p.Key
}

// Filters holds the shared term lists. TitleExcluded additionally screens
// accessory-only listings; DescriptionExcluded contains only genuine
// defect/fraud indicators, because a description for a working unit may
// legitimately mention "case included".
type Filters struct {
	TitleExcluded       []string
	DescriptionExcluded []string
	PositiveIndicators  []string
}

type Catalog struct {
	Products map[string]ProductSpec
	Filters  Filters
}

// Keys returns the product keys in stable sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Products))
	for k := range c.Products {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type tomlProduct struct {
	SearchTerms         []string           `toml:"search_terms"`
	MustContain         []string           `toml:"must_contain"`
	Exclude             []string           `toml:"exclude"`
	MaxBuy              float64            `toml:"max_buy"`
	MinBuy              float64            `toml:"min_buy"`
	TargetList          float64            `toml:"target_list"`
	MinProfit           float64            `toml:"min_profit"`
	MinSellerReputation int                `toml:"min_seller_reputation"`
	VariantTargets      map[string]float64 `toml:"variant_targets"`
}

type tomlCatalog struct {
	Filters struct {
		TitleExcludedTerms       []string `toml:"title_excluded_terms"`
		DescriptionExcludedTerms []string `toml:"description_excluded_terms"`
		PositiveIndicators       []string `toml:"positive_indicators"`
	} `toml:"filters"`
	Products map[string]tomlProduct `toml:"products"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return decode(defaultCatalogTOML)
}

// Load reads a catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	var tc tomlCatalog
	if _, err := toml.DecodeFile(path, &tc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode catalog file with path: %s", path)
	}
	return build(tc)
}

func decode(data []byte) (*Catalog, error) {
	var tc tomlCatalog
	if err := toml.Unmarshal(data, &tc); err != nil {
		return nil, errors.Wrap(err, "failed to decode embedded catalog")
	}
	return build(tc)
}

func build(tc tomlCatalog) (*Catalog, error) {
	if len(tc.Products) == 0 {
		return nil, errors.New("catalog has no products")
	}
	c := &Catalog{
		Products: make(map[string]ProductSpec, len(tc.Products)),
		Filters: Filters{
			TitleExcluded:       tc.Filters.TitleExcludedTerms,
			DescriptionExcluded: tc.Filters.DescriptionExcludedTerms,
			PositiveIndicators:  tc.Filters.PositiveIndicators,
		},
	}
	for key, tp := range tc.Products {
		if len(tp.MustContain) == 0 {
			return nil, errors.Errorf("product %q has no must_contain terms", key)
		}
		if tp.TargetList <= 0 {
			return nil, errors.Errorf("product %q has no target_list price", key)
		}
		if tp.MaxBuy <= tp.MinBuy {
			return nil, errors.Errorf("product %q has max_buy %.2f <= min_buy %.2f", key, tp.MaxBuy, tp.MinBuy)
		}
		c.Products[key] = ProductSpec{
			Key:         key,
			SearchTerms: tp.SearchTerms,
			MustContain: tp.MustContain,
			Exclude:     tp.Exclude,
			Band: PriceBand{
				MaxBuy:     tp.MaxBuy,
				MinBuy:     tp.MinBuy,
				TargetList: tp.TargetList,
				MinProfit:  tp.MinProfit,
			},
			MinSellerReputation: tp.MinSellerReputation,
			VariantTargets:      tp.VariantTargets,
		}
	}
	return c, nil
}
