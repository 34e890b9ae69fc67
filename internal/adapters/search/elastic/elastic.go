// Package elastic finds candidate venues in an Elasticsearch index with a
// geo_point "location" field and a keyword "category" field.
package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/internal/domain/venue"
	"github.com/okian/fairmeet/pkg/logger"
)

// Default finder configuration constants.
const (
	DefaultIndex     = "venues"
	defaultSize      = 10
	maxResultWindow  = 20000
	bulkRefreshValue = "true"
)

// ErrSearch is returned when Elasticsearch cannot answer a query.
var ErrSearch = errors.New("elasticsearch search failed")

// mapping is the index definition used by EnsureIndex.
const mapping = `{
  "settings": {"number_of_shards": 1, "index": {"max_result_window": %d}},
  "mappings": {
    "properties": {
      "place_id":           {"type": "keyword"},
      "name":               {"type": "text"},
      "vicinity":           {"type": "text"},
      "location":           {"type": "geo_point"},
      "category":           {"type": "keyword"},
      "rating":             {"type": "float"},
      "user_ratings_total": {"type": "integer"},
      "price_level":        {"type": "integer"},
      "types":              {"type": "keyword"}
    }
  }
}`

// document is the stored shape of a venue.
type document struct {
	PlaceID          string           `json:"place_id"`
	Name             string           `json:"name"`
	Vicinity         string           `json:"vicinity"`
	Location         elastic.GeoPoint `json:"location"`
	Category         string           `json:"category"`
	Rating           float64          `json:"rating"`
	UserRatingsTotal int              `json:"user_ratings_total"`
	PriceLevel       int              `json:"price_level"`
	Types            []string         `json:"types,omitempty"`
}

func toDocument(v model.Venue) document {
	return document{
		PlaceID:          v.PlaceID,
		Name:             v.Name,
		Vicinity:         v.Vicinity,
		Location:         elastic.GeoPoint{Lat: v.Location.Lat, Lon: v.Location.Lng},
		Category:         v.Category,
		Rating:           v.Rating,
		UserRatingsTotal: v.UserRatingsTotal,
		PriceLevel:       v.PriceLevel,
		Types:            v.Types,
	}
}

func (d document) venue(fallbackID string) model.Venue {
	id := d.PlaceID
	if id == "" {
		id = fallbackID
	}
	return model.Venue{
		PlaceID:          id,
		Name:             d.Name,
		Vicinity:         d.Vicinity,
		Location:         model.Point{Lat: d.Location.Lat, Lng: d.Location.Lon},
		Category:         d.Category,
		Rating:           d.Rating,
		UserRatingsTotal: d.UserRatingsTotal,
		PriceLevel:       d.PriceLevel,
		Types:            d.Types,
	}
}

// NewClient connects to a single Elasticsearch node without sniffing.
func NewClient(url string) (*elastic.Client, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheckTimeoutStartup(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return client, nil
}

// Option applies a configuration option to the Finder.
type Option func(*Finder)

// WithSize caps the number of venues returned by one search.
func WithSize(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.size = n
		}
	}
}

// WithLogger sets a custom logger for the finder.
func WithLogger(l logger.Logger) Option {
	return func(f *Finder) {
		if l != nil {
			f.logger = l
		}
	}
}

// Finder implements venue.Finder with a geo-distance query.
type Finder struct {
	client *elastic.Client
	index  string
	size   int
	logger logger.Logger
}

// NewFinder creates a finder over index.
func NewFinder(client *elastic.Client, index string, opts ...Option) *Finder {
	if index == "" {
		index = DefaultIndex
	}
	f := &Finder{
		client: client,
		index:  index,
		size:   defaultSize,
		logger: logger.Get().Named("elastic"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Search implements venue.Finder. Results are sorted by arc distance from center.
func (f *Finder) Search(ctx context.Context, center model.Point, radiusMeters float64, placeType string) ([]model.Venue, error) {
	query := elastic.NewBoolQuery().Filter(
		elastic.NewTermQuery("category", placeType),
		elastic.NewGeoDistanceQuery("location").
			Point(center.Lat, center.Lng).
			Distance(fmt.Sprintf("%.0fm", radiusMeters)),
	)

	res, err := f.client.Search().
		Index(f.index).
		Query(query).
		SortBy(elastic.NewGeoDistanceSort("location").
			Point(center.Lat, center.Lng).
			Asc().
			Unit("m").
			DistanceType("arc").
			IgnoreUnmapped(true)).
		Size(f.size).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	if res.Hits == nil || len(res.Hits.Hits) == 0 {
		return nil, venue.ErrNotFound
	}

	venues := make([]model.Venue, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc document
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			f.logger.Warn(ctx, "skipping malformed venue document", logger.String("id", hit.Id), logger.Error(err))
			continue
		}
		venues = append(venues, doc.venue(hit.Id))
	}
	if len(venues) == 0 {
		return nil, venue.ErrNotFound
	}
	return venues, nil
}

// EnsureIndex creates the index with the venue mapping when it does not exist.
func (f *Finder) EnsureIndex(ctx context.Context) error {
	exists, err := f.client.IndexExists(f.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", f.index, err)
	}
	if exists {
		return nil
	}
	created, err := f.client.CreateIndex(f.index).BodyString(fmt.Sprintf(mapping, maxResultWindow)).Do(ctx)
	if err != nil {
		return fmt.Errorf("create index %s: %w", f.index, err)
	}
	if !created.Acknowledged {
		f.logger.Warn(ctx, "index creation was not acknowledged", logger.String("index", f.index))
	}
	f.logger.Info(ctx, "created venue index", logger.String("index", f.index))
	return nil
}

// IndexVenues bulk-indexes venues by place id and refreshes the index.
func (f *Finder) IndexVenues(ctx context.Context, venues []model.Venue) error {
	if len(venues) == 0 {
		return nil
	}
	bulk := f.client.Bulk().Index(f.index).Refresh(bulkRefreshValue)
	for _, v := range venues {
		bulk.Add(elastic.NewBulkIndexRequest().Id(v.PlaceID).Doc(toDocument(v)))
	}
	res, err := bulk.Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	if failed := res.Failed(); len(failed) > 0 {
		return fmt.Errorf("bulk index: %d of %d documents failed", len(failed), len(venues))
	}
	return nil
}
