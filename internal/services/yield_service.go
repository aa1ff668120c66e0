package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/wolfeidau/agrodash/internal/client"
)

// Seasons known to the data API.
const (
	SeasonWholeYear = "Whole Year"
	SeasonSpring    = "Spring"
	SeasonSummer    = "Summer"
	SeasonAutumn    = "Autumn"
	SeasonWinter    = "Winter"
)

// Yield is one crop production record.
type Yield struct {
	ID             string  `json:"_id,omitempty" yaml:"_id,omitempty"`
	Crop           string  `json:"crop" yaml:"crop"`
	CropYear       int     `json:"crop_year" yaml:"crop_year"`
	Season         string  `json:"season" yaml:"season"`
	State          string  `json:"state" yaml:"state"`
	Area           float64 `json:"area" yaml:"area"`
	Production     float64 `json:"production" yaml:"production"`
	AnnualRainfall float64 `json:"annual_rainfall" yaml:"annual_rainfall"`
	Fertilizer     float64 `json:"fertilizer" yaml:"fertilizer"`
	Pesticide      float64 `json:"pesticide" yaml:"pesticide"`
	Yield          float64 `json:"yield" yaml:"yield"`
}

// YieldUpdate holds the fields to change, nil fields are not sent.
type YieldUpdate struct {
	Crop           *string  `json:"crop,omitempty" yaml:"crop,omitempty"`
	CropYear       *int     `json:"crop_year,omitempty" yaml:"crop_year,omitempty"`
	Season         *string  `json:"season,omitempty" yaml:"season,omitempty"`
	State          *string  `json:"state,omitempty" yaml:"state,omitempty"`
	Area           *float64 `json:"area,omitempty" yaml:"area,omitempty"`
	Production     *float64 `json:"production,omitempty" yaml:"production,omitempty"`
	AnnualRainfall *float64 `json:"annual_rainfall,omitempty" yaml:"annual_rainfall,omitempty"`
	Fertilizer     *float64 `json:"fertilizer,omitempty" yaml:"fertilizer,omitempty"`
	Pesticide      *float64 `json:"pesticide,omitempty" yaml:"pesticide,omitempty"`
	Yield          *float64 `json:"yield,omitempty" yaml:"yield,omitempty"`
}

// YieldFilter narrows dashboard and yield queries. Empty fields are omitted.
type YieldFilter struct {
	CropYear []int    `json:"crop_year,omitempty" yaml:"crop_year,omitempty"`
	Season   []string `json:"season,omitempty" yaml:"season,omitempty"`
	Crop     []string `json:"crop,omitempty" yaml:"crop,omitempty"`
	State    []string `json:"state,omitempty" yaml:"state,omitempty"`
}

// IsEmpty returns true if no filter field is set.
func (f YieldFilter) IsEmpty() bool {
	return len(f.CropYear) == 0 && len(f.Season) == 0 && len(f.Crop) == 0 && len(f.State) == 0
}

type yieldListResponse struct {
	Data []Yield `json:"data"`
}

// YieldService reads and edits yield records on the data API.
type YieldService struct {
	client *client.Client
}

func NewYieldService(c *client.Client) *YieldService {
	return &YieldService{client: c}
}

// Filter returns one page of yields matching filter.
func (s *YieldService) Filter(ctx context.Context, page, size int, filter YieldFilter) (client.Page[Yield], error) {
	return client.PaginatedRequest[Yield](ctx, s.client, "/yield/filter", page, size, filter)
}

// List returns every yield record without pagination.
func (s *YieldService) List(ctx context.Context) ([]Yield, error) {
	resp, err := client.Get[yieldListResponse](ctx, s.client, "/yield/")
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []Yield{}, nil
	}
	return resp.Data, nil
}

func (s *YieldService) Create(ctx context.Context, y Yield) (Yield, error) {
	return client.Post[Yield](ctx, s.client, "/yield/", y)
}

func (s *YieldService) Update(ctx context.Context, id string, update YieldUpdate) (Yield, error) {
	if id == "" {
		return Yield{}, fmt.Errorf("yield id is required")
	}
	return client.Put[Yield](ctx, s.client, "/yield/"+url.PathEscape(id), update)
}
