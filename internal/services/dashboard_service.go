package services

import (
	"context"
	"encoding/json"

	"github.com/wolfeidau/agrodash/internal/client"
)

type Calculations struct {
	ItemCount       int     `json:"item_count"`
	TotalProduction float64 `json:"total_production"`
}

// SeasonTotals holds the production per year for each season, aligned with Years.
type SeasonTotals struct {
	WholeYear []float64 `json:"Whole Year,omitempty"`
	Spring    []float64 `json:"Spring,omitempty"`
	Summer    []float64 `json:"Summer,omitempty"`
	Autumn    []float64 `json:"Autumn,omitempty"`
	Winter    []float64 `json:"Winter,omitempty"`
	Total     []float64 `json:"total"`
	Years     []int     `json:"years"`
}

type StateTotal struct {
	State           string  `json:"state"`
	TotalProduction float64 `json:"total_production"`
}

// YieldDataResponse feeds the dashboard charts.
type YieldDataResponse struct {
	Calculations Calculations `json:"calculations"`
	Data         []Yield      `json:"data"`
	SeasonTotals SeasonTotals `json:"season_totals"`
	StatesTotals []StateTotal `json:"states_totals"`
}

// FilterList holds the values available for each filter field.
// Crop years arrive as numbers or numeric strings depending on the backend.
type FilterList struct {
	CropYears []json.Number `json:"crop_years"`
	Seasons   []string      `json:"seasons"`
	States    []string      `json:"states"`
	Crops     []string      `json:"crops"`
}

// DashboardService reads aggregated data for the dashboard.
type DashboardService struct {
	client *client.Client
}

func NewDashboardService(c *client.Client) *DashboardService {
	return &DashboardService{client: c}
}

func (s *DashboardService) YieldData(ctx context.Context, filter YieldFilter) (YieldDataResponse, error) {
	return client.Post[YieldDataResponse](ctx, s.client, "/dashboard/", filter)
}

func (s *DashboardService) Filters(ctx context.Context) (FilterList, error) {
	return client.Get[FilterList](ctx, s.client, "/dashboard/filters")
}
