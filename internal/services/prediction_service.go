package services

import (
	"context"

	"github.com/wolfeidau/agrodash/internal/client"
)

// CustomPredictionRequest describes a scenario to predict, unset fields are
// left for the model to fill in.
type CustomPredictionRequest struct {
	State          string   `json:"state,omitempty" yaml:"state,omitempty"`
	Crop           string   `json:"crop,omitempty" yaml:"crop,omitempty"`
	Season         string   `json:"season,omitempty" yaml:"season,omitempty"`
	Area           *float64 `json:"area,omitempty" yaml:"area,omitempty"`
	Fertilizer     *float64 `json:"fertilizer,omitempty" yaml:"fertilizer,omitempty"`
	Pesticide      *float64 `json:"pesticide,omitempty" yaml:"pesticide,omitempty"`
	AnnualRainfall *float64 `json:"annual_rainfall,omitempty" yaml:"annual_rainfall,omitempty"`
	Year           *int     `json:"year,omitempty" yaml:"year,omitempty"`
}

// CustomPrediction is one predicted row. Field names follow the model output.
type CustomPrediction struct {
	State               string  `json:"State"`
	Crop                string  `json:"Crop"`
	Area                float64 `json:"Area"`
	AnnualRainfall      float64 `json:"Annual_Rainfall"`
	Year                int     `json:"Year"`
	Season              string  `json:"Season"`
	PredictedFertilizer float64 `json:"Predicted_Fertilizer"`
	PredictedPesticide  float64 `json:"Predicted_Pesticide"`
	PredictedProduction float64 `json:"Predicted_Production"`
}

// PredictionService calls the ML prediction API.
type PredictionService struct {
	client *client.Client
}

func NewPredictionService(c *client.Client) *PredictionService {
	return &PredictionService{client: c}
}

func (s *PredictionService) Custom(ctx context.Context, req CustomPredictionRequest) ([]CustomPrediction, error) {
	out, err := client.Post[[]CustomPrediction](ctx, s.client, "/predict/custom", req, client.WithService(client.ServicePrediction))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return []CustomPrediction{}, nil
	}
	return out, nil
}
