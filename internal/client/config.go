package client

import (
	"fmt"
	"time"
)

// Service identifies one of the backends a request can target.
type Service int

const (
	// ServiceData is the general data API (dashboard, yields, terms).
	ServiceData Service = iota
	// ServiceAuth is the auth API (login, validation, users).
	ServiceAuth
	// ServicePrediction is the ML yield prediction API.
	ServicePrediction
)

func (s Service) String() string {
	switch s {
	case ServiceData:
		return "data"
	case ServiceAuth:
		return "auth"
	case ServicePrediction:
		return "prediction"
	default:
		return fmt.Sprintf("service(%d)", int(s))
	}
}

// Config holds common client configuration
type Config struct {
	DataURL       string
	AuthURL       string
	PredictionURL string
	Timeout       time.Duration

	// Cache enables an RFC 7234 response cache for cacheable GET responses,
	// partitioned by bearer token.
	// CacheDir selects a disk cache, otherwise the cache is in memory.
	Cache    bool
	CacheDir string

	Tracing bool
	Debug   bool
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		DataURL:       "http://127.0.0.1:5000",
		AuthURL:       "http://127.0.0.1:3000",
		PredictionURL: "http://127.0.0.1:5001",
		Timeout:       30 * time.Second,
	}
}
