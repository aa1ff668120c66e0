package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfeidau/agrodash/internal/client"
	"github.com/wolfeidau/agrodash/internal/services"
	"github.com/wolfeidau/agrodash/internal/session"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

type Globals struct {
	Debug      bool
	Tracing    bool
	Version    string
	Output     string
	Connection ConnectionFlags

	// Out receives command output, stdout when nil.
	Out io.Writer
}

// ConnectionFlags select the backends and where the session is kept.
type ConnectionFlags struct {
	APIURL        string        `name:"api-url" help:"Data API base URL" default:"http://127.0.0.1:5000" env:"AGRODASH_API_URL"`
	AuthURL       string        `name:"auth-url" help:"Auth API base URL" default:"http://127.0.0.1:3000" env:"AGRODASH_AUTH_URL"`
	PredictionURL string        `name:"prediction-url" help:"Prediction API base URL" default:"http://127.0.0.1:5001" env:"AGRODASH_PREDICTION_URL"`
	Timeout       time.Duration `help:"Request timeout" default:"30s" env:"AGRODASH_TIMEOUT"`
	Token         string        `help:"Bearer token to use instead of the stored session" env:"AGRODASH_TOKEN"`

	Cache    bool   `help:"Cache cacheable GET responses, kept separately per bearer token" env:"AGRODASH_CACHE"`
	CacheDir string `help:"Directory for the response cache, in memory when empty" type:"path" env:"AGRODASH_CACHE_DIR"`

	SessionBackend string        `name:"session-backend" help:"Where the session is stored (file, redis)" enum:"file,redis" default:"file" env:"AGRODASH_SESSION_BACKEND"`
	StateDir       string        `help:"Directory for the session file (default ~/.agrodash)" type:"path" env:"AGRODASH_STATE_DIR"`
	RedisAddr      string        `help:"Redis address for the redis session backend" default:"localhost:6379" env:"AGRODASH_REDIS_ADDR"`
	RedisKey       string        `help:"Redis key holding the session" default:"agrodash:session" env:"AGRODASH_REDIS_KEY"`
	SessionTTL     time.Duration `name:"session-ttl" help:"Expiry of the redis session, 0 keeps it until logout" default:"0s" env:"AGRODASH_SESSION_TTL"`
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// env is what a command needs to talk to the APIs.
type env struct {
	store  session.Store
	client *client.Client
	close  func() error
}

func (e *env) Close() error {
	if e.close == nil {
		return nil
	}
	return e.close()
}

// openSession opens the configured session store.
func (g *Globals) openSession() (session.Store, func() error, error) {
	conn := g.Connection

	switch conn.SessionBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: conn.RedisAddr})
		return session.NewRedisStore(rdb, conn.RedisKey, conn.SessionTTL), rdb.Close, nil
	case "", "file":
		store, err := session.NewFileStore(conn.StateDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize session store: %w", err)
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", conn.SessionBackend)
	}
}

// open builds the session store and an API client that reads its token from it.
func (g *Globals) open(ctx context.Context) (*env, error) {
	store, closeStore, err := g.openSession()
	if err != nil {
		return nil, err
	}

	conn := g.Connection
	config := client.Config{
		DataURL:       conn.APIURL,
		AuthURL:       conn.AuthURL,
		PredictionURL: conn.PredictionURL,
		Timeout:       conn.Timeout,
		Cache:         conn.Cache,
		CacheDir:      conn.CacheDir,
		Tracing:       g.Tracing,
		Debug:         g.Debug,
	}

	tokens := session.TokenSource(ctx, store)
	if conn.Token != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: conn.Token, TokenType: "Bearer"})
	}

	c, err := client.New(config, tokens)
	if err != nil {
		if closeStore != nil {
			_ = closeStore()
		}
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &env{store: store, client: c, close: closeStore}, nil
}

// FilterFlags narrow yield and dashboard queries.
type FilterFlags struct {
	CropYear []int    `name:"crop-year" help:"Crop years to include"`
	Season   []string `help:"Seasons to include"`
	Crop     []string `help:"Crops to include"`
	State    []string `help:"States to include"`
}

func (f FilterFlags) Filter() services.YieldFilter {
	return services.YieldFilter{
		CropYear: f.CropYear,
		Season:   f.Season,
		Crop:     f.Crop,
		State:    f.State,
	}
}

// loadFile decodes a YAML or JSON request body from path into v.
func loadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

func (g *Globals) jsonOutput() bool {
	return g.Output == "json"
}

func (g *Globals) printJSON(v any) error {
	enc := json.NewEncoder(g.out())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (g *Globals) table() *tabwriter.Writer {
	return tabwriter.NewWriter(g.out(), 0, 0, 2, ' ', 0)
}

func deref[T any](v *T) any {
	if v == nil {
		return "-"
	}
	return *v
}

// WithLoginHint points at login when the server rejected the credentials.
func WithLoginHint(err error) error {
	if client.IsUnauthorized(err) {
		return fmt.Errorf("%w (run `agrodash login` to refresh the session)", err)
	}
	return err
}
