package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/agrodash/internal/client"
	"github.com/wolfeidau/agrodash/internal/session"
)

type call struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type fakeAPI struct {
	t     *testing.T
	mux   *http.ServeMux
	calls []call
}

// newFakeAPI serves the data, auth and prediction APIs from one server.
func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()

	api := &fakeAPI{t: t, mux: http.NewServeMux()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &c.Body)
		}
		api.calls = append(api.calls, c)
		api.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	return api, srv
}

func (a *fakeAPI) handle(pattern string, status int, body string) {
	a.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (a *fakeAPI) last() call {
	a.t.Helper()
	require.NotEmpty(a.t, a.calls)
	return a.calls[len(a.calls)-1]
}

func newTestClient(t *testing.T, srv *httptest.Server, store session.Store) *client.Client {
	t.Helper()

	config := client.DefaultConfig()
	config.DataURL = srv.URL + "/data"
	config.AuthURL = srv.URL + "/auth"
	config.PredictionURL = srv.URL + "/ml"
	config.Timeout = 5 * time.Second

	c, err := client.New(config, session.TokenSource(context.Background(), store))
	require.NoError(t, err)
	return c
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("saves session with id from response", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /auth/login", http.StatusOK, `{"id":7,"token":"tok-1","permissions":["admin"]}`)
		store := session.NewMemoryStore()
		auth := NewAuthService(newTestClient(t, srv, store), store)

		ok, err := auth.Login(ctx, LoginRequest{Login: "ana", Password: "secret"})
		require.NoError(t, err)
		assert.True(t, ok)

		assert.Equal(t, map[string]any{"login": "ana", "password": "secret"}, api.last().Body)
		assert.Empty(t, api.last().Auth)

		sess, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-1", sess.Token)
		assert.Equal(t, int64(7), sess.UserID)
		assert.Equal(t, []string{"admin"}, sess.Permissions)
	})

	t.Run("falls back to token subject", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"sub": "42"})
		api, srv := newFakeAPI(t)
		api.handle("POST /auth/login", http.StatusOK, `{"token":"`+token+`"}`)
		store := session.NewMemoryStore()
		auth := NewAuthService(newTestClient(t, srv, store), store)

		ok, err := auth.Login(ctx, LoginRequest{Login: "ana", Password: "secret"})
		require.NoError(t, err)
		assert.True(t, ok)

		sess, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(42), sess.UserID)
		assert.Equal(t, []string{}, sess.Permissions)
	})

	t.Run("opaque token keeps user id unknown", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /auth/login", http.StatusOK, `{"token":"opaque"}`)
		store := session.NewMemoryStore()
		auth := NewAuthService(newTestClient(t, srv, store), store)

		ok, err := auth.Login(ctx, LoginRequest{Login: "ana", Password: "secret"})
		require.NoError(t, err)
		assert.True(t, ok)

		sess, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Zero(t, sess.UserID)
	})

	t.Run("no token leaves session untouched", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /auth/login", http.StatusOK, `{}`)
		store := session.NewMemoryStore()
		auth := NewAuthService(newTestClient(t, srv, store), store)

		ok, err := auth.Login(ctx, LoginRequest{Login: "ana", Password: "wrong"})
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.Load(ctx)
		assert.ErrorIs(t, err, session.ErrNoSession)
	})

	t.Run("overwrites a corrupt session file", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /auth/login", http.StatusOK, `{"id":9,"token":"tok-new"}`)
		store := corruptFileStore(t)
		auth := NewAuthService(newTestClient(t, srv, store), store)

		ok, err := auth.Login(ctx, LoginRequest{Login: "ana", Password: "secret"})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, api.last().Auth)

		sess, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-new", sess.Token)
		assert.Equal(t, int64(9), sess.UserID)
	})

	t.Run("rejected credentials surface status", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /auth/login", http.StatusUnauthorized, `{"detail":"bad credentials"}`)
		store := session.NewMemoryStore()
		auth := NewAuthService(newTestClient(t, srv, store), store)

		ok, err := auth.Login(ctx, LoginRequest{Login: "ana", Password: "wrong"})
		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, client.IsUnauthorized(err))
	})
}

func TestAuthService_IsLoggedIn(t *testing.T) {
	ctx := context.Background()

	t.Run("validates stored token", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /auth/validate", http.StatusOK, `true`)
		store := session.NewMemoryStore()
		require.NoError(t, store.Save(ctx, &session.Session{Token: "tok-1"}))
		auth := NewAuthService(newTestClient(t, srv, store), store)

		assert.True(t, auth.IsLoggedIn(ctx))
		assert.Equal(t, map[string]any{"token": "tok-1"}, api.last().Body)
	})

	t.Run("server error is logged out", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /auth/validate", http.StatusInternalServerError, `oops`)
		store := session.NewMemoryStore()
		require.NoError(t, store.Save(ctx, &session.Session{Token: "tok-1"}))
		auth := NewAuthService(newTestClient(t, srv, store), store)

		assert.False(t, auth.IsLoggedIn(ctx))
	})

	t.Run("no session makes no request", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		store := session.NewMemoryStore()
		auth := NewAuthService(newTestClient(t, srv, store), store)

		assert.False(t, auth.IsLoggedIn(ctx))
		assert.Empty(t, api.calls)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears session when confirmed", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /auth/logout", http.StatusOK, `true`)
		store := session.NewMemoryStore()
		require.NoError(t, store.Save(ctx, &session.Session{Token: "tok-1", UserID: 3}))
		auth := NewAuthService(newTestClient(t, srv, store), store)

		require.NoError(t, auth.Logout(ctx))
		assert.Equal(t, "Bearer tok-1", api.last().Auth)

		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, session.ErrNoSession)
	})

	t.Run("keeps session when not confirmed", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /auth/logout", http.StatusOK, `false`)
		store := session.NewMemoryStore()
		require.NoError(t, store.Save(ctx, &session.Session{Token: "tok-1"}))
		auth := NewAuthService(newTestClient(t, srv, store), store)

		require.NoError(t, auth.Logout(ctx))

		sess, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-1", sess.Token)
	})

	t.Run("without session is a no-op", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		store := session.NewMemoryStore()
		auth := NewAuthService(newTestClient(t, srv, store), store)

		require.NoError(t, auth.Logout(ctx))
		assert.Empty(t, api.calls)
	})

	t.Run("clears a corrupt session file", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		store := corruptFileStore(t)
		auth := NewAuthService(newTestClient(t, srv, store), store)

		require.NoError(t, auth.Logout(ctx))
		assert.Empty(t, api.calls)

		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, session.ErrNoSession)
	})
}

func corruptFileStore(t *testing.T) *session.FileStore {
	t.Helper()

	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0600))
	return store
}

func TestAuthService_RefreshPermissions(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakeAPI(t)
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, &session.Session{Token: "tok-1", UserID: 5, Permissions: []string{"read"}}))
	auth := NewAuthService(newTestClient(t, srv, store), store)

	require.NoError(t, auth.RefreshPermissions(ctx, []string{"read", "write"}))

	sess, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.Token)
	assert.Equal(t, int64(5), sess.UserID)
	assert.Equal(t, []string{"read", "write"}, sess.Permissions)
}

func TestSubjectFromToken(t *testing.T) {
	t.Run("string subject", func(t *testing.T) {
		id, err := SubjectFromToken(signedToken(t, jwt.MapClaims{"sub": "12"}))
		require.NoError(t, err)
		assert.Equal(t, int64(12), id)
	})

	t.Run("numeric subject", func(t *testing.T) {
		id, err := SubjectFromToken(signedToken(t, jwt.MapClaims{"sub": 99}))
		require.NoError(t, err)
		assert.Equal(t, int64(99), id)
	})

	t.Run("non numeric subject", func(t *testing.T) {
		_, err := SubjectFromToken(signedToken(t, jwt.MapClaims{"sub": "ana"}))
		assert.ErrorIs(t, err, errNoSubject)
	})

	t.Run("not a jwt", func(t *testing.T) {
		_, err := SubjectFromToken("opaque")
		assert.Error(t, err)
	})
}

func TestTruthy(t *testing.T) {
	for body, want := range map[string]bool{
		"":             false,
		"null":         false,
		"false":        false,
		"0":            false,
		`""`:           false,
		"true":         true,
		`{"ok":true}`:  true,
		" true \n":     true,
		`"logged out"`: true,
	} {
		assert.Equal(t, want, truthy([]byte(body)), "body %q", body)
	}
}

func TestUserService(t *testing.T) {
	ctx := context.Background()

	t.Run("list uses auth API with bearer", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /auth/users/", http.StatusOK, `{"items":[{"id":1,"name":"Ana","login":"ana"}],"totalItems":1,"totalPages":1,"size":10}`)
		store := session.NewMemoryStore()
		require.NoError(t, store.Save(ctx, &session.Session{Token: "tok-1"}))
		users := NewUserService(newTestClient(t, srv, store))

		page, err := users.List(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Ana", page.Items[0].Name)
		assert.Equal(t, 1, page.TotalItems)

		got := api.last()
		assert.Equal(t, "Bearer tok-1", got.Auth)
		assert.Equal(t, map[string]any{"page": float64(1), "size": float64(10)}, got.Body)
	})

	t.Run("crud paths", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("GET /auth/user/4", http.StatusOK, `{"id":4,"name":"Bia"}`)
		api.handle("PUT /auth/user/4", http.StatusOK, `{"id":4,"name":"Bea"}`)
		api.handle("DELETE /auth/user/4", http.StatusNoContent, ``)
		api.handle("POST /auth/register/", http.StatusCreated, `{"id":5,"name":"Caio"}`)
		users := NewUserService(newTestClient(t, srv, session.NewMemoryStore()))

		u, err := users.Get(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "Bia", u.Name)

		name := "Bea"
		u, err = users.Update(ctx, 4, UserUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Bea", u.Name)
		assert.Equal(t, map[string]any{"name": "Bea"}, api.last().Body)

		require.NoError(t, users.Delete(ctx, 4))

		u, err = users.Create(ctx, NewUser{User: User{Name: "Caio", Login: "caio"}, Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), u.ID)
		assert.Equal(t, "pw", api.last().Body["password"])
		assert.Equal(t, "caio", api.last().Body["login"])
	})
}

func TestYieldService(t *testing.T) {
	ctx := context.Background()

	t.Run("filter merges page into filter body", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /data/yield/filter", http.StatusOK, `{"items":[{"_id":"a1","crop":"Rice","crop_year":2020,"season":"Summer"}],"total":21,"page_size":20}`)
		yields := NewYieldService(newTestClient(t, srv, session.NewMemoryStore()))

		page, err := yields.Filter(ctx, 1, 20, YieldFilter{Season: []string{SeasonSummer}})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "a1", page.Items[0].ID)
		assert.Equal(t, 21, page.TotalItems)
		assert.Equal(t, 2, page.TotalPages)

		assert.Equal(t, map[string]any{
			"season": []any{"Summer"},
			"page":   float64(1),
			"size":   float64(20),
		}, api.last().Body)
	})

	t.Run("list unwraps data", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("GET /data/yield/", http.StatusOK, `{"data":[{"_id":"a1"},{"_id":"a2"}]}`)
		yields := NewYieldService(newTestClient(t, srv, session.NewMemoryStore()))

		list, err := yields.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("list with empty body", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("GET /data/yield/", http.StatusOK, ``)
		yields := NewYieldService(newTestClient(t, srv, session.NewMemoryStore()))

		list, err := yields.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Yield{}, list)
	})

	t.Run("create and update", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /data/yield/", http.StatusOK, `{"_id":"n1","crop":"Maize"}`)
		api.handle("PUT /data/yield/n1", http.StatusOK, `{"_id":"n1","crop":"Maize","area":12.5}`)
		yields := NewYieldService(newTestClient(t, srv, session.NewMemoryStore()))

		created, err := yields.Create(ctx, Yield{Crop: "Maize", CropYear: 2021})
		require.NoError(t, err)
		assert.Equal(t, "n1", created.ID)
		_, hasID := api.last().Body["_id"]
		assert.False(t, hasID)

		area := 12.5
		updated, err := yields.Update(ctx, created.ID, YieldUpdate{Area: &area})
		require.NoError(t, err)
		assert.Equal(t, 12.5, updated.Area)
		assert.Equal(t, map[string]any{"area": 12.5}, api.last().Body)

		_, err = yields.Update(ctx, "", YieldUpdate{})
		assert.Error(t, err)
	})
}

func TestDashboardService(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	api.handle("POST /data/dashboard/", http.StatusOK, `{
		"calculations":{"item_count":2,"total_production":300.5},
		"data":[],
		"season_totals":{"Summer":[100,200.5],"total":[100,200.5],"years":[2019,2020]},
		"states_totals":[{"state":"Punjab","total_production":300.5}]
	}`)
	api.handle("GET /data/dashboard/filters", http.StatusOK, `{"crop_years":[2019,"2020"],"seasons":["Summer"],"states":["Punjab"],"crops":["Rice"]}`)
	dashboard := NewDashboardService(newTestClient(t, srv, session.NewMemoryStore()))

	data, err := dashboard.YieldData(ctx, YieldFilter{CropYear: []int{2019, 2020}})
	require.NoError(t, err)
	assert.Equal(t, 2, data.Calculations.ItemCount)
	assert.Equal(t, []float64{100, 200.5}, data.SeasonTotals.Summer)
	assert.Equal(t, []int{2019, 2020}, data.SeasonTotals.Years)
	require.Len(t, data.StatesTotals, 1)
	assert.Equal(t, map[string]any{"crop_year": []any{float64(2019), float64(2020)}}, api.last().Body)

	filters, err := dashboard.Filters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []json.Number{"2019", "2020"}, filters.CropYears)
	assert.Equal(t, []string{"Rice"}, filters.Crops)
}

func TestTermsService(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	api.handle("POST /data/terms/new", http.StatusOK, `{"id":"t1","text":"v1","status":"ativo","version":"1.0"}`)
	api.handle("GET /data/terms/", http.StatusOK, `[{"id":"t1"},{"id":"t2"}]`)
	api.handle("GET /data/terms/active", http.StatusOK, `{"id":"t2","version":"2.0","isCurrent":true}`)
	api.handle("POST /data/terms/user/accept", http.StatusOK, `{"success":true}`)
	api.handle("PUT /data/terms/user/update/u1", http.StatusOK, `{"success":true}`)
	api.handle("GET /data/terms/user/compliance/u1", http.StatusOK, `{"isCompliant":false,"pendingTopics":[{"description":"marketing","termId":"t2","required":true}]}`)
	api.handle("GET /data/terms/user/u1", http.StatusOK, `{"user_id":"u1","topics":[{"description":"marketing","accepted":true}]}`)
	api.handle("POST /data/terms/new-version", http.StatusOK, `{"id":"t3","version":"3.0"}`)
	terms := NewTermsService(newTestClient(t, srv, session.NewMemoryStore()))

	created, err := terms.Create(ctx, CreateTermRequest{Text: "v1", Status: TermStatusActive})
	require.NoError(t, err)
	assert.Equal(t, "t1", created.ID)
	assert.Equal(t, "ativo", api.last().Body["status"])

	list, err := terms.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	active, err := terms.Active(ctx)
	require.NoError(t, err)
	assert.True(t, active.IsCurrent)
	assert.Equal(t, "2.0", active.Version)

	accepted, err := terms.Accept(ctx, AcceptanceRequest{UserID: "u1", Topics: []AcceptedTopic{{Description: "marketing", Accepted: true}}})
	require.NoError(t, err)
	assert.True(t, accepted.Success)

	updated, err := terms.UpdateAcceptance(ctx, "u1", UpdateAcceptanceRequest{})
	require.NoError(t, err)
	assert.True(t, updated.Success)

	compliance, err := terms.Compliance(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, compliance.IsCompliant)
	require.Len(t, compliance.PendingTopics, 1)
	assert.Equal(t, "t2", compliance.PendingTopics[0].TermID)

	userTerms, err := terms.UserTerms(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", userTerms.UserID)

	version, err := terms.NewVersion(ctx, NewTermVersionRequest{Text: "v3"})
	require.NoError(t, err)
	assert.Equal(t, "3.0", version.Version)
}

func TestPredictionService(t *testing.T) {
	ctx := context.Background()

	t.Run("uses prediction API", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /ml/predict/custom", http.StatusOK, `[{"State":"Punjab","Crop":"Rice","Year":2025,"Predicted_Production":1234.5}]`)
		prediction := NewPredictionService(newTestClient(t, srv, session.NewMemoryStore()))

		area := 10.0
		rows, err := prediction.Custom(ctx, CustomPredictionRequest{State: "Punjab", Crop: "Rice", Area: &area})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 1234.5, rows[0].PredictedProduction)
		assert.Equal(t, map[string]any{"state": "Punjab", "crop": "Rice", "area": 10.0}, api.last().Body)
	})

	t.Run("malformed response", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.handle("POST /ml/predict/custom", http.StatusOK, `{"not":"a list"`)
		prediction := NewPredictionService(newTestClient(t, srv, session.NewMemoryStore()))

		_, err := prediction.Custom(ctx, CustomPredictionRequest{})
		var decodeErr *client.DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})
}

func TestPortabilityService(t *testing.T) {
	ctx := context.Background()

	newService := func(t *testing.T) (*fakeAPI, *PortabilityService) {
		api, srv := newFakeAPI(t)
		store := session.NewMemoryStore()
		require.NoError(t, store.Save(ctx, &session.Session{Token: "user-session"}))
		return api, NewPortabilityService(newTestClient(t, srv, store))
	}

	t.Run("client login sends no bearer", func(t *testing.T) {
		api, portability := newService(t)
		api.handle("POST /auth/client/auth/login", http.StatusOK, `{"token":"client-tok"}`)

		token, err := portability.ClientLogin(ctx, LoginRequest{Login: "partner", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "client-tok", token)
		assert.Empty(t, api.last().Auth)
		assert.Equal(t, map[string]any{"login": "partner", "password": "pw"}, api.last().Body)
	})

	t.Run("client token replaces the session token", func(t *testing.T) {
		api, portability := newService(t)
		api.handle("GET /auth/portability/button/", http.StatusOK, `<button>Portability</button>`)
		api.handle("POST /auth/portability/auth/authorize", http.StatusOK, `{"token":"authorized-tok"}`)
		api.handle("POST /auth/portability/data/", http.StatusOK, `{"id":3,"name":"Ana","login":"ana","email":"ana@example.com"}`)

		html, err := portability.Button(ctx, "client-tok")
		require.NoError(t, err)
		assert.Equal(t, "<button>Portability</button>", html)
		assert.Equal(t, "Bearer client-tok", api.last().Auth)

		authorized, err := portability.Authorize(ctx, "client-tok", LoginRequest{Login: "ana", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "authorized-tok", authorized)
		assert.Equal(t, "Bearer client-tok", api.last().Auth)
		assert.Equal(t, "ana", api.last().Body["login"])

		user, err := portability.Data(ctx, authorized)
		require.NoError(t, err)
		assert.Equal(t, int64(3), user.ID)
		assert.Equal(t, "ana@example.com", user.Email)
		assert.Equal(t, "Bearer authorized-tok", api.last().Auth)
	})

	t.Run("validate and logout", func(t *testing.T) {
		api, portability := newService(t)
		api.handle("POST /auth/client/auth/validate", http.StatusOK, `{"sub":"4","exp":1900000000}`)
		api.handle("POST /auth/client/auth/logout", http.StatusOK, `Token invalidated`)

		ok, err := portability.ValidateClient(ctx, "client-tok")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, api.last().Auth)
		assert.Equal(t, map[string]any{"token": "client-tok"}, api.last().Body)

		ok, err = portability.ClientLogout(ctx, "client-tok")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Bearer client-tok", api.last().Auth)
	})

	t.Run("rejected client token", func(t *testing.T) {
		api, portability := newService(t)
		api.handle("POST /auth/portability/data/", http.StatusUnauthorized, `Unauthorized`)

		_, err := portability.Data(ctx, "expired")
		require.Error(t, err)
		assert.True(t, client.IsUnauthorized(err))
	})

	t.Run("missing token never falls back to the session", func(t *testing.T) {
		api, portability := newService(t)

		_, err := portability.Button(ctx, "")
		assert.ErrorIs(t, err, ErrTokenRequired)
		_, err = portability.Authorize(ctx, "", LoginRequest{})
		assert.ErrorIs(t, err, ErrTokenRequired)
		_, err = portability.Data(ctx, "")
		assert.ErrorIs(t, err, ErrTokenRequired)
		_, err = portability.ClientLogout(ctx, "")
		assert.ErrorIs(t, err, ErrTokenRequired)
		assert.Empty(t, api.calls)
	})
}
