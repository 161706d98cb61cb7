package http

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/complexorj/staff-dashboard/internal/api/http/handlers"
	"github.com/complexorj/staff-dashboard/internal/auth"
	"github.com/complexorj/staff-dashboard/internal/config"
	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/locale"
	"github.com/complexorj/staff-dashboard/internal/observability"
	"github.com/complexorj/staff-dashboard/internal/persistence"
	"github.com/complexorj/staff-dashboard/internal/repository"
	"github.com/complexorj/staff-dashboard/internal/service"
)

const testAdminPassword = "painel-teste"

type testServer struct {
	app   *fiber.App
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := persistence.Open(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "dashboard.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, persistence.Prepare(ctx, db, logger))

	publicDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "index.html"), []byte("<html>painel</html>"), 0o644))

	cfg := config.Config{
		App: config.AppConfig{Name: "staff-dashboard", DefaultLanguage: "pt-BR", CORSAllowOrigins: "*", PublicDir: publicDir},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			AdminPassword:   testAdminPassword,
			TokenTTLMinutes: 24 * 60,
			BcryptCost:      4,
		},
	}

	translator, err := locale.New(cfg.App.DefaultLanguage)
	require.NoError(t, err)
	metrics := observability.NewMetrics()

	rosterRepo := repository.NewRosterRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	goals := service.NewGoalService(service.GoalDependencies{Tx: db, GoalRepo: goalRepo})
	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: repository.NewUserRepository(db)})
	rosterService := service.NewRosterService(rosterRepo)

	var rosters []*handlers.RosterHandler
	for _, tier := range domain.Tiers() {
		rosters = append(rosters, handlers.NewRosterHandler(tier, rosterService))
	}

	app := NewApp(cfg.App, logger, metrics)
	RegisterMiddlewares(app, MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Translator:  translator,
		AllowOrigin: "*",
		Timeout:     5 * time.Second,
	})
	RegisterRoutes(app, RouteConfig{
		Health:        handlers.NewHealthHandler("staff-dashboard", "test", db, nil),
		Auth:          handlers.NewAuthHandler(authService),
		Rosters:       rosters,
		Registrations: handlers.NewRegistrationHandler(service.NewRegistrationService(regRepo)),
		Goals:         handlers.NewGoalHandler(goals),
		Backup: handlers.NewBackupHandler(service.NewBackupService(service.BackupDependencies{
			Tx:               db,
			RosterRepo:       rosterRepo,
			RegistrationRepo: regRepo,
			GoalRepo:         goalRepo,
			GoalService:      goals,
		})),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
		LoginLimiter:   auth.NewLoginLimiter(0, 0),
		Metrics:        metrics,
		PublicDir:      publicDir,
	})

	token, _, err := authService.TokenManager().GenerateToken(domain.DefaultUsername, nil)
	require.NoError(t, err)
	return &testServer{app: app, token: token}
}

type response struct {
	status int
	body   []byte
}

func (r response) decode(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: raw}
}

func TestMutationsRequireValidToken(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, fiber.MethodPost, "/api/estagiarios", "", map[string]any{"nome": "Ana"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
	assert.Equal(t, "Token de acesso requerido", resp.decode(t)["error"])

	resp = s.do(t, fiber.MethodPost, "/api/estagiarios", "not-a-jwt", map[string]any{"nome": "Ana"})
	assert.Equal(t, fiber.StatusForbidden, resp.status)

	resp = s.do(t, fiber.MethodPost, "/api/estagiarios", s.token, map[string]any{"cargo": "EST"})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	body := resp.decode(t)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
	assert.Equal(t, "Campo nome é obrigatório", body["error"])
}

func TestErrorMessagesFollowAcceptLanguage(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(fiber.MethodDelete, "/api/cadastros/1", nil)
	req.Header.Set(fiber.HeaderAcceptLanguage, "en-US,en;q=0.9")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Access token required", body["error"])
}

func TestLoginAndVerify(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]any{})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)

	resp = s.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]any{"password": "errada"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	resp = s.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]any{"password": testAdminPassword})
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	login := resp.decode(t)
	assert.Equal(t, true, login["success"])
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)

	resp = s.do(t, fiber.MethodGet, "/api/auth/verify", token, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	verify := resp.decode(t)
	assert.Equal(t, true, verify["valid"])
	user := verify["user"].(map[string]any)
	assert.Equal(t, domain.RoleAdmin, user["role"])
	assert.Equal(t, domain.DefaultUsername, user["username"])
	exp := time.Unix(int64(user["exp"].(float64)), 0)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp, time.Minute)
}

func TestRegisterAndStoredAdminLogin(t *testing.T) {
	s := newTestServer(t)

	creds := map[string]any{"username": "maria", "password": "segredo"}
	resp := s.do(t, fiber.MethodPost, "/api/auth/register", "", creds)
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	resp = s.do(t, fiber.MethodPost, "/api/auth/register", s.token, map[string]any{"username": "maria"})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)

	resp = s.do(t, fiber.MethodPost, "/api/auth/register", s.token, creds)
	require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))
	assert.NotZero(t, resp.decode(t)["userId"])

	resp = s.do(t, fiber.MethodPost, "/api/auth/register", s.token, creds)
	assert.Equal(t, fiber.StatusConflict, resp.status)

	// Non-admin accounts cannot log in, whatever username the body names.
	resp = s.do(t, fiber.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	resp = s.do(t, fiber.MethodPost, "/api/auth/register", s.token, map[string]any{"username": "admin", "password": "senha-db"})
	require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))

	resp = s.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]any{"username": "outro", "password": "senha-db"})
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	token, _ := resp.decode(t)["token"].(string)

	resp = s.do(t, fiber.MethodGet, "/api/auth/verify", token, nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, domain.DefaultUsername, resp.decode(t)["user"].(map[string]any)["username"])
}

func TestRosterLifecycle(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, fiber.MethodPost, "/api/suportes", s.token, map[string]any{"nome": "Bruno", "horas": 3})
	require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))
	id := int64(resp.decode(t)["id"].(float64))
	path := "/api/suportes/" + strconv.FormatInt(id, 10)

	resp = s.do(t, fiber.MethodGet, path, "", nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	rec := resp.decode(t)
	assert.Equal(t, "Bruno", rec["nome"])
	assert.Equal(t, "SUP", rec["cargo"])
	assert.Equal(t, domain.DefaultStatus, rec["situacao"])
	assert.Equal(t, domain.DefaultPrize, rec["premio"])
	assert.EqualValues(t, 3, rec["horas"])

	resp = s.do(t, fiber.MethodGet, "/api/support/"+strconv.FormatInt(id, 10), "", nil)
	assert.Equal(t, fiber.StatusOK, resp.status)

	resp = s.do(t, fiber.MethodPatch, path, s.token, map[string]any{"id": 999, "criado": "x"})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)

	resp = s.do(t, fiber.MethodPatch, path, s.token, map[string]any{"horas": "abc"})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)

	resp = s.do(t, fiber.MethodPatch, path, s.token, map[string]any{"horas": "12", "id": 999, "situacao": "⬆️PROMOVIDO"})
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	data := resp.decode(t)["data"].(map[string]any)
	assert.EqualValues(t, 12, data["horas"])
	assert.EqualValues(t, id, data["id"])
	assert.Equal(t, "⬆️PROMOVIDO", data["situacao"])

	resp = s.do(t, fiber.MethodGet, "/api/suportes", "", nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(resp.body, &list))
	assert.Len(t, list, 1)

	resp = s.do(t, fiber.MethodDelete, path, s.token, nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
	resp = s.do(t, fiber.MethodGet, path, "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)
	resp = s.do(t, fiber.MethodDelete, path, s.token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)

	resp = s.do(t, fiber.MethodGet, "/api/suportes/abc", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)
}

func TestRegistrationDuplicateKeepsOriginal(t *testing.T) {
	s := newTestServer(t)

	reg := map[string]any{"id": 42, "nome": "Carla", "cidade": "", "cargo": "EST"}
	resp := s.do(t, fiber.MethodPost, "/api/cadastros", s.token, reg)
	require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))

	resp = s.do(t, fiber.MethodPost, "/api/cadastros", s.token, map[string]any{"id": 42, "nome": "Outra", "cidade": "SP", "cargo": "SUP"})
	assert.Equal(t, fiber.StatusConflict, resp.status)

	resp = s.do(t, fiber.MethodPost, "/api/cadastros", s.token, map[string]any{"id": 43, "nome": "Sem cidade", "cargo": "SUP"})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)

	resp = s.do(t, fiber.MethodGet, "/api/cadastros/42", "", nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "Carla", resp.decode(t)["nome"])

	resp = s.do(t, fiber.MethodDelete, "/api/cadastros/42", s.token, nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
	resp = s.do(t, fiber.MethodGet, "/api/cadastros/42", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)
}

func TestReplaceGoalsTouchesOnlyListedPairs(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, fiber.MethodGet, "/api/metas", "", nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	before := resp.decode(t)
	require.NotEmpty(t, before)

	resp = s.do(t, fiber.MethodPut, "/api/metas", s.token, map[string]any{
		"EST": map[string]any{"horas": map[string]any{"promocao": 99, "premiacao": 120}},
	})
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))

	resp = s.do(t, fiber.MethodGet, "/api/metas", "", nil)
	after := resp.decode(t)
	est := after["EST"].(map[string]any)["horas"].(map[string]any)
	assert.EqualValues(t, 99, est["promocao"])
	assert.EqualValues(t, 120, est["premiacao"])

	delete(after["EST"].(map[string]any), "horas")
	if beforeEST, ok := before["EST"].(map[string]any); ok {
		delete(beforeEST, "horas")
	}
	assert.Equal(t, before, after)

	resp = s.do(t, fiber.MethodPut, "/api/metas", s.token, `["nope"]`)
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
}

func TestGoalPathSegmentsAreUnescaped(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, fiber.MethodPost, "/api/metas", s.token, map[string]any{"cargo": "MOD", "metrica": "Tempo médio", "promocao": "5"})
	require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))

	resp = s.do(t, fiber.MethodPatch, "/api/metas/MOD/Tempo%20m%C3%A9dio", s.token, map[string]any{"premiacao": 7})
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))

	resp = s.do(t, fiber.MethodGet, "/api/metas/MOD", "", nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	pair := resp.decode(t)["Tempo médio"].(map[string]any)
	assert.EqualValues(t, 5, pair["promocao"])
	assert.EqualValues(t, 7, pair["premiacao"])

	resp = s.do(t, fiber.MethodPatch, "/api/metas/MOD/Tempo%20m%C3%A9dio", s.token, map[string]any{})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)

	resp = s.do(t, fiber.MethodDelete, "/api/metas/MOD/Tempo%20m%C3%A9dio", s.token, nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
	resp = s.do(t, fiber.MethodDelete, "/api/metas/MOD/Tempo%20m%C3%A9dio", s.token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)

	resp = s.do(t, fiber.MethodGet, "/api/metas/XYZ", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)
}

func TestExportImportRoundTripAndRollback(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, fiber.MethodPost, "/api/moderadores", s.token, map[string]any{"nome": "Davi", "discord_id": "123"})
	require.Equal(t, fiber.StatusCreated, resp.status)
	resp = s.do(t, fiber.MethodPost, "/api/cadastros", s.token, map[string]any{"id": 7, "nome": "Eva", "cidade": "Rio", "cargo": "MOD"})
	require.Equal(t, fiber.StatusCreated, resp.status)

	resp = s.do(t, fiber.MethodGet, "/api/export", "", nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	exported := resp.body
	doc := resp.decode(t)
	assert.NotEmpty(t, doc["exportedAt"])
	assert.Len(t, doc["moderadores"], 1)

	resp = s.do(t, fiber.MethodPost, "/api/import", "", string(exported))
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	resp = s.do(t, fiber.MethodPost, "/api/export/import", s.token, string(exported))
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))

	resp = s.do(t, fiber.MethodGet, "/api/export", "", nil)
	again := resp.decode(t)
	delete(doc, "exportedAt")
	delete(again, "exportedAt")
	assert.Equal(t, doc, again)

	resp = s.do(t, fiber.MethodPost, "/api/import", s.token, map[string]any{
		"moderadores": []any{},
		"cadastros":   []any{map[string]any{"id": 8, "nome": "Novo", "cidade": "SP", "cargo": "EST"}},
		"metas":       map[string]any{"MOD": "quebrado"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.status)

	resp = s.do(t, fiber.MethodGet, "/api/moderadores", "", nil)
	var mods []map[string]any
	require.NoError(t, json.Unmarshal(resp.body, &mods))
	assert.Len(t, mods, 1)
	resp = s.do(t, fiber.MethodGet, "/api/cadastros/8", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)
}

func TestHealthStaticAndFallbacks(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, fiber.MethodGet, "/api/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "ok", resp.decode(t)["status"])

	resp = s.do(t, fiber.MethodGet, "/api/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.status)

	resp = s.do(t, fiber.MethodGet, "/api/nada", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)
	assert.Equal(t, "NOT_FOUND", resp.decode(t)["code"])

	resp = s.do(t, fiber.MethodGet, "/equipe/moderadores", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), "painel")

	resp = s.do(t, fiber.MethodGet, "/metrics", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), "staffdash_http_requests_total")
}
