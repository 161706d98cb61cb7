package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/complexorj/staff-dashboard/internal/cache"
	"github.com/complexorj/staff-dashboard/internal/config"
	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/persistence"
	"github.com/complexorj/staff-dashboard/internal/repository"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

type fixture struct {
	db            *persistence.Database
	roster        *RosterService
	registrations *RegistrationService
	goals         *GoalService
	backup        *BackupService
}

func newFixture(t *testing.T, goalCache cache.GoalCache) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := persistence.Open(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "dashboard.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, persistence.Prepare(ctx, db, zap.NewNop()))

	rosterRepo := repository.NewRosterRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	goals := NewGoalService(GoalDependencies{Tx: db, GoalRepo: goalRepo, Cache: goalCache})

	return &fixture{
		db:            db,
		roster:        NewRosterService(rosterRepo),
		registrations: NewRegistrationService(regRepo),
		goals:         goals,
		backup: NewBackupService(BackupDependencies{
			Tx:               db,
			RosterRepo:       rosterRepo,
			RegistrationRepo: regRepo,
			GoalRepo:         goalRepo,
			GoalService:      goals,
		}),
	}
}

const goalMatrixKey = "staffdash:goals:matrix"

func statusOf(err error) int {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return de.HTTPStatus
	}
	return 0
}

func TestRosterServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.roster.Create(ctx, domain.Moderators, map[string]any{"cargo": "MOD"})
	assert.Equal(t, 400, statusOf(err))

	rec, err := f.roster.Create(ctx, domain.Moderators, map[string]any{"nome": "Ana"})
	require.NoError(t, err)

	got, err := f.roster.Get(ctx, domain.Moderators, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "MOD", got.Role)
	assert.Equal(t, domain.DefaultStatus, got.Status)
	assert.Equal(t, domain.DefaultPrize, *got.Prize)

	_, err = f.roster.Update(ctx, domain.Moderators, rec.ID, map[string]any{"id": json.Number("99"), "hacker": true})
	assert.Equal(t, 400, statusOf(err))

	_, err = f.roster.Update(ctx, domain.Moderators, rec.ID, map[string]any{"horas": "abc"})
	assert.Equal(t, 400, statusOf(err))

	updated, err := f.roster.Update(ctx, domain.Moderators, rec.ID, map[string]any{"horas": json.Number("8"), "ignored": "x"})
	require.NoError(t, err)
	assert.EqualValues(t, 8, updated.Counters["horas"])
	assert.Equal(t, rec.ID, updated.ID)

	_, err = f.roster.Update(ctx, domain.Moderators, 12345, map[string]any{"horas": json.Number("1")})
	assert.Equal(t, 404, statusOf(err))

	require.NoError(t, f.roster.Delete(ctx, domain.Moderators, rec.ID))
	_, err = f.roster.Get(ctx, domain.Moderators, rec.ID)
	assert.Equal(t, 404, statusOf(err))
	assert.Equal(t, 404, statusOf(f.roster.Delete(ctx, domain.Moderators, rec.ID)))
}

func TestRegistrationServiceConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.registrations.Create(ctx, domain.Registration{ID: 1, Name: "Ana", City: "Rio", Role: "SUP"})
	require.NoError(t, err)

	_, err = f.registrations.Create(ctx, domain.Registration{ID: 1, Name: "Outra", City: "SP", Role: "EST"})
	assert.Equal(t, 409, statusOf(err))

	got, err := f.registrations.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)

	updated, err := f.registrations.Update(ctx, 1, map[string]any{"cidade": "", "evil": 1})
	require.NoError(t, err)
	assert.Equal(t, "", updated.City)

	_, err = f.registrations.Update(ctx, 1, map[string]any{"evil": 1})
	assert.Equal(t, 400, statusOf(err))

	require.NoError(t, f.registrations.Delete(ctx, 1))
	_, err = f.registrations.Get(ctx, 1)
	assert.Equal(t, 404, statusOf(err))
}

func TestGoalServiceWithCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f := newFixture(t, cache.NewGoalCache(&persistence.Redis{Client: client}, time.Minute, zap.NewNop()))

	m, err := f.goals.Matrix(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Thresholds{Promotion: 50, Bonus: 100}, m["EST"]["HORAS"])
	assert.Len(t, mr.Keys(), 1)

	require.NoError(t, f.goals.ReplaceMatrix(ctx, domain.GoalMatrix{"EST": {"HORAS": {Promotion: 1}}}))
	assert.False(t, mr.Exists(goalMatrixKey))

	m, err = f.goals.Matrix(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Thresholds{Promotion: 1, Bonus: 0}, m["EST"]["HORAS"])
	assert.Equal(t, domain.Thresholds{Promotion: 300, Bonus: 400}, m["EST"]["AT.SUPORTE"])
	assert.Equal(t, domain.Thresholds{Promotion: 90, Bonus: 150}, m["SUP"]["HORAS"])

	bonus := int64(7)
	require.NoError(t, f.goals.UpdateThresholds(ctx, "EST", "HORAS", nil, &bonus))
	assert.Equal(t, 400, statusOf(f.goals.UpdateThresholds(ctx, "EST", "HORAS", nil, nil)))
	assert.Equal(t, 404, statusOf(f.goals.UpdateThresholds(ctx, "EST", "NOPE", nil, &bonus)))

	role, err := f.goals.ForRole(ctx, "EST")
	require.NoError(t, err)
	assert.Equal(t, domain.Thresholds{Promotion: 1, Bonus: 7}, role["HORAS"])

	_, err = f.goals.ForRole(ctx, "XYZ")
	assert.Equal(t, 404, statusOf(err))

	assert.Equal(t, 400, statusOf(f.goals.Save(ctx, domain.Goal{Role: "EST"})))
	require.NoError(t, f.goals.Save(ctx, domain.Goal{Role: "NEW", Metric: "X", Thresholds: domain.Thresholds{Promotion: 2}}))
	require.NoError(t, f.goals.Delete(ctx, "NEW", "X"))
	assert.Equal(t, 404, statusOf(f.goals.Delete(ctx, "NEW", "X")))
}

// pausingGoalRepo holds the first List call after it has read the rows.
type pausingGoalRepo struct {
	repository.GoalRepository
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (r *pausingGoalRepo) List(ctx context.Context) ([]domain.Goal, error) {
	goals, err := r.GoalRepository.List(ctx)
	r.once.Do(func() {
		close(r.loaded)
		<-r.release
	})
	return goals, err
}

func TestGoalMatrixFillRacingWriteIsDropped(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f := newFixture(t, nil)

	repo := &pausingGoalRepo{
		GoalRepository: repository.NewGoalRepository(f.db),
		loaded:         make(chan struct{}),
		release:        make(chan struct{}),
	}
	goals := NewGoalService(GoalDependencies{
		Tx:       f.db,
		GoalRepo: repo,
		Cache:    cache.NewGoalCache(&persistence.Redis{Client: client}, time.Minute, zap.NewNop()),
	})

	done := make(chan error, 1)
	go func() {
		_, err := goals.Matrix(ctx)
		done <- err
	}()
	<-repo.loaded

	require.NoError(t, goals.Save(ctx, domain.Goal{Role: "EST", Metric: "HORAS", Thresholds: domain.Thresholds{Promotion: 999, Bonus: 100}}))
	close(repo.release)
	require.NoError(t, <-done)

	m, err := goals.Matrix(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Thresholds{Promotion: 999, Bonus: 100}, m["EST"]["HORAS"])
}

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t, nil)

	_, err := src.roster.Create(ctx, domain.Support, map[string]any{"nome": "Bia", "discord_id": "42", "horas": json.Number("10")})
	require.NoError(t, err)
	_, err = src.roster.Create(ctx, domain.Interns, map[string]any{"nome": "Leo"})
	require.NoError(t, err)
	_, err = src.registrations.Create(ctx, domain.Registration{ID: 5, Name: "Caio", City: "BH", Role: "EST"})
	require.NoError(t, err)

	doc, err := src.backup.Export(ctx)
	require.NoError(t, err)
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	dst := newFixture(t, nil)
	_, err = dst.roster.Create(ctx, domain.Support, map[string]any{"nome": "Stale"})
	require.NoError(t, err)
	require.NoError(t, dst.backup.Import(ctx, body))

	again, err := dst.backup.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc.Rosters, again.Rosters)
	assert.Equal(t, doc.Registrations, again.Registrations)
	assert.Equal(t, doc.Goals, again.Goals)
}

type countingTx struct {
	TxRunner
	calls int
}

func (c *countingTx) InTx(ctx context.Context, fn func(persistence.Handle) error) error {
	c.calls++
	return c.TxRunner.InTx(ctx, fn)
}

func TestBackupExportReadsOneSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.roster.Create(ctx, domain.Supervisors, map[string]any{"nome": "Rui"})
	require.NoError(t, err)

	tx := &countingTx{TxRunner: f.db}
	backup := NewBackupService(BackupDependencies{
		Tx:               tx,
		RosterRepo:       repository.NewRosterRepository(f.db),
		RegistrationRepo: repository.NewRegistrationRepository(f.db),
		GoalRepo:         repository.NewGoalRepository(f.db),
	})

	doc, err := backup.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	require.Len(t, doc.Rosters[domain.Supervisors.Key], 1)
	assert.Equal(t, "Rui", doc.Rosters[domain.Supervisors.Key][0].Name)
	assert.NotEmpty(t, doc.Goals)
}

func TestBackupImportRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	existing, err := f.roster.Create(ctx, domain.Admins, map[string]any{"nome": "Keep"})
	require.NoError(t, err)
	_, err = f.registrations.Create(ctx, domain.Registration{ID: 1, Name: "Keep", City: "Rio", Role: "ADM"})
	require.NoError(t, err)

	body := []byte(`{
		"cadastros": [{"id": 1, "nome": "Changed", "cidade": "SP", "cargo": "EST"}],
		"admins": [{"nome": "New"}],
		"metas": {"ADM": {"HORAS": "not an object"}}
	}`)
	err = f.backup.Import(ctx, body)
	assert.Equal(t, 400, statusOf(err))

	admins, err := f.roster.List(ctx, domain.Admins)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, existing.ID, admins[0].ID)

	reg, err := f.registrations.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Keep", reg.Name)

	assert.Equal(t, 400, statusOf(f.backup.Import(ctx, []byte(`[1,2]`))))
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	users := repository.NewUserRepository(f.db)

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "secret", AdminPassword: "shared", BcryptCost: 4, TokenTTLMinutes: 60}}
	svc := NewAuthService(cfg, AuthDependencies{UserRepo: users})

	_, err := svc.Login(ctx, "")
	assert.Equal(t, 400, statusOf(err))

	session, err := svc.Login(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)
	assert.Nil(t, session.UserID)

	_, err = svc.Login(ctx, "wrong")
	assert.Equal(t, 401, statusOf(err))

	_, err = svc.Register(ctx, "maria", "pw")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "maria", "pw2")
	assert.Equal(t, 409, statusOf(err))
	_, err = svc.Register(ctx, "", "pw")
	assert.Equal(t, 400, statusOf(err))

	// Only the admin account can log in through the users table.
	_, err = svc.Login(ctx, "pw")
	assert.Equal(t, 401, statusOf(err))

	admin, err := svc.Register(ctx, "admin", "adminpw")
	require.NoError(t, err)
	session, err = svc.Login(ctx, "adminpw")
	require.NoError(t, err)
	require.NotNil(t, session.UserID)
	assert.Equal(t, admin.ID, *session.UserID)

	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	noShared := NewAuthService(config.Config{Auth: config.AuthConfig{JWTSecret: "s"}}, AuthDependencies{UserRepo: users})
	_, err = noShared.Login(ctx, "")
	assert.Equal(t, 400, statusOf(err))
	_, err = noShared.Login(ctx, "shared")
	assert.Equal(t, 401, statusOf(err))

	session, err = noShared.Login(ctx, "adminpw")
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)
}
