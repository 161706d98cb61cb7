package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/complexorj/staff-dashboard/internal/domain"
	"github.com/complexorj/staff-dashboard/internal/persistence"
	"github.com/complexorj/staff-dashboard/internal/repository"
	apperrors "github.com/complexorj/staff-dashboard/pkg/util"
)

const (
	sectionRegistrations = "cadastros"
	sectionGoals         = "metas"
)

// ExportDocument is the full data set: one array per staff table, the
// registrations, the nested goal matrix and the export time.
type ExportDocument struct {
	Rosters       map[string][]domain.StaffRecord
	Registrations []domain.Registration
	Goals         domain.GoalMatrix
	ExportedAt    time.Time
}

func (d ExportDocument) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Rosters)+3)
	for key, records := range d.Rosters {
		out[key] = records
	}
	out[sectionRegistrations] = d.Registrations
	out[sectionGoals] = d.Goals
	out["exportedAt"] = d.ExportedAt.UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}

// ImportError marks a malformed import document section.
type ImportError struct {
	Section string
	Err     error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Section, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// BackupService exports and imports the whole data set.
type BackupService struct {
	tx            TxRunner
	roster        repository.RosterRepository
	registrations repository.RegistrationRepository
	goals         repository.GoalRepository
	goalSvc       *GoalService
	logger        *zap.Logger
	now           func() time.Time
}

// BackupDependencies encapsulates what the backup service needs.
type BackupDependencies struct {
	Tx               TxRunner
	RosterRepo       repository.RosterRepository
	RegistrationRepo repository.RegistrationRepository
	GoalRepo         repository.GoalRepository
	GoalService      *GoalService
	Logger           *zap.Logger
}

// NewBackupService constructs the service.
func NewBackupService(deps BackupDependencies) *BackupService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		tx:            deps.Tx,
		roster:        deps.RosterRepo,
		registrations: deps.RegistrationRepo,
		goals:         deps.GoalRepo,
		goalSvc:       deps.GoalService,
		logger:        logger,
		now:           time.Now,
	}
}

// Export reads every table inside one transaction so the document is a
// consistent snapshot.
func (s *BackupService) Export(ctx context.Context) (*ExportDocument, error) {
	doc := &ExportDocument{
		Rosters:    make(map[string][]domain.StaffRecord, len(domain.Tiers())),
		ExportedAt: s.now(),
	}
	err := s.tx.InTx(ctx, func(h persistence.Handle) error {
		roster := s.roster.WithTx(h)
		for _, tier := range domain.Tiers() {
			records, err := roster.List(ctx, tier)
			if err != nil {
				return err
			}
			doc.Rosters[tier.Key] = records
		}

		regs, err := s.registrations.WithTx(h).List(ctx)
		if err != nil {
			return err
		}
		doc.Registrations = regs

		goals, err := s.goals.WithTx(h).List(ctx)
		if err != nil {
			return err
		}
		doc.Goals = domain.NewGoalMatrix(goals)
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return doc, nil
}

// Import applies body in a single transaction: registrations are upserted by id,
// every staff table present as an array is replaced, and goals are upserted.
// Any failure rolls the whole import back.
func (s *BackupService) Import(ctx context.Context, body []byte) error {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(body, &sections); err != nil || sections == nil {
		return apperrors.NewValidationError("InvalidImport", nil)
	}

	err := s.tx.InTx(ctx, func(h persistence.Handle) error {
		if err := s.importRegistrations(ctx, h, sections[sectionRegistrations]); err != nil {
			return err
		}
		for _, tier := range domain.Tiers() {
			if err := s.importRoster(ctx, h, tier, sections[tier.Key]); err != nil {
				return err
			}
		}
		return s.importGoals(ctx, h, sections[sectionGoals])
	})

	var importErr *ImportError
	if errors.As(err, &importErr) {
		return apperrors.NewDomainError("VALIDATION_FAILED", "InvalidImport", http.StatusBadRequest, nil).
			WithDetails(map[string]any{"section": importErr.Section, "reason": importErr.Err.Error()})
	}
	if err != nil {
		return apperrors.MapError(err)
	}

	if s.goalSvc != nil {
		s.goalSvc.Invalidate(ctx)
	}
	s.logger.Info("data imported", zap.Int("sections", len(sections)))
	return nil
}

func (s *BackupService) importRegistrations(ctx context.Context, h persistence.Handle, raw json.RawMessage) error {
	items, ok, err := decodeArray(raw)
	if err != nil || !ok {
		return wrapSection(sectionRegistrations, err)
	}
	repo := s.registrations.WithTx(h)
	for _, item := range items {
		obj, isObj := item.(map[string]any)
		if !isObj {
			return &ImportError{Section: sectionRegistrations, Err: errors.New("entry is not an object")}
		}
		reg, err := domain.RegistrationFromExport(obj)
		if err != nil {
			return &ImportError{Section: sectionRegistrations, Err: err}
		}
		if err := repo.Upsert(ctx, &reg); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) importRoster(ctx context.Context, h persistence.Handle, tier domain.Tier, raw json.RawMessage) error {
	items, ok, err := decodeArray(raw)
	if err != nil || !ok {
		return wrapSection(tier.Key, err)
	}
	repo := s.roster.WithTx(h)
	if err := repo.DeleteAll(ctx, tier); err != nil {
		return err
	}
	for _, item := range items {
		obj, isObj := item.(map[string]any)
		if !isObj {
			return &ImportError{Section: tier.Key, Err: errors.New("entry is not an object")}
		}
		rec, err := tier.RecordFromExport(obj)
		if err != nil {
			return &ImportError{Section: tier.Key, Err: err}
		}
		if err := repo.Create(ctx, tier, &rec); err != nil {
			return err
		}
	}
	return repo.SyncIDSequence(ctx, tier)
}

func (s *BackupService) importGoals(ctx context.Context, h persistence.Handle, raw json.RawMessage) error {
	value, err := decodeSection(raw)
	if err != nil {
		return &ImportError{Section: sectionGoals, Err: err}
	}
	if _, isObj := value.(map[string]any); !isObj {
		return nil
	}
	m, err := domain.ParseGoalMatrix(value)
	if err != nil {
		return &ImportError{Section: sectionGoals, Err: err}
	}
	repo := s.goals.WithTx(h)
	for _, g := range m.Goals() {
		if err := repo.Upsert(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

// decodeArray reports ok=false for an absent or non-array section, which the
// import skips.
func decodeArray(raw json.RawMessage) ([]any, bool, error) {
	value, err := decodeSection(raw)
	if err != nil {
		return nil, false, err
	}
	items, ok := value.([]any)
	return items, ok, nil
}

func decodeSection(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func wrapSection(section string, err error) error {
	if err == nil {
		return nil
	}
	return &ImportError{Section: section, Err: err}
}
