package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
)

// maxSaveAttempts bounds how often an operation is re-applied when the
// stored session moved underneath it.
const maxSaveAttempts = 3

// SessionUseCase stores entity-edit sessions and persists their result.
type SessionUseCase struct {
	config     *EntityConfigUseCase
	resolver   *LocationResolver
	store      SessionStore
	entityRepo EntityRepository
	txManager  TransactionManager
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	retrier    Retrier
	ttl        time.Duration
	metrics    *metrics.Metrics
}

// NewSessionUseCase creates a new SessionUseCase.
func NewSessionUseCase(
	config *EntityConfigUseCase,
	resolver *LocationResolver,
	store SessionStore,
	entityRepo EntityRepository,
	txManager TransactionManager,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	ttl time.Duration,
	m *metrics.Metrics,
) *SessionUseCase {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionUseCase{
		config:     config,
		resolver:   resolver,
		store:      store,
		entityRepo: entityRepo,
		txManager:  txManager,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		ttl:        ttl,
		metrics:    m,
	}
}

// WithRetrier makes Submit retry its transaction on transient database
// conflicts.
func (uc *SessionUseCase) WithRetrier(r Retrier) *SessionUseCase {
	uc.retrier = r
	return uc
}

// StartInput represents input for starting a session.
type StartInput struct {
	Mode     domain.SessionMode
	Kind     domain.EntityKind
	EntityID string
	ParentID string
}

// Start opens a session and stores it.
func (uc *SessionUseCase) Start(ctx context.Context, input StartInput) (*domain.SessionState, error) {
	var entity *domain.Entity
	if input.Mode != domain.SessionModeCreate {
		if input.EntityID == "" {
			return nil, domain.ErrEntityRequired
		}
		e, err := uc.entityRepo.GetByID(ctx, input.EntityID)
		if err != nil {
			return nil, err
		}
		entity = e
	} else if input.Kind == domain.EntityKindBranch && input.ParentID != "" {
		parent, err := uc.entityRepo.GetByID(ctx, input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.Kind != domain.EntityKindCompany {
			return nil, fmt.Errorf("%w: parent %s is not a company", domain.ErrInvalidEntityKind, input.ParentID)
		}
	}

	state, err := uc.config.StartSession(ctx, StartSessionInput{
		Mode:     input.Mode,
		Kind:     input.Kind,
		ParentID: input.ParentID,
		Entity:   entity,
	})
	if err != nil {
		return nil, err
	}

	state.ExpiresAt = state.CreatedAt.Add(uc.ttl)

	if err := uc.store.Create(ctx, state, uc.ttl); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SessionsStarted.WithLabelValues(string(state.Mode), string(state.Kind)).Inc()
	}

	return state, nil
}

// Get returns a stored session.
func (uc *SessionUseCase) Get(ctx context.Context, id string) (*domain.SessionState, error) {
	return uc.store.Get(ctx, id)
}

// ProposeInput represents input for proposing a field value. When Revision is
// set, the proposal is rejected with domain.ErrStaleSession unless it matches
// the stored session.
type ProposeInput struct {
	SessionID string
	Field     domain.FieldKey
	Value     string
	Revision  *int64
}

// Propose applies a field edit to a stored session.
func (uc *SessionUseCase) Propose(ctx context.Context, input ProposeInput) (*domain.SessionState, error) {
	return uc.update(ctx, input.SessionID, input.Revision, func(s *domain.SessionState) (*domain.SessionState, error) {
		return uc.config.ProposeField(ctx, s, input.Field, input.Value, nil)
	})
}

// AnchorInput represents input for confirming or cancelling a pending anchor
// change.
type AnchorInput struct {
	SessionID string
	Field     domain.AnchorField
	Revision  *int64
	Actor     string
	RequestID string
}

// Confirm executes the destructive reset for a pending anchor change. The
// reset is committed before the session is updated, so a concurrent session
// write is resolved by re-applying the result to the latest session.
func (uc *SessionUseCase) Confirm(ctx context.Context, input AnchorInput) (*domain.SessionState, domain.ResetResult, error) {
	s, err := uc.load(ctx, input.SessionID, input.Revision)
	if err != nil {
		return nil, domain.ResetResult{}, err
	}

	next, result, err := uc.config.ConfirmAnchor(ctx, s, input.Field, ActionContext{
		Actor:     input.Actor,
		SessionID: s.ID,
		RequestID: input.RequestID,
	})
	if err != nil {
		return s, domain.ResetResult{}, err
	}

	err = uc.store.Save(ctx, next, s.Revision, uc.ttl)
	if errors.Is(err, domain.ErrStaleSession) {
		uc.recordConflict()
		next, err = uc.update(ctx, input.SessionID, nil, func(latest *domain.SessionState) (*domain.SessionState, error) {
			return ApplyResetResult(latest, result), nil
		})
	}
	if err != nil {
		return nil, result, err
	}

	return next, result, nil
}

// Cancel discards a pending anchor change.
func (uc *SessionUseCase) Cancel(ctx context.Context, input AnchorInput) (*domain.SessionState, error) {
	return uc.update(ctx, input.SessionID, input.Revision, func(s *domain.SessionState) (*domain.SessionState, error) {
		return uc.config.CancelAnchor(s, input.Field)
	})
}

// CheckName runs the keystroke-time uniqueness check against stored
// siblings.
func (uc *SessionUseCase) CheckName(ctx context.Context, sessionID string) (UniquenessResult, error) {
	s, err := uc.store.Get(ctx, sessionID)
	if err != nil {
		return UniquenessResult{}, err
	}

	siblings, err := uc.siblings(ctx, s)
	if err != nil {
		return UniquenessResult{}, err
	}

	return uc.config.CheckName(s, siblings), nil
}

// Candidate is one option of a selection widget.
type Candidate struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Candidate lists.
const (
	CandidateListStates = "states"
	CandidateListCities = "cities"
	CandidateListPostal = "postal"
)

// Candidates returns the session's current option list, ranked by fuzzy
// match against q when q is not empty.
func (uc *SessionUseCase) Candidates(ctx context.Context, sessionID, list, q string) ([]Candidate, error) {
	s, err := uc.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var options []Candidate
	switch list {
	case CandidateListStates:
		for _, st := range s.Candidates.States {
			options = append(options, Candidate{Code: st.Code, Label: st.Name})
		}
	case CandidateListCities:
		for _, c := range s.Candidates.Cities {
			options = append(options, Candidate{Code: c.Name, Label: c.Name})
		}
	case CandidateListPostal:
		for _, p := range s.Candidates.PostalCandidates {
			options = append(options, Candidate{Code: p.Code, Label: p.Code + " " + p.Area})
		}
	default:
		return nil, fmt.Errorf("%w: unknown candidate list %q", domain.ErrInvalidFieldValue, list)
	}

	return RankCandidates(options, q, MaxCandidates), nil
}

// RankCandidates filters options by a case-insensitive fuzzy match of q on
// their labels, best match first.
func RankCandidates(options []Candidate, q string, limit int) []Candidate {
	if q == "" {
		if limit > 0 && len(options) > limit {
			return options[:limit]
		}
		return options
	}

	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.Label
	}

	ranks := fuzzy.RankFindNormalizedFold(q, labels)
	sort.Stable(ranks)

	result := make([]Candidate, 0, len(ranks))
	for _, rank := range ranks {
		result = append(result, options[rank.OriginalIndex])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// SubmitInput represents input for submitting a session.
type SubmitInput struct {
	SessionID string
	Revision  *int64
	Actor     string
	RequestID string
}

// Submit runs the authoritative checks, persists the entity together with
// its outbox event and audit record, and closes the session.
func (uc *SessionUseCase) Submit(ctx context.Context, input SubmitInput) (entity *domain.Entity, err error) {
	start := time.Now()

	s, err := uc.load(ctx, input.SessionID, input.Revision)
	if err != nil {
		return nil, err
	}

	defer func() {
		if uc.metrics == nil {
			return
		}
		result := "ok"
		if err != nil {
			result = submitResult(err)
		}
		uc.metrics.Submits.WithLabelValues(string(s.Kind), result).Inc()
		uc.metrics.SubmitDuration.Observe(time.Since(start).Seconds())
	}()

	siblings, err := uc.siblings(ctx, s)
	if err != nil {
		return nil, err
	}

	payload, err := uc.config.Submit(ctx, s, siblings)
	if err != nil {
		return nil, err
	}

	entity, err = uc.persist(ctx, s, payload, input)
	if err != nil {
		return nil, err
	}

	if err := uc.store.Delete(ctx, s.ID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", s.ID).Msg("failed to delete submitted session")
	}

	return entity, nil
}

func (uc *SessionUseCase) persist(ctx context.Context, s *domain.SessionState, payload domain.EntityPayload, input SubmitInput) (*domain.Entity, error) {
	now := time.Now().UTC()
	created := payload.ID == ""
	if created {
		payload.ID = uc.idGen.Generate()
	}

	entity := payload.ToEntity(s.EditingItem, now)

	if uc.retrier == nil {
		return entity, uc.persistTx(ctx, s, entity, payload, created, input)
	}

	err := uc.retrier.Retry(ctx, func() error {
		return uc.persistTx(ctx, s, entity, payload, created, input)
	})
	return entity, err
}

func (uc *SessionUseCase) persistTx(ctx context.Context, s *domain.SessionState, entity *domain.Entity, payload domain.EntityPayload, created bool, input SubmitInput) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	now := entity.UpdatedAt
	prev := s.EditingItem

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer tx.Rollback(txCtx)

	if created {
		err = uc.entityRepo.CreateTx(txCtx, tx, entity)
	} else {
		err = uc.entityRepo.UpdateTx(txCtx, tx, entity)
	}
	if err != nil {
		return err
	}

	aggregateType := domain.AggregateTypeCompany
	if entity.Kind == domain.EntityKindBranch {
		aggregateType = domain.AggregateTypeBranch
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   entity.ID,
			AggregateType: aggregateType,
			EventType:     domain.SavedEventType(entity.Kind, created),
			Payload: domain.MarshalState(domain.EntitySavedEvent{
				EntityID:     entity.ID,
				Kind:         string(entity.Kind),
				ParentID:     entity.ParentID,
				Name:         entity.Name,
				CountryCode:  payload.Location.CountryCode,
				CurrencyCode: payload.Currency.FormalName,
			}),
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return err
		}
	}

	if uc.auditRepo != nil {
		var before domain.JSON
		if prev != nil {
			before = domain.MarshalState(prev)
		}
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			Actor:        input.Actor,
			Action:       string(domain.SaveAuditAction(entity.Kind, created)),
			ResourceType: aggregateType,
			ResourceID:   entity.ID,
			SessionID:    s.ID,
			RequestID:    input.RequestID,
			BeforeState:  before,
			AfterState:   domain.MarshalState(entity),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    now,
		}
		if err := uc.auditRepo.CreateTx(txCtx, tx, auditLog); err != nil {
			return err
		}
	}

	return tx.Commit(txCtx)
}

// Close discards a session without persisting it.
func (uc *SessionUseCase) Close(ctx context.Context, sessionID string) error {
	return uc.store.Delete(ctx, sessionID)
}

func (uc *SessionUseCase) siblings(ctx context.Context, s *domain.SessionState) ([]domain.SiblingName, error) {
	if !s.Kind.HasUniqueName() {
		return nil, nil
	}
	return uc.entityRepo.ListSiblingNames(ctx, s.Kind, s.ParentID)
}

func (uc *SessionUseCase) load(ctx context.Context, id string, revision *int64) (*domain.SessionState, error) {
	s, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if revision != nil && *revision != s.Revision {
		uc.recordConflict()
		return nil, fmt.Errorf("%w: revision %d, stored %d", domain.ErrStaleSession, *revision, s.Revision)
	}
	return s, nil
}

// update loads a session, applies fn and saves the result with
// compare-and-set. If another writer got in between, fn is re-applied to the
// fresh session; a caller-supplied revision is only checked on the first
// load.
func (uc *SessionUseCase) update(
	ctx context.Context,
	id string,
	revision *int64,
	fn func(*domain.SessionState) (*domain.SessionState, error),
) (*domain.SessionState, error) {
	var lastErr error

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		s, err := uc.load(ctx, id, revision)
		if err != nil {
			return nil, err
		}

		next, err := fn(s)
		if err != nil {
			return nil, err
		}
		next.ExpiresAt = time.Now().UTC().Add(uc.ttl)

		err = uc.store.Save(ctx, next, s.Revision, uc.ttl)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, domain.ErrStaleSession) {
			return nil, err
		}

		uc.recordConflict()
		lastErr = err
		if revision != nil {
			// The caller acted on a revision that is now superseded.
			return nil, err
		}
	}

	return nil, lastErr
}

func (uc *SessionUseCase) recordConflict() {
	if uc.metrics != nil {
		uc.metrics.SessionConflicts.Inc()
	}
}

func submitResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrPendingConfirmation):
		return "pending_confirmation"
	case errors.Is(err, domain.ErrUniquenessViolation), errors.Is(err, domain.ErrNameRequired):
		return "name_invalid"
	case errors.Is(err, domain.ErrPostalNotFound), errors.Is(err, domain.ErrCityMismatch),
		errors.Is(err, domain.ErrMalformedInput), errors.Is(err, domain.ErrCityRequired):
		return "postal_invalid"
	case errors.Is(err, domain.ErrStaleSession):
		return "stale"
	default:
		return "error"
	}
}
