package usecase

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/orgconf/internal/domain"
)

// EntityConfigUseCase composes location resolution, the anchor guard and the
// uniqueness check around a single entity-edit session. It only transforms
// session values; storage is left to the caller.
type EntityConfigUseCase struct {
	resolver   *LocationResolver
	guard      *AnchorGuard
	uniqueness *UniquenessValidator
	idGen      IDGenerator
}

// NewEntityConfigUseCase creates a new EntityConfigUseCase.
func NewEntityConfigUseCase(
	resolver *LocationResolver,
	guard *AnchorGuard,
	uniqueness *UniquenessValidator,
	idGen IDGenerator,
) *EntityConfigUseCase {
	return &EntityConfigUseCase{
		resolver:   resolver,
		guard:      guard,
		uniqueness: uniqueness,
		idGen:      idGen,
	}
}

// StartSessionInput represents input for starting a session.
type StartSessionInput struct {
	Mode     domain.SessionMode
	Kind     domain.EntityKind
	ParentID string
	// Entity is required in edit and view mode and ignored in create mode.
	Entity *domain.Entity
}

// StartSession opens a session. In edit and view mode the stored location is
// reverse-resolved and a stored currency profile takes precedence over the
// derived one.
func (uc *EntityConfigUseCase) StartSession(ctx context.Context, input StartSessionInput) (*domain.SessionState, error) {
	if _, err := domain.ParseSessionMode(string(input.Mode)); err != nil {
		return nil, err
	}
	if _, err := domain.ParseEntityKind(string(input.Kind)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	state := &domain.SessionState{
		ID:        uc.idGen.Generate(),
		Mode:      input.Mode,
		Kind:      input.Kind,
		ParentID:  input.ParentID,
		Fields:    map[string]string{},
		Currency:  domain.DefaultCurrencyProfile(),
		CreatedAt: now,
	}

	if input.Mode == domain.SessionModeCreate {
		if input.Kind == domain.EntityKindBranch && input.ParentID == "" {
			return nil, domain.NewValidationError("parent_id", "required", domain.ErrInvalidFieldValue, "branch requires a parent company")
		}
		return state, nil
	}

	if input.Entity == nil {
		return nil, domain.ErrEntityRequired
	}
	if input.Entity.Kind != input.Kind {
		return nil, fmt.Errorf("%w: entity %s is a %s", domain.ErrInvalidEntityKind, input.Entity.ID, input.Entity.Kind)
	}

	item := *input.Entity
	item.Fields = maps.Clone(input.Entity.Fields)
	if input.Mode == domain.SessionModeEdit {
		state.EditingItem = &item
	} else {
		state.ViewingItem = &item
	}

	state.ParentID = item.ParentID
	state.Name = item.Name
	if item.Fields != nil {
		state.Fields = maps.Clone(item.Fields)
	}
	state.Anchors = item.Anchors

	state.Location = uc.resolver.ReverseResolveFromExisting(ctx, item.Location)
	state.Candidates = uc.resolver.Candidates(ctx, state.Location)

	if item.Currency != nil {
		state.Currency = *item.Currency
		state.CurrencyExplicit = true
	} else {
		state.Currency = uc.resolver.DeriveCurrency(state.Location.CountryCode)
	}

	return state, nil
}

// ProposeField applies one field edit and returns the next session state.
// Location fields go through the resolver and anchor fields through the
// guard; everything else is stored as given. hasDependentData may be nil.
func (uc *EntityConfigUseCase) ProposeField(
	ctx context.Context,
	s *domain.SessionState,
	key domain.FieldKey,
	value string,
	hasDependentData HasDependentDataFunc,
) (*domain.SessionState, error) {
	if s.IsReadOnly() {
		return nil, domain.ErrReadOnlySession
	}

	next := s.Clone()
	if next.Fields == nil {
		next.Fields = map[string]string{}
	}

	var err error
	switch {
	case key.IsLocation():
		err = uc.proposeLocation(ctx, next, key, value)
	case isAnchorKey(key):
		err = uc.proposeAnchor(ctx, next, key, value, hasDependentData)
	case key == domain.FieldName:
		if err = domain.ValidateEntityName(value); err == nil {
			next.Name = value
		}
	case key.IsCurrency():
		err = proposeCurrency(next, key, value)
	default:
		if err = domain.ValidateFormField(string(key), value); err == nil {
			if value == "" {
				delete(next.Fields, string(key))
			} else {
				next.Fields[string(key)] = value
			}
		}
	}
	if err != nil {
		return nil, err
	}

	next.Revision++

	return next, nil
}

func (uc *EntityConfigUseCase) proposeLocation(ctx context.Context, next *domain.SessionState, key domain.FieldKey, value string) error {
	prev := next.Location

	switch key {
	case domain.FieldCountry:
		change := uc.resolver.SetCountry(ctx, next.Location, value)
		next.Location = change.Selection
		next.Candidates = domain.LocationCandidates{States: change.States, Degraded: change.Degraded}
		if change.Selection.CountryCode != prev.CountryCode {
			next.Currency = change.Currency
			next.CurrencyExplicit = false
		}

	case domain.FieldState:
		if next.Location.CountryCode == "" {
			return domain.NewValidationError(key, "country-required", domain.ErrInvalidFieldValue, "select a country first")
		}
		code := domain.NormalizeCode(value)
		if code != "" && !containsState(next.Candidates, code) {
			return domain.NewValidationError(key, "unknown", domain.ErrInvalidFieldValue,
				fmt.Sprintf("state %q is not in %s", value, next.Location.CountryCode))
		}
		change := uc.resolver.SetState(ctx, next.Location, code)
		next.Location = change.Selection
		next.Candidates.Cities = change.Cities
		next.Candidates.PostalCandidates = nil
		next.Candidates.Degraded = change.Degraded

	case domain.FieldCity:
		if next.Location.CountryCode == "" {
			return domain.NewValidationError(key, "country-required", domain.ErrInvalidFieldValue, "select a country first")
		}
		if strings.TrimSpace(value) != "" && next.Location.StateCode == "" {
			return domain.NewValidationError(key, "state-required", domain.ErrInvalidFieldValue, "select a state first")
		}
		name, ok := findCity(next.Candidates, value)
		if !ok {
			return domain.NewValidationError(key, "unknown", domain.ErrInvalidFieldValue,
				fmt.Sprintf("city %q is not in the selected state", value))
		}
		change := uc.resolver.SetCity(ctx, next.Location, name)
		next.Location = change.Selection
		next.Candidates.PostalCandidates = change.PostalCandidates
		next.Candidates.Degraded = change.Degraded

	case domain.FieldPostalCode:
		next.Location = next.Location.WithPostalCode(value)
		outcome := uc.resolver.ResolvePostalInput(ctx, value, next.Location)
		if outcome.AppliesTo(next.Location) {
			next.Postal = outcome
		}
		return nil
	}

	next.Postal = domain.PostalOutcome{}
	if next.Location != prev {
		next.SelectionVersion++
	}

	return nil
}

func (uc *EntityConfigUseCase) proposeAnchor(
	ctx context.Context,
	next *domain.SessionState,
	key domain.FieldKey,
	value string,
	hasDependentData HasDependentDataFunc,
) error {
	if !next.Kind.HasAnchors() {
		return fmt.Errorf("%w: %s on %s", domain.ErrUnsupportedField, key, next.Kind)
	}

	field, _ := key.Anchor()

	proposed, err := domain.ParseDate(value)
	if err != nil {
		return domain.NewValidationError(key, "malformed", err, "")
	}

	// A new proposal replaces one still awaiting confirmation.
	delete(next.Pending, field)

	decision, err := uc.guard.ProposeChange(ctx, domain.AnchorProposal{
		EntityID:      next.EntityID(),
		Field:         field,
		CurrentValue:  next.Anchors.Get(field),
		ProposedValue: proposed,
	}, hasDependentData)
	if err != nil {
		return err
	}

	switch decision.Status {
	case domain.GuardStatusPendingConfirmation:
		if next.Pending == nil {
			next.Pending = map[domain.AnchorField]domain.PendingAnchorChange{}
		}
		next.Pending[field] = *decision.Pending
	case domain.GuardStatusApplied:
		next.Anchors = next.Anchors.With(field, decision.Value)
	}

	return nil
}

func proposeCurrency(next *domain.SessionState, key domain.FieldKey, value string) error {
	c := next.Currency

	switch key {
	case domain.FieldCurrencySymbol:
		c.Symbol = strings.TrimSpace(value)
	case domain.FieldCurrencyFormalName:
		c.FormalName = strings.ToUpper(strings.TrimSpace(value))
	case domain.FieldAfterDecimalWord:
		c.AfterDecimalWord = strings.TrimSpace(value)
	case domain.FieldDecimalPlaces, domain.FieldDecimalPlacesInWords:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return domain.NewValidationError(key, "malformed", domain.ErrInvalidFieldValue, "must be a whole number")
		}
		if err := domain.ValidateDecimalPlaces(n); err != nil {
			return domain.NewValidationError(key, "out-of-range", err, "")
		}
		if key == domain.FieldDecimalPlaces {
			c.DecimalPlaces = n
		} else {
			c.DecimalPlacesInWords = n
		}
	default:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return domain.NewValidationError(key, "malformed", domain.ErrInvalidFieldValue, "must be true or false")
		}
		switch key {
		case domain.FieldShowInMillions:
			c.ShowInMillions = b
		case domain.FieldSuffixSymbolToAmount:
			c.SuffixSymbolToAmount = b
		case domain.FieldSpaceBetweenAmountAndSymbol:
			c.SpaceBetweenAmountAndSymbol = b
		}
	}

	next.Currency = c
	next.CurrencyExplicit = true

	return nil
}

// ConfirmAnchor runs the destructive reset for a pending anchor change. On
// failure the returned state is s itself: the anchor is unchanged and the
// change stays pending so it can be retried or cancelled.
func (uc *EntityConfigUseCase) ConfirmAnchor(
	ctx context.Context,
	s *domain.SessionState,
	field domain.AnchorField,
	action ActionContext,
) (*domain.SessionState, domain.ResetResult, error) {
	if s.IsReadOnly() {
		return s, domain.ResetResult{}, domain.ErrReadOnlySession
	}

	pending, ok := s.Pending[field]
	if !ok {
		return s, domain.ResetResult{}, fmt.Errorf("%w: %s", domain.ErrNoPendingChange, field)
	}

	result, err := uc.guard.Confirm(ctx, pending, action)
	if err != nil {
		return s, domain.ResetResult{}, err
	}

	return ApplyResetResult(s, result), result, nil
}

// ApplyResetResult records a committed reset on a session: the anchor takes
// its new value and the pending change it confirmed is removed. A pending
// change for a different value was proposed after the reset started; it is
// kept and now reverts to the committed value.
func ApplyResetResult(s *domain.SessionState, result domain.ResetResult) *domain.SessionState {
	next := s.Clone()
	next.Anchors = next.Anchors.With(result.Field, result.Value)
	if p, ok := next.Pending[result.Field]; ok {
		if p.ProposedValue.Equal(result.Value) {
			delete(next.Pending, result.Field)
		} else {
			p.CurrentValue = result.Value
			next.Pending[result.Field] = p
		}
	}
	if next.EditingItem != nil {
		next.EditingItem.Anchors = next.EditingItem.Anchors.With(result.Field, result.Value)
	}
	next.Revision++
	return next
}

// CancelAnchor discards a pending anchor change and restores the value the
// anchor had when it was proposed.
func (uc *EntityConfigUseCase) CancelAnchor(s *domain.SessionState, field domain.AnchorField) (*domain.SessionState, error) {
	if s.IsReadOnly() {
		return nil, domain.ErrReadOnlySession
	}

	pending, ok := s.Pending[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoPendingChange, field)
	}

	decision := uc.guard.Cancel(pending)

	next := s.Clone()
	next.Anchors = next.Anchors.With(field, decision.Value)
	delete(next.Pending, field)
	next.Revision++

	return next, nil
}

// CheckName runs the keystroke-time uniqueness check for the session's name.
func (uc *EntityConfigUseCase) CheckName(s *domain.SessionState, siblings []domain.SiblingName) UniquenessResult {
	return uc.uniqueness.Validate(s.Name, siblings, s.EntityID())
}

// Submit runs the authoritative checks and assembles the persistence-ready
// payload. Any pending anchor change blocks submission.
func (uc *EntityConfigUseCase) Submit(ctx context.Context, s *domain.SessionState, siblings []domain.SiblingName) (domain.EntityPayload, error) {
	if s.IsReadOnly() {
		return domain.EntityPayload{}, domain.ErrReadOnlySession
	}

	if s.HasPending() {
		return domain.EntityPayload{}, fmt.Errorf("%w: %v", domain.ErrPendingConfirmation, s.PendingFields())
	}

	if s.Kind.HasUniqueName() {
		if err := uc.uniqueness.Validate(s.Name, siblings, s.EntityID()).Err(); err != nil {
			return domain.EntityPayload{}, err
		}
	} else if strings.TrimSpace(s.Name) == "" {
		return domain.EntityPayload{}, domain.NewValidationError(domain.FieldName, "required", domain.ErrNameRequired, MessageNameRequired)
	}

	if err := domain.ValidateEntityName(s.Name); err != nil {
		return domain.EntityPayload{}, err
	}

	for _, key := range slices.Sorted(maps.Keys(s.Fields)) {
		if err := domain.ValidateFormField(key, s.Fields[key]); err != nil {
			return domain.EntityPayload{}, err
		}
	}

	if err := s.Currency.Validate(); err != nil {
		return domain.EntityPayload{}, domain.NewValidationError(domain.FieldCurrencyFormalName, "invalid", err, "")
	}

	outcome := uc.resolver.ResolvePostalInput(ctx, s.Location.PostalCode, s.Location)
	if !outcome.OK {
		return domain.EntityPayload{}, domain.NewValidationError(domain.FieldPostalCode, string(outcome.Reason), outcome.Err(), outcome.Detail)
	}

	payload := domain.EntityPayload{
		ID:       s.EntityID(),
		Kind:     s.Kind,
		ParentID: s.ParentID,
		Name:     strings.TrimSpace(s.Name),
		Fields:   maps.Clone(s.Fields),
		Location: s.Location,
		Currency: s.Currency,
	}
	if s.Kind.HasAnchors() {
		anchors := s.Anchors
		payload.Anchors = &anchors
	}

	zerolog.Ctx(ctx).Info().
		Str("session_id", s.ID).
		Str("kind", string(s.Kind)).
		Str("country", s.Location.CountryCode).
		Bool("postal_degraded", outcome.Degraded).
		Msg("session submitted")

	return payload, nil
}

func isAnchorKey(key domain.FieldKey) bool {
	_, ok := key.Anchor()
	return ok
}

// containsState reports whether code is one of the candidate states. An
// unknown code is only accepted while the oracle is degraded.
func containsState(cands domain.LocationCandidates, code string) bool {
	if len(cands.States) == 0 {
		return cands.Degraded
	}
	for _, s := range cands.States {
		if domain.NormalizeCode(s.Code) == code {
			return true
		}
	}
	return false
}

func findCity(cands domain.LocationCandidates, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return name, true
	}
	if len(cands.Cities) == 0 {
		return name, cands.Degraded
	}
	if match := matchCity(cands.Cities, name); match != "" {
		return match, true
	}
	return "", false
}
