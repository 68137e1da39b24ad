package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
	"github.com/iho/orgconf/internal/infrastructure/postgres/generated"
	"github.com/iho/orgconf/internal/usecase"
)

const entitiesTable = "entities"

// EntityRepository implements usecase.EntityRepository.
type EntityRepository struct {
	queries *generated.Queries
	metrics *metrics.Metrics
}

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(pool *pgxpool.Pool, m *metrics.Metrics) *EntityRepository {
	return newEntityRepository(pool, m)
}

func newEntityRepository(db generated.DBTX, m *metrics.Metrics) *EntityRepository {
	return &EntityRepository{
		queries: generated.New(db),
		metrics: m,
	}
}

// CreateTx inserts a new company or branch within a transaction. A clash
// with a sibling name yields domain.ErrUniquenessViolation.
func (r *EntityRepository) CreateTx(ctx context.Context, tx usecase.Transaction, entity *domain.Entity) (err error) {
	defer observe(r.metrics, "insert", entitiesTable, time.Now(), &err)

	fields, currency, err := encodeEntityJSON(entity)
	if err != nil {
		return err
	}

	err = queriesForTx(tx).CreateEntity(ctx, generated.CreateEntityParams{
		ID:                 entity.ID,
		Kind:               string(entity.Kind),
		ParentID:           entity.ParentID,
		Name:               entity.Name,
		Fields:             fields,
		Country:            entity.Location.Country,
		State:              entity.Location.State,
		City:               entity.Location.City,
		PostalCode:         entity.Location.PostalCode,
		Currency:           currency,
		FinancialYearStart: dateToPgDate(entity.Anchors.FinancialYearStart),
		BooksBeginningDate: dateToPgDate(entity.Anchors.BooksBeginningDate),
		CreatedAt:          timeToPgTimestamptz(entity.CreatedAt),
		UpdatedAt:          timeToPgTimestamptz(entity.UpdatedAt),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %q", domain.ErrUniquenessViolation, entity.Name)
	}

	return err
}

// UpdateTx replaces the mutable columns of an entity within a transaction.
func (r *EntityRepository) UpdateTx(ctx context.Context, tx usecase.Transaction, entity *domain.Entity) (err error) {
	defer observe(r.metrics, "update", entitiesTable, time.Now(), &err)

	fields, currency, err := encodeEntityJSON(entity)
	if err != nil {
		return err
	}

	n, err := queriesForTx(tx).UpdateEntity(ctx, generated.UpdateEntityParams{
		ID:                 entity.ID,
		Name:               entity.Name,
		Fields:             fields,
		Country:            entity.Location.Country,
		State:              entity.Location.State,
		City:               entity.Location.City,
		PostalCode:         entity.Location.PostalCode,
		Currency:           currency,
		FinancialYearStart: dateToPgDate(entity.Anchors.FinancialYearStart),
		BooksBeginningDate: dateToPgDate(entity.Anchors.BooksBeginningDate),
		UpdatedAt:          timeToPgTimestamptz(entity.UpdatedAt),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %q", domain.ErrUniquenessViolation, entity.Name)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEntityNotFound, entity.ID)
	}

	return nil
}

// GetByID retrieves an entity by ID.
func (r *EntityRepository) GetByID(ctx context.Context, id string) (_ *domain.Entity, err error) {
	defer observe(r.metrics, "select", entitiesTable, time.Now(), &err)

	row, err := r.queries.GetEntityByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrEntityNotFound, id)
		}

		return nil, err
	}

	return rowToEntity(row)
}

// List lists entities of a kind, newest first. An empty parentID lists all
// of them.
func (r *EntityRepository) List(ctx context.Context, kind domain.EntityKind, parentID string, limit, offset int) (_ []*domain.Entity, err error) {
	defer observe(r.metrics, "select", entitiesTable, time.Now(), &err)

	rows, err := r.queries.ListEntities(ctx, generated.ListEntitiesParams{
		Kind:     string(kind),
		ParentID: parentID,
		Limit:    int32(limit),
		Offset:   int32(offset),
	})
	if err != nil {
		return nil, err
	}

	entities := make([]*domain.Entity, 0, len(rows))
	for _, row := range rows {
		e, err := rowToEntity(row)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	return entities, nil
}

// ListSiblingNames returns the registry of names under parentID.
func (r *EntityRepository) ListSiblingNames(ctx context.Context, kind domain.EntityKind, parentID string) (_ []domain.SiblingName, err error) {
	defer observe(r.metrics, "select", entitiesTable, time.Now(), &err)

	rows, err := r.queries.ListSiblingNames(ctx, generated.ListSiblingNamesParams{
		Kind:     string(kind),
		ParentID: parentID,
	})
	if err != nil {
		return nil, err
	}

	names := make([]domain.SiblingName, 0, len(rows))
	for _, row := range rows {
		names = append(names, domain.SiblingName{ID: row.ID, Name: row.Name})
	}

	return names, nil
}

// UpdateAnchorTx sets one fiscal anchor of a company within a transaction.
func (r *EntityRepository) UpdateAnchorTx(ctx context.Context, tx usecase.Transaction, id string, field domain.AnchorField, value domain.Date, updatedAt time.Time) (err error) {
	defer observe(r.metrics, "update", entitiesTable, time.Now(), &err)

	queries := queriesForTx(tx)

	var n int64
	switch field {
	case domain.AnchorFinancialYearStart:
		n, err = queries.UpdateFinancialYearStart(ctx, generated.UpdateFinancialYearStartParams{
			ID:                 id,
			FinancialYearStart: dateToPgDate(value),
			UpdatedAt:          timeToPgTimestamptz(updatedAt),
		})
	case domain.AnchorBooksBeginningDate:
		n, err = queries.UpdateBooksBeginningDate(ctx, generated.UpdateBooksBeginningDateParams{
			ID:                 id,
			BooksBeginningDate: dateToPgDate(value),
			UpdatedAt:          timeToPgTimestamptz(updatedAt),
		})
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedField, field)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: company %s", domain.ErrEntityNotFound, id)
	}

	return nil
}

func encodeEntityJSON(entity *domain.Entity) (fields, currency []byte, err error) {
	f := entity.Fields
	if f == nil {
		f = map[string]string{}
	}
	fields, err = json.Marshal(f)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal fields: %w", err)
	}

	if entity.Currency != nil {
		currency, err = json.Marshal(entity.Currency)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal currency: %w", err)
		}
	}

	return fields, currency, nil
}

func rowToEntity(row generated.Entity) (*domain.Entity, error) {
	e := &domain.Entity{
		ID:       row.ID,
		Kind:     domain.EntityKind(row.Kind),
		ParentID: row.ParentID,
		Name:     row.Name,
		Location: domain.StoredLocation{
			Country:    row.Country,
			State:      row.State,
			City:       row.City,
			PostalCode: row.PostalCode,
		},
		Anchors: domain.FiscalAnchors{
			FinancialYearStart: pgDateToDate(row.FinancialYearStart),
			BooksBeginningDate: pgDateToDate(row.BooksBeginningDate),
		},
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}

	if len(row.Fields) > 0 {
		if err := json.Unmarshal(row.Fields, &e.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields of %s: %w", row.ID, err)
		}
	}

	if len(row.Currency) > 0 {
		var currency domain.CurrencyProfile
		if err := json.Unmarshal(row.Currency, &currency); err != nil {
			return nil, fmt.Errorf("unmarshal currency of %s: %w", row.ID, err)
		}
		e.Currency = &currency
	}

	return e, nil
}
