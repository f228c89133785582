package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
	"wtbmonitor-backend/lib/timezone"
	"wtbmonitor-backend/services/ingest/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("services/ingest")

// ErrEmptyName is returned when an observation without a product name
// reaches the ingestion boundary. The aggregator downstream assumes every
// stored row has a non-empty name.
var ErrEmptyName = errors.New("observation has an empty product name")

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// CreateSession registers a new in-flight ingestion run and returns its id.
func (s Store) CreateSession(ctx context.Context, kind SourceKind, originLabel string) (string, error) {
	ctx, span := tracer.Start(ctx, "CreateSession")
	defer span.End()

	id, err := NewSessionID()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(
		attribute.String("session_id", id),
		attribute.String("kind", string(kind)),
	)

	err = s.qry.CreateSession(ctx, db.CreateSessionParams{
		ID:          id,
		SourceKind:  string(kind),
		OriginLabel: originLabel,
		StartedAt:   timezone.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return id, nil
}

// CompleteSession marks a session finished with its final item count.
// Completing an already-completed session is a no-op so retries cannot
// double count or move the completion timestamp.
func (s Store) CompleteSession(ctx context.Context, sessionID string, itemCount int64) error {
	ctx, span := tracer.Start(ctx, "CompleteSession")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID))

	affected, err := s.qry.CompleteSession(ctx, db.CompleteSessionParams{
		CompletedAt: sql.NullInt64{Int64: timezone.Now().Unix(), Valid: true},
		ItemCount:   itemCount,
		ID:          sessionID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if affected == 0 {
		slog.DebugContext(ctx, "session already completed", "session_id", sessionID)
	}
	return nil
}

// LatestCompletedSession returns the most recent completed session of the
// given kind, or nil when no run of that kind ever finished. In-flight and
// abandoned sessions are never returned.
func (s Store) LatestCompletedSession(ctx context.Context, kind SourceKind) (*Session, error) {
	row, err := s.qry.LatestCompletedSession(ctx, string(kind))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session := sessionFromRow(row)
	return &session, nil
}

func (s Store) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	row, err := s.qry.GetSession(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session := sessionFromRow(row)
	return &session, nil
}

// ListSessions returns session metadata most recent first. kind may be
// empty to list every source.
func (s Store) ListSessions(ctx context.Context, kind SourceKind, limit int64) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []db.ScrapeSession
	var err error
	if kind == "" {
		rows, err = s.qry.ListSessions(ctx, limit)
	} else {
		rows, err = s.qry.ListSessionsByKind(ctx, db.ListSessionsByKindParams{
			SourceKind: string(kind),
			Limit:      limit,
		})
	}
	if err != nil {
		return nil, err
	}

	sessions := make([]Session, len(rows))
	for i, r := range rows {
		sessions[i] = sessionFromRow(r)
	}
	return sessions, nil
}

// AppendWtbObservations stores a batch of raw WTB sightings under the given
// session. The append is all-or-nothing: a failure rolls back every row so
// the caller can leave the session incomplete and retry the whole scrape.
func (s Store) AppendWtbObservations(ctx context.Context, sessionID string, items []WtbObservation) error {
	ctx, span := tracer.Start(ctx, "AppendWtbObservations")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.Int("count", len(items)),
	)

	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			span.SetStatus(codes.Error, ErrEmptyName.Error())
			return ErrEmptyName
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	for _, item := range items {
		err := txqry.CreateWtbObservation(ctx, db.CreateWtbObservationParams{
			SessionID:   sessionID,
			Name:        strings.TrimSpace(item.Name),
			Sku:         strings.TrimSpace(item.SKU),
			Brand:       strings.TrimSpace(item.Brand),
			Size:        strings.TrimSpace(item.Size),
			PriceMin:    nullFloat(item.PriceMin),
			PriceMax:    nullFloat(item.PriceMax),
			OriginStore: strings.TrimSpace(item.OriginStore),
			ImageUrl:    item.ImageURL,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return tx.Commit()
}

// AppendInventoryObservations stores a batch of raw catalog rows under the
// given session, with the same all-or-nothing semantics as the WTB side.
func (s Store) AppendInventoryObservations(ctx context.Context, sessionID string, items []InventoryObservation) error {
	ctx, span := tracer.Start(ctx, "AppendInventoryObservations")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.Int("count", len(items)),
	)

	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			span.SetStatus(codes.Error, ErrEmptyName.Error())
			return ErrEmptyName
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	for _, item := range items {
		sizes := item.Sizes
		if sizes == nil {
			sizes = []string{}
		}
		sizesJson, err := json.Marshal(sizes)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		err = txqry.CreateInventoryObservation(ctx, db.CreateInventoryObservationParams{
			SessionID: sessionID,
			Name:      strings.TrimSpace(item.Name),
			Sku:       strings.TrimSpace(item.SKU),
			Brand:     strings.TrimSpace(item.Brand),
			Sizes:     string(sizesJson),
			Price:     nullFloat(item.Price),
			Url:       item.URL,
			ImageUrl:  item.ImageURL,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return tx.Commit()
}

// WtbObservations returns the raw WTB rows of one session in insertion
// order. The fixed order keeps aggregation deterministic.
func (s Store) WtbObservations(ctx context.Context, sessionID string) ([]WtbObservation, error) {
	rows, err := s.qry.WtbObservationsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items := make([]WtbObservation, len(rows))
	for i, r := range rows {
		items[i] = WtbObservation{
			ID:          r.ID,
			SessionID:   r.SessionID,
			Name:        r.Name,
			SKU:         r.Sku,
			Brand:       r.Brand,
			Size:        r.Size,
			PriceMin:    floatPtr(r.PriceMin),
			PriceMax:    floatPtr(r.PriceMax),
			OriginStore: r.OriginStore,
			ImageURL:    r.ImageUrl,
		}
	}
	return items, nil
}

// InventoryObservations returns the raw catalog rows of one session in
// insertion order.
func (s Store) InventoryObservations(ctx context.Context, sessionID string) ([]InventoryObservation, error) {
	rows, err := s.qry.InventoryObservationsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items := make([]InventoryObservation, len(rows))
	for i, r := range rows {
		var sizes []string
		if r.Sizes != "" {
			err := json.Unmarshal([]byte(r.Sizes), &sizes)
			if err != nil {
				slog.WarnContext(ctx, "failed to unmarshal stored sizes", "id", r.ID, "err", err)
			}
		}
		items[i] = InventoryObservation{
			ID:        r.ID,
			SessionID: r.SessionID,
			Name:      r.Name,
			SKU:       r.Sku,
			Brand:     r.Brand,
			Sizes:     sizes,
			Price:     floatPtr(r.Price),
			URL:       r.Url,
			ImageURL:  r.ImageUrl,
		}
	}
	return items, nil
}

func (s Store) WtbCount(ctx context.Context, sessionID string) (int64, error) {
	return s.qry.CountWtbBySession(ctx, sessionID)
}

func (s Store) InventoryCount(ctx context.Context, sessionID string) (int64, error) {
	return s.qry.CountInventoryBySession(ctx, sessionID)
}

func sessionFromRow(r db.ScrapeSession) Session {
	var completedAt *time.Time
	if r.CompletedAt.Valid {
		t := time.Unix(r.CompletedAt.Int64, 0).In(timezone.Location)
		completedAt = &t
	}
	return Session{
		ID:          r.ID,
		Kind:        SourceKind(r.SourceKind),
		OriginLabel: r.OriginLabel,
		StartedAt:   time.Unix(r.StartedAt, 0).In(timezone.Location),
		CompletedAt: completedAt,
		ItemCount:   r.ItemCount,
	}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
