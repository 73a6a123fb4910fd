package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/seal"
	"github.com/shandysiswandi/authgate/internal/pkg/storage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Storage keys shared with earlier clients.
const (
	KeyRecord      = "auth-storage"
	KeyProvisional = "temp-auth"
	KeyToken       = "token"
)

type Repo struct {
	store  storage.Storage
	ins    instrument.Instrumentation
	sealer seal.Sealer
}

// NewRepo stores blobs through sealer, or unchanged when sealer is nil.
func NewRepo(store storage.Storage, ins instrument.Instrumentation, sealer seal.Sealer) *Repo {
	if sealer == nil {
		sealer = seal.Plain{}
	}

	return &Repo{store: store, ins: ins, sealer: sealer}
}

func (r *Repo) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	plain, err := r.sealer.Open(raw, key)
	if err != nil {
		return false, fmt.Errorf("%w: %v", entity.ErrStorageCorrupted, err)
	}
	if err := json.Unmarshal(plain, dst); err != nil {
		return false, fmt.Errorf("%w: %v", entity.ErrStorageCorrupted, err)
	}

	return true, nil
}

func (r *Repo) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	sealed, err := r.sealer.Seal(raw, key)
	if err != nil {
		return err
	}

	return r.store.Set(ctx, key, sealed, ttl)
}

func (r *Repo) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.ins.Tracer("authflow.outbound.persist").Start(ctx, name)
}

func (r *Repo) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, entity.ErrStorageCorrupted) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// LoadRecord returns the persisted session, nil when none is stored, or an
// error wrapping entity.ErrStorageCorrupted when the blob cannot be used.
func (r *Repo) LoadRecord(ctx context.Context) (rec *entity.PersistedRecord, err error) {
	ctx, span := r.startSpan(ctx, "LoadRecord")
	defer func() { r.endSpan(span, err) }()

	var out entity.PersistedRecord
	found, err := r.get(ctx, KeyRecord, &out)
	if err != nil || !found {
		return nil, err
	}
	if out.Malformed() {
		return nil, fmt.Errorf("%w: missing required fields", entity.ErrStorageCorrupted)
	}

	return &out, nil
}

func (r *Repo) SaveRecord(ctx context.Context, rec entity.PersistedRecord) (err error) {
	ctx, span := r.startSpan(ctx, "SaveRecord")
	defer func() { r.endSpan(span, err) }()

	return r.set(ctx, KeyRecord, rec, rec.TTL())
}

func (r *Repo) DeleteRecord(ctx context.Context) (err error) {
	ctx, span := r.startSpan(ctx, "DeleteRecord")
	defer func() { r.endSpan(span, err) }()

	return r.store.Delete(ctx, KeyRecord)
}

// LoadProvisional returns the staged login result or nil when none is staged.
func (r *Repo) LoadProvisional(ctx context.Context) (p *entity.ProvisionalCredential, err error) {
	ctx, span := r.startSpan(ctx, "LoadProvisional")
	defer func() { r.endSpan(span, err) }()

	var out entity.ProvisionalCredential
	found, err := r.get(ctx, KeyProvisional, &out)
	if err != nil || !found {
		return nil, err
	}

	return &out, nil
}

func (r *Repo) SaveProvisional(ctx context.Context, p entity.ProvisionalCredential, ttl time.Duration) (err error) {
	ctx, span := r.startSpan(ctx, "SaveProvisional")
	defer func() { r.endSpan(span, err) }()

	return r.set(ctx, KeyProvisional, p, ttl)
}

func (r *Repo) DeleteProvisional(ctx context.Context) (err error) {
	ctx, span := r.startSpan(ctx, "DeleteProvisional")
	defer func() { r.endSpan(span, err) }()

	return r.store.Delete(ctx, KeyProvisional)
}

// Purge removes every key the client writes, including the legacy token key.
func (r *Repo) Purge(ctx context.Context) (err error) {
	ctx, span := r.startSpan(ctx, "Purge")
	defer func() { r.endSpan(span, err) }()

	return r.store.Delete(ctx, KeyRecord, KeyProvisional, KeyToken)
}
