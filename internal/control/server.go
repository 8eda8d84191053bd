package control

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/simdata/datastore"
	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/model"
)

// Clock moves scenario time. *timectrl.TimeController satisfies it.
type Clock interface {
	SetScenarioSeconds(seconds float64)
}

// Server implements DataStoreServiceServer over a DataStore.
//
// Request and response fields:
//   - SetTime      {time}                                  -> {time}
//   - Flush        {id, recursive, fields[], start, end}   -> {id, scope, fields}
//   - GetCounts    {id}                                    -> {updates, commands, category_data, generic_data, data_table_rows}
//   - ListEntities {kinds[]}                               -> {time, entities[{id, kind, host_id, source}]}
//   - GetPrefs     {id}                                    -> {id, kind, prefs}
//   - RemoveEntity {id}                                    -> {id}
//
// id defaults to the scenario. Flush fields default to ["all"] and the
// range to all time.
type Server struct {
	ds    *datastore.DataStore
	clock Clock
	log   logging.Logger
}

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithClock routes SetTime through c, so clock listeners see the seek.
// Without a clock SetTime calls DataStore.Update directly.
func WithClock(c Clock) ServerOption {
	return func(s *Server) {
		s.clock = c
	}
}

// NewServer constructs a control server bound to ds.
func NewServer(ds *datastore.DataStore, log logging.Logger, opts ...ServerOption) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{ds: ds, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) logger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}

// SetTime seeks the store, forward or backward.
func (s *Server) SetTime(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	t, ok, err := number(req, "time")
	if err != nil {
		return nil, ToStatusError(err)
	}
	if !ok {
		return nil, ToStatusError(fmt.Errorf("time is required: %w", ErrInvalidRequest))
	}

	_, span := startChildSpan(ctx, "datastore.Update", 0, attribute.Float64("time", t))
	if s.clock != nil {
		s.clock.SetScenarioSeconds(t)
	} else {
		s.ds.Update(t)
	}
	span.End()

	s.logger(ctx).Debug(ctx, "time set", logging.Float64("time", t))
	return newStruct(map[string]any{"time": s.ds.CurrentTime()})
}

// Flush discards history of an entity, or of the scenario.
func (s *Server) Flush(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := objectID(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	fields, err := flushFields(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	scope := datastore.FlushNonRecursive
	if v, ok := req.GetFields()["recursive"]; ok {
		b, isBool := v.GetKind().(*structpb.Value_BoolValue)
		if !isBool {
			return nil, ToStatusError(fmt.Errorf("recursive must be a bool: %w", ErrInvalidRequest))
		}
		if b.BoolValue {
			scope = datastore.FlushRecursive
		}
	}
	start, end := math.Inf(-1), math.Inf(1)
	if v, ok, err := number(req, "start"); err != nil {
		return nil, ToStatusError(err)
	} else if ok {
		start = v
	}
	if v, ok, err := number(req, "end"); err != nil {
		return nil, ToStatusError(err)
	} else if ok {
		end = v
	}
	if start > end {
		return nil, ToStatusError(fmt.Errorf("start %v after end %v: %w", start, end, ErrInvalidRequest))
	}

	ctx, span := startChildSpan(ctx, "datastore.Flush", uint64(id),
		attribute.String("scope", scope.String()),
		attribute.String("fields", fields.String()),
	)
	err = s.ds.FlushRange(ctx, id, scope, fields, start, end)
	span.End()
	if err != nil {
		return nil, ToStatusError(err)
	}
	return newStruct(map[string]any{
		"id":     float64(id),
		"scope":  scope.String(),
		"fields": fields.String(),
	})
}

// GetCounts reports how much history an entity holds.
func (s *Server) GetCounts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := objectID(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	c, err := s.ds.Counts(id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return newStruct(map[string]any{
		"updates":         float64(c.Updates),
		"commands":        float64(c.Commands),
		"category_data":   float64(c.CategoryData),
		"generic_data":    float64(c.GenericData),
		"data_table_rows": float64(c.DataTableRows),
	})
}

// ListEntities lists committed entities, optionally filtered by kind.
func (s *Server) ListEntities(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var kinds []model.EntityKind
	if v, ok := req.GetFields()["kinds"]; ok {
		list := v.GetListValue()
		if list == nil {
			return nil, ToStatusError(fmt.Errorf("kinds must be a list: %w", ErrInvalidRequest))
		}
		for _, item := range list.GetValues() {
			k, err := model.ParseEntityKind(item.GetStringValue())
			if err != nil {
				return nil, ToStatusError(fmt.Errorf("%v: %w", err, ErrInvalidRequest))
			}
			kinds = append(kinds, k)
		}
	}

	entities := []any{}
	for _, p := range s.ds.List() {
		if len(kinds) > 0 && !slices.Contains(kinds, p.Kind) {
			continue
		}
		e := map[string]any{
			"id":      float64(p.ID),
			"kind":    p.Kind.String(),
			"host_id": float64(p.HostID),
		}
		if p.Source != "" {
			e["source"] = p.Source
		}
		entities = append(entities, e)
	}
	return newStruct(map[string]any{
		"time":     s.ds.CurrentTime(),
		"entities": entities,
	})
}

// GetPrefs returns the live preferences of an entity.
func (s *Server) GetPrefs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := objectID(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	kind, err := s.ds.Kind(id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	prefs, err := s.ds.Prefs(id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return nil, ToStatusError(fmt.Errorf("encode prefs %d: %w", id, err))
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, ToStatusError(fmt.Errorf("decode prefs %d: %w", id, err))
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return newStruct(map[string]any{
		"id":    float64(id),
		"kind":  kind.String(),
		"prefs": fields,
	})
}

// RemoveEntity deletes an entity and everything it hosts.
func (s *Server) RemoveEntity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := objectID(req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	if err := s.ds.RemoveEntity(ctx, id); err != nil {
		return nil, ToStatusError(err)
	}
	s.logger(ctx).Info(ctx, "entity removed", logging.Any("id", id))
	return newStruct(map[string]any{"id": float64(id)})
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return st, nil
}

// number returns the numeric field key, reporting whether it was present.
func number(req *structpb.Struct, key string) (float64, bool, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, false, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum {
		return 0, false, fmt.Errorf("%s must be a number: %w", key, ErrInvalidRequest)
	}
	return n.NumberValue, true, nil
}

func objectID(req *structpb.Struct) (model.ObjectID, error) {
	v, ok, err := number(req, "id")
	if err != nil || !ok {
		return model.ScenarioID, err
	}
	if v < 0 || v != math.Trunc(v) || v > 1<<53 {
		return 0, fmt.Errorf("id %v is not a valid object id: %w", v, ErrInvalidRequest)
	}
	return model.ObjectID(v), nil
}

func flushFields(req *structpb.Struct) (datastore.FlushFields, error) {
	v, ok := req.GetFields()["fields"]
	if !ok {
		return datastore.FlushAll, nil
	}
	list := v.GetListValue()
	if list == nil {
		return 0, fmt.Errorf("fields must be a list: %w", ErrInvalidRequest)
	}
	var fields datastore.FlushFields
	for _, item := range list.GetValues() {
		f, err := datastore.ParseFlushField(item.GetStringValue())
		if err != nil {
			return 0, fmt.Errorf("%v: %w", err, ErrInvalidRequest)
		}
		fields |= f
	}
	return fields, nil
}
