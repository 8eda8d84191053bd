package control

import (
	"context"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/simdata/datastore"
	"github.com/signalsfoundry/simdata/model"
)

// Client is a typed wrapper around the control service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Entity is one row of ListEntities.
type Entity struct {
	ID     model.ObjectID
	Kind   model.EntityKind
	HostID model.ObjectID
	Source string
}

// FlushRequest selects what Flush discards. A zero Fields means all
// fields; zero Start and End mean all time.
type FlushRequest struct {
	ID        model.ObjectID
	Recursive bool
	Fields    datastore.FlushFields
	Start     float64
	End       float64
}

func (c *Client) call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetTime seeks the server's scenario time and returns the store time.
func (c *Client) SetTime(ctx context.Context, t float64) (float64, error) {
	out, err := c.call(ctx, methodSetTime, map[string]any{"time": t})
	if err != nil {
		return 0, err
	}
	return out.GetFields()["time"].GetNumberValue(), nil
}

// Flush discards history on the server.
func (c *Client) Flush(ctx context.Context, fr FlushRequest) error {
	req := map[string]any{
		"id":        float64(fr.ID),
		"recursive": fr.Recursive,
	}
	if fr.Fields != 0 {
		var names []any
		for _, name := range fieldNames(fr.Fields) {
			names = append(names, name)
		}
		req["fields"] = names
	}
	if fr.Start != 0 || fr.End != 0 {
		if !math.IsInf(fr.Start, -1) {
			req["start"] = fr.Start
		}
		if !math.IsInf(fr.End, 1) {
			req["end"] = fr.End
		}
	}
	_, err := c.call(ctx, methodFlush, req)
	return err
}

// Counts returns the history counts of id.
func (c *Client) Counts(ctx context.Context, id model.ObjectID) (datastore.Counts, error) {
	out, err := c.call(ctx, methodGetCounts, map[string]any{"id": float64(id)})
	if err != nil {
		return datastore.Counts{}, err
	}
	f := out.GetFields()
	return datastore.Counts{
		Updates:       int(f["updates"].GetNumberValue()),
		Commands:      int(f["commands"].GetNumberValue()),
		CategoryData:  int(f["category_data"].GetNumberValue()),
		GenericData:   int(f["generic_data"].GetNumberValue()),
		DataTableRows: int(f["data_table_rows"].GetNumberValue()),
	}, nil
}

// ListEntities lists entities, all kinds when none are given.
func (c *Client) ListEntities(ctx context.Context, kinds ...model.EntityKind) ([]Entity, error) {
	req := map[string]any{}
	if len(kinds) > 0 {
		names := make([]any, 0, len(kinds))
		for _, k := range kinds {
			names = append(names, k.String())
		}
		req["kinds"] = names
	}
	out, err := c.call(ctx, methodListEntities, req)
	if err != nil {
		return nil, err
	}
	var entities []Entity
	for _, v := range out.GetFields()["entities"].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		kind, err := model.ParseEntityKind(f["kind"].GetStringValue())
		if err != nil {
			return nil, err
		}
		entities = append(entities, Entity{
			ID:     model.ObjectID(f["id"].GetNumberValue()),
			Kind:   kind,
			HostID: model.ObjectID(f["host_id"].GetNumberValue()),
			Source: f["source"].GetStringValue(),
		})
	}
	return entities, nil
}

// Prefs returns the live preferences of id as decoded JSON.
func (c *Client) Prefs(ctx context.Context, id model.ObjectID) (map[string]any, error) {
	out, err := c.call(ctx, methodGetPrefs, map[string]any{"id": float64(id)})
	if err != nil {
		return nil, err
	}
	return out.GetFields()["prefs"].GetStructValue().AsMap(), nil
}

// RemoveEntity deletes id and everything it hosts.
func (c *Client) RemoveEntity(ctx context.Context, id model.ObjectID) error {
	_, err := c.call(ctx, methodRemoveEntity, map[string]any{"id": float64(id)})
	return err
}

func fieldNames(ff datastore.FlushFields) []string {
	var names []string
	for _, f := range []datastore.FlushFields{
		datastore.FlushUpdates,
		datastore.FlushCommands,
		datastore.FlushCategoryData,
		datastore.FlushGenericData,
		datastore.FlushDataTables,
		datastore.FlushExcludeMinusOne,
	} {
		if ff.Has(f) {
			names = append(names, f.String())
		}
	}
	return names
}
