package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/simdata/datastore"
	"github.com/signalsfoundry/simdata/datatable"
	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/internal/observability"
	"github.com/signalsfoundry/simdata/model"
	"github.com/signalsfoundry/simdata/storetest"
)

type controlTestEnv struct {
	ctx       context.Context
	store     *storetest.Helper
	client    *Client
	conn      *grpc.ClientConn
	collector *observability.RPCCollector
	seenIDs   chan string
}

func newControlTestEnv(t *testing.T, opts ...ServerOption) *controlTestEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	collector, err := observability.NewRPCCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewRPCCollector: %v", err)
	}

	h := storetest.New(t)
	seen := make(chan string, 16)
	capture := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		select {
		case seen <- logging.RequestIDFromContext(ctx):
		default:
		}
		return handler(ctx, req)
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RequestIDUnaryServerInterceptor(logging.Noop()),
			TracingUnaryServerInterceptor(),
			collector.UnaryServerInterceptor(),
			capture,
		),
	)
	RegisterDataStoreServiceServer(server, NewServer(h.Store(), logging.Noop(), opts...))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(RequestIDUnaryClientInterceptor()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &controlTestEnv{
		ctx:       ctx,
		store:     h,
		client:    NewClient(conn),
		conn:      conn,
		collector: collector,
		seenIDs:   seen,
	}
}

func requireCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if got := status.Code(err); got != want {
		t.Fatalf("status code = %v (err %v), want %v", got, err, want)
	}
}

func commonColor(t *testing.T, prefs map[string]any) float64 {
	t.Helper()
	common, ok := prefs["common"].(map[string]any)
	if !ok {
		t.Fatalf("prefs have no common section: %v", prefs)
	}
	color, ok := common["color"].(float64)
	if !ok {
		t.Fatalf("common prefs have no color: %v", common)
	}
	return color
}

func TestControlEndToEnd(t *testing.T) {
	env := newControlTestEnv(t)
	h := env.store

	platform := h.AddPlatform()
	beam := h.AddBeam(platform)
	h.AddColorCommand(beam, 1, 0xff0000ff)
	h.AddColorCommand(beam, 5, 0x00ff00ff)
	h.AddPlatformUpdate(platform, 0)
	h.AddPlatformUpdate(platform, 10)

	got, err := env.client.SetTime(env.ctx, 6)
	if err != nil {
		t.Fatalf("SetTime(6): %v", err)
	}
	if got != 6 {
		t.Fatalf("SetTime(6) = %v, want 6", got)
	}
	prefs, err := env.client.Prefs(env.ctx, beam)
	if err != nil {
		t.Fatalf("Prefs: %v", err)
	}
	if c := commonColor(t, prefs); c != 0x00ff00ff {
		t.Fatalf("color at 6 = %#x, want 0x00ff00ff", uint32(c))
	}

	// Backward seek replays from the start.
	if _, err := env.client.SetTime(env.ctx, 2); err != nil {
		t.Fatalf("SetTime(2): %v", err)
	}
	prefs, err = env.client.Prefs(env.ctx, beam)
	if err != nil {
		t.Fatalf("Prefs: %v", err)
	}
	if c := commonColor(t, prefs); c != 0xff0000ff {
		t.Fatalf("color at 2 = %#x, want 0xff0000ff", uint32(c))
	}

	entities, err := env.client.ListEntities(env.ctx, model.KindBeam)
	if err != nil {
		t.Fatalf("ListEntities: %v", err)
	}
	if len(entities) != 1 || entities[0].ID != beam || entities[0].HostID != platform || entities[0].Kind != model.KindBeam {
		t.Fatalf("ListEntities(beam) = %+v", entities)
	}

	if err := env.client.Flush(env.ctx, FlushRequest{ID: platform, Recursive: true, Fields: datastore.FlushCommands}); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	counts, err := env.client.Counts(env.ctx, beam)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Commands != 0 {
		t.Fatalf("beam commands after recursive flush = %d, want 0", counts.Commands)
	}
	counts, err = env.client.Counts(env.ctx, platform)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Updates != 2 {
		t.Fatalf("platform updates after commands flush = %d, want 2", counts.Updates)
	}

	if err := env.client.RemoveEntity(env.ctx, platform); err != nil {
		t.Fatalf("RemoveEntity: %v", err)
	}
	entities, err = env.client.ListEntities(env.ctx)
	if err != nil {
		t.Fatalf("ListEntities: %v", err)
	}
	if len(entities) != 0 {
		t.Fatalf("ListEntities after remove = %+v, want none", entities)
	}
	_, err = env.client.Prefs(env.ctx, beam)
	requireCode(t, err, codes.NotFound)

	if got := testutil.ToFloat64(env.collector.RPCRequests.WithLabelValues("DataStoreService", "GetPrefs", "NotFound")); got != 1 {
		t.Fatalf("simdata_rpc_requests_total{GetPrefs,NotFound} = %v, want 1", got)
	}
}

func TestControlFlushRange(t *testing.T) {
	env := newControlTestEnv(t)
	h := env.store

	platform := h.AddPlatform()
	for i := 0; i < 5; i++ {
		h.AddPlatformUpdate(platform, float64(i))
	}
	h.AddDataTable(platform, 5, "rows")

	err := env.client.Flush(env.ctx, FlushRequest{
		ID:     platform,
		Fields: datastore.FlushUpdates | datastore.FlushDataTables,
		Start:  1,
		End:    3,
	})
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	counts := h.Counts(platform)
	if counts.Updates != 3 || counts.DataTableRows != 3 {
		t.Fatalf("counts after range flush = %+v, want 3 updates and 3 rows", counts)
	}
}

func TestControlInvalidRequests(t *testing.T) {
	env := newControlTestEnv(t)
	platform := env.store.AddPlatform()

	invoke := func(method string, req map[string]any) error {
		in, err := structpb.NewStruct(req)
		if err != nil {
			t.Fatalf("NewStruct: %v", err)
		}
		return env.conn.Invoke(env.ctx, fullMethod(method), in, new(structpb.Struct))
	}

	cases := []struct {
		name   string
		method string
		req    map[string]any
		code   codes.Code
	}{
		{"missing time", methodSetTime, map[string]any{}, codes.InvalidArgument},
		{"time not a number", methodSetTime, map[string]any{"time": "soon"}, codes.InvalidArgument},
		{"unknown flush field", methodFlush, map[string]any{"fields": []any{"bogus"}}, codes.InvalidArgument},
		{"recursive not bool", methodFlush, map[string]any{"recursive": "yes"}, codes.InvalidArgument},
		{"inverted range", methodFlush, map[string]any{"start": 5.0, "end": 1.0}, codes.InvalidArgument},
		{"negative id", methodGetCounts, map[string]any{"id": -1.0}, codes.InvalidArgument},
		{"fractional id", methodGetPrefs, map[string]any{"id": 1.5}, codes.InvalidArgument},
		{"unknown kind", methodListEntities, map[string]any{"kinds": []any{"tank"}}, codes.InvalidArgument},
		{"unknown entity", methodFlush, map[string]any{"id": float64(platform + 100)}, codes.NotFound},
		{"scenario prefs", methodGetPrefs, map[string]any{"id": 0.0}, codes.NotFound},
		{"remove scenario", methodRemoveEntity, map[string]any{}, codes.NotFound},
	}
	for _, tc := range cases {
		err := invoke(tc.method, tc.req)
		if got := status.Code(err); got != tc.code {
			t.Fatalf("%s: code = %v (err %v), want %v", tc.name, got, err, tc.code)
		}
	}
}

func TestControlScenarioFlush(t *testing.T) {
	env := newControlTestEnv(t)
	h := env.store
	platform := h.AddPlatform()
	h.AddGenericData(model.ScenarioID, "k", "v", 0)
	h.AddGenericData(platform, "k", "v", 0)

	if err := env.client.Flush(env.ctx, FlushRequest{Fields: datastore.FlushGenericData}); err != nil {
		t.Fatalf("Flush scenario: %v", err)
	}
	if got := h.Counts(model.ScenarioID).GenericData; got != 0 {
		t.Fatalf("scenario generic data = %d, want 0", got)
	}
	if got := h.Counts(platform).GenericData; got != 1 {
		t.Fatalf("platform generic data after non-recursive scenario flush = %d, want 1", got)
	}
}

type recordingClock struct {
	ds   *datastore.DataStore
	seen []float64
}

func (c *recordingClock) SetScenarioSeconds(s float64) {
	c.seen = append(c.seen, s)
	c.ds.Update(s)
}

func TestControlSetTimeUsesClock(t *testing.T) {
	clock := &recordingClock{}
	env := newControlTestEnv(t, WithClock(clock))
	clock.ds = env.store.Store()

	if _, err := env.client.SetTime(env.ctx, 12.5); err != nil {
		t.Fatalf("SetTime: %v", err)
	}
	if len(clock.seen) != 1 || clock.seen[0] != 12.5 {
		t.Fatalf("clock saw %v, want [12.5]", clock.seen)
	}
	if got := env.store.Store().CurrentTime(); got != 12.5 {
		t.Fatalf("CurrentTime() = %v, want 12.5", got)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	env := newControlTestEnv(t)

	ctx := logging.ContextWithRequestID(env.ctx, "req-42")
	if _, err := env.client.SetTime(ctx, 1); err != nil {
		t.Fatalf("SetTime: %v", err)
	}
	if got := <-env.seenIDs; got != "req-42" {
		t.Fatalf("server request id = %q, want req-42", got)
	}

	if _, err := env.client.SetTime(env.ctx, 2); err != nil {
		t.Fatalf("SetTime: %v", err)
	}
	if got := <-env.seenIDs; got == "" || got == "req-42" {
		t.Fatalf("server request id = %q, want a fresh id", got)
	}
}

func TestTracingInterceptorNamesSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	interceptor := TracingUnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: fullMethod(methodFlush)}
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, ToStatusError(fmt.Errorf("flush 9: %w", datastore.ErrNotFound))
	})
	requireCode(t, err, codes.NotFound)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if name := spans[0].Name(); name != "Control/DataStoreService/Flush" {
		t.Fatalf("span name = %q, want Control/DataStoreService/Flush", name)
	}
	if len(spans[0].Events()) == 0 {
		t.Fatalf("span has no recorded error event")
	}
}

func TestToStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		code    codes.Code
		wantNil bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "status passthrough", err: status.Error(codes.PermissionDenied, "denied"), code: codes.PermissionDenied},
		{name: "not found", err: fmt.Errorf("beam 4: %w", datastore.ErrNotFound), code: codes.NotFound},
		{name: "table not found", err: datatable.ErrTableNotFound, code: codes.NotFound},
		{name: "invalid host", err: datastore.ErrInvalidHost, code: codes.InvalidArgument},
		{name: "invalid request", err: fmt.Errorf("id: %w", ErrInvalidRequest), code: codes.InvalidArgument},
		{name: "closed transaction", err: datastore.ErrTransactionClosed, code: codes.FailedPrecondition},
		{name: "table exists", err: datatable.ErrTableExists, code: codes.AlreadyExists},
		{name: "fallback", err: errors.New("boom"), code: codes.Internal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ToStatusError(tc.err)
			if tc.wantNil {
				if got != nil {
					t.Fatalf("ToStatusError(nil) = %v, want nil", got)
				}
				return
			}
			if code := status.Code(got); code != tc.code {
				t.Fatalf("ToStatusError(%v) code = %v, want %v", tc.err, code, tc.code)
			}
		})
	}
}
