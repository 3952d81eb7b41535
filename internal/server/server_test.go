package server

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/msto63/calcparse/foundation/calc"
	mdwast "github.com/msto63/calcparse/foundation/calc/ast"
	mdwlog "github.com/msto63/calcparse/foundation/core/log"
	coreGrpc "github.com/msto63/calcparse/pkg/core/grpc"
	"github.com/msto63/calcparse/pkg/core/health"
)

const bufSize = 1024 * 1024

type testEnv struct {
	server *Server
	conn   *grpc.ClientConn
	client *Client
}

type runRecorder struct {
	mu   sync.Mutex
	runs []*calc.Run
}

func (r *runRecorder) Record(_ context.Context, run *calc.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *runRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	return newTestEnvWithOptions(t, cfg, calc.Options{})
}

func newTestEnvWithOptions(t *testing.T, cfg Config, opts calc.Options) *testEnv {
	t.Helper()

	logger := mdwlog.Discard()
	opts.Logger = logger
	engine, err := calc.New(opts)
	if err != nil {
		t.Fatalf("calc.New() error = %v", err)
	}
	cfg.Logger = logger
	srv, err := New(cfg, engine)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	srv.Health(context.Background())

	lis := bufconn.Listen(bufSize)
	go func() {
		_ = srv.GRPC().Serve(lis)
	}()

	conn, err := coreGrpc.DialWithTimeout("passthrough:///bufnet", 5*time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	env := &testEnv{
		server: srv,
		conn:   conn,
		client: &Client{conn: conn, stub: NewParserClient(conn)},
	}
	t.Cleanup(func() {
		conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return env
}

func TestServer_ParseValidProgram(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	result, err := env.client.Parse(context.Background(), "read a write a * (2 + 1)")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Failed() {
		t.Fatalf("Expected ok status, got %s with %v", result.Status, result.Diagnostics)
	}
	if result.ID == "" {
		t.Error("Expected a run ID")
	}
	if result.Tokens != 11 {
		t.Errorf("Expected 11 tokens, got %d", result.Tokens)
	}
	if len(result.Diagnostics) != 0 {
		t.Errorf("Expected no diagnostics, got %v", result.Diagnostics)
	}

	expected := mdwast.MustParseCompact("(program [(read (id 'a')) (write (* (id 'a') (+ (literal '2') (literal '1'))))])")
	if !mdwast.Equal(result.Tree, expected) {
		t.Errorf("Unexpected tree %s", mdwast.Format(result.Tree, mdwast.StyleCompact))
	}
}

func TestServer_ParseReportsSyntaxErrors(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	result, err := env.client.Parse(context.Background(), "x := + 2")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !result.Failed() || result.Status != string(calc.StatusFailed) {
		t.Errorf("Expected failed status, got %s", result.Status)
	}
	if result.Tree != nil {
		t.Error("Failed runs should not carry a tree")
	}

	expected := []string{
		"Error: Expected one of id, literal, lparen, got add: +",
		"Retry expr on literal: 2",
	}
	if strings.Join(result.Diagnostics, "\n") != strings.Join(expected, "\n") {
		t.Errorf("Diagnostics = %q, want %q", result.Diagnostics, expected)
	}
}

func TestServer_LexicalErrorIsInvalidArgument(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	_, err := env.client.Parse(context.Background(), "x : 1")
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("Expected InvalidArgument, got %v", err)
	}
	if !strings.Contains(err.Error(), "expected '=' after ':'") {
		t.Errorf("Error should describe the lexical problem, got %v", err)
	}

	_, err = env.client.Tokenize(context.Background(), "write $")
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("Tokenize: expected InvalidArgument, got %v", err)
	}
}

func TestServer_OversizedProgram(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	_, err := env.client.Parse(context.Background(), strings.Repeat(" ", MaxSourceSize+1))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("Expected InvalidArgument, got %v", err)
	}
}

func TestServer_TimeoutStopsParse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = time.Nanosecond
	env := newTestEnv(t, cfg)

	source := strings.Repeat("write 1 ", 100000)
	_, err := env.client.Parse(context.Background(), source)
	if status.Code(err) != codes.DeadlineExceeded {
		t.Errorf("Parse: expected DeadlineExceeded, got %v", err)
	}

	_, err = env.client.Tokenize(context.Background(), source)
	if status.Code(err) != codes.DeadlineExceeded {
		t.Errorf("Tokenize: expected DeadlineExceeded, got %v", err)
	}
}

func TestServer_Tokenize(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	tokens, err := env.client.Tokenize(context.Background(), "x := 10\nwrite x")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	expected := []RemoteToken{
		{Type: "id", Value: "x", Line: 1, Column: 1},
		{Type: "gets", Value: ":=", Line: 1, Column: 3},
		{Type: "literal", Value: "10", Line: 1, Column: 6},
		{Type: "write", Value: "write", Line: 2, Column: 1},
		{Type: "id", Value: "x", Line: 2, Column: 7},
	}
	if len(tokens) < len(expected) {
		t.Fatalf("Expected at least %d tokens, got %d", len(expected), len(tokens))
	}
	for i, want := range expected {
		if tokens[i] != want {
			t.Errorf("Token %d = %+v, want %+v", i, tokens[i], want)
		}
	}
	if last := tokens[len(tokens)-1]; last.Type != "eof" {
		t.Errorf("Expected trailing eof token, got %+v", last)
	}
}

func TestServer_EchoesRequestID(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	ctx := coreGrpc.WithRequestID(context.Background(), "req-42")
	var header metadata.MD
	_, err := NewParserClient(env.conn).Parse(ctx, wrapperspb.String("write 1"), grpc.Header(&header))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := header.Get(coreGrpc.RequestIDHeader); len(got) != 1 || got[0] != "req-42" {
		t.Errorf("Expected request ID echo, got %v", got)
	}
}

func TestServer_HealthService(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("Expected SERVING, got %v", resp.GetStatus())
	}
}

func TestServer_HealthCheckIsNotRecorded(t *testing.T) {
	rec := &runRecorder{}
	env := newTestEnvWithOptions(t, DefaultConfig(), calc.Options{Recorder: rec})

	for i := 0; i < 3; i++ {
		if report := env.server.Health(context.Background()); report.Status != health.StatusHealthy {
			t.Fatalf("Expected healthy report, got %s", report.Status)
		}
	}
	if got := rec.count(); got != 0 {
		t.Errorf("Expected health checks to leave no runs, got %d", got)
	}

	if _, err := env.client.Parse(context.Background(), "write 1"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := rec.count(); got != 1 {
		t.Errorf("Expected 1 recorded run, got %d", got)
	}
}

func TestServer_UnhealthyCheckStopsServing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Checks = []health.Checker{
		health.NewChecker("store", func(ctx context.Context) health.CheckResult {
			return health.CheckResult{Status: health.StatusUnhealthy, Message: "database locked"}
		}),
	}
	env := newTestEnv(t, cfg)

	report := env.server.Health(context.Background())
	if report.Status != health.StatusUnhealthy {
		t.Errorf("Expected unhealthy report, got %s", report.Status)
	}

	resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("Expected NOT_SERVING, got %v", resp.GetStatus())
	}
}

func TestNew_RequiresEngine(t *testing.T) {
	if _, err := New(DefaultConfig(), nil); err == nil {
		t.Error("Expected error for missing engine")
	}
}
