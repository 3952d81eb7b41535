package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/msto63/calcparse/foundation/calc"
	mdwast "github.com/msto63/calcparse/foundation/calc/ast"
	mdwerror "github.com/msto63/calcparse/foundation/core/error"
	mdwlog "github.com/msto63/calcparse/foundation/core/log"
	coreGrpc "github.com/msto63/calcparse/pkg/core/grpc"
	"github.com/msto63/calcparse/pkg/core/health"
	"github.com/msto63/calcparse/pkg/core/logging"
	"github.com/msto63/calcparse/pkg/core/version"
)

// MaxSourceSize bounds the program text accepted per request
const MaxSourceSize = 1 << 20

// Server is the calc parser gRPC server
type Server struct {
	engine     *calc.Engine
	grpc       *coreGrpc.Server
	health     *health.Registry
	grpcHealth *grpchealth.Server
	logger     *logging.Logger
	config     Config
	startTime  time.Time
}

// Ensure Server implements ParserServer
var _ ParserServer = (*Server)(nil)

// Config holds server configuration
type Config struct {
	Host       string
	Port       int
	Timeout    time.Duration // per-request deadline
	Reflection bool

	Logger *mdwlog.Logger
	// Checks are extra health checks, e.g. for the run store
	Checks []health.Checker
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	grpcCfg := coreGrpc.DefaultServerConfig()
	return Config{
		Host:    grpcCfg.Host,
		Port:    grpcCfg.Port,
		Timeout: 10 * time.Second,
	}
}

// New creates a server compiling requests with engine. The engine should
// not write diagnostics to an output; they are returned to the caller.
func New(cfg Config, engine *calc.Engine) (*Server, error) {
	if engine == nil {
		return nil, mdwerror.New("engine is required").WithCode(mdwerror.CodeInvalidInput)
	}
	if cfg.Logger == nil {
		cfg.Logger = mdwlog.GetDefault()
	}
	logger := logging.Wrap(cfg.Logger, "calc-server")
	coreGrpc.SetLogger(logging.Wrap(cfg.Logger, "grpc"))

	grpcCfg := coreGrpc.DefaultServerConfig()
	grpcCfg.Host = cfg.Host
	grpcCfg.Port = cfg.Port
	grpcCfg.MaxRecvMsgSize = MaxSourceSize + 1024
	grpcCfg.EnableReflection = cfg.Reflection

	grpcServer := coreGrpc.NewServer(grpcCfg)

	healthRegistry := health.NewRegistry("calc", version.Version)
	healthRegistry.RegisterFunc("parser", func(ctx context.Context) health.CheckResult {
		if err := engine.SelfTest(ctx); err != nil {
			return health.CheckResult{
				Status:  health.StatusUnhealthy,
				Message: "self-test parse failed",
				Details: map[string]interface{}{"error": err.Error()},
			}
		}
		return health.CheckResult{Status: health.StatusHealthy, Message: "parser operational"}
	})
	for _, check := range cfg.Checks {
		healthRegistry.Register(check)
	}

	server := &Server{
		engine:     engine,
		grpc:       grpcServer,
		health:     healthRegistry,
		grpcHealth: grpchealth.NewServer(),
		logger:     logger,
		config:     cfg,
		startTime:  time.Now(),
	}

	RegisterParserServer(grpcServer.GRPCServer(), server)
	healthpb.RegisterHealthServer(grpcServer.GRPCServer(), server.grpcHealth)

	return server, nil
}

// Start runs the health checks and serves until Stop is called
func (s *Server) Start(ctx context.Context) error {
	report := s.health.Sync(ctx, s.grpcHealth, ServiceName)
	s.logger.Info("Starting calc server", "address", s.grpc.Address(), "health", string(report.Status))
	return s.grpc.Start()
}

// StartAsync starts serving in the background
func (s *Server) StartAsync(ctx context.Context) error {
	s.health.Sync(ctx, s.grpcHealth, ServiceName)
	if err := s.grpc.StartAsync(); err != nil {
		return err
	}
	s.logger.Info("Calc server started", "address", s.grpc.Address())
	return nil
}

// Stop shuts the server down, waiting for running requests until ctx ends
func (s *Server) Stop(ctx context.Context) {
	s.grpcHealth.Shutdown()
	s.grpc.StopWithTimeout(ctx)
	s.logger.Info("Calc server stopped", "uptime", time.Since(s.startTime).String())
}

// Address returns the listen address
func (s *Server) Address() string {
	return s.grpc.Address()
}

// GRPC exposes the wrapped gRPC server
func (s *Server) GRPC() *coreGrpc.Server {
	return s.grpc
}

// Health returns the current health report
func (s *Server) Health(ctx context.Context) *health.Report {
	return s.health.Sync(ctx, s.grpcHealth, ServiceName)
}

// Parse implements ParserServer.Parse
func (s *Server) Parse(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	source, err := s.source(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	run, err := s.engine.CompileString(ctx, source)
	if err != nil {
		return nil, s.toStatus(err, coreGrpc.GetRequestID(ctx))
	}

	resp, err := structpb.NewStruct(runFields(run))
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode result")
	}
	return resp, nil
}

// Tokenize implements ParserServer.Tokenize
func (s *Server) Tokenize(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	source, err := s.source(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tokens, err := s.engine.Tokens(ctx, strings.NewReader(source))
	if err != nil {
		return nil, s.toStatus(err, coreGrpc.GetRequestID(ctx))
	}

	values := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		values[i] = map[string]interface{}{
			"type":   tok.Type.String(),
			"value":  tok.Value,
			"line":   tok.Line,
			"column": tok.Column,
		}
	}
	list, err := structpb.NewList(values)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode tokens")
	}
	return list, nil
}

func (s *Server) source(req *wrapperspb.StringValue) (string, error) {
	if req == nil {
		return "", status.Error(codes.InvalidArgument, "program is required")
	}
	if len(req.GetValue()) > MaxSourceSize {
		return "", status.Errorf(codes.InvalidArgument, "program exceeds %d bytes", MaxSourceSize)
	}
	return req.GetValue(), nil
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.Timeout)
}

// toStatus maps engine errors to gRPC status codes
func (s *Server) toStatus(err error, requestID string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case mdwerror.HasCode(err, mdwerror.CodeCalcLexical):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.Error("Compile failed", "request_id", requestID, "error", err)
		return status.Error(codes.Internal, "failed to compile program")
	}
}

// runFields flattens a run into the Parse response layout
func runFields(run *calc.Run) map[string]interface{} {
	fields := map[string]interface{}{
		"id":          run.ID.String(),
		"status":      string(run.Status),
		"tokens":      run.Result.Tokens,
		"duration_ms": float64(run.Duration.Microseconds()) / 1000,
	}

	diagnostics := make([]interface{}, len(run.Result.Diagnostics))
	for i, d := range run.Result.Diagnostics {
		diagnostics[i] = d.String()
	}
	fields["diagnostics"] = diagnostics

	if run.Succeeded() {
		fields["tree"] = mdwast.Format(run.Result.Root, mdwast.StyleCompact)
	}
	return fields
}
