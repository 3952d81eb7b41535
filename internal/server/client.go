package server

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	mdwast "github.com/msto63/calcparse/foundation/calc/ast"
	coreGrpc "github.com/msto63/calcparse/pkg/core/grpc"
)

// ParserClient is the client API of the calc parser service
type ParserClient interface {
	Parse(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	Tokenize(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
}

type parserClient struct {
	cc grpc.ClientConnInterface
}

// NewParserClient creates a stub on an existing connection
func NewParserClient(cc grpc.ClientConnInterface) ParserClient {
	return &parserClient{cc: cc}
}

func (c *parserClient) Parse(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, parseMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *parserClient) Tokenize(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, tokenizeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoteResult is a Parse response decoded on the client side
type RemoteResult struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	Tree        *mdwast.Node `json:"-"`
	Diagnostics []string     `json:"diagnostics"`
	Tokens      int          `json:"tokens"`
	DurationMS  float64      `json:"duration_ms"`
}

// Failed reports whether the remote run reported syntax errors
func (r *RemoteResult) Failed() bool {
	return r.Status != "ok"
}

// RemoteToken is one token returned by Tokenize
type RemoteToken struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Client talks to a remote calc server
type Client struct {
	conn *grpc.ClientConn
	stub ParserClient
}

// Dial connects to a calc server. Calls without a deadline are bounded by
// timeout.
func Dial(target string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	conn, err := coreGrpc.DialWithTimeout(target, timeout, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, stub: NewParserClient(conn)}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Parse compiles source remotely
func (c *Client) Parse(ctx context.Context, source string) (*RemoteResult, error) {
	resp, err := c.stub.Parse(ctx, wrapperspb.String(source))
	if err != nil {
		return nil, err
	}
	return decodeResult(resp)
}

// Tokenize scans source remotely
func (c *Client) Tokenize(ctx context.Context, source string) ([]RemoteToken, error) {
	resp, err := c.stub.Tokenize(ctx, wrapperspb.String(source))
	if err != nil {
		return nil, err
	}

	tokens := make([]RemoteToken, 0, len(resp.GetValues()))
	for _, v := range resp.GetValues() {
		fields := v.GetStructValue().GetFields()
		tokens = append(tokens, RemoteToken{
			Type:   fields["type"].GetStringValue(),
			Value:  fields["value"].GetStringValue(),
			Line:   int(fields["line"].GetNumberValue()),
			Column: int(fields["column"].GetNumberValue()),
		})
	}
	return tokens, nil
}

func decodeResult(resp *structpb.Struct) (*RemoteResult, error) {
	fields := resp.GetFields()
	result := &RemoteResult{
		ID:         fields["id"].GetStringValue(),
		Status:     fields["status"].GetStringValue(),
		Tokens:     int(fields["tokens"].GetNumberValue()),
		DurationMS: fields["duration_ms"].GetNumberValue(),
	}
	for _, d := range fields["diagnostics"].GetListValue().GetValues() {
		result.Diagnostics = append(result.Diagnostics, d.GetStringValue())
	}

	if tree, ok := fields["tree"]; ok {
		root, err := mdwast.ParseCompact(tree.GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("decode tree: %w", err)
		}
		result.Tree = root
	}
	return result, nil
}
