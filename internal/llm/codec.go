package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region constants
const codecGenerateMethod = "/tastegate.codec.v1.CodecService/Generate"

// #endregion constants

// #region client-struct
// CodecClient talks to a remote inference service over gRPC. Requests and
// responses are google.protobuf.Struct messages so no generated stubs are needed.
type CodecClient struct {
	conn  *grpc.ClientConn
	cc    grpc.ClientConnInterface
	model string
}

// #endregion client-struct

// #region constructor
// NewCodecClient connects to the inference gRPC server.
func NewCodecClient(addr, model string) (*CodecClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &CodecClient{conn: conn, cc: conn, model: model}, nil
}

// NewCodecClientWithConn creates a CodecClient over an injected connection.
// Used for testing without a real gRPC server.
func NewCodecClientWithConn(cc grpc.ClientConnInterface, model string) *CodecClient {
	return &CodecClient{cc: cc, model: model}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *CodecClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

func (c *CodecClient) Name() string { return "codec:" + c.model }

// #region generate
// Generate sends a prompt to the inference service.
func (c *CodecClient) Generate(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	req, err := structpb.NewStruct(map[string]any{
		"prompt":      prompt,
		"model":       c.model,
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
	})
	if err != nil {
		return "", NewPermanentError(fmt.Errorf("encode request: %w", err))
	}

	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, codecGenerateMethod, req, resp); err != nil {
		return "", fmt.Errorf("generate rpc: %w", err)
	}

	text := resp.GetFields()["text"].GetStringValue()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// #endregion generate
