/*
 * Copyright © 2025 Dynamode Authors, All rights reserved.
 */

package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dynamode/dynamode"
	"github.com/dynamode/dynamode/errors"
)

// Agent lifecycle states. Only stateReady accepts operations.
const (
	stateDisconnected int32 = iota
	stateConnecting
	stateReady
	stateClosed
)

// Agent is the operation-dispatch surface: it composes the codec, the model
// contract and the store client into typed CRUD, query and provisioning
// calls. One agent represents one authenticated session, shared read-only by
// all operations after connect; operations never mutate it.
type Agent struct {
	client   StoreClient
	cfg      Config
	log      zerolog.Logger
	validate *validator.Validate

	state atomic.Int32

	// tables records names already verified or provisioned by EnsureTable,
	// one entry per table. Racing writers store equal values.
	tables sync.Map
}

// Option customizes an agent at construction time.
type Option func(*Agent)

// WithLogger installs a logger for debug-level operation traces. The agent
// never logs instead of returning an error.
func WithLogger(log zerolog.Logger) Option {
	return func(a *Agent) { a.log = log }
}

// WithValidator installs a struct validator; Put then checks `validate`
// tags before encoding.
func WithValidator(v *validator.Validate) Option {
	return func(a *Agent) { a.validate = v }
}

// WithConfig replaces the session configuration. Mainly useful with
// NewWithClient, where no config is passed at construction.
func WithConfig(cfg Config) Option {
	return func(a *Agent) {
		cfg.applyDefaults()
		a.cfg = cfg
	}
}

func newAgent(cfg Config, opts ...Option) *Agent {
	cfg.applyDefaults()
	a := &Agent{cfg: cfg, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Connect establishes a session against the endpoint described by cfg and
// returns a Ready agent. Credential resolution follows the ambient AWS
// chain unless cfg carries static keys.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Agent, error) {
	a := newAgent(cfg, opts...)
	a.state.Store(stateConnecting)

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(a.cfg.Region),
	}
	if a.cfg.AccessKey != "" && a.cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.cfg.AccessKey, a.cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		a.state.Store(stateDisconnected)
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	a.client = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if a.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.cfg.Endpoint)
		}
	})
	a.state.Store(stateReady)

	a.log.Debug().
		Str("region", a.cfg.Region).
		Str("endpoint", a.cfg.Endpoint).
		Str("version", dynamode.Version).
		Msg("agent ready")
	return a, nil
}

// ConnectLocal establishes a session against a local development store
// (http://localhost:8000, fixed region, placeholder credentials).
func ConnectLocal(ctx context.Context, opts ...Option) (*Agent, error) {
	return Connect(ctx, LocalConfig(), opts...)
}

// NewWithClient wraps an existing store client in a Ready agent. This is the
// injection seam for tests and for callers that manage their own client.
func NewWithClient(client StoreClient, opts ...Option) *Agent {
	a := newAgent(DefaultConfig(), opts...)
	a.client = client
	a.state.Store(stateReady)
	return a
}

// Close tears the session down. Subsequent operations fail with
// errors.ErrNotConnected. Close is idempotent.
func (a *Agent) Close() error {
	a.state.Store(stateClosed)
	a.log.Debug().Msg("agent closed")
	return nil
}

// Config returns the session configuration.
func (a *Agent) Config() Config { return a.cfg }

// ready gates every operation on the lifecycle state.
func (a *Agent) ready() error {
	if a == nil || a.state.Load() != stateReady {
		return errors.ErrNotConnected
	}
	return nil
}
