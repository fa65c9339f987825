// Package api provides the gRPC relation service.
//
// Messages are google.protobuf.Struct and google.protobuf.Empty, so the
// service descriptor is registered by hand in desc.go without generated
// stubs. Definitions travel as JSON-shaped structs and go through the same
// schema validation as files loaded by the CLI.
package api

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/solatis/formrel/internal/core/db"
	"github.com/solatis/formrel/internal/formdef"
	"github.com/solatis/formrel/internal/relation"
	"github.com/solatis/formrel/internal/types"
)

// FormStore is the persistence the service needs. Implemented by *db.FormStore.
type FormStore interface {
	Save(ctx context.Context, tenantID string, doc *formdef.Document) (types.FormID, error)
	Get(ctx context.Context, tenantID, slug string) (*db.FormRecord, error)
	List(ctx context.Context, tenantID string) ([]db.FormRecord, error)
	Delete(ctx context.Context, tenantID, slug string) error
}

// Options configures a RelationService.
type Options struct {
	Engine    *relation.Engine
	Logger    *zap.Logger
	MaxFields int // 0 means unlimited
}

// RelationService implements RelationServiceServer.
// Thin orchestration layer delegating to formdef and the store.
type RelationService struct {
	store     FormStore
	engine    *relation.Engine
	logger    *zap.Logger
	maxFields int
}

// NewRelationService creates service instance with dependencies.
// store may be nil; stored-form methods then fail with FailedPrecondition
// while inline evaluation keeps working.
func NewRelationService(store FormStore, opts Options) (*RelationService, error) {
	if opts.MaxFields < 0 {
		return nil, fmt.Errorf("max fields cannot be negative")
	}
	engine := opts.Engine
	if engine == nil {
		engine = relation.NewEngine()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelationService{
		store:     store,
		engine:    engine,
		logger:    logger,
		maxFields: opts.MaxFields,
	}, nil
}
