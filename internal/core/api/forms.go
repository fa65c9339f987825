package api

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/formrel/internal/core/auth"
	"github.com/solatis/formrel/internal/formdef"
)

// RegisterForm validates and stores a definition for the caller's tenant.
// The definition is built and bound once before saving, so relation errors
// such as self dependency are reported here rather than on first use.
//
// Request: {definition}. Response: {form_id, id, etag}.
func (s *RelationService) RegisterForm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}

	def := req.GetFields()["definition"]
	if def == nil {
		return nil, status.Error(codes.InvalidArgument, "definition required")
	}
	doc, err := s.inlineDocument(def)
	if err != nil {
		return nil, err
	}
	if _, err := formdef.Evaluate(doc, nil, formdef.Options{Engine: s.engine}); err != nil {
		return nil, inputError(err)
	}

	etag, err := doc.ETag()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode definition: %v", err)
	}
	id, err := s.store.Save(ctx, tenantID, doc)
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("form registered",
		zap.String("tenant_id", tenantID),
		zap.String("api_key_id", keyID(ctx)),
		zap.String("form_id", doc.ID),
		zap.String("id", string(id)),
		zap.String("etag", etag))

	return structpb.NewStruct(map[string]any{
		"form_id": doc.ID,
		"id":      string(id),
		"etag":    etag,
	})
}

// ListForms returns the caller's stored forms ordered by form_id.
//
// Response: {forms: [{form_id, id, name, updated_at}]}.
func (s *RelationService) ListForms(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	tenantID, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}

	recs, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, storeError(err)
	}

	forms := make([]any, 0, len(recs))
	for _, r := range recs {
		forms = append(forms, map[string]any{
			"form_id":    r.Slug,
			"id":         string(r.FormID),
			"name":       r.Name,
			"updated_at": r.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return structpb.NewStruct(map[string]any{"forms": forms})
}

// DeleteForm removes a stored form. Request: {form_id}.
func (s *RelationService) DeleteForm(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	tenantID, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	slug := req.GetFields()["form_id"].GetStringValue()
	if slug == "" {
		return nil, status.Error(codes.InvalidArgument, "form_id required")
	}
	if err := s.store.Delete(ctx, tenantID, slug); err != nil {
		return nil, storeError(err)
	}
	s.logger.Info("form deleted",
		zap.String("tenant_id", tenantID),
		zap.String("api_key_id", keyID(ctx)),
		zap.String("form_id", slug))
	return &emptypb.Empty{}, nil
}

// tenant returns the authenticated tenant, failing when the store is not
// configured or no tenant was injected by the auth interceptor.
func (s *RelationService) tenant(ctx context.Context) (string, error) {
	if s.store == nil {
		return "", status.Error(codes.FailedPrecondition, "form store not configured")
	}
	tenantID := auth.TenantIDFromContext(ctx)
	if tenantID == "" {
		return "", status.Error(codes.Internal, "missing tenant_id in context")
	}
	return tenantID, nil
}

// keyID names the API key behind a request for audit logs.
func keyID(ctx context.Context) string {
	p, _ := auth.PrincipalFromContext(ctx)
	return p.KeyID
}
