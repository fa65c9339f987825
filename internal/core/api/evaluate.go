package api

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/formrel/internal/formdef"
)

// Evaluate settles a form against submitted values.
//
// Request: {form_id | definition, values, explain}. definition is either a
// definition object or its JSON/YAML text; form_id names a stored form of
// the caller's tenant.
// Response: {form_id, status, fields: {path: {kind, disabled, hidden,
// required, status, errors, value}}, traces}.
func (s *RelationService) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	var doc *formdef.Document
	var err error
	switch {
	case fields["definition"] != nil && fields["form_id"] != nil:
		return nil, status.Error(codes.InvalidArgument, "form_id and definition are mutually exclusive")
	case fields["definition"] != nil:
		if doc, err = s.inlineDocument(fields["definition"]); err != nil {
			return nil, err
		}
	case fields["form_id"] != nil:
		if doc, err = s.storedDocument(ctx, fields["form_id"].GetStringValue()); err != nil {
			return nil, err
		}
	default:
		return nil, status.Error(codes.InvalidArgument, "form_id or definition required")
	}

	values := formdef.Values{}
	if v := fields["values"]; v != nil {
		sv := v.GetStructValue()
		if sv == nil {
			return nil, status.Error(codes.InvalidArgument, "values must be an object")
		}
		values = sv.AsMap()
	}

	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	report, err := formdef.Evaluate(doc, values, formdef.Options{
		Engine:  s.engine,
		Logger:  s.logger,
		Explain: fields["explain"].GetBoolValue(),
	})
	if err != nil {
		return nil, inputError(err)
	}

	resp, err := reportStruct(report)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	s.logger.Debug("form evaluated over grpc",
		zap.String("form_id", report.FormID),
		zap.Int("values", len(values)),
		zap.String("status", string(report.Status)))

	return resp, nil
}

// inlineDocument parses a definition carried in the request.
func (s *RelationService) inlineDocument(v *structpb.Value) (*formdef.Document, error) {
	var doc *formdef.Document
	var err error
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		doc, err = formdef.Parse([]byte(kind.StringValue), formdef.FormatAuto)
	case *structpb.Value_StructValue:
		var data []byte
		if data, err = kind.StructValue.MarshalJSON(); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		doc, err = formdef.Parse(data, formdef.FormatJSON)
	default:
		return nil, status.Error(codes.InvalidArgument, "definition must be an object or a string")
	}
	if err != nil {
		return nil, inputError(err)
	}
	if err := s.checkLimits(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// storedDocument loads a definition saved by RegisterForm.
func (s *RelationService) storedDocument(ctx context.Context, slug string) (*formdef.Document, error) {
	if slug == "" {
		return nil, status.Error(codes.InvalidArgument, "form_id must be a non-empty string")
	}
	tenantID, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, tenantID, slug)
	if err != nil {
		return nil, storeError(err)
	}
	doc, err := rec.Document()
	if err != nil {
		// Stored rows passed validation on save
		return nil, status.Error(codes.Internal, fmt.Sprintf("stored form %s is corrupt: %v", slug, err))
	}
	return doc, nil
}

// checkLimits rejects definitions larger than the configured field limit.
func (s *RelationService) checkLimits(doc *formdef.Document) error {
	if s.maxFields > 0 {
		if n := doc.FieldCount(); n > s.maxFields {
			return status.Error(codes.InvalidArgument,
				fmt.Sprintf("definition has %d fields, maximum is %d", n, s.maxFields))
		}
	}
	return nil
}

func reportStruct(report formdef.Report) (*structpb.Struct, error) {
	fields := make(map[string]any, len(report.Fields))
	for _, f := range report.Fields {
		entry := map[string]any{
			"kind":     string(f.Kind),
			"disabled": f.Disabled,
			"hidden":   f.Hidden,
			"required": f.Required,
			"status":   string(f.Status),
		}
		if len(f.Errors) > 0 {
			errs := make([]any, len(f.Errors))
			for i, e := range f.Errors {
				errs[i] = e
			}
			entry["errors"] = errs
		}
		if f.Value != nil {
			value, err := jsonValue(f.Value)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Path, err)
			}
			entry["value"] = value
		}
		fields[f.Path] = entry
	}

	resp := map[string]any{
		"form_id": report.FormID,
		"status":  string(report.Status),
		"fields":  fields,
	}
	if len(report.Traces) > 0 {
		traces, err := jsonValue(report.Traces)
		if err != nil {
			return nil, err
		}
		resp["traces"] = traces
	}
	return structpb.NewStruct(resp)
}

// jsonValue normalizes v to the map/slice/float64 shapes structpb accepts.
func jsonValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
