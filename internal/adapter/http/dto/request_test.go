package dto

import (
	"testing"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/usecase"
)

func TestStartSessionRequest_Validate(t *testing.T) {
	tests := []struct {
		name       string
		req        StartSessionRequest
		wantFields []string
	}{
		{
			name: "create company",
			req:  StartSessionRequest{Mode: "create", Kind: "company"},
		},
		{
			name: "edit branch",
			req:  StartSessionRequest{Mode: "edit", Kind: "branch", EntityID: "br-1"},
		},
		{
			name:       "missing mode and kind",
			req:        StartSessionRequest{},
			wantFields: []string{"mode", "kind"},
		},
		{
			name:       "unknown kind",
			req:        StartSessionRequest{Mode: "create", Kind: "division"},
			wantFields: []string{"kind"},
		},
		{
			name:       "edit without entity",
			req:        StartSessionRequest{Mode: "edit", Kind: "company"},
			wantFields: []string{"entity_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := Validate(&tt.req)
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("expected failing fields %v, got %v", tt.wantFields, fields)
			}
			for _, f := range tt.wantFields {
				if _, ok := fields[f]; !ok {
					t.Fatalf("expected %q to fail, got %v", f, fields)
				}
			}
		})
	}
}

func TestAnchorRequest_Validate(t *testing.T) {
	if fields := Validate(&AnchorRequest{Field: "financial_year_start"}); fields != nil {
		t.Fatalf("expected valid request, got %v", fields)
	}

	fields := Validate(&AnchorRequest{Field: "closing_date"})
	if fields["field"] != "must be one of: financial_year_start books_beginning_date" {
		t.Fatalf("unexpected message: %v", fields)
	}
}

func TestProposeFieldRequest_ToUseCaseInput(t *testing.T) {
	rev := int64(4)
	req := &ProposeFieldRequest{Field: "postal_code", Value: "560001", Revision: &rev}

	got := req.ToUseCaseInput("sess-1")
	if got.SessionID != "sess-1" || got.Field != domain.FieldPostalCode || got.Value != "560001" {
		t.Fatalf("unexpected input: %+v", got)
	}
	if got.Revision == nil || *got.Revision != 4 {
		t.Fatalf("expected revision 4, got %v", got.Revision)
	}
}

func TestStartSessionRequest_ToUseCaseInput(t *testing.T) {
	req := &StartSessionRequest{Mode: "create", Kind: "branch", ParentID: "co-1"}

	got := req.ToUseCaseInput()
	want := usecase.StartInput{
		Mode:     domain.SessionModeCreate,
		Kind:     domain.EntityKindBranch,
		ParentID: "co-1",
	}

	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestSubmitRequest_ToUseCaseInput(t *testing.T) {
	req := &SubmitRequest{}

	got := req.ToUseCaseInput("sess-1", "alice", "req-1")
	if got.SessionID != "sess-1" || got.Actor != "alice" || got.RequestID != "req-1" || got.Revision != nil {
		t.Fatalf("unexpected input: %+v", got)
	}
}
