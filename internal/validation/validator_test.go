// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package validation

import (
	"strings"
	"testing"
)

type miningRequest struct {
	MinSupport    float64 `validate:"omitempty,gt=0,lte=1"`
	MinConfidence float64 `validate:"omitempty,gte=0,lte=1"`
	MaxLen        int     `validate:"omitempty,min=1,max=10"`
	Kind          string  `validate:"omitempty,oneof=liked genres"`
}

type ingestRequest struct {
	Path string `validate:"required"`
}

type scrapeRequest struct {
	StartURL string `validate:"required,url"`
	MaxPages int    `validate:"min=1,max=100"`
}

func TestValidateStruct_Valid(t *testing.T) {
	req := miningRequest{
		MinSupport:    0.05,
		MinConfidence: 0.3,
		MaxLen:        4,
		Kind:          "liked",
	}

	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStruct_ZeroOmitemptyPasses(t *testing.T) {
	// All fields at zero values with omitempty should pass.
	if err := ValidateStruct(&miningRequest{}); err != nil {
		t.Fatalf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStruct_SingleError(t *testing.T) {
	err := ValidateStruct(&ingestRequest{})
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	errs := err.Errors()
	if len(errs) != 1 {
		t.Fatalf("len(Errors()) = %d, want 1", len(errs))
	}
	if errs[0].Field() != "Path" {
		t.Errorf("Field() = %q, want %q", errs[0].Field(), "Path")
	}
	if errs[0].Tag() != "required" {
		t.Errorf("Tag() = %q, want %q", errs[0].Tag(), "required")
	}
	if got := errs[0].Error(); got != "Path is required" {
		t.Errorf("Error() = %q, want %q", got, "Path is required")
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	req := scrapeRequest{StartURL: "not a url", MaxPages: 0}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("len(Errors()) = %d, want 2", len(err.Errors()))
	}

	// Combined message mentions both fields.
	msg := err.Error()
	if !strings.Contains(msg, "StartURL") || !strings.Contains(msg, "MaxPages") {
		t.Errorf("Error() = %q, want both field names", msg)
	}
}

func TestToAPIError_Single(t *testing.T) {
	err := ValidateStruct(&ingestRequest{})
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "Path is required" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Path is required")
	}
	if apiErr.Details["field"] != "Path" {
		t.Errorf("Details[field] = %v, want Path", apiErr.Details["field"])
	}
	if apiErr.Details["tag"] != "required" {
		t.Errorf("Details[tag] = %v, want required", apiErr.Details["tag"])
	}
}

func TestToAPIError_Multiple(t *testing.T) {
	req := scrapeRequest{StartURL: "", MaxPages: 500}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}

	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] has type %T, want []map[string]interface{}", apiErr.Details["fields"])
	}
	if len(fields) != 2 {
		t.Errorf("len(fields) = %d, want 2", len(fields))
	}
}

func TestToAPIError_Empty(t *testing.T) {
	ve := &RequestValidationError{}

	apiErr := ve.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "Validation failed" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Validation failed")
	}
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q, want %q", ve.Error(), "validation failed")
	}
}

func TestTranslateError_RangeTags(t *testing.T) {
	tests := []struct {
		name string
		req  interface{}
		want string
	}{
		{
			name: "gt on float",
			req:  &miningRequest{MinSupport: -0.5},
			want: "MinSupport must be greater than 0",
		},
		{
			name: "lte on float",
			req:  &miningRequest{MinSupport: 1.5},
			want: "MinSupport must be less than or equal to 1",
		},
		{
			name: "max on int",
			req:  &miningRequest{MinSupport: 0.1, MaxLen: 99},
			want: "MaxLen must be at most 10",
		},
		{
			name: "oneof",
			req:  &miningRequest{MinSupport: 0.1, Kind: "bogus"},
			want: "Kind must be one of: liked genres",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if got := err.Errors()[0].Error(); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranslateError_StringLength(t *testing.T) {
	type named struct {
		Name string `validate:"min=3,max=50"`
	}

	err := ValidateStruct(&named{Name: "ab"})
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}
	want := "Name must be at least 3 characters"
	if got := err.Errors()[0].Error(); got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestValidateStruct_NonStruct(t *testing.T) {
	err := ValidateStruct("not a struct")
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error for non-struct input")
	}
	if err.Errors()[0].Field() != "unknown" {
		t.Errorf("Field() = %q, want unknown", err.Errors()[0].Field())
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() returned different instances")
	}
}
