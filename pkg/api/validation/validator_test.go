// Gamedex Core
// Copyright (c) 2026 The Gamedex Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Gamedex Core.
//
// Gamedex Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gamedex Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gamedex Core.  If not, see <http://www.gnu.org/licenses/>.

package validation

import (
	"strings"
	"testing"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/search/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOneof(t *testing.T) {
	t.Parallel()

	type testStruct struct {
		Type string `validate:"oneof=main dlc expansion mod"`
		Mode string `validate:"oneof=fast full"`
	}

	tests := []struct {
		name      string
		typeVal   string
		modeVal   string
		wantError bool
	}{
		{name: "main fast", typeVal: "main", modeVal: "fast", wantError: false},
		{name: "dlc full", typeVal: "dlc", modeVal: "full", wantError: false},
		{name: "mod fast", typeVal: "mod", modeVal: "fast", wantError: false},
		{name: "invalid type", typeVal: "bundle", modeVal: "fast", wantError: true},
		{name: "invalid mode", typeVal: "main", modeVal: "slow", wantError: true},
		{name: "wrong case type", typeVal: "MAIN", modeVal: "fast", wantError: true},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := testStruct{Type: tt.typeVal, Mode: tt.modeVal}
			err := v.Validate(&s)
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "must be one of")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNotBlank(t *testing.T) {
	t.Parallel()

	type testStruct struct {
		Q string `validate:"notblank"`
	}

	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{name: "text", value: "mario", wantError: false},
		{name: "padded text", value: "  zelda ", wantError: false},
		{name: "empty", value: "", wantError: true},
		{name: "whitespace only", value: " \t\n", wantError: true},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(&testStruct{Q: tt.value})
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "q must not be blank")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOverrideAndRankFlag(t *testing.T) {
	t.Parallel()

	type testStruct struct {
		Override string `validate:"override"`
		Flag     string `validate:"rankflag"`
	}

	tests := []struct {
		name       string
		override   string
		flag       string
		wantSubstr string
	}{
		{name: "both empty", override: "", flag: ""},
		{name: "allow greenlight", override: "allow", flag: "greenlight"},
		{name: "deny redlight", override: "deny", flag: "redlight"},
		{name: "bad override", override: "block", flag: "", wantSubstr: "override must be one of"},
		{name: "bad flag", override: "", flag: "amber", wantSubstr: "flag must be one of"},
		{name: "wrong case", override: "Allow", flag: "", wantSubstr: "override must be one of"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(&testStruct{Override: tt.override, Flag: tt.flag})
			if tt.wantSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSubstr)
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	t.Parallel()

	type body struct {
		Override string `json:"override" validate:"override"`
		Limit    int    `json:"limit" validate:"gte=0,lte=100"`
	}

	tests := []struct {
		name    string
		input   string
		wantErr error
		wantVal bool
	}{
		{name: "valid", input: `{"override":"deny","limit":5}`},
		{name: "empty body", input: "", wantErr: ErrMissingParams},
		{name: "whitespace body", input: "  \n", wantErr: ErrMissingParams},
		{name: "malformed json", input: `{"override":`, wantErr: ErrInvalidParams},
		{name: "unknown field", input: `{"override":"deny","extra":1}`, wantErr: ErrInvalidParams},
		{name: "wrong type", input: `{"limit":"five"}`, wantErr: ErrInvalidParams},
		{name: "failed validation", input: `{"limit":500}`, wantVal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var dest body
			err := DecodeAndValidate(strings.NewReader(tt.input), &dest)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantVal:
				var valErr *Error
				require.ErrorAs(t, err, &valErr)
				assert.Equal(t, "lte", valErr.Fields[0].Tag)
			default:
				require.NoError(t, err)
				assert.Equal(t, "deny", dest.Override)
				assert.Equal(t, 5, dest.Limit)
			}
		})
	}
}

func TestDecodeAndValidate_TooLarge(t *testing.T) {
	t.Parallel()

	var dest map[string]string
	big := `{"a":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	err := DecodeAndValidate(strings.NewReader(big), &dest)
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), "body too large")
}

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	type testStruct struct {
		Type  string `validate:"required,oneof=main dlc mod"`
		Match string `validate:"required,oneof=exact prefix contains"`
	}

	v := NewValidator()
	s := testStruct{Type: "", Match: ""}
	err := v.Validate(&s)

	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "type is required")
	assert.Contains(t, errStr, "match is required")

	var valErr *Error
	require.ErrorAs(t, err, &valErr)
	assert.Len(t, valErr.Fields, 2)
}

func TestErrorFieldPathForNestedRules(t *testing.T) {
	t.Parallel()

	type rulesBody struct {
		Rules []filter.Rule `validate:"required,dive"`
	}

	err := NewValidator().Validate(&rulesBody{Rules: []filter.Rule{
		{ID: "ok", Type: filter.RuleCategory, Categories: &filter.CategoryCondition{
			Mode: filter.CategoryExclude, Categories: []catalog.Category{catalog.CategoryDLC},
		}},
		{ID: "broken", Type: "sideways"},
	}})

	var valErr *Error
	require.ErrorAs(t, err, &valErr)
	require.Len(t, valErr.Fields, 1)
	assert.Equal(t, "Rules[1].Type", valErr.Fields[0].Field)
	assert.Contains(t, err.Error(), "rules[1].type must be one of")
}

func TestErrorFormattingAllCases(t *testing.T) {
	t.Parallel()

	v := NewValidator()

	tests := []struct {
		name       string
		structDef  any
		wantSubstr string
	}{
		{
			name: "lt validation",
			structDef: &struct {
				Value int `validate:"lt=10"`
			}{Value: 15},
			wantSubstr: "must be less than 10",
		},
		{
			name: "lte validation",
			structDef: &struct {
				Value int `validate:"lte=10"`
			}{Value: 15},
			wantSubstr: "must be less than or equal to 10",
		},
		{
			name: "gte validation",
			structDef: &struct {
				Value int `validate:"gte=10"`
			}{Value: 5},
			wantSubstr: "must be greater than or equal to 10",
		},
		{
			name: "max validation",
			structDef: &struct {
				Value string `validate:"max=5"`
			}{Value: "toolong"},
			wantSubstr: "must be at most 5",
		},
		{
			name: "unknown tag falls back to default",
			structDef: &struct {
				Value string `validate:"alphanum"`
			}{Value: "test!@#"},
			wantSubstr: "failed alphanum validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(tt.structDef)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSubstr)
		})
	}
}

func TestErrorEmptyFields(t *testing.T) {
	t.Parallel()

	err := &Error{Fields: []FieldError{}}
	assert.Equal(t, "validation failed", err.Error())
}
