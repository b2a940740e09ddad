package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Name  string   `json:"name" validate:"required"`
	Size  int      `json:"size" validate:"gte=1,lte=20"`
	Kind  string   `json:"kind" validate:"omitempty,oneof=a b"`
	Score *float64 `json:"score,omitempty" validate:"omitempty,gte=0"`
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(sample{Name: "x", Size: 3, Kind: "a"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestStruct_CollectsFieldErrors(t *testing.T) {
	neg := -1.0
	err := Struct(sample{Size: 30, Kind: "c", Score: &neg})

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}

	got := map[string]string{}
	for _, f := range verr.Fields {
		got[f.Field] = f.Message
	}
	want := map[string]string{
		"name":  "name is required",
		"size":  "size must be less than or equal to 20",
		"kind":  "kind must be one of: a b",
		"score": "score must be greater than or equal to 0",
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("%s: expected %q, got %q", field, msg, got[field])
		}
	}
	if !strings.Contains(err.Error(), "name is required; ") {
		t.Errorf("expected joined message, got %q", err.Error())
	}
}
