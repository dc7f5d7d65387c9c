package infra

import (
	"errors"
	"testing"

	"unirides/internal/modules/user"
)

func TestRefFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		uid     string
		claims  map[string]interface{}
		want    user.Kind
		wantErr error
	}{
		{"no role claim is a passenger", "u1", map[string]interface{}{}, user.KindPassenger, nil},
		{"nil claims", "u1", nil, user.KindPassenger, nil},
		{"driver", "u1", map[string]interface{}{"role": "driver"}, user.KindDriver, nil},
		{"case and spaces", "u1", map[string]interface{}{"role": " Admin "}, user.KindAdmin, nil},
		{"unknown role", "u1", map[string]interface{}{"role": "superuser"}, "", user.ErrUnknownKind},
		{"non-string role", "u1", map[string]interface{}{"role": 3}, "", user.ErrUnknownKind},
		{"empty role", "u1", map[string]interface{}{"role": ""}, "", user.ErrUnknownKind},
		{"missing uid", "", map[string]interface{}{}, "", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := RefFromClaims(tt.uid, tt.claims)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ref.Kind != tt.want || string(ref.ID) != tt.uid {
				t.Errorf("ref = %+v", ref)
			}
		})
	}
}
