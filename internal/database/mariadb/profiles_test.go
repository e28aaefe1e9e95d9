package mariadb

import (
	"slices"
	"testing"

	"github.com/kozaktomas/barface/internal/database"
)

func TestNewPool_InvalidDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{"empty", ""},
		{"malformed", "user:pass@tcp(localhost:3306"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewPool(tc.dsn); err == nil {
				t.Errorf("expected error for DSN %q", tc.dsn)
			}
		})
	}
}

func TestEncodeDecodeProfile(t *testing.T) {
	in := &database.Profile{
		FaceID: "f1",
		Name:   "Dolores",
		FaceDetail: database.FaceDetail{
			Gender: database.Attribute{Value: database.GenderFemale, Confidence: 97},
			Smile:  database.BoolAttribute{Value: false, Confidence: 60},
		},
		FavDrinks: []string{"Borovička", "Beer"},
	}

	detail, drinks, err := encodeProfile(in)
	if err != nil {
		t.Fatalf("encodeProfile failed: %v", err)
	}

	var out database.Profile
	if err := decodeProfile(&out, detail, drinks); err != nil {
		t.Fatalf("decodeProfile failed: %v", err)
	}
	if out.FaceDetail.Gender.Value != database.GenderFemale {
		t.Errorf("expected gender Female, got %q", out.FaceDetail.Gender.Value)
	}
	if !slices.Equal(out.FavDrinks, in.FavDrinks) {
		t.Errorf("expected drinks %v, got %v", in.FavDrinks, out.FavDrinks)
	}
}

func TestEncodeProfile_NilDrinks(t *testing.T) {
	_, drinks, err := encodeProfile(&database.Profile{FaceID: "f2"})
	if err != nil {
		t.Fatalf("encodeProfile failed: %v", err)
	}
	if string(drinks) != "[]" {
		t.Errorf("expected empty JSON array, got %s", drinks)
	}
}
