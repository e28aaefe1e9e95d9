package sentence

import (
	"errors"
	"testing"

	"github.com/kozaktomas/barface/internal/database"
)

func profile(name, gender string, smiling bool, drinks ...string) *database.Profile {
	return &database.Profile{
		FaceID: "face-1",
		Name:   name,
		FaceDetail: database.FaceDetail{
			Gender: database.Attribute{Value: gender, Confidence: 99},
			Smile:  database.BoolAttribute{Value: smiling, Confidence: 90},
		},
		FavDrinks: drinks,
	}
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name     string
		profile  *database.Profile
		expected string
	}{
		{
			name:     "sad male",
			profile:  profile("Jimmy", database.GenderMale, false, "Mojito", "Beer"),
			expected: "This is Jimmy last time he ordered Beer. he seems sad give him free drink!",
		},
		{
			name:     "happy male",
			profile:  profile("Jimmy", database.GenderMale, true, "Beer"),
			expected: "This is Jimmy last time he ordered Beer. ",
		},
		{
			name:     "sad female",
			profile:  profile("Anna", database.GenderFemale, false, "Gin"),
			expected: "This is Anna last time she ordered Gin. she seems sad give her free drink!",
		},
		{
			name:     "unknown gender uses she",
			profile:  profile("Sam", "", true, "Water"),
			expected: "This is Sam last time she ordered Water. ",
		},
		{
			name:     "no drinks",
			profile:  profile("Carl", database.GenderMale, true),
			expected: "This is Carl last time he ordered nothing. ",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Compose(tc.profile)
			if err != nil {
				t.Fatalf("Compose failed: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Compose() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestCompose_NilProfile(t *testing.T) {
	_, err := Compose(nil)
	if !errors.Is(err, ErrNoProfile) {
		t.Errorf("expected ErrNoProfile, got %v", err)
	}
}
