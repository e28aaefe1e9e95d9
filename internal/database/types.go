package database

import (
	"time"
)

// Attribute is a detected categorical face attribute, e.g. gender.
type Attribute struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// BoolAttribute is a detected yes/no face attribute, e.g. smile.
type BoolAttribute struct {
	Value      bool    `json:"value"`
	Confidence float64 `json:"confidence"`
}

// AgeRange is the estimated age bracket of a face.
type AgeRange struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// FaceDetail is the attribute bundle detected on an enrolled face.
type FaceDetail struct {
	Gender      Attribute     `json:"gender"`
	Smile       BoolAttribute `json:"smile"`
	AgeRange    *AgeRange     `json:"age_range,omitempty"`
	BoundingBox []float64     `json:"bounding_box,omitempty"` // [x1, y1, x2, y2] in raw pixel coordinates
	DetScore    float64       `json:"det_score,omitempty"`
}

// GenderMale is the gender value that selects masculine pronouns.
const GenderMale = "Male"

// GenderFemale is the gender value reported for feminine faces.
const GenderFemale = "Female"

// Profile is the application data kept for one enrolled face.
type Profile struct {
	FaceID     string     `json:"face_id"`
	Name       string     `json:"name"`
	FaceDetail FaceDetail `json:"face_detail"`
	FavDrinks  []string   `json:"fav_drinks"` // ordered, last element is the most recent order
	CreatedAt  time.Time  `json:"created_at"`
}

// LastDrink returns the most recently added drink, or "" when there is none.
func (p *Profile) LastDrink() string {
	if len(p.FavDrinks) == 0 {
		return ""
	}
	return p.FavDrinks[len(p.FavDrinks)-1]
}

// Collection is a named set of enrolled faces.
type Collection struct {
	ID        string
	CreatedAt time.Time
}

// StoredFace represents a face embedding enrolled into a collection.
type StoredFace struct {
	ID           int64
	FaceID       string // opaque identifier handed out on enrollment, also the profile key
	CollectionID string
	Embedding    []float32
	BBox         []float64 // [x1, y1, x2, y2] in raw pixel coordinates
	DetScore     float64
	Model        string
	Dim          int
	CreatedAt    time.Time
}
