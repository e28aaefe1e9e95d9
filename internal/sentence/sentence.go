// Package sentence composes the greeting spoken when a known face walks up to the bar.
package sentence

import (
	"errors"
	"strings"

	"github.com/kozaktomas/barface/internal/database"
)

// ErrNoProfile is returned when there is no profile to talk about.
var ErrNoProfile = errors.New("no profile data")

// noDrink is spoken in place of the last drink for profiles without any drinks.
const noDrink = "nothing"

type pronouns struct {
	subject, object string
}

func pronounsFor(gender string) pronouns {
	if gender == database.GenderMale {
		return pronouns{subject: "he", object: "him"}
	}
	return pronouns{subject: "she", object: "her"}
}

// Compose builds the order sentence for a profile, e.g.
// "This is Jimmy last time he ordered Beer. he seems sad give him free drink!".
// The second sentence is only added when the face was not smiling.
func Compose(p *database.Profile) (string, error) {
	if p == nil {
		return "", ErrNoProfile
	}

	pn := pronounsFor(p.FaceDetail.Gender.Value)
	drink := p.LastDrink()
	if drink == "" {
		drink = noDrink
	}

	var b strings.Builder
	b.WriteString("This is ")
	b.WriteString(p.Name)
	b.WriteString(" last time ")
	b.WriteString(pn.subject)
	b.WriteString(" ordered ")
	b.WriteString(drink)
	b.WriteString(". ")

	if !p.FaceDetail.Smile.Value {
		b.WriteString(pn.subject)
		b.WriteString(" seems sad give ")
		b.WriteString(pn.object)
		b.WriteString(" free drink!")
	}
	return b.String(), nil
}
