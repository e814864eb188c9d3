// Package schema holds the records petvoice stores and the request bodies that create them.
package schema

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"petvoice/pkg/persona"
)

type PetStatus string

const (
	PetActive   PetStatus = "active"
	PetInactive PetStatus = "inactive"
)

// Pet is a stored pet profile. The embedded persona drives how the pet talks.
type Pet struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`

	persona.PetPersona

	IsNeutered   *bool  `json:"isNeutered,omitempty"`
	BirthDate    string `json:"birthDate,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`

	Allergies   string `json:"allergies,omitempty"`
	Diseases    string `json:"diseases,omitempty"`
	Surgeries   string `json:"surgeries,omitempty"`
	HealthNotes string `json:"healthNotes,omitempty"`

	Status    PetStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Persona returns a copy of the fields that shape generated text.
func (p Pet) Persona() persona.PetPersona {
	return p.PetPersona
}

func (p Pet) Active() bool {
	return p.Status == PetActive
}

// PetSummary is the short form embedded in chat and diary responses.
type PetSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Species      string `json:"species"`
	ProfileImage string `json:"profileImage,omitempty"`
}

func (p Pet) Summary() PetSummary {
	return PetSummary{ID: p.ID, Name: p.Name, Species: p.Species, ProfileImage: p.ProfileImage}
}

// PetInput is the body of pet create and update requests. Nil fields are left unchanged on update.
type PetInput struct {
	Name            *string `json:"name,omitempty" jsonschema:"minLength=1,maxLength=100" jsonschema_description:"The pet's name"`
	Species         *string `json:"species,omitempty" jsonschema:"minLength=1,maxLength=50" jsonschema_description:"Broad species, e.g. dog or cat"`
	Breed           *string `json:"breed,omitempty" jsonschema:"maxLength=100"`
	Gender          *string `json:"gender,omitempty" jsonschema:"enum=male,enum=female,enum="`
	IsNeutered      *bool   `json:"isNeutered,omitempty"`
	BirthDate       *string `json:"birthDate,omitempty" jsonschema:"format=date"`
	SpeechStyle     *string `json:"speechStyle,omitempty" jsonschema_description:"How the pet talks in chat and diaries"`
	UserNickname    *string `json:"userNickname,omitempty" jsonschema:"maxLength=50" jsonschema_description:"What the pet calls its owner"`
	Personality     *string `json:"personality,omitempty"`
	Likes           *string `json:"likes,omitempty"`
	Dislikes        *string `json:"dislikes,omitempty"`
	Habits          *string `json:"habits,omitempty"`
	Characteristics *string `json:"characteristics,omitempty"`
	Family          *string `json:"family,omitempty"`
	OtherInfo       *string `json:"otherInfo,omitempty"`
	Allergies       *string `json:"allergies,omitempty"`
	Diseases        *string `json:"diseases,omitempty"`
	Surgeries       *string `json:"surgeries,omitempty"`
	HealthNotes     *string `json:"healthNotes,omitempty"`
}

// Length limits advertised by PetProfileSchema.
const (
	MaxPetNameRunes  = 100
	MaxSpeciesRunes  = 50
	MaxBreedRunes    = 100
	MaxNicknameRunes = 50
)

// Validate enforces the constraints PetProfileSchema advertises on the fields that are set.
func (in PetInput) Validate() error {
	limits := []struct {
		field string
		v     *string
		max   int
	}{
		{"name", in.Name, MaxPetNameRunes},
		{"species", in.Species, MaxSpeciesRunes},
		{"breed", in.Breed, MaxBreedRunes},
		{"userNickname", in.UserNickname, MaxNicknameRunes},
	}
	for _, l := range limits {
		if l.v != nil && utf8.RuneCountInString(strings.TrimSpace(*l.v)) > l.max {
			return fmt.Errorf("%s must be at most %d characters", l.field, l.max)
		}
	}
	if in.Gender != nil {
		g := strings.TrimSpace(*in.Gender)
		if g != "" && persona.ParseGender(g) == persona.GenderUnspecified {
			return fmt.Errorf("gender must be male, female or empty")
		}
	}
	if in.BirthDate != nil {
		if d := strings.TrimSpace(*in.BirthDate); d != "" {
			if _, err := time.Parse(DateLayout, d); err != nil {
				return fmt.Errorf("birthDate must be YYYY-MM-DD")
			}
		}
	}
	return nil
}

// Apply copies the set fields of in onto p, trimming strings.
func (in PetInput) Apply(p *Pet) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Name, in.Name)
	set(&p.Species, in.Species)
	set(&p.Breed, in.Breed)
	if in.Gender != nil {
		p.Gender = persona.ParseGender(*in.Gender)
	}
	if in.IsNeutered != nil {
		v := *in.IsNeutered
		p.IsNeutered = &v
	}
	set(&p.BirthDate, in.BirthDate)
	set(&p.SpeechStyle, in.SpeechStyle)
	set(&p.UserNickname, in.UserNickname)
	set(&p.Personality, in.Personality)
	set(&p.Likes, in.Likes)
	set(&p.Dislikes, in.Dislikes)
	set(&p.Habits, in.Habits)
	set(&p.Characteristics, in.Characteristics)
	set(&p.Family, in.Family)
	set(&p.OtherInfo, in.OtherInfo)
	set(&p.Allergies, in.Allergies)
	set(&p.Diseases, in.Diseases)
	set(&p.Surgeries, in.Surgeries)
	set(&p.HealthNotes, in.HealthNotes)
}
