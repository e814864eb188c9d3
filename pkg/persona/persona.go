// Package persona turns a pet's profile into the system prompt that conditions
// generated chat replies and diary entries.
package persona

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the length and framing of generated text.
type Mode string

const (
	ModeChat  Mode = "chat"
	ModeDiary Mode = "diary"
)

// ParseMode reports whether s names a known mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeChat:
		return ModeChat, true
	case ModeDiary:
		return ModeDiary, true
	}
	return ModeChat, false
}

// Normalize maps anything that is not diary to chat.
func (m Mode) Normalize() Mode {
	if m == ModeDiary {
		return ModeDiary
	}
	return ModeChat
}

type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
)

// ParseGender accepts male/female in any case; everything else is unspecified.
func ParseGender(s string) Gender {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	}
	return GenderUnspecified
}

// PetPersona is a read-only snapshot of the attributes that shape how a pet talks.
// Name and Species are required; every other field is omitted from the prompt when empty.
type PetPersona struct {
	Name            string `json:"name" jsonschema:"minLength=1" jsonschema_description:"The pet's name"`
	Species         string `json:"species" jsonschema:"minLength=1" jsonschema_description:"Broad species, e.g. dog or cat"`
	Breed           string `json:"breed,omitempty" jsonschema_description:"Breed, e.g. golden retriever"`
	Gender          Gender `json:"gender,omitempty" jsonschema:"enum=male,enum=female,enum=" jsonschema_description:"male, female, or empty when unspecified"`
	SpeechStyle     string `json:"speechStyle,omitempty" jsonschema_description:"How the pet talks; overrides the default tone"`
	UserNickname    string `json:"userNickname,omitempty" jsonschema_description:"What the pet calls its owner"`
	Personality     string `json:"personality,omitempty"`
	Likes           string `json:"likes,omitempty"`
	Dislikes        string `json:"dislikes,omitempty"`
	Habits          string `json:"habits,omitempty"`
	Characteristics string `json:"characteristics,omitempty"`
	Family          string `json:"family,omitempty"`
	OtherInfo       string `json:"otherInfo,omitempty" jsonschema_description:"Anything else the pet should keep in mind while talking"`
}

// ErrInvalidPersona matches every *InvalidPersonaError.
var ErrInvalidPersona = errors.New("invalid persona")

// InvalidPersonaError names the required field that was missing.
type InvalidPersonaError struct {
	Field string
}

func (e *InvalidPersonaError) Error() string {
	return fmt.Sprintf("invalid persona: %s is required", e.Field)
}

func (e *InvalidPersonaError) Is(target error) bool {
	return target == ErrInvalidPersona
}

// Validate checks the required fields.
func (p PetPersona) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &InvalidPersonaError{Field: "name"}
	}
	if strings.TrimSpace(p.Species) == "" {
		return &InvalidPersonaError{Field: "species"}
	}
	return nil
}
