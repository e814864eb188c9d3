package persona

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullPersona() PetPersona {
	return PetPersona{
		Name:            "Mochi",
		Species:         "cat",
		Breed:           "Russian Blue",
		Gender:          GenderFemale,
		SpeechStyle:     "aloof but secretly sweet",
		UserNickname:    "Butler",
		Personality:     "curious and a little timid",
		Likes:           "sunny windowsills, tuna",
		Dislikes:        "the vacuum cleaner",
		Habits:          "kneads blankets before naps",
		Characteristics: "one white whisker",
		Family:          "lives with a beagle named Rex",
		OtherInfo:       "was adopted from a shelter in 2021",
	}
}

func TestCompileMinimalPersona(t *testing.T) {
	prompt, err := Compile(PetPersona{Name: "Rex", Species: "dog"}, "Sam", ModeChat)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "You are a dog named Rex."))
	assert.Contains(t, prompt, DefaultSpeechStyle)
	assert.Contains(t, prompt, `You call your owner "Sam".`)
	assert.NotContains(t, prompt, "breed")
	assert.NotContains(t, prompt, "male")
	assert.Contains(t, prompt, "2-3 short sentences")
}

func TestCompileOmitsEmptyFields(t *testing.T) {
	prompt, err := Compile(PetPersona{Name: "Rex", Species: "dog", Likes: "   "}, "", ModeDiary)
	require.NoError(t, err)

	for _, bad := range []string{"undefined", "<nil>", "null", ": .", "Likes", "Dislikes", "Habits", "Family", "Other information", "You call your owner", `""`, "  "} {
		assert.NotContains(t, prompt, bad)
	}
}

func TestCompileFieldOrder(t *testing.T) {
	prompt, err := Compile(fullPersona(), "Sam", ModeChat)
	require.NoError(t, err)

	order := []string{
		"You are a cat named Mochi.",
		"Your breed is Russian Blue.",
		"You are female.",
		"Personality: curious and a little timid.",
		"Speech style: aloof but secretly sweet.",
		`You call your owner "Butler".`,
		"Likes: sunny windowsills, tuna.",
		"Dislikes: the vacuum cleaner.",
		"Habits: kneads blankets before naps.",
		"Characteristics: one white whisker.",
		"Family: lives with a beagle named Rex.",
		"Other information: was adopted from a shelter in 2021.",
	}
	last := -1
	for _, part := range order {
		idx := strings.Index(prompt, part)
		require.NotEqual(t, -1, idx, "missing %q in %q", part, prompt)
		assert.Greater(t, idx, last, "%q out of order", part)
		last = idx
	}
	assert.NotContains(t, prompt, DefaultSpeechStyle)
	assert.NotContains(t, prompt, "Sam")
}

func TestCompileDeterministic(t *testing.T) {
	p := fullPersona()
	first, err := Compile(p, "Sam", ModeDiary)
	require.NoError(t, err)
	for range 20 {
		again, err := Compile(p, "Sam", ModeDiary)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompileModeInstructions(t *testing.T) {
	chat, err := Compile(fullPersona(), "", ModeChat)
	require.NoError(t, err)
	diary, err := Compile(fullPersona(), "", ModeDiary)
	require.NoError(t, err)
	unknown, err := Compile(fullPersona(), "", Mode("poem"))
	require.NoError(t, err)

	assert.Contains(t, chat, chatInstruction)
	assert.Contains(t, diary, diaryInstruction)
	assert.Contains(t, diary, "3-5 paragraphs")
	assert.Equal(t, chat, unknown)
}

func TestCompileKeepsExistingPunctuation(t *testing.T) {
	prompt, err := Compile(PetPersona{Name: "Rex", Species: "dog", Personality: "so excited!"}, "", ModeChat)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Personality: so excited!")
	assert.NotContains(t, prompt, "excited!.")
}

func TestCompileInvalidPersona(t *testing.T) {
	tests := []struct {
		name  string
		p     PetPersona
		field string
	}{
		{"missing name", PetPersona{Species: "dog"}, "name"},
		{"blank name", PetPersona{Name: "  ", Species: "dog"}, "name"},
		{"missing species", PetPersona{Name: "Rex"}, "species"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := Compile(tt.p, "Sam", ModeChat)
			require.Error(t, err)
			assert.Empty(t, prompt)
			assert.True(t, errors.Is(err, ErrInvalidPersona))

			var invalid *InvalidPersonaError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode(" Diary ")
	assert.True(t, ok)
	assert.Equal(t, ModeDiary, m)

	m, ok = ParseMode("sonnet")
	assert.False(t, ok)
	assert.Equal(t, ModeChat, m)
}

func TestParseGender(t *testing.T) {
	assert.Equal(t, GenderMale, ParseGender("Male"))
	assert.Equal(t, GenderFemale, ParseGender("female"))
	assert.Equal(t, GenderUnspecified, ParseGender("unknown"))
}
