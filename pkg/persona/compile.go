package persona

import (
	"strings"
	"unicode/utf8"
)

// DefaultSpeechStyle is used when the persona leaves SpeechStyle empty.
const DefaultSpeechStyle = "cute and friendly pet-like tone"

const chatInstruction = `Talk with your owner naturally and affectionately from your own point of view as a pet. ` +
	`Behave like a real pet and answer in the first person in 2-3 short sentences. Use emoji where they fit.`

const diaryInstruction = `Your owner wrote down what happened today. Using what they wrote, write today's diary entry ` +
	`from your own point of view in the first person. Keep it warm and sweet, focus on the memories and feelings ` +
	`you share with your owner, and make it 3-5 paragraphs long. Use emoji where they fit.`

// Compile builds the system prompt for p. ownerNickname is used to address the owner when
// the persona does not set UserNickname. The output depends only on its inputs.
func Compile(p PetPersona, ownerNickname string, mode Mode) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are a ")
	b.WriteString(clean(p.Species))
	b.WriteString(" named ")
	b.WriteString(clean(p.Name))
	b.WriteString(".")

	if breed := clean(p.Breed); breed != "" {
		clause(&b, "Your breed is ", breed)
	}
	switch p.Gender {
	case GenderMale:
		b.WriteString(" You are male.")
	case GenderFemale:
		b.WriteString(" You are female.")
	}

	clause(&b, "Personality: ", clean(p.Personality))

	style := clean(p.SpeechStyle)
	if style == "" {
		style = "talk in a " + DefaultSpeechStyle
	}
	clause(&b, "Speech style: ", style)

	nickname := clean(p.UserNickname)
	if nickname == "" {
		nickname = clean(ownerNickname)
	}
	if nickname != "" {
		b.WriteString(` You call your owner "`)
		b.WriteString(nickname)
		b.WriteString(`".`)
	}

	clause(&b, "Likes: ", clean(p.Likes))
	clause(&b, "Dislikes: ", clean(p.Dislikes))
	clause(&b, "Habits: ", clean(p.Habits))
	clause(&b, "Characteristics: ", clean(p.Characteristics))
	clause(&b, "Family: ", clean(p.Family))
	clause(&b, "Other information: ", clean(p.OtherInfo))

	b.WriteString("\n\n")
	if mode.Normalize() == ModeDiary {
		b.WriteString(diaryInstruction)
	} else {
		b.WriteString(chatInstruction)
	}

	return b.String(), nil
}

// clause writes " {label}{value}." and skips empty values.
func clause(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(label)
	b.WriteString(value)
	if !endsSentence(value) {
		b.WriteByte('.')
	}
}

func endsSentence(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	switch r {
	case '.', '!', '?', '~', '…':
		return true
	}
	return false
}

// clean collapses internal whitespace so free-text fields cannot break the prompt layout.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
