// Package mock produces canned pet replies and diary entries. It answers in demo mode and
// whenever the text provider fails.
package mock

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"petvoice/pkg/persona"
	"petvoice/pkg/utils"
)

// Picker returns an index in [0, n).
type Picker func(n int) int

type Generator struct {
	pick Picker
}

type Option func(*Generator)

// WithPicker replaces the random source, mostly for tests.
func WithPicker(p Picker) Option {
	return func(g *Generator) {
		if p != nil {
			g.pick = p
		}
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{pick: rand.IntN}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// topic is a keyword-triggered reply. Keywords are matched case-sensitively.
type topic struct {
	name     string
	keywords []string
	reply    string // %[1]s is the pet's name
}

// Checked in order; the first topic with a matching keyword wins.
var topics = []topic{
	{
		name:     "walk",
		keywords: []string{"walk", "outing", "stroll"},
		reply:    "A walk? %[1]s loves walks! 🐕 Let's go right now, I want to run around outside! 🌳",
	},
	{
		name:     "food",
		keywords: []string{"treat", "snack", "food", "hungry", "dinner"},
		reply:    "Is that a treat? 🍖 Yay! %[1]s is happiest when eating something yummy~ nom nom!",
	},
	{
		name:     "love",
		keywords: []string{"love", "miss you", "cuddle"},
		reply:    "I love you too! 💕 %[1]s thinks you're the best in the whole world! Let's stay together forever~",
	},
	{
		name:     "play",
		keywords: []string{"play", "toy", "ball", "fetch"},
		reply:    "Let's play, let's play! 🎾 %[1]s loves playing! Throw the ball and I'll bring it right back!",
	},
}

// genericPool answers messages that match no topic. %[1]s is the pet's name.
var genericPool = []string{
	"Hi! It's %[1]s~ 🐾",
	"What should we do today? Come play with me! 😊",
	"I'm hungry~ can I have a snack? 🍖",
	"I want to go for a walk! I love being outside 🌳",
	"I missed you so much! I love you lots 💕",
	"The weather is so nice today~ and it's even better with you! ☀️",
	"I'm in a great mood! Are you in a good mood too? 😄",
}

const diaryTemplate = `Hi! It's %[1]s~ 🐾

Today was so much fun! I was really happy spending time with you. Thank you for telling me about "%[2]s"!

I can feel how much you love me and it makes me so glad! 💕 I love that we get to be together every single day.

I wonder what fun things are waiting for us tomorrow? Anything is fun as long as I'm with you!

Thank you for today! I love you lots~ 🥰

- With love, %[1]s -`

// Generate returns a reply for text in the given mode. It never fails.
func (g *Generator) Generate(p persona.PetPersona, text string, mode persona.Mode) string {
	name := strings.TrimSpace(p.Name)
	if mode.Normalize() == persona.ModeDiary {
		return Diary(name, text)
	}
	if t, ok := match(text); ok {
		return render(t.reply, name)
	}
	return render(genericPool[g.pick(len(genericPool))], name)
}

// Diary fills the fixed diary template.
func Diary(name, text string) string {
	return fmt.Sprintf(diaryTemplate, name, strings.TrimSpace(text))
}

// Topic returns the name of the topic text triggers, if any.
func Topic(text string) (string, bool) {
	t, ok := match(text)
	return t.name, ok
}

// Pool returns the generic replies rendered for name.
func Pool(name string) []string {
	out := make([]string, len(genericPool))
	for i, line := range genericPool {
		out[i] = render(line, name)
	}
	return out
}

func match(text string) (topic, bool) {
	for _, t := range topics {
		if utils.StringContains(text, true, t.keywords...) {
			return t, true
		}
	}
	return topic{}, false
}

// render substitutes the pet name for templates that reference it.
func render(tmpl, name string) string {
	if !strings.Contains(tmpl, "%[1]s") {
		return tmpl
	}
	return fmt.Sprintf(tmpl, name)
}
