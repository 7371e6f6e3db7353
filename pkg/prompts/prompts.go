// Package prompts builds the natural-language instructions sent to the
// generative model for each murfkiddo mode.
//
// Each builder is a pure mapping from user input to a prompt plus the
// metadata the route needs for its response (title, content-type label).
// Mode discriminators are matched with ordered substring checks and fall
// back to a documented default; only the language mode rejects input
// outright, because a lesson without a target language is meaningless.
package prompts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingInput is returned when a builder's required field is empty.
var ErrMissingInput = errors.New("prompts: required input missing")

// safetyPreamble is appended to every prompt. Kid-safety is not optional
// per mode.
const safetyPreamble = "You are speaking to a young child. Keep everything " +
	"age-appropriate, warm, and encouraging. Use short sentences and simple " +
	"words. Never include anything scary, violent, or sad. Do not use " +
	"markdown formatting; answer in plain prose."

// Prompt is the result of a builder: the model instruction plus the
// metadata the caller echoes back to the client.
type Prompt struct {
	// Text is the full instruction sent to the model.
	Text string

	// Title is a display title derived from the input (story mode).
	Title string

	// Label is the resolved discriminator (game type, content type,
	// language) after defaulting.
	Label string
}

// Story lengths map to target word counts so narration time is
// predictable.
var storyLengths = map[string]int{
	"short":  150,
	"medium": 300,
	"long":   500,
}

// Story builds a prompt for a narrated story about topic. storyType and
// length are optional; unknown values fall back to an adventure story of
// medium length.
func Story(topic, storyType, length string) (Prompt, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Prompt{}, fmt.Errorf("%w: topic", ErrMissingInput)
	}

	kind := resolveStoryType(storyType)
	words, ok := storyLengths[strings.ToLower(strings.TrimSpace(length))]
	if !ok {
		words = storyLengths["medium"]
	}

	text := fmt.Sprintf(
		"%s\n\nTell a %s story for a child about %s. "+
			"Aim for about %d words. Start with \"Once upon a time\" and "+
			"finish with \"The end\".",
		safetyPreamble, kind, topic, words,
	)

	return Prompt{
		Text:  text,
		Title: storyTitle(topic),
		Label: kind,
	}, nil
}

// resolveStoryType matches the requested type against known kinds in
// order; the default is an adventure story.
func resolveStoryType(storyType string) string {
	s := strings.ToLower(strings.TrimSpace(storyType))
	switch {
	case strings.Contains(s, "fairy"):
		return "fairy tale"
	case strings.Contains(s, "animal"):
		return "gentle animal"
	case strings.Contains(s, "funny"):
		return "silly, funny"
	case strings.Contains(s, "space"):
		return "space exploration"
	case strings.Contains(s, "adventure"):
		return "adventure"
	default:
		return "adventure"
	}
}

// storyTitle derives a display title from the topic.
func storyTitle(topic string) string {
	words := strings.Fields(topic)
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return "The Story of " + strings.Join(words, " ")
}

// Tutor builds a prompt answering a child's question. subject is an
// optional label carried into the instruction.
func Tutor(question, subject string) (Prompt, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Prompt{}, fmt.Errorf("%w: question", ErrMissingInput)
	}

	text := fmt.Sprintf(
		"%s\n\nYou are a friendly tutor. Explain the answer to this "+
			"question so a seven-year-old understands it, with one fun fact "+
			"at the end: %s",
		safetyPreamble, question,
	)
	if s := strings.TrimSpace(subject); s != "" {
		text += fmt.Sprintf("\nThe question is about %s.", s)
	}

	return Prompt{Text: text, Label: strings.TrimSpace(subject)}, nil
}

// Turn is one prior exchange of a chat conversation, supplied by the
// client and embedded into the prompt.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// maxHistoryTurns bounds how much client-supplied history is embedded.
const maxHistoryTurns = 10

// Chat builds a prompt for a casual conversational reply, folding in the
// most recent history turns.
func Chat(message string, history []Turn) (Prompt, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Prompt{}, fmt.Errorf("%w: message", ErrMissingInput)
	}

	var b strings.Builder
	b.WriteString(safetyPreamble)
	b.WriteString("\n\nYou are a cheerful buddy chatting with a child. " +
		"Reply in two or three short sentences and end with a friendly question.")

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	if len(history) > 0 {
		b.WriteString("\n\nConversation so far:")
		for _, t := range history {
			role := "Child"
			if t.Role == "assistant" {
				role = "You"
			}
			fmt.Fprintf(&b, "\n%s: %s", role, strings.TrimSpace(t.Content))
		}
	}

	fmt.Fprintf(&b, "\n\nChild: %s", message)

	return Prompt{Text: b.String()}, nil
}

// Play builds a prompt for a game turn. gameType falls back to a riddle;
// userAnswer, when present, turns the prompt into an answer check.
func Play(gameType, difficulty, userAnswer string) (Prompt, error) {
	kind := resolveGameType(gameType)

	var b strings.Builder
	b.WriteString(safetyPreamble)

	if a := strings.TrimSpace(userAnswer); a != "" {
		fmt.Fprintf(&b,
			"\n\nThe child answered %q to the last %s. Tell them warmly "+
				"whether they got it right, give the answer if not, and offer "+
				"another one.", a, kind)
	} else {
		fmt.Fprintf(&b,
			"\n\nGive the child one %s to solve. Do not reveal the answer; "+
				"end by asking for their guess.", kind)
		if d := strings.TrimSpace(difficulty); d != "" {
			fmt.Fprintf(&b, " Make it %s difficulty for a young child.", d)
		}
	}

	return Prompt{Text: b.String(), Label: kind}, nil
}

// resolveGameType matches the requested game in order; the default is a
// riddle.
func resolveGameType(gameType string) string {
	s := strings.ToLower(strings.TrimSpace(gameType))
	switch {
	case strings.Contains(s, "trivia"):
		return "fun trivia question"
	case strings.Contains(s, "word"):
		return "word game puzzle"
	case strings.Contains(s, "math"):
		return "simple math puzzle"
	case strings.Contains(s, "riddle"):
		return "riddle"
	default:
		return "riddle"
	}
}

// Language builds a language-learning prompt. Both action and
// targetLanguage are required; there is no sensible default language to
// fall back to.
func Language(action, targetLanguage, text string) (Prompt, error) {
	action = strings.TrimSpace(action)
	lang := strings.TrimSpace(targetLanguage)
	if action == "" {
		return Prompt{}, fmt.Errorf("%w: action", ErrMissingInput)
	}
	if lang == "" {
		return Prompt{}, fmt.Errorf("%w: targetLanguage", ErrMissingInput)
	}

	var b strings.Builder
	b.WriteString(safetyPreamble)

	a := strings.ToLower(action)
	switch {
	case strings.Contains(a, "translate"):
		phrase := strings.TrimSpace(text)
		if phrase == "" {
			phrase = "hello, how are you?"
		}
		fmt.Fprintf(&b,
			"\n\nTranslate %q into %s for a child. Say the translation, "+
				"then spell out how to pronounce it in simple sounds.",
			phrase, lang)
	case strings.Contains(a, "pronunc"):
		fmt.Fprintf(&b,
			"\n\nTeach a child how to pronounce three easy %s words, one "+
				"sound at a time.", lang)
	default:
		// teach-basics
		fmt.Fprintf(&b,
			"\n\nTeach a child five basic %s words with their meanings, "+
				"one per sentence, with simple pronunciation hints.", lang)
	}

	return Prompt{Text: b.String(), Label: lang}, nil
}

// Bedtime builds a wind-down prompt. contentType falls back to general
// peaceful content.
func Bedtime(contentType, topic string) (Prompt, error) {
	kind, instruction := resolveBedtime(contentType)

	var b strings.Builder
	b.WriteString(safetyPreamble)
	b.WriteString("\n\nIt is bedtime. Keep everything slow, soft, and calm. ")
	b.WriteString(instruction)
	if tp := strings.TrimSpace(topic); tp != "" {
		fmt.Fprintf(&b, " Weave in %s gently.", tp)
	}

	return Prompt{Text: b.String(), Label: kind}, nil
}

// resolveBedtime maps the requested content type to an instruction;
// unknown values get general peaceful content.
func resolveBedtime(contentType string) (label, instruction string) {
	s := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.Contains(s, "story"):
		return "story", "Tell a very short, sleepy bedtime story with a cozy ending."
	case strings.Contains(s, "meditat"):
		return "meditation", "Guide a gentle breathing and relaxation moment for a child in bed."
	case strings.Contains(s, "lullaby"):
		return "lullaby", "Recite a soft, original lullaby verse, slow enough to hum along."
	default:
		return "peaceful", "Share some general peaceful content: a calm, dreamy description that helps a child drift off."
	}
}
