package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind is the classified intent of an utterance.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Result is the outcome of classification. CleanPrompt is populated for
// image and video intents and holds the utterance with politeness prefixes,
// action verbs, and media noun phrases stripped.
type Result struct {
	Kind        Kind
	CleanPrompt string
}

// Keyword sets are fixed. Video is checked before image, so an utterance
// matching both resolves to video.
var videoKeywords = []string{"video", "animation", "clip", "movie", "footage", "animate"}

var imageKeywords = []string{
	"image", "picture", "photo", "drawing", "illustration",
	"logo", "poster", "artwork", "graphic", "wallpaper", "sketch",
}

var actionVerbs = []string{"generate", "create", "make", "produce", "build", "draw", "show me"}

var demonstratives = []string{"this", "these"}

// shortUtteranceLimit is the rune threshold under which an utterance with
// attached reference images is treated as an edit request even without an
// explicit image keyword.
const shortUtteranceLimit = 80

var (
	politenessRe = regexp.MustCompile(`^(please|pls|hey|hi|ok|okay)[\s,]+|^(can|could|would|will) you[\s,]+`)
	verbRe       = regexp.MustCompile(`\b(generate|create|make|produce|build|draw|show me)\b`)
	mediaNounRe  = regexp.MustCompile(`\b(a |an |the )?(video|animation|clip|movie|footage|image|picture|photo|drawing|illustration|logo|poster|artwork|graphic|wallpaper|sketch)( of| showing| about)?\b`)
	articleRe    = regexp.MustCompile(`^(of |a |an |the )+`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// Classify inspects a free-text utterance and decides whether it asks for
// plain text, an image, or a video. It is a pure function: deterministic,
// no side effects.
func Classify(utterance string, hasReferenceImages bool) Result {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	hasVerb := containsAny(lower, actionVerbs)

	switch {
	case hasVerb && containsAny(lower, videoKeywords):
		return Result{Kind: KindVideo, CleanPrompt: CleanPrompt(utterance)}
	case hasVerb && containsAny(lower, imageKeywords):
		return Result{Kind: KindImage, CleanPrompt: CleanPrompt(utterance)}
	}

	// Attachments are strong signal on their own: a short utterance with a
	// demonstrative or an action verb is an edit/use request even without an
	// image keyword.
	if hasReferenceImages && utf8.RuneCountInString(lower) < shortUtteranceLimit {
		if hasVerb || containsWord(lower, demonstratives) {
			return Result{Kind: KindImage, CleanPrompt: CleanPrompt(utterance)}
		}
	}

	return Result{Kind: KindText}
}

// CleanPrompt strips politeness prefixes, action verbs, and media noun
// phrases from an utterance. Applying it to an already-clean prompt changes
// nothing beyond whitespace. If stripping empties the string, the original
// utterance is returned so the provider always gets something to work with.
func CleanPrompt(utterance string) string {
	s := strings.ToLower(strings.TrimSpace(utterance))

	for {
		stripped := politenessRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}

	s = verbRe.ReplaceAllString(s, "")
	s = mediaNounRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = articleRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if s == "" {
		return strings.TrimSpace(utterance)
	}
	return s
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if containsWordBoundary(s, term) {
			return true
		}
	}
	return false
}

func containsWord(s string, words []string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '?' || r == '!'
	}) {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}

// containsWordBoundary matches term as a whole word (or phrase) so that
// "make" does not match "makeup".
func containsWordBoundary(s, term string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordRune(s[start-1])
		afterOK := end == len(s) || !isWordRune(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
