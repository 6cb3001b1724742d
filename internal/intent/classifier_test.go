package intent

import "testing"

func TestClassifyText(t *testing.T) {
	cases := []string{
		"how are my projects doing?",
		"what's my revenue this month",
		"tell me about the cash flow",
		"video", // keyword without an action verb
		"I watched a great movie yesterday",
	}
	for _, utterance := range cases {
		if got := Classify(utterance, false); got.Kind != KindText {
			t.Errorf("Classify(%q) = %s, want text", utterance, got.Kind)
		}
	}
}

func TestClassifyImage(t *testing.T) {
	cases := map[string]string{
		"create an image of a sunset":          "sunset",
		"please generate a picture of a cat":   "cat",
		"make me a logo for my bakery":         "me for my bakery",
		"draw an illustration of mountains":    "mountains",
		"can you create a poster for an event": "for an event",
	}
	for utterance, wantPrompt := range cases {
		got := Classify(utterance, false)
		if got.Kind != KindImage {
			t.Errorf("Classify(%q) = %s, want image", utterance, got.Kind)
			continue
		}
		if got.CleanPrompt != wantPrompt {
			t.Errorf("Classify(%q).CleanPrompt = %q, want %q", utterance, got.CleanPrompt, wantPrompt)
		}
	}
}

func TestClassifyVideo(t *testing.T) {
	cases := []string{
		"generate a video of waves on a beach",
		"create an animation of a rocket launch",
		"make a short clip of a city at night",
	}
	for _, utterance := range cases {
		if got := Classify(utterance, false); got.Kind != KindVideo {
			t.Errorf("Classify(%q) = %s, want video", utterance, got.Kind)
		}
	}
}

func TestClassifyVideoPrecedence(t *testing.T) {
	// Both keyword sets match; video wins by documented precedence.
	got := Classify("generate a video picture of a cat", false)
	if got.Kind != KindVideo {
		t.Fatalf("expected video precedence, got %s", got.Kind)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	first := Classify("create an image of a sunset", false)
	for i := 0; i < 10; i++ {
		if got := Classify("create an image of a sunset", false); got != first {
			t.Fatalf("classification not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestClassifyReferenceImageRelaxation(t *testing.T) {
	// Short utterance with a demonstrative and attachments: image even
	// without an image keyword.
	got := Classify("use this as the background", true)
	if got.Kind != KindImage {
		t.Errorf("expected image with references and demonstrative, got %s", got.Kind)
	}

	// Same utterance without attachments stays text.
	got = Classify("use this as the background", false)
	if got.Kind != KindText {
		t.Errorf("expected text without references, got %s", got.Kind)
	}

	// Action verb alone also triggers the relaxation.
	got = Classify("make it brighter", true)
	if got.Kind != KindImage {
		t.Errorf("expected image for short edit request with references, got %s", got.Kind)
	}

	// Long utterances are excluded from the relaxation.
	long := "I was wondering whether you could possibly at some point explain the general history of impressionist painting to me in a fair amount of detail"
	if got := Classify(long, true); got.Kind != KindText {
		t.Errorf("expected text for long utterance, got %s", got.Kind)
	}
}

func TestClassifyVerbBoundaries(t *testing.T) {
	// "makeup" must not match the verb "make".
	if got := Classify("what does makeup artistry cost as a video business expense", false); got.Kind != KindText {
		t.Errorf("expected text, got %s", got.Kind)
	}
}

func TestCleanPromptIdempotent(t *testing.T) {
	cases := []string{
		"sunset over the ocean",
		"cat wearing a hat",
		"futuristic skyline at dusk",
	}
	for _, prompt := range cases {
		if got := CleanPrompt(prompt); got != prompt {
			t.Errorf("CleanPrompt(%q) = %q, want unchanged", prompt, got)
		}
		once := CleanPrompt("create an image of " + prompt)
		twice := CleanPrompt(once)
		if once != twice {
			t.Errorf("CleanPrompt not idempotent: %q -> %q", once, twice)
		}
	}
}

func TestCleanPromptEmptyFallsBack(t *testing.T) {
	// Stripping everything falls back to the original utterance.
	if got := CleanPrompt("create an image"); got != "create an image" {
		t.Errorf("expected fallback to original, got %q", got)
	}
}
