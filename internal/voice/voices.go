package voice

import (
	"os/exec"
	"strings"
)

// listVoices is a hook over the engine's voice listing for tests
var listVoices = func(engine string) []string {
	var cmd *exec.Cmd
	switch engine {
	case "say":
		cmd = exec.Command("say", "-v", "?")
	default: // espeak family
		cmd = exec.Command(engine, "--voices")
	}
	out, err := cmd.Output()
	if err != nil {
		return nil
	}
	return strings.Split(string(out), "\n")
}

// spanishTags are locale tags tried in order: Colombian Spanish first, then
// Latin American, then generic Spanish
var spanishTags = []string{"es-co", "es-419", "es-mx", "es"}

// pickSpanishVoice chooses the engine voice closest to the preferred
// locale. Returns "" when no Spanish voice is listed, letting the engine
// use its default.
func pickSpanishVoice(engine, preferred string) string {
	voices := listVoices(engine)
	if len(voices) == 0 {
		return ""
	}

	tags := spanishTags
	if preferred != "" {
		tags = append([]string{normalizeTag(preferred)}, tags...)
	}

	for _, want := range tags {
		for _, line := range voices {
			if name := voiceForTag(engine, line, want); name != "" {
				return name
			}
		}
	}
	return ""
}

// voiceForTag extracts the `-v` argument for a listing line carrying the
// wanted locale tag. `say -v ?` lists "Name lang # comment" and wants the
// name; the espeak family lists the language in column two and accepts the
// language tag itself as the voice.
func voiceForTag(engine, line, want string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}

	if engine == "say" {
		if normalizeTag(fields[1]) == want {
			return fields[0]
		}
		return ""
	}

	if normalizeTag(fields[1]) == want {
		return fields[1]
	}
	return ""
}

// normalizeTag lowercases a locale tag and unifies separators
func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return strings.ReplaceAll(tag, "_", "-")
}
