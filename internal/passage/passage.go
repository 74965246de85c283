// Package passage models listening-practice passages and their loading.
package passage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tiexiang0-alt/Mock-Test/tts"
)

// Passage is one listening-practice text with a speaker-role hint that
// biases voice selection during playback.
type Passage struct {
	Title   string `json:"title"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Role maps the passage's speaker hint to a known speaker role, defaulting
// to female for anything unrecognized, which is also what the synthesis
// service does.
func (p Passage) Role() tts.SpeakerRole {
	role := tts.SpeakerRole(strings.ToLower(p.Speaker))
	if role.Valid() {
		return role
	}
	return tts.RoleFemale
}

// Request builds the playback request for this passage.
func (p Passage) Request() tts.Request {
	return tts.Request{Text: p.Text, Role: p.Role()}
}

// Load reads a JSON array of passages from path. Entries with empty text
// are dropped rather than erroring; a half-edited file should not take the
// whole set down.
func Load(path string) ([]Passage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read passages: %w", err)
	}

	var raw []Passage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse passages: %w", err)
	}

	passages := raw[:0]
	for _, p := range raw {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		passages = append(passages, p)
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("no usable passages in %s", path)
	}
	return passages, nil
}

// Builtin returns the bundled practice set used when no passage file is
// given.
func Builtin() []Passage {
	return []Passage{
		{
			Title:   "Conversation: Course Registration",
			Speaker: "duo",
			Text: "Listen to a conversation between a student and a registrar. " +
				"Excuse me, I'm trying to add a biology section but the system says it's full. " +
				"Is there a waitlist I can join? " +
				"Yes, the waitlist opens tomorrow morning, but you'll also need the instructor's signature " +
				"if you want to enroll after the first week of classes.",
		},
		{
			Title:   "Lecture: Glacial Erosion",
			Speaker: "lecturer",
			Text: "Today we'll look at how glaciers reshape the landscape beneath them. " +
				"As a glacier advances, it doesn't simply slide over bedrock. It plucks loose fragments, " +
				"drags them along its base, and uses them as abrasives, carving the deep U-shaped valleys " +
				"that distinguish glaciated terrain from the V-shaped valleys rivers cut.",
		},
		{
			Title:   "Announcement: Library Hours",
			Speaker: "female",
			Text: "Attention students. Beginning next Monday, the main library will extend its hours " +
				"during the examination period. The building will remain open until two a.m. on weekdays, " +
				"and the group study rooms on the third floor may be reserved online up to one week in advance.",
		},
		{
			Title:   "Office Hours: Lab Report Feedback",
			Speaker: "male",
			Text: "Thanks for coming by. I read your lab report, and your data section is solid, " +
				"but the discussion needs work. You describe what happened without explaining why it matters. " +
				"Try connecting your results back to the hypothesis you stated in the introduction.",
		},
	}
}
