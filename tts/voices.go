package tts

import "strings"

// rolePreferences maps each speaker role to an ordered keyword list. The
// first voice whose name contains a keyword wins, scanned preference-first
// so an earlier keyword beats a better-positioned voice.
var rolePreferences = map[SpeakerRole][]string{
	RoleFemale:   {"Aria", "Natural", "Zira", "Google US English", "female"},
	RoleMale:     {"Guy", "Natural", "David", "male"},
	RoleLecturer: {"Guy", "Christopher", "Roger", "Natural", "male"},
	RoleDuo:      {"Aria", "Natural", "Google US English"},
}

// SelectVoice picks an on-device voice for the given role. Matching is a
// case-insensitive substring match on the voice name. When no keyword
// matches, any en-US voice is preferred, then the first voice in the pool.
// An empty pool returns ErrNoVoices.
func SelectVoice(pool []Voice, role SpeakerRole) (Voice, error) {
	if len(pool) == 0 {
		return Voice{}, ErrNoVoices
	}

	for _, keyword := range rolePreferences[role] {
		kw := strings.ToLower(keyword)
		for _, v := range pool {
			if strings.Contains(strings.ToLower(v.Name), kw) {
				return v, nil
			}
		}
	}

	for _, v := range pool {
		if strings.EqualFold(v.Lang, "en-US") {
			return v, nil
		}
	}

	return pool[0], nil
}
