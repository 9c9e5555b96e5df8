// File: internal/bot/profile.go
package bot

import (
	"fmt"
	"os"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/karavolt/surveyor-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ResponseProfile is a named bundle of candidate free-text answers. It is
// immutable after construction; the operator switches profiles by swapping
// the whole value, never by mutating fields.
type ResponseProfile struct {
	Name         string
	Description  string
	ShortAnswers []string
	LongAnswers  []string
}

// Validate rejects profiles that could starve the synthesizer.
func (p *ResponseProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if len(p.ShortAnswers) == 0 {
		return fmt.Errorf("profile %q: %w: short answer pool is empty", p.Name, ErrEmptyAnswerPool)
	}
	if len(p.LongAnswers) == 0 {
		return fmt.Errorf("profile %q: %w: long answer pool is empty", p.Name, ErrEmptyAnswerPool)
	}
	return nil
}

// BuiltinProfiles returns the three stock personas.
func BuiltinProfiles() map[string]*ResponseProfile {
	return map[string]*ResponseProfile{
		"Default": {
			Name:         "Default",
			Description:  "Balanced responses. Risk: Low.",
			ShortAnswers: []string{"Yes", "No", "Maybe", "Sure", "I agree"},
			LongAnswers: []string{
				"I think that's reasonable and I'd consider it.",
				"No additional comments.",
				"I don't have a strong preference.",
				"This seems okay to me.",
			},
		},
		"Conservative": {
			Name:         "Conservative",
			Description:  "Cautious approach. Risk: Very Low.",
			ShortAnswers: []string{"No", "Maybe"},
			LongAnswers:  []string{"No comment."},
		},
		"Bold": {
			Name:         "Bold",
			Description:  "Fast/aggressive responses. Risk: Medium.",
			ShortAnswers: []string{"Yes", "Absolutely"},
			LongAnswers:  []string{"Strongly agree."},
		},
	}
}

// LoadProfiles merges the built-in personas with profiles declared in the
// configuration and, optionally, a standalone JSON profiles file. Later
// sources override earlier ones by name. Every resulting profile must pass
// validation; a bad profile is a configuration error, not a runtime one.
func LoadProfiles(cfg config.BotConfig, declared map[string]config.ProfileConfig) (map[string]*ResponseProfile, error) {
	profiles := BuiltinProfiles()

	for name, pc := range declared {
		profiles[name] = &ResponseProfile{
			Name:         name,
			Description:  pc.Description,
			ShortAnswers: pc.Short,
			LongAnswers:  pc.Long,
		}
	}

	if cfg.ProfilesFile != "" {
		fromFile, err := loadProfilesFile(cfg.ProfilesFile)
		if err != nil {
			return nil, err
		}
		for name, p := range fromFile {
			profiles[name] = p
		}
	}

	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	if _, ok := profiles[cfg.Profile]; !ok {
		return nil, fmt.Errorf("selected profile %q is not defined (have %v)", cfg.Profile, profileNames(profiles))
	}
	return profiles, nil
}

func loadProfilesFile(path string) (map[string]*ResponseProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}
	var raw map[string]config.ProfileConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file %q: %w", path, err)
	}
	out := make(map[string]*ResponseProfile, len(raw))
	for name, pc := range raw {
		out[name] = &ResponseProfile{
			Name:         name,
			Description:  pc.Description,
			ShortAnswers: pc.Short,
			LongAnswers:  pc.Long,
		}
	}
	return out, nil
}

func profileNames(profiles map[string]*ResponseProfile) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
