package locale

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Labels holds the UI text of one language bundle.
type Labels struct {
	Tag              string `toml:"-" json:"tag"`
	AppTitle         string `toml:"app_title" json:"appTitle"`
	CharacterLabel   string `toml:"character_label" json:"characterLabel"`
	NameLabel        string `toml:"name_label" json:"nameLabel"`
	StoryLabel       string `toml:"story_label" json:"storyLabel"`
	MessageLabel     string `toml:"message_label" json:"messageLabel"`
	MessageHint      string `toml:"message_hint" json:"messageHint"`
	SendLabel        string `toml:"send_label" json:"sendLabel"`
	ResetLabel       string `toml:"reset_label" json:"resetLabel"`
	ExportLabel      string `toml:"export_label" json:"exportLabel"`
	EmptyMessageHint string `toml:"empty_message_hint" json:"emptyMessageHint"`
}

// Default returns the built-in English bundle.
func Default() Labels {
	return Labels{
		Tag:              "en",
		AppTitle:         "Escribito",
		CharacterLabel:   "Character",
		NameLabel:        "name",
		StoryLabel:       "story",
		MessageLabel:     "Message",
		MessageHint:      "Type your message here",
		SendLabel:        "Send",
		ResetLabel:       "Reset",
		ExportLabel:      "Export",
		EmptyMessageHint: "Send an empty message to let the character speak freely.",
	}
}

// Catalog resolves language tags to label bundles.
type Catalog struct {
	defaultTag string
	bundles    map[string]Labels
}

// Load reads every *.toml bundle under dir, keyed by file stem. A missing
// or empty dir yields a catalog with only the built-in defaults. Bundle
// fields left out of a file keep their default value.
func Load(dir, defaultTag string) (*Catalog, error) {
	if defaultTag == "" {
		defaultTag = "en"
	}

	catalog := &Catalog{
		defaultTag: defaultTag,
		bundles:    map[string]Labels{"en": Default()},
	}

	if dir == "" {
		return catalog, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, fmt.Errorf("scan locale directory: %w", err)
	}

	for _, path := range paths {
		tag := strings.TrimSuffix(filepath.Base(path), ".toml")

		labels := Default()
		if _, err := toml.DecodeFile(path, &labels); err != nil {
			return nil, fmt.Errorf("decode locale bundle %s: %w", path, err)
		}
		labels.Tag = tag
		catalog.bundles[tag] = labels
	}

	if _, ok := catalog.bundles[defaultTag]; !ok {
		return nil, fmt.Errorf("default locale %q not found", defaultTag)
	}

	return catalog, nil
}

// Get returns the bundle for the tag, falling back to the default bundle
// for unknown tags.
func (c *Catalog) Get(tag string) Labels {
	if labels, ok := c.bundles[tag]; ok {
		return labels
	}
	return c.bundles[c.defaultTag]
}

// Tags lists the available language tags.
func (c *Catalog) Tags() []string {
	tags := make([]string, 0, len(c.bundles))
	for tag := range c.bundles {
		tags = append(tags, tag)
	}
	return tags
}

// DefaultTag returns the configured fallback tag.
func (c *Catalog) DefaultTag() string {
	return c.defaultTag
}
