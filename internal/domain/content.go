package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContentBundle is the per-destination payload for one message. Immutable
// once handed to the orchestrator.
type ContentBundle struct {
	Facebook  CaptionContent `json:"facebook"`
	Instagram CaptionContent `json:"instagram"`
	LinkedIn  CaptionContent `json:"linkedin"`
	WhatsApp  CaptionContent `json:"whatsapp"`
	TikTok    TikTokContent  `json:"tiktok"`
}

type CaptionContent struct {
	Caption string `json:"caption"`
}

type TikTokContent struct {
	Title    string   `json:"title"`
	Hashtags []string `json:"hashtags,omitempty"`
}

// Caption returns the destination-specific caption for a platform, without
// applying defaults. TikTok uses its title as caption.
func (b ContentBundle) Caption(platform string) string {
	switch platform {
	case PlatformFacebook:
		return b.Facebook.Caption
	case PlatformInstagram:
		return b.Instagram.Caption
	case PlatformLinkedIn:
		return b.LinkedIn.Caption
	case PlatformWhatsApp:
		return b.WhatsApp.Caption
	case PlatformTikTok:
		return b.TikTok.Title
	default:
		return ""
	}
}

// ParseContentBundle validates raw message content against the bundle
// schema. Shape problems come back as ErrInvalidInput with a reason; the
// structure is never inferred from loosely parsed JSON.
func ParseContentBundle(raw []byte) (ContentBundle, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ContentBundle{}, fmt.Errorf("%w: content is not a JSON object", ErrInvalidInput)
	}

	missing := make([]string, 0, len(Platforms))
	for _, platform := range Platforms {
		if _, ok := probe[platform]; !ok {
			missing = append(missing, platform)
		}
	}
	if len(missing) > 0 {
		return ContentBundle{}, fmt.Errorf("%w: content missing sections: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}

	var bundle ContentBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return ContentBundle{}, fmt.Errorf("%w: malformed content section: %v", ErrInvalidInput, err)
	}
	return bundle, nil
}
