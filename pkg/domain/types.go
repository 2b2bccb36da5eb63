package domain

import "time"

type ContentMode string

const (
	ModeGeneral       ContentMode = "general"
	ModeTravel        ContentMode = "travel"
	ModeMythStorytell ContentMode = "myth-storytelling"
	ModeTTS           ContentMode = "tts"
	ModeMarketing     ContentMode = "marketing"
	ModeSales         ContentMode = "sales"
	ModeLifestyle     ContentMode = "lifestyle"
)

type ContentStyle string

const (
	StyleGeneral        ContentStyle = "general"
	StyleEmotional      ContentStyle = "emotional"
	StyleCinematic      ContentStyle = "cinematic"
	StyleConversational ContentStyle = "conversational"
	StyleEducational    ContentStyle = "educational"
	StyleMystery        ContentStyle = "mystery"
	StyleHumor          ContentStyle = "humor"
	StyleMotivational   ContentStyle = "motivational"
)

type ContentLength string

const (
	LengthShort  ContentLength = "short"
	LengthMedium ContentLength = "medium"
	LengthLong   ContentLength = "long"
)

// GenerationRequest carries the user's topic and generation options.
// It is built per submission and never persisted on its own.
type GenerationRequest struct {
	Topic  string        `json:"topic"`
	Mode   ContentMode   `json:"mode"`
	Style  ContentStyle  `json:"style"`
	Length ContentLength `json:"length"`
}

// GeneratedContent is the model's structured reply. Field names match the
// JSON contract the model is instructed to produce. Captions is expected to
// hold 3 entries but the shape is not enforced beyond JSON well-formedness.
type GeneratedContent struct {
	Content     string   `json:"content"`
	Captions    []string `json:"captions"`
	Hashtags    []string `json:"hashtags"`
	CTA         string   `json:"cta,omitempty"`
	AltVersion  string   `json:"alt_version,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	VisualGuide string   `json:"visual_guide,omitempty"`
	ToneUsed    string   `json:"tone_used"`
}

// ContentItem is a persisted generation. ID and CreatedAt are assigned by
// the store; UserID is the identity that saved it.
type ContentItem struct {
	ID        int64            `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Topic     string           `json:"topic"`
	Data      GeneratedContent `json:"data"`
	UserID    string           `json:"user_id"`
}

// UserProfile is the per-user row keyed by the identity's user id. APIKey
// holds the user's model API key as ciphertext.
type UserProfile struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
	Avatar   string `json:"avatar"`
	APIKey   string `json:"apikey"`
}

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusDisabled UserStatus = "disabled"
)

// User is a credentials row owned by the identity layer. Metadata mirrors
// what sign-up collects and is what profile sync seeds new profiles from.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Fullname     string     `json:"fullname"`
	Avatar       string     `json:"avatar,omitempty"`
	APIKey       string     `json:"-"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Identity is the authenticated principal handed to profile sync: the user
// id plus the optional metadata claims captured at sign-up.
type Identity struct {
	ID       string
	Email    string
	Fullname string
	Avatar   string
	APIKey   string
}
