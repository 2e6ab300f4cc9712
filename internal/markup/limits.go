package markup

import "unicode/utf8"

// Telegram message length ceilings.
const (
	// TextMessageLimit is the maximum length of a plain sendMessage text.
	TextMessageLimit = 4096
	// ImageCaptionLimit is the maximum length of a sendPhoto caption.
	ImageCaptionLimit = 1024
)

// LimitType names which ceiling a verdict was checked against.
type LimitType string

const (
	LimitTextMessage  LimitType = "text_message"
	LimitImageCaption LimitType = "image_caption"
)

// Verdict is the result of checking transcoded text against a length limit.
type Verdict struct {
	Valid      bool      `json:"valid"`
	LimitType  LimitType `json:"limit_type"`
	Limit      int       `json:"limit"`
	Length     int       `json:"length"`
	ExceededBy int       `json:"exceeded_by"`
}

// Validate checks text against the caption limit when an image will accompany
// the send, and against the text-message limit otherwise. Pure function, no
// I/O; length counts characters, not bytes.
func Validate(text string, willAttachImage bool) Verdict {
	limit, limitType := TextMessageLimit, LimitTextMessage
	if willAttachImage {
		limit, limitType = ImageCaptionLimit, LimitImageCaption
	}

	length := utf8.RuneCountInString(text)
	exceeded := 0
	if length > limit {
		exceeded = length - limit
	}

	return Verdict{
		Valid:      exceeded == 0,
		LimitType:  limitType,
		Limit:      limit,
		Length:     length,
		ExceededBy: exceeded,
	}
}
