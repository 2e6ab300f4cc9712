package publish

import (
	"errors"

	"github.com/telepress/telepress/internal/markup"
)

// ImageSummary counts the image references found in a document by class.
// Invalid counts embedded references whose payload failed to decode.
type ImageSummary struct {
	Embedded     int `json:"embedded"`
	Remote       int `json:"remote"`
	Unrecognized int `json:"unrecognized"`
	Invalid      int `json:"invalid"`
}

// Preview is a dry run of the dispatch pipeline: the exact text that would
// be sent, what the images classify as, and the length verdict against the
// limit the send would face.
type Preview struct {
	Text    string         `json:"text"`
	Images  ImageSummary   `json:"images"`
	Verdict markup.Verdict `json:"verdict"`
}

// BuildPreview runs transcoding and image classification without touching
// the network.
func BuildPreview(title, bodyHTML string) Preview {
	text := markup.Transcode(bodyHTML)
	body := composeBody(title, text)

	var summary ImageSummary
	for _, src := range markup.ExtractImageSources(bodyHTML) {
		ref, err := markup.ClassifyImageSource(src)
		if err != nil {
			var decErr *markup.DecodeError
			if errors.As(err, &decErr) {
				summary.Invalid++
			}
			continue
		}
		switch ref.Kind {
		case markup.RefEmbedded:
			summary.Embedded++
		case markup.RefRemote:
			summary.Remote++
		case markup.RefUnrecognized:
			summary.Unrecognized++
		}
	}

	willAttach := summary.Embedded+summary.Remote > 0
	return Preview{
		Text:    body,
		Images:  summary,
		Verdict: markup.Validate(body, willAttach),
	}
}
