package markup

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// imgSrcRe captures the src attribute of every <img> element in document order.
var imgSrcRe = regexp.MustCompile(`(?i)<img[^>]+src="([^"]+)"`)

// RefKind discriminates the three shapes an image reference can take.
type RefKind int

const (
	// RefEmbedded is a data-URL image whose bytes are inlined in the HTML.
	RefEmbedded RefKind = iota
	// RefRemote is an absolute http/https URL Telegram can fetch itself.
	RefRemote
	// RefUnrecognized is anything else, typically a server-relative path.
	// Carried through for reporting but never sent outbound.
	RefUnrecognized
)

// String returns the kind name used in logs and preview responses.
func (k RefKind) String() string {
	switch k {
	case RefEmbedded:
		return "embedded"
	case RefRemote:
		return "remote"
	default:
		return "unrecognized"
	}
}

// ImageRef is one classified image reference from a note body.
type ImageRef struct {
	Kind RefKind
	Raw  string // original src attribute value
	URL  string // set for RefRemote
	MIME string // set for RefEmbedded
	Data []byte // set for RefEmbedded
}

// DecodeError reports an embedded image whose base64 payload could not be
// decoded. It is scoped to the single reference that failed.
type DecodeError struct {
	Src string
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("markup: decode embedded image %q: %v", truncateSrc(e.Src), e.Err)
}

// Unwrap returns the underlying decode failure.
func (e *DecodeError) Unwrap() error { return e.Err }

// ExtractImageSources returns the raw src value of every <img> element in
// document order, duplicates included. HTML without images yields an empty
// slice.
func ExtractImageSources(input string) []string {
	if input == "" {
		return nil
	}
	matches := imgSrcRe.FindAllStringSubmatch(input, -1)
	srcs := make([]string, 0, len(matches))
	for _, m := range matches {
		srcs = append(srcs, m[1])
	}
	return srcs
}

// ClassifyImageSource classifies one raw src value. Embedded data URLs are
// decoded to raw bytes plus MIME type; a payload that fails to decode returns
// a *DecodeError for that reference only.
func ClassifyImageSource(src string) (ImageRef, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		mime, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ";base64,")
		if !ok {
			return ImageRef{}, &DecodeError{Src: src, Err: fmt.Errorf("missing ;base64, marker")}
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return ImageRef{}, &DecodeError{Src: src, Err: err}
		}
		return ImageRef{Kind: RefEmbedded, Raw: src, MIME: mime, Data: data}, nil

	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return ImageRef{Kind: RefRemote, Raw: src, URL: src}, nil

	default:
		return ImageRef{Kind: RefUnrecognized, Raw: src}, nil
	}
}

// truncateSrc keeps error messages bounded: data URLs can be megabytes long.
func truncateSrc(src string) string {
	const max = 64
	if len(src) <= max {
		return src
	}
	return src[:max] + "..."
}
