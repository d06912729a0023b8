package discord

import (
	"strings"
)

// pastedMessage is one SMS pasted into the channel plus the metadata lines under it.
type pastedMessage struct {
	Sender   string
	Body     string
	Category string
	Notes    string
}

var metadataPrefixes = []string{"s:", "sender:", "c:", "category:", "r:", "reason:"}

func isMetadata(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range metadataPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// parseMetadata reads the s:/c:/r: lines that follow a message. Long forms
// (Sender:, Category:, Reason:) are accepted too.
func parseMetadata(lines []string) (sender, category, reason string) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "s", "sender":
			sender = value
		case "c", "category":
			category = value
		case "r", "reason":
			reason = value
		}
	}
	return sender, category, reason
}

// splitMessages breaks a post into individual messages. A message ends at a blank
// line, or when a body line follows its metadata lines. Metadata written before any
// body line belongs to the body that follows.
func splitMessages(content string) []pastedMessage {
	var (
		out      []pastedMessage
		body     []string
		metadata []string
		trailing bool // metadata seen after the body started
	)
	flush := func() {
		if len(body) > 0 {
			sender, category, reason := parseMetadata(metadata)
			out = append(out, pastedMessage{
				Sender:   sender,
				Body:     strings.Join(body, " "),
				Category: category,
				Notes:    reason,
			})
		}
		body, metadata, trailing = nil, nil, false
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case isMetadata(line):
			metadata = append(metadata, line)
			trailing = len(body) > 0
		default:
			if trailing {
				flush()
			}
			body = append(body, line)
		}
	}
	flush()
	return out
}
