// Package protocol decodes the textual action protocol the assistant uses to
// hand a finished email plan back to the bot.
//
//	GOTOWE: subject|body|time expression   -> ScheduleEmail
//	ZAŁĄCZNIK: what file is needed          -> RequestAttachment
//	anything else                           -> PlainText
package protocol

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// ReadyMarker precedes a complete plan of exactly three pipe-separated fields.
	ReadyMarker = "GOTOWE:"
	// AttachmentMarker precedes a free-text request for a file.
	AttachmentMarker = "ZAŁĄCZNIK:"

	fieldSeparator = "|"
	readyFields    = 3
)

// Action is the decoded assistant response. The concrete type is one of
// ScheduleEmail, RequestAttachment or PlainText.
type Action interface {
	action()
}

// ScheduleEmail carries a finished plan.
type ScheduleEmail struct {
	Subject        string
	Body           string
	TimeExpression string
}

// RequestAttachment asks the user for a file.
type RequestAttachment struct {
	Info string
}

// PlainText is relayed to the user unchanged.
type PlainText struct {
	Message string
}

func (ScheduleEmail) action()     {}
func (RequestAttachment) action() {}
func (PlainText) action()         {}

// Parse decodes response. A ready marker with the wrong number of fields is
// not an error: the whole response comes back as PlainText, verbatim.
func Parse(response string) Action {
	text := strings.TrimSpace(norm.NFC.String(response))

	if rest, ok := strings.CutPrefix(text, ReadyMarker); ok {
		if plan, ok := parsePlan(rest); ok {
			return plan
		}
		return PlainText{Message: response}
	}

	if rest, ok := strings.CutPrefix(text, AttachmentMarker); ok {
		return RequestAttachment{Info: strings.TrimSpace(rest)}
	}

	return PlainText{Message: response}
}

// ParsePlan extracts a plan from text if it is a well-formed ready response.
func ParsePlan(text string) (ScheduleEmail, bool) {
	plan, ok := Parse(text).(ScheduleEmail)
	return plan, ok
}

func parsePlan(rest string) (ScheduleEmail, bool) {
	fields := strings.Split(strings.TrimSpace(rest), fieldSeparator)
	if len(fields) != readyFields {
		return ScheduleEmail{}, false
	}
	return ScheduleEmail{
		Subject:        strings.TrimSpace(fields[0]),
		Body:           strings.TrimSpace(fields[1]),
		TimeExpression: strings.TrimSpace(fields[2]),
	}, true
}

// Format renders a plan back into the ready-marker wire form.
func (p ScheduleEmail) Format() string {
	return ReadyMarker + " " + strings.Join([]string{p.Subject, p.Body, p.TimeExpression}, fieldSeparator)
}
