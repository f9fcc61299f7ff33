package assistant

import (
	"regexp"
	"strconv"
)

// ticketRefPattern matches a ticket reference in free text: the word
// "ticket", optionally followed by "id", optionally "#", then digits.
// Matches "ticket 42", "Ticket ID #7", "ticket#100".
var ticketRefPattern = regexp.MustCompile(`(?i)\bticket(?:\s*id)?\s*#?\s*(\d+)`)

// ExtractTicketID parses the first ticket reference from the message, if any.
func ExtractTicketID(message string) (int64, bool) {
	match := ticketRefPattern.FindStringSubmatch(message)
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
