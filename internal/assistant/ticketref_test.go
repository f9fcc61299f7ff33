package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTicketID(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    int64
		found   bool
	}{
		{"plain reference", "what is the status of ticket 42?", 42, true},
		{"id with hash", "Ticket ID #7 please", 7, true},
		{"no space before hash", "look at ticket#100", 100, true},
		{"uppercase", "TICKET 13 is broken", 13, true},
		{"first of several", "ticket 1 and ticket 2", 1, true},
		{"no reference", "my printer is on fire", 0, false},
		{"word without number", "I opened a ticket yesterday", 0, false},
		{"number without keyword", "error code 500", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, found := ExtractTicketID(tt.message)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, id)
		})
	}
}
