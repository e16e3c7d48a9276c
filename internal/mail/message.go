package mail

import "time"

// Message is one captured piece of mail. It is mutable only while the
// owning session's transaction is open; once handed to a store it is
// treated as immutable history.
type Message struct {
	ID         MessageID `json:"id"`
	From       Email     `json:"from"`
	To         []Email   `json:"to"`
	Data       string    `json:"data"`
	ReceivedAt time.Time `json:"received_at"`
}

// Involves reports whether addr appears as the sender or one of the
// recipients of m.
func (m *Message) Involves(addr Email) bool {
	if m.From == addr {
		return true
	}
	for _, to := range m.To {
		if to == addr {
			return true
		}
	}
	return false
}
