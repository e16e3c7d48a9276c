// Package export writes captured messages out in mbox format so they
// can be opened in a regular mail client or diffed in CI.
package export

import (
	"fmt"
	"io"

	"github.com/emersion/go-mbox"

	"github.com/lawnchairsociety/DevSmtp/internal/mail"
)

// Mbox writes msgs to w as one mbox file. The message body is written
// verbatim as the client transmitted it during DATA; the envelope
// sender and receive time go into the mbox From_ separator line.
func Mbox(w io.Writer, msgs []*mail.Message) error {
	mw := mbox.NewWriter(w)
	defer mw.Close()

	for _, msg := range msgs {
		body, err := mw.CreateMessage(msg.From.String(), msg.ReceivedAt)
		if err != nil {
			return fmt.Errorf("create mbox entry %s: %w", msg.ID, err)
		}
		if _, err := io.WriteString(body, msg.Data); err != nil {
			return fmt.Errorf("write mbox entry %s: %w", msg.ID, err)
		}
	}
	return nil
}
