package command

import (
	"context"
	"fmt"

	"github.com/lawnchairsociety/DevSmtp/internal/metrics"
	"github.com/lawnchairsociety/DevSmtp/internal/store"
)

// Dispatcher routes decoded commands to their handlers. The verb table
// is built once at construction; no verb is ever re-bound during a
// session's lifetime.
type Dispatcher struct {
	handlers map[Verb]Handler
}

// NewDispatcher builds the static verb table for one session.
func NewDispatcher(sess *Session, st store.Store) *Dispatcher {
	return &Dispatcher{
		handlers: map[Verb]Handler{
			VerbHelo: NewHeloHandler(sess),
			VerbMail: NewMailHandler(sess),
			VerbRcpt: NewRcptHandler(sess),
			VerbData: NewDataHandler(sess, st),
			VerbRset: NewRsetHandler(sess),
			VerbNoop: NewNoopHandler(),
			VerbQuit: NewQuitHandler(),
			VerbVrfy: NewVrfyHandler(),
			VerbExpn: NewExpnHandler(),
			VerbHelp: NewHelpHandler(),
			VerbTurn: NewTurnHandler(),
			VerbSend: NewSendHandler(),
			VerbSoml: NewSomlHandler(),
			VerbSaml: NewSamlHandler(),
		},
	}
}

// Dispatch executes cmd through its handler. A verb without a handler
// resolves to a KindUnrecognized envelope; cancellation propagates
// through the error return unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	verb := cmd.Verb()

	h, known := d.handlers[verb]
	if !known {
		res := fail(verb, KindUnrecognized, fmt.Sprintf("command %q not recognized", verb), nil)
		metrics.CommandsTotal.WithLabelValues(string(verb), res.Err.Kind.String()).Inc()
		return res, nil
	}

	res, err := h.Execute(ctx, cmd)
	switch {
	case err != nil:
		metrics.CommandsTotal.WithLabelValues(string(verb), "cancelled").Inc()
	case res.Err != nil:
		metrics.CommandsTotal.WithLabelValues(string(verb), res.Err.Kind.String()).Inc()
	default:
		metrics.CommandsTotal.WithLabelValues(string(verb), "ok").Inc()
		if res.Stored != nil {
			metrics.MessagesStored.Inc()
		}
	}
	return res, err
}
