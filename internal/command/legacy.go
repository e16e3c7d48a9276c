package command

import (
	"context"

	"github.com/lawnchairsociety/DevSmtp/internal/mail"
)

// The verbs below are legacy or optional. Each still validates its
// arguments against the current session, so a malformed address earns a
// syntax failure rather than a blanket not-implemented, but none of
// them performs a mail action on this server.

// VrfyHandler validates the mailbox argument and reports that
// verification is not offered.
type VrfyHandler struct{}

func NewVrfyHandler() *VrfyHandler {
	return &VrfyHandler{}
}

func (h *VrfyHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	v := cmd.(Vrfy)

	if _, err := mail.ParseEmail(v.Address); err != nil {
		return fail(VerbVrfy, KindSyntax, "invalid mailbox", err), nil
	}
	return fail(VerbVrfy, KindNotImplemented, "VRFY not offered", nil), nil
}

// ExpnHandler rejects list expansion.
type ExpnHandler struct{}

func NewExpnHandler() *ExpnHandler {
	return &ExpnHandler{}
}

func (h *ExpnHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	e := cmd.(Expn)

	if e.List == "" {
		return fail(VerbExpn, KindSyntax, "missing list name", nil), nil
	}
	return fail(VerbExpn, KindNotImplemented, "EXPN not offered", nil), nil
}

// HelpHandler lists the supported verbs. The transport renders a
// successful HELP with the 214 help code.
type HelpHandler struct{}

func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

func (h *HelpHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res := ok(VerbHelp)
	res.Text = "Supported: HELO MAIL RCPT DATA RSET NOOP QUIT HELP"
	return res, nil
}

// TurnHandler rejects role reversal unconditionally.
type TurnHandler struct{}

func NewTurnHandler() *TurnHandler {
	return &TurnHandler{}
}

func (h *TurnHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return fail(VerbTurn, KindNotImplemented, "TURN not offered", nil), nil
}

// sendFamilyHandler covers SEND, SOML and SAML, which all carry a
// reverse-path like MAIL. The address is validated, the verb declined.
type sendFamilyHandler struct {
	verb Verb
}

func NewSendHandler() Handler { return &sendFamilyHandler{verb: VerbSend} }
func NewSomlHandler() Handler { return &sendFamilyHandler{verb: VerbSoml} }
func NewSamlHandler() Handler { return &sendFamilyHandler{verb: VerbSaml} }

func (h *sendFamilyHandler) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var from string
	switch c := cmd.(type) {
	case Send:
		from = c.From
	case Soml:
		from = c.From
	case Saml:
		from = c.From
	}

	if _, err := mail.ParseEmail(from); err != nil {
		return fail(h.verb, KindSyntax, "invalid sender address", err), nil
	}
	return fail(h.verb, KindNotImplemented, "terminal delivery not offered", nil), nil
}
