package command

import (
	"strings"
	"testing"

	"github.com/lawnchairsociety/DevSmtp/internal/store"
)

func TestVrfyValidatesThenDeclines(t *testing.T) {
	d := NewDispatcher(NewSession(), store.NewMemoryStore())

	// Well-formed mailbox: declined, not a syntax error.
	res := run(t, d, Vrfy{Address: "someone@example.com"})
	expectFailure(t, res, VerbVrfy, KindNotImplemented)

	// Malformed mailbox: the syntax failure wins.
	res = run(t, d, Vrfy{Address: "not a mailbox"})
	expectFailure(t, res, VerbVrfy, KindSyntax)
}

func TestExpnValidatesThenDeclines(t *testing.T) {
	d := NewDispatcher(NewSession(), store.NewMemoryStore())

	res := run(t, d, Expn{List: "staff"})
	expectFailure(t, res, VerbExpn, KindNotImplemented)

	res = run(t, d, Expn{List: ""})
	expectFailure(t, res, VerbExpn, KindSyntax)
}

func TestHelpListsVerbs(t *testing.T) {
	d := NewDispatcher(NewSession(), store.NewMemoryStore())

	res := run(t, d, Help{})
	if !res.Succeeded() {
		t.Fatalf("HELP failed: %v", res.Err)
	}
	for _, verb := range []string{"HELO", "MAIL", "RCPT", "DATA", "QUIT"} {
		if !strings.Contains(res.Text, verb) {
			t.Errorf("HELP text %q missing %s", res.Text, verb)
		}
	}
}

func TestTurnDeclines(t *testing.T) {
	d := NewDispatcher(NewSession(), store.NewMemoryStore())

	res := run(t, d, Turn{})
	expectFailure(t, res, VerbTurn, KindNotImplemented)
}

func TestSendFamilyValidatesThenDeclines(t *testing.T) {
	d := NewDispatcher(NewSession(), store.NewMemoryStore())

	tests := []struct {
		verb Verb
		good Command
		bad  Command
	}{
		{VerbSend, Send{From: "a@example.com"}, Send{From: "junk"}},
		{VerbSoml, Soml{From: "a@example.com"}, Soml{From: "junk"}},
		{VerbSaml, Saml{From: "a@example.com"}, Saml{From: "junk"}},
	}
	for _, tt := range tests {
		res := run(t, d, tt.good)
		expectFailure(t, res, tt.verb, KindNotImplemented)

		res = run(t, d, tt.bad)
		expectFailure(t, res, tt.verb, KindSyntax)
	}
}
