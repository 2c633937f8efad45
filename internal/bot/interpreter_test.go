package bot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"declaration-bot/internal/declaration"
	"declaration-bot/internal/domain"
	"declaration-bot/internal/storage"
)

const (
	botID     = "1000"
	senderID  = "42"
	validIBAN = "DE89370400440532013000"
)

type stubGateway struct {
	err   error
	calls int
}

func (g *stubGateway) Submit(context.Context, domain.Record, []string, bool) error {
	g.calls++
	return g.err
}

type fixture struct {
	interp *Interpreter
	svc    *declaration.Service
	gw     *stubGateway
}

func newFixture(t *testing.T, ibanShortcut bool) *fixture {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "declarations.json"), zap.NewNop())
	require.NoError(t, err)
	gw := &stubGateway{}
	svc := declaration.NewService(store, gw, zap.NewNop())
	return &fixture{
		interp: NewInterpreter(svc, botID, ibanShortcut, zap.NewNop()),
		svc:    svc,
		gw:     gw,
	}
}

func (f *fixture) send(text string) string {
	return f.interp.Handle(context.Background(), Inbound{SenderID: senderID, Text: text})
}

func TestOwnMessagesAreIgnored(t *testing.T) {
	f := newFixture(t, true)
	reply := f.interp.Handle(context.Background(), Inbound{SenderID: botID, Text: "$name Eve"})
	assert.Empty(t, reply)
	assert.Empty(t, f.svc.Record(botID).Name)
}

func TestNameCommand(t *testing.T) {
	f := newFixture(t, true)

	reply := f.send("$name Alice")
	assert.Contains(t, reply, "Alice")

	rec := f.svc.Record(senderID)
	assert.Equal(t, "Alice", rec.Name)
	assert.Empty(t, rec.Email)
	assert.Empty(t, rec.IBAN)
	assert.Empty(t, rec.LineItems)
	assert.True(t, rec.SendToBoard)
}

func TestLineItemFallback(t *testing.T) {
	f := newFixture(t, true)

	reply := f.send("lunch with client;15.5")
	assert.Contains(t, reply, "lunch with client")
	assert.Contains(t, reply, "15.50")

	rec := f.svc.Record(senderID)
	require.Len(t, rec.LineItems, 1)
	assert.Equal(t, "lunch with client", rec.LineItems[0].Description)
	assert.Equal(t, "15.50", rec.LineItems[0].Amount.StringFixed(2))
}

func TestIBANTailOutranksCommandToken(t *testing.T) {
	f := newFixture(t, true)

	reply := f.send("$name " + validIBAN)
	assert.Equal(t, "Updated your IBAN number!", reply)

	rec := f.svc.Record(senderID)
	assert.Equal(t, validIBAN, rec.IBAN)
	assert.Empty(t, rec.Name, "the $name token must lose to the IBAN tail")
}

func TestIBANShortcutDisabled(t *testing.T) {
	f := newFixture(t, false)

	f.send("$name " + validIBAN)

	rec := f.svc.Record(senderID)
	assert.Equal(t, validIBAN, rec.Name)
	assert.Empty(t, rec.IBAN)
}

func TestBareIBANMessage(t *testing.T) {
	f := newFixture(t, true)

	reply := f.send("iban " + validIBAN)
	assert.Equal(t, "Updated your IBAN number!", reply)
	assert.Equal(t, validIBAN, f.svc.Record(senderID).IBAN)
}

func TestBareIBANTokenFallsThrough(t *testing.T) {
	f := newFixture(t, true)

	// a lone IBAN lands in the command slot with an empty tail, so the
	// shortcut never fires and the message reads as a failed line item
	reply := f.send(validIBAN)
	assert.Equal(t, replyUnrecognized, reply)
	assert.Empty(t, f.svc.Record(senderID).IBAN)
}

func TestEmailCommand(t *testing.T) {
	f := newFixture(t, true)

	reply := f.send("$email not-an-email")
	assert.Equal(t, "Not a valid email!", reply)
	assert.Empty(t, f.svc.Record(senderID).Email)

	reply = f.send("$email alice@example.com")
	assert.Contains(t, reply, "alice@example.com")
	assert.Equal(t, "alice@example.com", f.svc.Record(senderID).Email)
}

func TestBoardCommand(t *testing.T) {
	f := newFixture(t, true)

	reply := f.send("$board maybe")
	assert.Contains(t, reply, "Wrong input")
	assert.True(t, f.svc.Record(senderID).SendToBoard, "rejected input must not mutate")

	f.send("$board FALSE")
	assert.False(t, f.svc.Record(senderID).SendToBoard)

	f.send("$board true")
	assert.True(t, f.svc.Record(senderID).SendToBoard)
}

func TestHelpAliases(t *testing.T) {
	f := newFixture(t, true)
	for _, alias := range []string{"$help", "?", "$?"} {
		assert.Equal(t, helpText, f.send(alias), "alias %s", alias)
	}
}

func TestInfoCommand(t *testing.T) {
	f := newFixture(t, true)
	f.send("$name Alice")

	reply := f.send("$info")
	assert.Contains(t, reply, "Name: Alice")
	assert.Contains(t, reply, "Items: none")
}

func TestAttachments(t *testing.T) {
	f := newFixture(t, true)

	reply := f.interp.Handle(context.Background(), Inbound{
		SenderID:    senderID,
		Attachments: []Attachment{{URL: "https://files.example.com/receipt.pdf", ContentType: "application/pdf"}},
	})
	assert.Equal(t, "Attachment added.", reply)
	assert.Equal(t, []string{"https://files.example.com/receipt.pdf"}, f.svc.Record(senderID).Attachments)

	reply = f.interp.Handle(context.Background(), Inbound{
		SenderID:    senderID,
		Attachments: []Attachment{{URL: "https://files.example.com/notes.txt", ContentType: "text/plain"}},
	})
	assert.Equal(t, "Not a valid image or pdf file", reply)
	assert.Len(t, f.svc.Record(senderID).Attachments, 1)
}

func TestUnrecognizedInput(t *testing.T) {
	f := newFixture(t, true)

	reply := f.send("hello there")
	assert.Equal(t, replyUnrecognized, reply)
	assert.Empty(t, f.svc.Record(senderID).LineItems)
}

func TestCommandsAreCaseSensitive(t *testing.T) {
	f := newFixture(t, true)
	assert.Equal(t, replyUnrecognized, f.send("$NAME Alice"))
	assert.Empty(t, f.svc.Record(senderID).Name)
}

func TestResetCommand(t *testing.T) {
	f := newFixture(t, true)
	f.send("$name Alice")
	f.send("lunch;15.5")

	reply := f.send("$reset")
	assert.Contains(t, reply, "Starting over")

	rec := f.svc.Record(senderID)
	assert.Equal(t, "Alice", rec.Name)
	assert.Empty(t, rec.LineItems)
}

func TestSendCommand(t *testing.T) {
	f := newFixture(t, true)

	// incomplete record and gateway error read the same to the user
	reply := f.send("$send")
	assert.Equal(t, replySendFailed, reply)
	assert.Zero(t, f.gw.calls)

	f.send("$name Alice")
	f.send("$email alice@example.com")
	f.send("iban " + validIBAN) // tail after the token is the IBAN
	f.send("lunch with client;15.5")
	f.interp.Handle(context.Background(), Inbound{
		SenderID:    senderID,
		Attachments: []Attachment{{URL: "https://files.example.com/receipt.pdf", ContentType: "image/png"}},
	})

	f.gw.err = errors.New("backend down")
	reply = f.send("$send")
	assert.Equal(t, replySendFailed, reply)
	assert.Len(t, f.svc.Record(senderID).LineItems, 1, "failed send keeps the claim")

	f.gw.err = nil
	reply = f.send("$send")
	assert.Contains(t, reply, "sent")
	assert.Empty(t, f.svc.Record(senderID).LineItems)
	assert.Empty(t, f.svc.Record(senderID).Attachments)
}
