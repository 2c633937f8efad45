package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"declaration-bot/internal/declaration"
	"declaration-bot/internal/domain"
	"declaration-bot/internal/validate"
)

// Attachment is a hosted file attached to an inbound message.
type Attachment struct {
	URL         string
	ContentType string
}

// Inbound is one chat message, decoupled from the transport so the
// interpreter can be driven directly in tests.
type Inbound struct {
	SenderID    string
	Text        string
	Attachments []Attachment
}

// Command vocabulary. Tokens are case sensitive.
var (
	helpAliases  = []string{"$help", "?", "$?"}
	infoAliases  = []string{"$info"}
	resetAliases = []string{"$reset"}
	sendAliases  = []string{"$send"}
	nameAliases  = []string{"$name"}
	emailAliases = []string{"$email"}
	boardAliases = []string{"$board"}
)

const helpText = `Hi! I help you build and send expense declarations.

These are the commands you can send me:
$reset: start over (your name, email and IBAN are kept)
$send: create the declaration document and send it
$name <name>: update your name
$email <email>: update your email address
$board <true|false>: whether the board also gets a copy
$info: show what I currently have about you
<description>;<amount>: add a line item
Attach an image or PDF to add a receipt.
iban <IBAN>: update your IBAN (any message ending in a valid IBAN works)`

const (
	replyStorageFailed = "Something went wrong saving that, please try again."
	replySendFailed    = "Could not send your declaration. Check $info and try again."
	replyUnrecognized  = "I don't understand that. Send $help for the command list."
)

// Interpreter turns one inbound message into one reply, dispatching to the
// matching record operation. It is stateless and safe for concurrent use
// across users; the store serializes the writes.
type Interpreter struct {
	svc          *declaration.Service
	selfID       string
	ibanShortcut bool
	log          *zap.Logger
}

// NewInterpreter wires the dispatcher. ibanShortcut enables the historical
// rule that any message whose tail is a valid IBAN updates the IBAN, no
// matter what the leading token says.
func NewInterpreter(svc *declaration.Service, selfID string, ibanShortcut bool, log *zap.Logger) *Interpreter {
	return &Interpreter{svc: svc, selfID: selfID, ibanShortcut: ibanShortcut, log: log}
}

// Handle processes one message and returns the reply text. The empty
// string means no reply: the message came from the bot itself.
func (in *Interpreter) Handle(ctx context.Context, msg Inbound) string {
	if msg.SenderID == in.selfID {
		return ""
	}
	uid := domain.UserID(msg.SenderID)
	cmd, arg := splitCommand(msg.Text)

	// The IBAN shortcut outranks every command token: a tail that passes
	// the checksum is an IBAN update even after "$name".
	if in.ibanShortcut && validate.IBAN(arg) {
		if err := in.svc.UpdateIBAN(uid, arg); err != nil {
			return "Failed to update your IBAN..."
		}
		return "Updated your IBAN number!"
	}

	switch {
	case isCommand(cmd, helpAliases):
		return helpText

	case isCommand(cmd, infoAliases):
		return in.svc.Overview(uid)

	case isCommand(cmd, resetAliases):
		if err := in.svc.Reset(uid); err != nil {
			return replyStorageFailed
		}
		return "Starting over! Your name, email and IBAN are kept."

	case isCommand(cmd, sendAliases):
		if err := in.svc.Submit(ctx, uid); err != nil {
			in.log.Info("submit rejected", zap.String("user", msg.SenderID), zap.Error(err))
			return replySendFailed
		}
		return "Declaration sent! I cleared your items and attachments."

	case isCommand(cmd, nameAliases):
		if err := in.svc.UpdateName(uid, arg); err != nil {
			return replyStorageFailed
		}
		return fmt.Sprintf("Updated your name to %s", arg)

	case isCommand(cmd, emailAliases):
		if !validate.Email(arg) {
			return "Not a valid email!"
		}
		if err := in.svc.UpdateEmail(uid, arg); err != nil {
			return replyStorageFailed
		}
		return fmt.Sprintf("Updated your email to %s", arg)

	case isCommand(cmd, boardAliases):
		flag, ok := parseBool(arg)
		if !ok {
			return "Wrong input, send $board true or $board false"
		}
		if err := in.svc.UpdateSendToBoard(uid, flag); err != nil {
			return replyStorageFailed
		}
		return fmt.Sprintf("Board copy set to %v", flag)

	case len(msg.Attachments) > 0:
		att := msg.Attachments[0]
		if !declaration.ValidAttachmentType(att.ContentType) {
			return "Not a valid image or pdf file"
		}
		if err := in.svc.AddAttachment(uid, att.URL, att.ContentType); err != nil {
			return replyStorageFailed
		}
		return "Attachment added."

	default:
		item, err := in.svc.AddLineItem(uid, msg.Text)
		if err != nil {
			return replyUnrecognized
		}
		return fmt.Sprintf("Added %q for %s.", item.Description, item.Amount.StringFixed(2))
	}
}

// splitCommand cuts the text at the first space: token, then the rest
// trimmed.
func splitCommand(text string) (cmd, arg string) {
	cmd, rest, _ := strings.Cut(text, " ")
	return cmd, strings.TrimSpace(rest)
}

func isCommand(cmd string, aliases []string) bool {
	for _, a := range aliases {
		if cmd == a {
			return true
		}
	}
	return false
}

// parseBool accepts only case-insensitive "true"/"false".
func parseBool(s string) (value, ok bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
