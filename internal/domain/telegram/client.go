package telegram

import "gopkg.in/telebot.v3"

// Client is the outbound notifier contract. Any non-nil error from
// SendMessage is a delivery failure; the scheduler retries on its next tick
// and records nothing in the ledger.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
