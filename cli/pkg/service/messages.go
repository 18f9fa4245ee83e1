package service

import (
	"fmt"
	"unicode/utf8"

	"github.com/zfogg/chirp/cli/pkg/api"
	clierrors "github.com/zfogg/chirp/cli/pkg/errors"
	"github.com/zfogg/chirp/cli/pkg/formatter"
	"github.com/zfogg/chirp/cli/pkg/output"
)

// MaxMessageLength mirrors the server's direct message limit
const MaxMessageLength = 1000

type MessageService struct{}

func NewMessageService() *MessageService {
	return &MessageService{}
}

// Send sends a direct message to ref (an id or @username)
func (s *MessageService) Send(ref, text string, files []string) error {
	if n := utf8.RuneCountInString(text); n > MaxMessageLength {
		return clierrors.ContentTooLongError("Message", n, MaxMessageLength)
	}
	if text == "" && len(files) == 0 {
		return clierrors.ValidationError("text", "a message needs text or an attachment")
	}
	if err := checkFiles(files); err != nil {
		return err
	}
	if _, err := RequireSession(); err != nil {
		return err
	}
	user, err := api.ResolveUser(ref)
	if err != nil {
		return err
	}
	msg, err := api.SendMessage(user.ID, text, files)
	if err != nil {
		return err
	}
	return show("message", msg, func() { formatter.PrintSuccess("Sent to %s.", user.Handle()) })
}

// Conversations lists everyone the caller has talked to
func (s *MessageService) Conversations() error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	convs, err := api.GetConversations()
	if err != nil {
		return err
	}
	return show("conversations", convs, func() {
		if len(convs) == 0 {
			output.PrintInfo("No conversations yet.")
			return
		}
		rows := make([][]string, 0, len(convs))
		for _, c := range convs {
			last := ""
			when := ""
			if c.LastMessage != nil {
				last = preview(c.LastMessage.Text, 40)
				when = Ago(c.LastMessage.CreatedAt)
			}
			rows = append(rows, []string{c.User.Handle(), fmt.Sprint(c.UnreadCount), when, last})
		}
		printTable([]string{"With", "Unread", "When", "Last message"}, rows)
	})
}

// Thread prints one conversation, oldest message first, and marks the
// received messages on the page read.
func (s *MessageService) Thread(ref string, page int, markRead bool) error {
	creds, err := RequireSession()
	if err != nil {
		return err
	}
	user, err := api.ResolveUser(ref)
	if err != nil {
		return err
	}
	msgs, err := api.GetConversation(user.ID, pageOpts(page))
	if err != nil {
		return err
	}

	if markRead {
		for _, m := range msgs.Messages {
			if m.RecipientID == creds.UserID && !m.Read {
				if err := api.MarkMessageRead(m.ID); err != nil {
					formatter.PrintWarning("could not mark %s read: %v", m.ID, err)
				}
			}
		}
	}

	return show("messages", msgs, func() {
		for i := len(msgs.Messages) - 1; i >= 0; i-- {
			printMessage(&msgs.Messages[i], creds.UserID)
		}
		if msgs.Pagination.HasNextPage {
			dim.Printf("older: --page %d\n", msgs.Pagination.CurrentPage+1)
		}
	})
}

// Search finds messages containing q
func (s *MessageService) Search(q string) error {
	creds, err := RequireSession()
	if err != nil {
		return err
	}
	msgs, err := api.SearchMessages(q)
	if err != nil {
		return err
	}
	return show("messages", msgs, func() {
		if len(msgs) == 0 {
			output.PrintInfo("No messages match %q.", q)
			return
		}
		for i := range msgs {
			printMessage(&msgs[i], creds.UserID)
		}
	})
}

// Delete deletes one of the caller's messages
func (s *MessageService) Delete(messageID string) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	if err := api.DeleteMessage(messageID); err != nil {
		return err
	}
	formatter.PrintSuccess("Message deleted.")
	return nil
}

// Unread prints the unread message and notification counts
func (s *MessageService) Unread() error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	messages, err := api.GetUnreadMessageCount()
	if err != nil {
		return err
	}
	notifications, err := api.GetUnreadNotificationCount()
	if err != nil {
		return err
	}
	counts := map[string]interface{}{"messages": messages, "notifications": notifications}
	return show("unread", counts, func() { _ = output.PrintRecord("Unread", counts) })
}

func printMessage(m *api.Message, selfID string) {
	who := m.Sender.Handle()
	if m.SenderID == selfID {
		who = "you"
	}
	fmt.Printf("%s %s\n", handle.Sprint(who), dim.Sprint(Ago(m.CreatedAt)))
	if m.Text != "" {
		fmt.Printf("  %s\n", m.Text)
	}
	for _, media := range m.Media {
		dim.Printf("  [%s] %s\n", media.Type, media.URL)
	}
}

func preview(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
