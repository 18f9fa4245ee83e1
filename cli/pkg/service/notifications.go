package service

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zfogg/chirp/cli/pkg/api"
	"github.com/zfogg/chirp/cli/pkg/config"
	"github.com/zfogg/chirp/cli/pkg/formatter"
	"github.com/zfogg/chirp/cli/pkg/logger"
	"github.com/zfogg/chirp/cli/pkg/output"
	"github.com/zfogg/chirp/cli/pkg/websocket"
)

type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// List prints the latest notifications
func (s *NotificationService) List(unreadOnly bool) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	all, err := api.GetNotifications()
	if err != nil {
		return err
	}
	list := all
	if unreadOnly {
		list = list[:0:0]
		for _, n := range all {
			if !n.Read {
				list = append(list, n)
			}
		}
	}
	return show("notifications", list, func() {
		if len(list) == 0 {
			output.PrintInfo("Nothing new.")
			return
		}
		for i := range list {
			printNotification(&list[i])
		}
	})
}

// MarkRead marks one notification read, or all of them when id is empty
func (s *NotificationService) MarkRead(id string) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	if id != "" {
		if err := api.MarkNotificationRead(id); err != nil {
			return err
		}
		formatter.PrintSuccess("Notification marked read.")
		return nil
	}
	n, err := api.MarkAllNotificationsRead()
	if err != nil {
		return err
	}
	formatter.PrintSuccess("Marked %d notifications read.", n)
	return nil
}

// Watch streams notifications and direct messages over the realtime
// socket until interrupted.
func (s *NotificationService) Watch() error {
	creds, err := RequireSession()
	if err != nil {
		return err
	}
	cfg, err := websocket.ConfigForAPI(config.GetString("api.base_url"))
	if err != nil {
		return err
	}

	ws := websocket.NewClient(cfg)
	ws.On(websocket.MessageTypeNewNotification, func(m websocket.Message) {
		var n api.Notification
		if err := m.Decode(&n); err != nil {
			logger.Warn("bad notification frame", "error", err)
			return
		}
		emitLive("notification", n, func() { printNotification(&n) })
	})
	ws.On(websocket.MessageTypeNewMessage, func(m websocket.Message) {
		var msg api.Message
		if err := m.Decode(&msg); err != nil {
			logger.Warn("bad message frame", "error", err)
			return
		}
		emitLive("message", msg, func() { printMessage(&msg, creds.UserID) })
	})
	ws.On(websocket.MessageTypeError, func(m websocket.Message) {
		var e struct {
			Message string `json:"message"`
		}
		_ = m.Decode(&e)
		formatter.PrintWarning("server: %s", e.Message)
	})

	if err := ws.Connect(creds.AccessToken); err != nil {
		return err
	}
	defer ws.Disconnect()
	formatter.PrintInfo("Listening as @%s. Ctrl-C to stop.", creds.Username)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-sig:
		fmt.Println()
	case <-ws.Done():
		formatter.PrintWarning("Connection closed (%s)", ws.State())
	}
	return nil
}

func emitLive(title string, data interface{}, human func()) {
	if err := show(title, data, human); err != nil {
		logger.Warn("print failed", "error", err)
	}
}

var notificationVerbs = map[string]string{
	"like":    "liked your tweet",
	"reply":   "replied to your tweet",
	"retweet": "retweeted your tweet",
	"message": "sent you a message",
	"follow":  "followed you",
	"mention": "mentioned you",
}

func printNotification(n *api.Notification) {
	verb, ok := notificationVerbs[n.Type]
	if !ok {
		verb = n.Type
	}
	marker := " "
	if !n.Read {
		marker = accent.Sprint("•")
	}
	who := n.FromUserID
	if n.FromUser != nil {
		who = n.FromUser.Handle()
	}
	fmt.Printf("%s %s %s %s\n", marker, handle.Sprint(who), verb, dim.Sprint(Ago(n.CreatedAt)))
	if n.Tweet != nil && n.Tweet.Content != "" {
		dim.Printf("    %s\n", preview(n.Tweet.Content, 60))
	}
}
