package service

import (
	"fmt"

	"github.com/zfogg/chirp/cli/pkg/api"
	clierrors "github.com/zfogg/chirp/cli/pkg/errors"
	"github.com/zfogg/chirp/cli/pkg/formatter"
	"github.com/zfogg/chirp/cli/pkg/output"
)

type AssistantService struct{}

func NewAssistantService() *AssistantService {
	return &AssistantService{}
}

// NewThread opens an empty assistant thread
func (s *AssistantService) NewThread() error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	t, err := api.CreateAssistantThread()
	if err != nil {
		return err
	}
	return show("thread", t, func() { formatter.PrintSuccess("Thread %s created.", t.ID) })
}

// Threads lists the caller's assistant threads
func (s *AssistantService) Threads() error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	threads, err := api.ListAssistantThreads()
	if err != nil {
		return err
	}
	return show("threads", threads, func() {
		if len(threads) == 0 {
			output.PrintInfo("No threads. Start one with 'chirp assistant ask'.")
			return
		}
		rows := make([][]string, 0, len(threads))
		for _, t := range threads {
			rows = append(rows, []string{t.ID, t.Name, fmt.Sprint(t.MessagesCount), Ago(t.UpdatedAt)})
		}
		printTable([]string{"ID", "Name", "Messages", "Updated"}, rows)
	})
}

// Ask sends a question. An empty threadID opens a new thread first.
func (s *AssistantService) Ask(threadID, question string, withHistory bool) error {
	if question == "" {
		return clierrors.ValidationError("message", "ask something")
	}
	if _, err := RequireSession(); err != nil {
		return err
	}
	if threadID == "" {
		t, err := api.CreateAssistantThread()
		if err != nil {
			return err
		}
		threadID = t.ID
		withHistory = false
	}
	ex, err := api.AskAssistant(threadID, question, withHistory)
	if err != nil {
		return err
	}
	return show("exchange", ex, func() {
		if ex.AssistantMessage != nil {
			fmt.Println(ex.AssistantMessage.Message)
		}
		dim.Printf("\nthread %s\n", threadID)
	})
}

// History prints a thread's messages in order
func (s *AssistantService) History(threadID string) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	msgs, err := api.GetAssistantMessages(threadID)
	if err != nil {
		return err
	}
	return show("messages", msgs, func() {
		for _, m := range msgs {
			who := handle.Sprint("you")
			if m.IsAssistant {
				who = accent.Sprint("assistant")
			}
			fmt.Printf("%s %s\n%s\n\n", who, dim.Sprint(Ago(m.CreatedAt)), m.Message)
		}
	})
}

// Clear empties a thread
func (s *AssistantService) Clear(threadID string) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	n, err := api.ClearAssistantMessages(threadID)
	if err != nil {
		return err
	}
	formatter.PrintSuccess("Removed %d messages.", n)
	return nil
}

// Delete deletes a thread
func (s *AssistantService) Delete(threadID string) error {
	if _, err := RequireSession(); err != nil {
		return err
	}
	if err := api.DeleteAssistantThread(threadID); err != nil {
		return err
	}
	formatter.PrintSuccess("Thread deleted.")
	return nil
}
