package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SARVESHVARADKAR123/chatsync/internal/application"
	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/invalidate"
	"github.com/SARVESHVARADKAR123/chatsync/internal/poller"
	"github.com/SARVESHVARADKAR123/chatsync/internal/session"
)

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [conversation-id]",
		Short: "Follow a conversation, marking incoming messages read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, role, err := a.viewer()
			if err != nil {
				return err
			}
			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}

			s := session.New(a.store, invalidate.NewBus(a.log), session.Identity{Email: email, Role: role}, session.Config{
				Poll: poller.Config{
					Interval:     a.cfg.PollInterval,
					FetchTimeout: a.cfg.FetchTimeout,
					MaxBackoff:   a.cfg.MaxBackoff,
				},
				Location:       loc,
				ReceiptTimeout: a.cfg.ReceiptTimeout,
			}, a.log)
			defer s.Close()

			updates, stop := s.Updates()
			defer stop()
			s.Open(args[0])

			out := cmd.OutOrStdout()
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case v, ok := <-updates:
					if !ok {
						return nil
					}
					if v.ConversationID != args[0] {
						continue
					}
					fmt.Fprint(out, "\033[H\033[2J")
					Render(out, v, email, loc)
				}
			}
		},
	}
	return cmd
}

func (a *app) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send [conversation-id] [text...]",
		Short: "Send a message to a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, role, err := a.viewer()
			if err != nil {
				return err
			}

			svc := application.New(a.store, nil, a.log)
			msg, err := svc.SendMessage(cmd.Context(), application.SendMessageCommand{
				ConversationID: args[0],
				Sender:         email,
				SenderRole:     role,
				Content:        strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), msg.ID)
			return nil
		},
	}
}

func (a *app) conversationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conversation",
		Short: "Manage conversations",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Open a conversation with a participant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			role, _ := cmd.Flags().GetString("participant-role")

			conv, err := a.store.CreateConversation(cmd.Context(), domain.ParticipantInfo{Name: name, Email: email, Role: role})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), conv.ID)
			return nil
		},
	}
	create.Flags().String("name", "", "participant display name")
	create.Flags().String("email", "", "participant email")
	create.Flags().String("participant-role", "client", "participant role")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")

	list := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			convs, err := a.store.ListConversations(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range convs {
				fmt.Fprintf(out, "%s\t%s <%s>\t%s\n", c.ID, c.Participant.Name, c.Participant.Email, c.LastMessagePreview)
			}
			return nil
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}
