package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shahjalal-bu/liveshare/internal/core"
)

func newRoomCmd(flags *rootFlags) *cobra.Command {
	room := &cobra.Command{
		Use:   "room",
		Short: "Create or join live code-sharing rooms",
	}

	var userName string
	var roomName string

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a room, join it, and start an interactive session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, _, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			session := core.NewSession(a.Registry, userName)
			created, err := session.CreateRoom(ctx, roomName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created room %s (%s)\n", created.Name, created.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "share: %s\n", session.ShareLink())
			return runInteractive(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), a.Registry, session)
		},
	}
	create.Flags().StringVar(&roomName, "name", "Untitled Room", "room display name")
	create.Flags().StringVar(&userName, "user", "anonymous", "your display name")

	join := &cobra.Command{
		Use:   "join <room-id>",
		Short: "Join an existing room and start an interactive session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			session := core.NewSession(a.Registry, userName)
			if err := session.Join(ctx, args[0]); err != nil {
				ce := core.AsCoreError(err)
				return errors.New(ce.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "joined room %s\n", args[0])
			return runInteractive(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), a.Registry, session)
		},
	}
	join.Flags().StringVar(&userName, "user", "anonymous", "your display name")

	room.AddCommand(create, join)
	return room
}

// runInteractive turns stdin lines into code updates and prints inbound
// room events until EOF or /quit. Slash commands: /lang, /lock, /unlock,
// /copy, /who, /quit.
func runInteractive(ctx context.Context, out io.Writer, in io.Reader, reg *core.Registry, session *core.Session) error {
	roomID := session.Snapshot().Room.ID

	unsub := reg.Subscribe(roomID, func(msg core.RoomMessage) {
		switch msg.Kind {
		case core.MessageJoin:
			if p, err := msg.JoinedParticipant(); err == nil && p.ID != session.UserID() {
				fmt.Fprintf(out, "* %s joined\n", p.Name)
			}
		case core.MessageLeave:
			if msg.UserID != session.UserID() {
				fmt.Fprintf(out, "* %s left\n", msg.UserID)
			}
		case core.MessageCodeUpdate:
			if msg.UserID != session.UserID() {
				if u, err := msg.Update(); err == nil {
					fmt.Fprintf(out, "--- buffer (%s) ---\n%s\n", u.Language, u.Code)
				}
			}
		}
	})
	defer unsub()
	defer session.Leave(context.WithoutCancel(ctx))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scanner.Text()
		switch {
		case line == "/quit":
			return nil
		case line == "/copy":
			if session.CopyLink() {
				fmt.Fprintln(out, "link copied")
			} else {
				fmt.Fprintln(out, "clipboard unavailable:", session.ShareLink())
			}
		case line == "/who":
			for _, p := range session.Snapshot().Roster {
				fmt.Fprintf(out, "  %s (%s)\n", p.Name, p.ID)
			}
		case line == "/lock":
			reg.SetLocked(ctx, roomID, true)
			fmt.Fprintln(out, "room locked")
		case line == "/unlock":
			reg.SetLocked(ctx, roomID, false)
			fmt.Fprintln(out, "room unlocked")
		case strings.HasPrefix(line, "/lang "):
			lang := strings.TrimSpace(strings.TrimPrefix(line, "/lang "))
			if err := session.SetLanguage(ctx, lang); err != nil {
				return err
			}
		default:
			if err := session.EditCode(ctx, line); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}
