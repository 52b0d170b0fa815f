package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shahjalal-bu/liveshare/internal/bus"
	"github.com/shahjalal-bu/liveshare/internal/core"
	"github.com/shahjalal-bu/liveshare/internal/store/sqlite"
)

// newDemoCmd runs two simulated tabs against one in-process bus and walks
// them through a scripted exchange. Useful as a smoke test without redis.
func newDemoCmd(_ *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted two-tab exchange on an in-process bus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			medium := bus.NewMemory()
			defer medium.Close()

			// Both tabs share one profile store, same as two tabs of one
			// browser sharing local storage.
			st, err := sqlite.New(":memory:")
			if err != nil {
				return err
			}
			defer st.Close()

			tabA := core.NewRegistry(st, medium, "https://shahjalal.dev/code-live", nil)
			defer tabA.Close()
			tabB := core.NewRegistry(st, medium, "https://shahjalal.dev/code-live", nil)
			defer tabB.Close()

			alice := core.NewSession(tabA, "Alice")
			bob := core.NewSession(tabB, "Bob")

			room, err := alice.CreateRoom(ctx, "Demo")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "alice created %q, share link %s\n", room.Name, alice.ShareLink())

			if err := bob.Join(ctx, room.ID); err != nil {
				return fmt.Errorf("bob join: %w", err)
			}
			fmt.Fprintln(out, "bob joined")

			if err := alice.EditCode(ctx, `console.log("hello from alice")`); err != nil {
				return err
			}
			waitUntil(func() bool { return bob.Snapshot().Code != "" })
			fmt.Fprintf(out, "bob sees: %s\n", bob.Snapshot().Code)

			bob.Leave(ctx)
			waitUntil(func() bool { return len(alice.Snapshot().Roster) == 1 })
			fmt.Fprintf(out, "bob left; alice's roster is down to %d\n", len(alice.Snapshot().Roster))
			return nil
		},
	}
}

func waitUntil(cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
