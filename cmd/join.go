package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/rtcshare/internal/files"
	"github.com/BioHazard786/rtcshare/internal/provider"
	"github.com/BioHazard786/rtcshare/internal/ui"
)

var (
	joinICE  iceFlags
	joinPath string
	joinOut  string
)

var joinCmd = &cobra.Command{
	Use:     "join [share-url]",
	Aliases: []string{"j"},
	Short:   "Join a sharing room",
	Long: `Join the room for a document and stay connected until you press q.

Examples:
  rtcshare join --path notes.ipynb
  rtcshare join "https://hub.example.com/lab?room=standup&username=Ada" --path notes.ipynb
  rtcshare join --path notes.ipynb --out received.ipynb --relay --turn turn:turn.example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return join(cmd, shareArg(args))
	},
}

func join(cmd *cobra.Command, shareURL string) error {
	ctx := cmd.Context()

	ice, err := joinICE.load()
	if err != nil {
		return err
	}

	m := newManager(shareURL, ice)
	defer m.Close()

	if m.Disabled() {
		ui.PrintWarning("Not Sharing: set RTCSHARE_COLLABORATIVE=true and make sure sharing is not disabled in your settings")
		return nil
	}

	local, err := files.ReadDocument(joinPath)
	if err != nil {
		return provider.NewError("read document", err)
	}
	doc := provider.NewMemoryDocument(local.Data)

	p := m.CreateProvider(ctx, provider.Options{
		Path:      joinPath,
		Document:  doc,
		Awareness: &provider.LocalAwareness{},
	})
	defer p.Dispose()

	sp := ui.RunConnectionSpinner(fmt.Sprintf("Joining %s...", m.RoomName()))
	got, err := p.RequestInitialContent(ctx)
	if err != nil {
		sp.Stop()
		return err
	}
	if got {
		snap, _ := doc.Snapshot()
		sp.Success(fmt.Sprintf("Received %s (%s) from peers", local.Name, files.FormatSize(len(snap))))
	} else {
		sp.Warn("No peers answered, starting from the local copy")
	}

	if err := ui.RunStatus(ctx, m); err != nil {
		return err
	}

	if joinOut == "" || doc.Applied() == 0 {
		return nil
	}
	snap, err := doc.Snapshot()
	if err != nil {
		return err
	}
	out := files.UniquePath(joinOut)
	if err := os.WriteFile(out, snap, 0o644); err != nil {
		return provider.NewError("write document", err)
	}
	ui.PrintSuccessf("Saved the shared document to %s", out)
	return nil
}

func init() {
	rootCmd.AddCommand(joinCmd)

	joinCmd.Flags().StringVarP(&joinPath, "path", "p", "", "Document path; part of the room topic")
	joinCmd.Flags().StringVarP(&joinOut, "out", "o", "", "Write the document received from peers here on exit")
	joinCmd.Flags().StringVarP(&joinICE.stun, "stun", "s", "", "Custom STUN server")
	joinCmd.Flags().StringVarP(&joinICE.turn, "turn", "t", "", "Custom TURN server")
	joinCmd.Flags().StringVar(&joinICE.turnUser, "turn-user", "", "TURN username")
	joinCmd.Flags().StringVar(&joinICE.turnPass, "turn-pass", "", "TURN password")
	joinCmd.Flags().BoolVarP(&joinICE.relay, "relay", "r", false, "Force relay mode")
	joinCmd.MarkFlagRequired("path")
}
