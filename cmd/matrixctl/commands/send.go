package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coreman2200/matrixctl/internal/link"
	"github.com/coreman2200/matrixctl/internal/store"
)

var SendCmd = &cobra.Command{
	Use:   "send <file.json>",
	Short: "Send a saved pattern or animation to the device",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	pl, err := store.Load(args[0])
	if err != nil {
		return err
	}
	l, err := openLink(cfg, nil)
	if err != nil {
		return err
	}
	defer l.Close()

	res, err := sendPayload(l, pl)
	if err != nil {
		return err
	}
	reportAck(res)
	return nil
}

// sendPayload dispatches a loaded document to the matching link operation.
func sendPayload(l *link.Link, pl store.Payload) (link.AckResult, error) {
	switch pl.Type {
	case store.TypeSingle:
		pat, err := pl.ToPattern()
		if err != nil {
			return link.AckResult{}, err
		}
		return l.SendFrame(pat)
	case store.TypeAnimation:
		frames, err := pl.ToAnimation()
		if err != nil {
			return link.AckResult{}, err
		}
		return l.SendAnimation(frames)
	}
	return link.AckResult{}, fmt.Errorf("unknown payload type %q", pl.Type)
}
