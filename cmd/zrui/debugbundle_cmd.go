package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/inkterm/zrui/pkg/debugbundle"
	"github.com/inkterm/zrui/pkg/layout"
	"github.com/inkterm/zrui/pkg/zrevent"
	"github.com/inkterm/zrui/pkg/zrui"
)

func debugBundleCmd() *cobra.Command {
	var frames int

	cmd := &cobra.Command{
		Use:   "debug-bundle <out.json>",
		Short: "Capture a headless session to a debug bundle",
		Long: `Drives the home page against an in-memory sink for a fixed number of
frames, feeding it a scripted sequence of key events instead of a real
terminal, and writes every frame and event to a debug bundle JSON file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDebugBundle(cmd.Context(), args[0], frames)
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 20, "Number of synthetic frames to capture")
	return cmd
}

// bundleSink relays every frame the App writes into a Recorder, playing
// the fake-sink role a recording test stub plays, except its purpose is
// export rather than assertions.
type bundleSink struct {
	rec *debugbundle.Recorder
}

func (s *bundleSink) WriteFrame(_ context.Context, frame []byte) error {
	s.rec.RecordFrame(frame, false)
	return nil
}

// synthEvents is the scripted input a headless capture replays in place
// of a live terminal, cycling through printable keys, navigation and a
// resize so the captured bundle exercises more than one opcode.
var synthEvents = []any{
	zrevent.KeyEvent{Rune: 'h'},
	zrevent.KeyEvent{Rune: 'i'},
	zrevent.KeyEvent{Code: zrevent.KeyTab},
	zrevent.ResizeEvent{Cols: 100, Rows: 30},
	zrevent.KeyEvent{Code: zrevent.KeyEscape},
}

func runDebugBundle(ctx context.Context, outPath string, frameCount int) error {
	if frameCount <= 0 {
		return fmt.Errorf("debug-bundle: --frames must be positive, got %d", frameCount)
	}

	viewport := debugbundle.Viewport{Cols: 80, Rows: 24}
	rec := debugbundle.NewRecorder(viewport, frameCount+1, len(synthEvents)*frameCount)
	rec.SetMetadata("source", "debug-bundle")

	sink := &bundleSink{rec: rec}
	app := zrui.NewApp(homePage, nil, layout.Rect{W: viewport.Cols, H: viewport.Rows}, sink)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := app.Start(runCtx); err != nil {
		return errors.Wrap(err, "debug-bundle: start app")
	}

	for i := 0; i < frameCount; i++ {
		ev := synthEvents[i%len(synthEvents)]
		app.PushEvent(ev)
		kind, detail := debugbundle.SummarizeEvent(ev)
		rec.RecordEvent(kind, detail)
		app.RequestRender()
		time.Sleep(2 * time.Millisecond)
	}

	if err := app.Stop(); err != nil {
		return errors.Wrap(err, "debug-bundle: stop app")
	}

	if err := rec.WriteFile(outPath); err != nil {
		return errors.Wrapf(err, "debug-bundle: writing %s", outPath)
	}
	fmt.Printf("wrote %s (%d frames, %d events)\n", outPath, frameCount, frameCount)
	return nil
}
