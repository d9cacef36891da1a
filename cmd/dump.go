package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/remko/go-mkvparse"
	"github.com/spf13/cobra"

	"github.com/Azunyan1111/go-webm-relay/internal/webm"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print one line per parsed WebM element (debugging aid)",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	return mkvparse.ParsePath(args[0], &dumpHandler{out: os.Stdout})
}

// dumpHandler prints the element tree. It deliberately uses go-mkvparse
// rather than the relay's own pipeline, so dump output stays useful when
// debugging that pipeline.
type dumpHandler struct {
	mkvparse.DefaultHandler
	out io.Writer
}

func (h *dumpHandler) line(info mkvparse.ElementInfo, format string, v ...any) {
	fmt.Fprintf(h.out, "%*s", info.Level*2, "")
	fmt.Fprintf(h.out, format, v...)
	fmt.Fprintln(h.out)
}

func (h *dumpHandler) HandleMasterBegin(id mkvparse.ElementID, info mkvparse.ElementInfo) (bool, error) {
	h.line(info, "%s", mkvparse.NameForElementID(id))
	return true, nil
}

func (h *dumpHandler) HandleString(id mkvparse.ElementID, value string, info mkvparse.ElementInfo) error {
	h.line(info, "%s = %q", mkvparse.NameForElementID(id), value)
	return nil
}

func (h *dumpHandler) HandleInteger(id mkvparse.ElementID, value int64, info mkvparse.ElementInfo) error {
	h.line(info, "%s = %d", mkvparse.NameForElementID(id), value)
	return nil
}

func (h *dumpHandler) HandleFloat(id mkvparse.ElementID, value float64, info mkvparse.ElementInfo) error {
	h.line(info, "%s = %g", mkvparse.NameForElementID(id), value)
	return nil
}

func (h *dumpHandler) HandleDate(id mkvparse.ElementID, value time.Time, info mkvparse.ElementInfo) error {
	h.line(info, "%s = %s", mkvparse.NameForElementID(id), value.Format(time.RFC3339))
	return nil
}

func (h *dumpHandler) HandleBinary(id mkvparse.ElementID, value []byte, info mkvparse.ElementInfo) error {
	switch id {
	case mkvparse.SimpleBlockElement, mkvparse.BlockElement:
		if block, err := webm.ParseSimpleBlock(value); err == nil {
			h.line(info, "%s track=%d timecode=%d flags=%#02x [%d bytes]",
				mkvparse.NameForElementID(id), block.Track, block.Timecode, block.Flags, len(block.Data))
			return nil
		}
	}
	h.line(info, "%s [%d bytes]", mkvparse.NameForElementID(id), len(value))
	return nil
}
