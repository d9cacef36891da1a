package cmd

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Azunyan1111/go-webm-relay/internal/ebml"
	"github.com/Azunyan1111/go-webm-relay/internal/webm"
)

var throttleOutput bool

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Copy WebM from stdin to stdout, applying the same cleanup and stripping the relay server does",
	Args:  cobra.NoArgs,
	RunE:  runFilter,
}

func init() {
	filterCmd.Flags().BoolVar(&throttleOutput, "throttle", false,
		"Slow output to real-time speed as determined by the stream timestamps (useful for streaming static files)")
	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	source := ebml.NewSource[webm.Event](os.Stdin, webm.Schema{})
	chunker := webm.NewChunker()
	var fixer webm.TimecodeFixer
	var throttle *webm.Throttle
	if throttleOutput {
		throttle = webm.NewThrottle(logger)
	}

	for {
		event, err := source.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		chunks, err := chunker.Push(event)
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			chunk = fixer.Process(chunk)
			if throttle != nil {
				throttle.Wait(chunk)
			}
			if _, err := os.Stdout.Write(chunk.Bytes()); err != nil {
				return err
			}
		}
	}
}
