package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"photo-mapper/metadata"
)

type extractResult struct {
	File      string          `json:"file"`
	Timestamp string          `json:"timestamp,omitempty"`
	Location  *metadata.Point `json:"location,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func newExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <image>...",
		Short: "Print the capture time and location an upload would get",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			failed := 0
			for _, path := range args {
				res := extractFile(path)
				if res.Error != "" {
					failed++
				}
				if err := enc.Encode(res); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be extracted", failed, len(args))
			}
			return nil
		},
	}
}

func extractFile(path string) extractResult {
	res := extractResult{File: path}

	f, err := os.Open(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer f.Close()

	meta, err := metadata.Extract(f)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Timestamp = meta.TakenAt.Format(time.DateTime)
	res.Location = &meta.Location
	return res
}
