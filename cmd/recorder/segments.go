package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"motion-recorder-go/internal/services/recorder"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "List recorded segments, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		files, err := recorder.ListSegments(cfg.StoragePath, cfg.SegmentExtension)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No segments found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED\tCONTINUATION")
		fmt.Fprintln(w, "----\t----\t--------\t------------")
		var total int64
		for _, f := range files {
			total += f.SizeBytes
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", f.Name, humanSize(f.SizeBytes), f.ModTime.Local().Format("2006-01-02 15:04:05"), f.Continuation)
		}
		w.Flush()
		fmt.Printf("\n%d segments, %s\n", len(files), humanSize(total))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
