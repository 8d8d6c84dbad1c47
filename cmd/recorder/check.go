package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"motion-recorder-go/internal/services/capture"
)

var (
	probeFrames  int
	probeTimeout time.Duration
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration, storage and the camera stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Println("✓ configuration valid")

		if err := cfg.EnsureStorage(); err != nil {
			return err
		}
		fmt.Printf("✓ storage writable: %s\n", cfg.StoragePath)

		result := capture.NewService(cfg.CameraID).Probe(cmd.Context(), cfg.StreamURL(), probeFrames, probeTimeout)
		if !result.Valid {
			return fmt.Errorf("%s: %s", result.Message, result.ErrorDetail)
		}
		fmt.Printf("✓ camera stream ok: %dx%d @ %.1f fps (%d frames read)\n",
			result.Width, result.Height, result.FPS, result.FramesRead)
		return nil
	},
}

func init() {
	checkCmd.Flags().IntVar(&probeFrames, "frames", 5, "frames to read from the camera")
	checkCmd.Flags().DurationVar(&probeTimeout, "timeout", 15*time.Second, "camera probe timeout")
	rootCmd.AddCommand(checkCmd)
}
