package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/detector"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Recognize a face and log attendance",
	Long: `Recognize the face in an image against the enrolled employees and
log a check-in or check-out for the matched employee.

Examples:
  # Log attendance from a camera snapshot
  face-attendance recognize snapshot.jpg

  # Backfill a missed punch
  face-attendance recognize snapshot.jpg --at "2026-08-28 08:55:00"`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("at", "", "Timestamp to log (YYYY-MM-DD HH:MM:SS, default now)")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	now := time.Now()
	if at := mustGetString(cmd, "at"); at != "" {
		parsed, err := time.ParseInLocation("2006-01-02 15:04:05", at, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --at timestamp: %w", err)
		}
		now = parsed
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.service.RecognizeAndLog(ctx, data, now)
	if errors.Is(err, detector.ErrNoFaceDetected) {
		return errors.New("no face detected in the image")
	}
	if errors.Is(err, attendance.ErrNotRecognized) {
		return errors.New("face not recognized; enroll the employee first")
	}
	if err != nil {
		return err
	}

	stamp := res.Time.Format("2006-01-02 15:04:05")
	switch res.Kind {
	case attendance.ResultCheckIn:
		fmt.Printf("Checked in %s (%s) at %s, confidence %.3f\n", res.Name, res.EmployeeID, stamp, res.Confidence)
	case attendance.ResultCheckOut:
		fmt.Printf("Checked out %s (%s) at %s, confidence %.3f\n", res.Name, res.EmployeeID, stamp, res.Confidence)
	case attendance.ResultAlreadyCompleted:
		fmt.Printf("%s (%s) already completed attendance for today\n", res.Name, res.EmployeeID)
	}
	return nil
}
