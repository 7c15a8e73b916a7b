package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [image]",
	Short: "Enroll an employee from a face image",
	Long: `Enroll an employee by detecting the face in an image and storing
its encoding. The image must contain exactly one clearly visible face.

Bulk mode enrolls every image in a directory. Each file name encodes the
identity as <employee-id>_<name>.jpg; underscores after the first become
spaces in the name. A file without an underscore uses its stem for both.

Examples:
  # Enroll a single employee
  face-attendance enroll photo.jpg --id jdoe --name "Jane Doe"

  # Enroll a directory of images (jdoe_Jane_Doe.jpg, asmith_Al_Smith.png, ...)
  face-attendance enroll --dir ./faces`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("id", "", "Employee identifier")
	enrollCmd.Flags().String("name", "", "Employee display name (defaults to the id)")
	enrollCmd.Flags().String("dir", "", "Enroll every image in this directory")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	dir := mustGetString(cmd, "dir")
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if dir != "" {
		return enrollDir(ctx, a, dir)
	}

	if len(args) != 1 {
		return errors.New("an image path or --dir is required")
	}
	id := mustGetString(cmd, "id")
	name := mustGetString(cmd, "name")
	if id == "" {
		return errors.New("--id is required")
	}
	if name == "" {
		name = id
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	if err := a.service.Enroll(ctx, id, name, data); err != nil {
		return err
	}
	fmt.Printf("Enrolled %s (%s)\n", name, id)
	return nil
}

func enrollDir(ctx context.Context, a *app, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("faces"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var enrolled, duplicates, failed int
	for _, p := range paths {
		id, name := identityFromFilename(p)
		data, err := os.ReadFile(p)
		if err == nil {
			err = a.service.Enroll(ctx, id, name, data)
		}
		switch {
		case err == nil:
			enrolled++
		case errors.Is(err, database.ErrDuplicateEmployee):
			duplicates++
		default:
			failed++
			fmt.Fprintf(os.Stderr, "\n%s: %v\n", filepath.Base(p), err)
		}
		_ = bar.Add(1)
	}

	fmt.Printf("\nEnrolled %d, skipped %d duplicates, %d failed\n", enrolled, duplicates, failed)
	return nil
}

// identityFromFilename splits a file stem like "jdoe_Jane_Doe" into the
// employee id "jdoe" and name "Jane Doe".
func identityFromFilename(path string) (string, string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id, rest, found := strings.Cut(stem, "_")
	if !found || rest == "" {
		return stem, stem
	}
	return id, strings.ReplaceAll(rest, "_", " ")
}
