package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/enroll"
	"github.com/kozaktomas/face-attendance/internal/logging"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage enrolled employees",
	Long:  "Enroll, list and remove the employees the recognizer can identify.",
}

func init() {
	rootCmd.AddCommand(employeeCmd)
}

// enrollService builds the enrollment service over the app's repositories.
func (a *app) enrollService() *enroll.Service {
	client := recognition.NewEmbeddingClient(a.cfg.Embedding.URL, constants.EmbeddingTimeout)
	return enroll.NewService(a.employees, a.ledger, client, enroll.OptionsFromConfig(a.cfg), logging.Component(a.logger, "enroll"))
}

// retrain rebuilds the sample index after the enrolled samples changed.
// Fewer than two enrolled employees only warns.
func (a *app) retrain(cmd *cobra.Command) error {
	fmt.Println("Retraining sample index...")
	index, err := recognition.Train(cmd.Context(), a.employees, a.cfg.Recognition.IndexPath)
	if errors.Is(err, recognition.ErrTooFewEmployees) {
		fmt.Printf("Skipping training: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Sample index saved to %s (%d samples)\n", a.cfg.Recognition.IndexPath, index.Count())
	return nil
}

// readImages loads image files, expanding directories one level deep.
func readImages(paths []string) ([]enroll.Image, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", p, err)
		}
		for _, e := range entries {
			if !e.IsDir() && recognition.IsImageFile(e.Name()) {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	slices.Sort(files)

	images := make([]enroll.Image, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading image %s: %w", f, err)
		}
		images = append(images, enroll.Image{Name: filepath.Base(f), Data: data})
	}
	return images, nil
}
