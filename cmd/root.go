package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Camera-based attendance tracking with face recognition",
	Long: `Face Attendance watches a camera, recognizes enrolled employees and records
their daily check-in and check-out in PostgreSQL.

Faces are embedded by an external embedding server and matched against a
trained index of enrolled face samples. Reports are available on the
command line and through a read-only HTTP API.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load(envFile)
}
