package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"stich/lib"
	"stich/pkg/codec"
	"stich/pkg/core"
	"stich/pkg/progress"
)

const version = "0.1.0"

// Flags shared by create, extract and list.
var (
	generalName string
	entropyName string
	counted     bool
	verbose     bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:           "stich",
	Short:         "Iterative zlib + xz archiver",
	Long:          "stich bundles files into a single archive, compressing each one with repeated zlib + xz rounds while the output keeps shrinking.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var createCmd = &cobra.Command{
	Use:   "create [files...]",
	Short: "Bundle files into an archive",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		raw, _ := cmd.Flags().GetBool("raw")
		baseNames, _ := cmd.Flags().GetBool("base-names")
		rounds, _ := cmd.Flags().GetInt("rounds")

		output = determineOutputPath(output)
		opts, err := commonOptions()
		if err != nil {
			return err
		}
		opts = append(opts, core.WithMaxRounds(rounds))
		if raw {
			opts = append(opts, core.WithoutPreprocess())
		}
		if baseNames {
			opts = append(opts, core.WithBaseNames())
		}

		if err := lib.CreateArchive(args, output, opts...); err != nil {
			return err
		}
		fmt.Printf("Archive %s created from %d files\n", output, len(args))
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [archive]",
	Short: "Extract an archive into a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("directory")
		decodeRounds, _ := cmd.Flags().GetInt("decode-rounds")

		opts, err := commonOptions()
		if err != nil {
			return err
		}
		opts = append(opts, core.WithMaxDecodeRounds(decodeRounds))

		if err := lib.ExtractArchive(args[0], dir, opts...); err != nil {
			return err
		}
		fmt.Printf("Archive %s extracted to %s\n", args[0], dir)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list [archive]",
	Short: "List the entries of an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commonOptions()
		if err != nil {
			return err
		}
		entries, err := lib.ListArchive(args[0], opts...)
		if err != nil {
			return err
		}
		fmt.Printf("Files in archive %s:\n", args[0])
		for i, e := range entries {
			if counted {
				fmt.Printf("%d: %s\t%s -> %s (%d rounds)\n", i, e.Name,
					units.BytesSize(float64(e.OriginalSize)), units.BytesSize(float64(e.PayloadSize)), e.Rounds)
				continue
			}
			fmt.Printf("%d: %s\t%s -> %s\n", i, e.Name,
				units.BytesSize(float64(e.OriginalSize)), units.BytesSize(float64(e.PayloadSize)))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the stich version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stich version %s\n", version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&generalName, "general", "zlib", "General-purpose compressor: zlib|lz4")
	pf.StringVar(&entropyName, "entropy", "xz", "Entropy compressor: xz|zstd")
	pf.BoolVar(&counted, "counted", false, "Use the counted layout that records compression rounds per entry")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log per-entry details")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	createCmd.Flags().StringP("output", "o", "archive"+lib.Extension, "Output archive path")
	createCmd.Flags().Bool("raw", false, "Store text files exactly, without whitespace normalization")
	createCmd.Flags().Bool("base-names", false, "Store file names without their directories")
	createCmd.Flags().Int("rounds", codec.DefaultMaxRounds, "Maximum compression rounds per file")

	extractCmd.Flags().StringP("directory", "C", ".", "Output directory")
	extractCmd.Flags().Int("decode-rounds", codec.DefaultMaxDecodeRounds, "Maximum decode rounds per file (classic layout)")

	rootCmd.AddCommand(createCmd, extractCmd, listCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// commonOptions builds the options shared by every archive command.
func commonOptions() ([]core.Option, error) {
	stage, err := codec.StageByName(generalName, entropyName)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []core.Option{
		core.WithLogger(logger),
		core.WithCodec(stage),
	}
	if counted {
		opts = append(opts, core.WithLayout(core.LayoutCounted))
	}
	if !quiet {
		opts = append(opts, core.WithProgress(progress.New(os.Stderr)))
	}
	return opts, nil
}

// determineOutputPath appends the archive extension when output has none.
func determineOutputPath(output string) string {
	if filepath.Ext(output) == "" {
		return output + lib.Extension
	}
	return output
}
