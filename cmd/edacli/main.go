package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bookingeda/adapters/store"
	"bookingeda/adapters/tabular"
	"bookingeda/app"
	"bookingeda/internal"
	"bookingeda/internal/config"
	"bookingeda/internal/errors"
	"bookingeda/internal/evaluation"
	"bookingeda/internal/preprocessing"
	"bookingeda/internal/profiling"
	"bookingeda/ports"
)

var (
	envFile string
	cfg     *config.Config
	log     *internal.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "edacli",
		Short: "Hotel-booking preprocessing: cleaning, features, time series and model matrices",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(envFile)
			if err != nil {
				return err
			}
			loaded.ApplyLogLevel()
			cfg = loaded
			log = internal.DefaultLogger.With("edacli")
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Optional .env file read before the environment")

	rootCmd.AddCommand(
		newPrepareCmd(),
		newTimeSeriesCmd(),
		newMatrixCmd(),
		newEncodeCmd(),
		newProfileCmd(),
		newSplitCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newPrepareCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "prepare [data-file]",
		Short: "Clean, clip and derive features, writing the prepared table",
		Long: `Clean a raw booking file, clip EDA_CLIP_COLUMNS with the IQR rule and add
the derived columns (total_guests, total_nights, arrival_month_num,
arrival_year_month).

Example: edacli prepare data/hotel_bookings.csv --out outputs/prepared.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeRepo, err := newService(false)
			if err != nil {
				return err
			}
			defer closeRepo()

			path, err := inputPath(args)
			if err != nil {
				return err
			}
			prepared, err := svc.PrepareFile(path)
			if err != nil {
				return err
			}
			for _, b := range prepared.Bounds {
				log.Info("clipped %s to [%.4g, %.4g]", b.Column, b.Lower, b.Upper)
			}

			if out == "" {
				out = svc.OutputPath("prepared.csv")
			}
			if err := tabular.Write(prepared.Table, out); err != nil {
				return err
			}
			fmt.Printf("Prepared %d of %d rows -> %s\n", prepared.Table.NumRows(), prepared.RawRows, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (.csv or .xlsx); default OUTPUT_DIR/prepared.csv")
	return cmd
}

func newTimeSeriesCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "timeseries [data-file]",
		Short: "Aggregate monthly bookings, cancellations and average rate",
		Long: `Prepare a booking file and aggregate it by arrival month (and hotel type when
present). With STORE_DRIVER and STORE_DSN set the summary is saved under a run ID.

Example: edacli timeseries data/hotel_bookings.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeRepo, err := newService(true)
			if err != nil {
				return err
			}
			defer closeRepo()

			path, err := inputPath(args)
			if err != nil {
				return err
			}
			prepared, err := svc.PrepareFile(path)
			if err != nil {
				return err
			}
			res, err := svc.BuildTimeSeries(cmd.Context(), prepared.Table, filepath.Base(path))
			if err != nil {
				return err
			}

			if out == "" {
				out = svc.OutputPath("timeseries.csv")
			}
			if err := tabular.Write(res.Summary.Table(), out); err != nil {
				return err
			}

			fmt.Printf("Run %s: %d periods, %d bookings -> %s\n", res.RunID, len(res.Summary.Periods), res.Summary.TotalBookings(), out)
			if res.Saved {
				fmt.Printf("Summary saved to %s store\n", cfg.Store.Driver)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (.csv or .xlsx); default OUTPUT_DIR/timeseries.csv")
	return cmd
}

func newMatrixCmd() *cobra.Command {
	var out, transformOut string

	cmd := &cobra.Command{
		Use:   "matrix [data-file]",
		Short: "Build the one-hot encoded model matrix and its fitted transform",
		Long: `Prepare a booking file, one-hot encode its categorical columns and write the
matrix with a trailing target column. The fitted transform is written as JSON
and, with a store configured, saved under its transform ID.

Example: edacli matrix data/hotel_bookings.csv --out outputs/X.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeRepo, err := newService(true)
			if err != nil {
				return err
			}
			defer closeRepo()

			path, err := inputPath(args)
			if err != nil {
				return err
			}
			prepared, err := svc.PrepareFile(path)
			if err != nil {
				return err
			}
			res, err := svc.BuildMatrix(cmd.Context(), prepared.Table)
			if err != nil {
				return err
			}

			if out == "" {
				out = svc.OutputPath("model_matrix.csv")
			}
			if transformOut == "" {
				transformOut = svc.OutputPath("transform.json")
			}
			if err := tabular.WriteMatrix(res.Matrix, out); err != nil {
				return err
			}
			if err := app.WriteJSON(transformOut, res.Matrix.Transform); err != nil {
				return err
			}

			rows, cols := res.Matrix.X.Dims()
			fmt.Printf("Matrix %dx%d -> %s\n", rows, cols, out)
			fmt.Printf("Transform %s -> %s\n", res.Matrix.Transform.ID(), transformOut)
			if len(res.Matrix.TargetClasses) > 0 {
				fmt.Printf("Target classes: %s\n", strings.Join(res.Matrix.TargetClasses, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Matrix file (.csv or .xlsx); default OUTPUT_DIR/model_matrix.csv")
	cmd.Flags().StringVar(&transformOut, "transform-out", "", "Transform JSON; default OUTPUT_DIR/transform.json")
	return cmd
}

func newEncodeCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "encode [transform-file-or-id] [data-file]",
		Short: "Encode new bookings with a previously fitted transform",
		Long: `Prepare a booking file and encode it with a fitted transform, given either as
a transform JSON file or as a transform ID saved in the configured store.
Categories unseen at fit time encode as all zeros.

Example: edacli encode outputs/transform.json data/new_bookings.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeRepo, err := newService(true)
			if err != nil {
				return err
			}
			defer closeRepo()

			tr, err := svc.LoadTransform(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			prepared, err := svc.PrepareFile(args[1])
			if err != nil {
				return err
			}
			x, err := svc.Encode(prepared.Table, tr)
			if err != nil {
				return err
			}

			if out == "" {
				out = svc.OutputPath("encoded.csv")
			}
			if err := tabular.WriteFeatures(tr.FeatureNames(), x, out); err != nil {
				return err
			}
			rows, cols := x.Dims()
			fmt.Printf("Encoded %dx%d with transform %s -> %s\n", rows, cols, tr.ID(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (.csv or .xlsx); default OUTPUT_DIR/encoded.csv")
	return cmd
}

func newProfileCmd() *cobra.Command {
	var topN int
	var raw bool
	var out string

	cmd := &cobra.Command{
		Use:   "profile [data-file]",
		Short: "Report missing values, class balance and numeric summaries as JSON",
		Long: `Profile a booking file. By default the prepared table is profiled; --raw
profiles the file as loaded, which is where missing values show up.

Example: edacli profile data/hotel_bookings.csv --raw --top 15`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeRepo, err := newService(false)
			if err != nil {
				return err
			}
			defer closeRepo()

			path, err := inputPath(args)
			if err != nil {
				return err
			}
			var p *profiling.Profile
			if raw {
				t, err := tabular.Read(path)
				if err != nil {
					return err
				}
				p = svc.Profile(t, topN)
			} else {
				prepared, err := svc.PrepareFile(path)
				if err != nil {
					return err
				}
				p = svc.Profile(prepared.Table, topN)
			}

			if out == "" {
				out = svc.OutputPath("profile.json")
			}
			if err := app.WriteJSON(out, p); err != nil {
				return err
			}
			fmt.Printf("Profiled %d rows, %d columns -> %s\n", p.Rows, p.Columns, out)
			for _, c := range p.Balance {
				fmt.Printf("  %s=%s: %d (%.1f%%)\n", cfg.Preprocess.Target, c.Class, c.Count, c.Share*100)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topN, "top", profiling.DefaultTopN, "Columns in the missing-value report (negative for all)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Profile the file as loaded instead of the prepared table")
	cmd.Flags().StringVar(&out, "out", "", "Output JSON; default OUTPUT_DIR/profile.json")
	return cmd
}

func newSplitCmd() *cobra.Command {
	var ratio float64
	var dateCol string

	cmd := &cobra.Command{
		Use:   "split [data-file]",
		Short: "Split the prepared table chronologically into train and test files",
		Long: `Prepare a booking file, order it by a date column and hold out the latest
rows as a test set.

Example: edacli split data/hotel_bookings.csv --test-ratio 0.2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeRepo, err := newService(false)
			if err != nil {
				return err
			}
			defer closeRepo()

			path, err := inputPath(args)
			if err != nil {
				return err
			}
			prepared, err := svc.PrepareFile(path)
			if err != nil {
				return err
			}
			train, test, err := evaluation.TrainTestSplit(prepared.Table, dateCol, ratio)
			if err != nil {
				return err
			}

			trainOut, testOut := svc.OutputPath("train.csv"), svc.OutputPath("test.csv")
			if err := tabular.Write(train, trainOut); err != nil {
				return err
			}
			if err := tabular.Write(test, testOut); err != nil {
				return err
			}
			fmt.Printf("Train %d rows -> %s\nTest %d rows -> %s\n", train.NumRows(), trainOut, test.NumRows(), testOut)
			return nil
		},
	}

	cmd.Flags().Float64Var(&ratio, "test-ratio", evaluation.DefaultTestRatio, "Share of the latest rows held out")
	cmd.Flags().StringVar(&dateCol, "date-column", preprocessing.ColArrivalYearMonth, "Column the rows are ordered by")
	return cmd
}

// newService wires the pipeline, opening the configured store when
// persistence is wanted
func newService(persist bool) (*app.PipelineService, func(), error) {
	if !persist || !cfg.Store.Enabled() {
		return app.NewPipelineService(cfg, nil), func() {}, nil
	}

	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(context.Background()); err != nil {
		st.Close()
		return nil, nil, err
	}

	var repo ports.Repository = st
	return app.NewPipelineService(cfg, repo), func() { st.Close() }, nil
}

func inputPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Paths.InputFile == "" {
		return "", errors.ConfigInvalid("no data file given and EDA_INPUT_FILE is not set")
	}
	return cfg.Paths.InputFile, nil
}
