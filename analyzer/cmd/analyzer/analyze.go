package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/carepulse/carepulse/analyzer/internal/config"
	"github.com/carepulse/carepulse/analyzer/internal/report"
	"github.com/carepulse/carepulse/analyzer/internal/shipper"
	"github.com/carepulse/carepulse/internal/intake"
	"github.com/carepulse/carepulse/internal/pipeline"
	"github.com/carepulse/carepulse/pkg/types"
)

// inputOpts are the flags shared by analyze and watch. Empty values fall
// back to the config file.
type inputOpts struct {
	patients  string
	hospital  string
	reportDir string
	noReport  bool
	noShip    bool
	source    string
}

func (o *inputOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.patients, "patients", "", "patient sheet (.xlsx, .csv or .json)")
	cmd.Flags().StringVar(&o.hospital, "hospital", "", "hospital sheet (.xlsx, .csv or .json)")
	cmd.Flags().StringVar(&o.reportDir, "report-dir", "", "directory for the .xlsx report")
	cmd.Flags().BoolVar(&o.noReport, "no-report", false, "skip writing the .xlsx report")
	cmd.Flags().BoolVar(&o.noShip, "no-ship", false, "do not send the batch to the server")
	cmd.Flags().StringVar(&o.source, "source", "carepulse-analyzer", "source name recorded by the server")
}

// resolve merges flags over cfg.
func (o *inputOpts) resolve(cfg *config.Config) error {
	if o.patients == "" {
		o.patients = cfg.Analyzer.Patients
	}
	if o.hospital == "" {
		o.hospital = cfg.Analyzer.Hospital
	}
	if o.reportDir == "" {
		o.reportDir = cfg.Analyzer.ReportDir
	}
	if o.patients == "" || o.hospital == "" {
		return errors.New("both --patients and --hospital are required (flag or config)")
	}
	return nil
}

// job is one analysis pass over the input files.
type job struct {
	opts *inputOpts
	pl   *pipeline.Pipeline
}

type outcome struct {
	patients []types.Row
	hospital types.Row
	analysis *types.Analysis
	report   string
}

func (j job) run(now time.Time) (*outcome, error) {
	rows, err := intake.ReadFile(j.opts.patients)
	if err != nil {
		return nil, err
	}
	hospital, err := intake.ReadHospitalFile(j.opts.hospital)
	if err != nil {
		return nil, err
	}
	a, err := j.pl.Run(rows, hospital)
	if err != nil {
		return nil, err
	}

	out := &outcome{patients: rows, hospital: hospital, analysis: a}
	if !j.opts.noReport {
		path, err := report.WriteFile(j.opts.reportDir, a, now)
		if err != nil {
			return nil, err
		}
		out.report = path
	}

	log.Info().
		Str("hospital", a.Hospital.HospitalID).
		Int("patients", a.Summary.PatientCount).
		Float64("hsi", a.Hospital.HSI).
		Str("status", a.Hospital.StressStatus).
		Str("report", out.report).
		Msg("analyzer: analysis complete")
	return out, nil
}

func analyzeCmd(g *globals) *cobra.Command {
	o := &inputOpts{}
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one patient sheet against one hospital sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.resolve(g.cfg); err != nil {
				return err
			}
			pl, err := pipeline.New(g.cfg.Fields)
			if err != nil {
				return err
			}
			res, err := job{opts: o, pl: pl}.run(time.Now())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res.analysis); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), res.analysis, res.report)
			}

			target := g.cfg.Analyzer.Server
			if o.noShip || target.Endpoint == "" {
				return nil
			}
			s := shipper.New(target, o.source, 1)
			runID, err := s.Send(cmd.Context(), s.NewBatch(res.patients, res.hospital))
			if err != nil {
				return err
			}
			log.Info().Str("run", runID).Str("server", target.Endpoint).Msg("analyzer: batch shipped")
			return nil
		},
	}
	o.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full analysis as JSON")
	return cmd
}

// printSummary writes the human-readable result table.
func printSummary(w io.Writer, a *types.Analysis, reportPath string) {
	h := a.Hospital
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Hospital\t%s\n", h.HospitalID)
	fmt.Fprintf(tw, "Stress index\t%.4f (%s)\n", h.HSI, h.StressStatus)
	fmt.Fprintf(tw, "ER status\t%s\n", h.ERStatus)
	fmt.Fprintf(tw, "Free beds\tgeneral %d / ICU %d\n", h.AvailableGeneral, h.AvailableICU)
	for _, adv := range h.Advisories {
		fmt.Fprintf(tw, "Advisory\t%s\n", adv)
	}
	fmt.Fprintf(tw, "Patients\t%d (mean risk %.2f)\n", a.Summary.PatientCount, a.Summary.MeanRisk)
	for _, sev := range []string{types.SeverityCritical, types.SeverityModerate, types.SeverityStable} {
		fmt.Fprintf(tw, "  %s\t%d\n", sev, a.Summary.BySeverity[sev])
	}
	beds := make([]string, 0, len(a.Summary.ByBed))
	for b := range a.Summary.ByBed {
		beds = append(beds, b)
	}
	sort.Strings(beds)
	for _, b := range beds {
		fmt.Fprintf(tw, "  %s\t%d\n", b, a.Summary.ByBed[b])
	}
	if reportPath != "" {
		fmt.Fprintf(tw, "Report\t%s\n", reportPath)
	}
	tw.Flush()
}

// shipAsync queues an outcome on a running shipper.
func shipAsync(s *shipper.Shipper, res *outcome) {
	if s == nil {
		return
	}
	s.Ship(s.NewBatch(res.patients, res.hospital))
}
