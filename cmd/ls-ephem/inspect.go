package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/timescale"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1)
)

// renderTable draws a table, with borders only on a terminal. Rows for
// which dim returns true are greyed out.
func renderTable(w io.Writer, headers []string, rows [][]string, dim func(row int) bool) {
	border := lipgloss.HiddenBorder()
	if isTTY(w) {
		border = lipgloss.RoundedBorder()
	}
	t := table.New().
		Border(border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case dim != nil && dim(row):
				return tableDimStyle
			}
			return tableCellStyle
		})
	fmt.Fprintln(w, t.String())
}

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List loaded kernels and their segments",
		Long: `List every loaded kernel, then the segments of each. Segments hidden by a
later kernel are marked masked; segments skipped in best-effort mode are
listed with the reason.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			alm, err := a.openLoaded(cmd.Context())
			if err != nil {
				return err
			}
			defer alm.Close()

			asJSON, _ := cmd.Flags().GetBool("json")
			comments, _ := cmd.Flags().GetBool("comments")
			out := cmd.OutOrStdout()

			type kernelReport struct {
				ephem.KernelInfo
				Comments     string                 `json:"comments,omitempty"`
				SegmentsList []ephem.SegmentSummary `json:"segment_list"`
			}
			var report []kernelReport
			for _, k := range alm.Kernels() {
				segs, err := alm.Inspect(k.Handle)
				if err != nil {
					return err
				}
				r := kernelReport{KernelInfo: k, SegmentsList: segs}
				if comments {
					if r.Comments, err = alm.Comments(k.Handle); err != nil {
						return err
					}
				}
				report = append(report, r)
			}
			if asJSON {
				return writeJSON(out, report)
			}

			rows := make([][]string, 0, len(report))
			for i, r := range report {
				rows = append(rows, []string{
					strconv.Itoa(i + 1), r.Handle.Name, r.Kind, r.InternalName,
					humanize.IBytes(uint64(r.Size)), strconv.Itoa(r.Segments),
					strconv.Itoa(r.Masked), humanize.Time(r.LoadedAt),
				})
			}
			renderTable(out, []string{"#", "FILE", "KIND", "INTERNAL NAME", "SIZE", "SEGMENTS", "MASKED", "LOADED"}, rows, nil)

			for _, r := range report {
				fmt.Fprintf(out, "\n%s (%s)\n", r.Handle.Name, r.Handle.ID)
				if r.Comments != "" {
					fmt.Fprintln(out, r.Comments)
				}
				segs := r.SegmentsList
				rows := make([][]string, 0, len(segs))
				for _, s := range segs {
					note := ""
					switch {
					case s.Rejected != "":
						note = "rejected: " + s.Rejected
					case s.Masked:
						note = "masked"
					}
					rows = append(rows, []string{
						strconv.Itoa(s.Index), s.Name, bodyLabel(s.Target), bodyLabel(s.Center),
						strconv.Itoa(s.Frame), fmt.Sprintf("%d %s", s.TypeCode, s.Type),
						s.Start.String(), s.End.String(), note,
					})
				}
				renderTable(out, []string{"#", "NAME", "TARGET", "CENTER", "FRAME", "TYPE", "START", "END", ""}, rows,
					func(row int) bool { return segs[row].Masked || segs[row].Rejected != "" })
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "write JSON")
	cmd.Flags().Bool("comments", false, "include each kernel's comment area")
	return cmd
}

func bodyLabel(id int) string {
	if name := ephem.Name(id); name != strconv.Itoa(id) {
		return fmt.Sprintf("%s (%d)", name, id)
	}
	return strconv.Itoa(id)
}

func newCoverageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage [BODY...]",
		Short: "Time windows covered by the loaded trajectory data",
		Long:  "Print the merged coverage windows of each BODY, or of every body with data when none is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			alm, err := a.openLoaded(cmd.Context())
			if err != nil {
				return err
			}
			defer alm.Close()

			bodies := alm.Bodies()
			if len(args) > 0 {
				bodies = bodies[:0]
				for _, s := range args {
					id, err := ephem.ResolveBody(s)
					if err != nil {
						return err
					}
					bodies = append(bodies, id)
				}
			}

			type window struct {
				Body    int     `json:"body"`
				StartET float64 `json:"start_et"`
				EndET   float64 `json:"end_et"`
			}
			var windows []window
			var rows [][]string
			for _, id := range bodies {
				for _, w := range alm.Coverage(id) {
					windows = append(windows, window{id, w.Start.ET(), w.End.ET()})
					rows = append(rows, []string{bodyLabel(id), w.Start.String(), w.End.String(), span(w.Start, w.End)})
				}
			}
			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(out, windows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "no coverage")
				return nil
			}
			renderTable(out, []string{"BODY", "START", "END", "SPAN"}, rows, nil)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "write JSON")
	return cmd
}

// span formats the length of a window in days.
func span(start, end timescale.Epoch) string {
	return humanize.FormatFloat("#,###.##", end.Sub(start)/86400) + " d"
}
