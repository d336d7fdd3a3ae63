// Package report renders solved problems as PDF documents.
package report

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"gonum.org/v1/plot/vg"

	"github.com/chrissnell/openchannel/pkg/gvf"
	"github.com/chrissnell/openchannel/pkg/solver"
)

// Document is the content of one report.
type Document struct {
	ID        string
	CreatedAt time.Time
	Request   solver.Request
	Result    solver.Result
}

// Profile returns the water-surface profile of a GVF result, if any.
func (d Document) Profile() (gvf.Profile, bool) {
	f, ok := d.Result.Get("profile")
	if !ok || !f.OK() {
		return gvf.Profile{}, false
	}
	p, ok := f.Value.(gvf.Profile)
	return p, ok
}

// Prepare solves req for a report. A GVF problem with a target depth but no
// profile_distance is solved again with the profile over the computed
// distance, so the report can draw it.
func Prepare(s *solver.Solver, id string, created time.Time, req solver.Request) (Document, error) {
	res, err := s.Solve(req)
	if err != nil {
		return Document{}, err
	}
	doc := Document{ID: id, CreatedAt: created, Request: req, Result: res}
	if res.Problem != solver.GVF || req.Params.Has("profile_distance") {
		return doc, nil
	}

	L, okL := res.Float("distance")
	d0, okD := res.Float("start_slope")
	y0, _, _, _ := req.Params.FloatAny("start_depth", "depth")
	yt, _, _ := req.Params.Float("target_depth")
	if !okL || !okD || !(L > 0) {
		return doc, nil
	}
	dir := gvf.DirectionTowards(d0, y0, yt)

	params := make(solver.Params, len(req.Params)+2)
	for k, v := range req.Params {
		params[k] = v
	}
	params["profile_distance"] = L
	params["direction"] = dir.String()
	withProfile, err := s.Solve(solver.Request{Problem: req.Problem, Params: params})
	if err != nil {
		return doc, nil
	}
	doc.Result = withProfile
	return doc, nil
}

const (
	pageWidth  = 210.0
	margin     = 15.0
	contentW   = pageWidth - 2*margin
	nameColW   = 70.0
	rowHeight  = 6.0
	chartWidth = 160.0
)

// Write renders doc as a PDF to w.
func Write(w io.Writer, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle("Open-channel flow report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Open-channel flow report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, rowHeight, "Problem: "+string(doc.Result.Problem))
	pdf.Ln(rowHeight)
	if doc.ID != "" {
		pdf.Cell(0, rowHeight, "Solution: "+doc.ID)
		pdf.Ln(rowHeight)
	}
	if !doc.CreatedAt.IsZero() {
		pdf.Cell(0, rowHeight, "Solved: "+doc.CreatedAt.UTC().Format(time.RFC1123))
		pdf.Ln(rowHeight)
	}
	pdf.Ln(4)

	heading(pdf, "Parameters")
	for _, k := range doc.Request.Params.Keys() {
		row(pdf, k, formatValue(doc.Request.Params[k]))
	}
	pdf.Ln(4)

	heading(pdf, "Results")
	for _, f := range doc.Result.Fields {
		if f.Name == "profile" && f.OK() {
			continue
		}
		if f.OK() {
			row(pdf, f.Name, formatValue(f.Value))
		} else {
			pdf.SetTextColor(170, 30, 30)
			row(pdf, f.Name, "not computed: "+f.Err.Error())
			pdf.SetTextColor(0, 0, 0)
		}
	}

	if prof, ok := doc.Profile(); ok && len(prof.X) > 1 {
		if err := profilePage(pdf, doc, prof); err != nil {
			return err
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	return pdf.Output(w)
}

// Bytes renders doc into memory.
func Bytes(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func profilePage(pdf *gofpdf.Fpdf, doc Document, prof gvf.Profile) error {
	pdf.AddPage()
	heading(pdf, "Water-surface profile")

	yn, hasYn := doc.Result.Float("normal_depth")
	if s, ok, _ := doc.Request.Params.Float("slope"); ok && s <= 0 {
		hasYn = false
	}
	if !hasYn {
		yn = 0
	}
	yc, _ := doc.Result.Float("critical_depth")

	png, err := Chart(prof, yn, yc, vg.Points(480), vg.Points(300))
	if err != nil {
		return fmt.Errorf("failed to draw profile: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("profile", opts, bytes.NewReader(png))
	pdf.ImageOptions("profile", margin+(contentW-chartWidth)/2, pdf.GetY(), chartWidth, 0, true, opts, 0, "")
	pdf.Ln(4)

	sum := Summarize(prof)
	row(pdf, "points", fmt.Sprintf("%d", sum.Points))
	row(pdf, "length (m)", fmt.Sprintf("%.2f", sum.Length))
	row(pdf, "minimum depth (m)", fmt.Sprintf("%.4f", sum.Min))
	row(pdf, "maximum depth (m)", fmt.Sprintf("%.4f", sum.Max))
	row(pdf, "mean depth (m)", fmt.Sprintf("%.4f", sum.Mean))
	row(pdf, "depth std. dev. (m)", fmt.Sprintf("%.4f", sum.StdDev))
	return nil
}

func heading(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, text)
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
}

func row(pdf *gofpdf.Fpdf, name, value string) {
	pdf.CellFormat(nameColW, rowHeight, name, "B", 0, "L", false, 0, "")
	pdf.MultiCell(contentW-nameColW, rowHeight, value, "B", "L", false)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float64:
		return fmt.Sprintf("%.6g", x)
	case float32:
		return fmt.Sprintf("%.6g", x)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case string:
		return x
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return strings.Join(parts, ", ")
	case []float64:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + formatValue(x[k])
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
