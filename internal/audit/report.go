package audit

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Report renders entries (newest first) into a PDF access report for
// operators.
func Report(entries []Entry, deviceUUID string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Door Access Report")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Device %s  -  generated %s", deviceUUID, time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(10)

	granted, denied, overrides := 0, 0, 0
	for _, e := range entries {
		switch e.Decision {
		case DecisionGranted:
			granted++
		case DecisionDenied:
			denied++
		case DecisionOverride:
			overrides++
		}
	}
	pdf.Cell(0, 6, fmt.Sprintf("%d events: %d granted, %d denied, %d overrides", len(entries), granted, denied, overrides))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	writeRow(pdf, "Time", "Decision", "Card UID", "Detail")
	pdf.SetFont("Courier", "", 8)
	for _, e := range entries {
		detail := e.Grantee
		if e.Decision == DecisionDenied {
			detail = e.Reason
		} else if e.Decision == DecisionOverride {
			detail = e.Source
		}
		writeRow(pdf, e.Time, string(e.Decision), e.UID, detail)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	return out.Bytes(), nil
}

func writeRow(pdf *fpdf.Fpdf, ts, decision, uid, detail string) {
	pdf.CellFormat(45, 5, ts, "", 0, "L", false, 0, "")
	pdf.CellFormat(22, 5, decision, "", 0, "L", false, 0, "")
	pdf.CellFormat(50, 5, uid, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, detail, "", 1, "L", false, 0, "")
}
