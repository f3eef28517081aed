package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const participantSheet = "Participants"

var participantHeaders = []string{
	"Name", "Email", "Phone", "Points", "Province", "City",
	"Referral Code", "Certificate Numbers", "Registered At",
}

// ExportParticipantsXLSX renders the draw export as a spreadsheet, one row
// per participant. It returns the workbook and a suggested file name.
func (s *AdminService) ExportParticipantsXLSX(ctx context.Context, now time.Time) (*bytes.Buffer, string, error) {
	rows, err := s.ExportParticipants(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(participantSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range participantHeaders {
		if err := f.SetCellValue(participantSheet, cellName(i+1, 1), header); err != nil {
			return nil, "", err
		}
	}
	last := cellName(len(participantHeaders), 1)
	if err := f.SetCellStyle(participantSheet, "A1", last, headerStyle); err != nil {
		return nil, "", err
	}
	_ = f.SetColWidth(participantSheet, "A", "B", 28)
	_ = f.SetColWidth(participantSheet, "H", "H", 40)

	for r, p := range rows {
		values := []interface{}{
			p.Name,
			p.Email,
			p.Phone,
			p.Points,
			p.Province,
			p.City,
			p.ReferralCode,
			strings.Join(p.CertificateNumbers, ", "),
			p.RegisteredAt.Format(time.RFC3339),
		}
		for c, v := range values {
			if err := f.SetCellValue(participantSheet, cellName(c+1, r+2), v); err != nil {
				return nil, "", err
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("failed to write participants workbook", zap.Error(err))
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, fmt.Sprintf("participants_%s.xlsx", now.Format("20060102")), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
