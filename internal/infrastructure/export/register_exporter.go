package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	sheetName     = "Register"
	headerRow     = 1
	dataRowStart  = 2
	amountNumFmt  = 4 // #,##0.00
	dateNumFormat = "dd mmm yyyy"
)

var registerColumns = []struct {
	title string
	width float64
}{
	{"Reference", 18},
	{"Client", 30},
	{"Service Type", 22},
	{"Consultant", 22},
	{"Standards", 28},
	{"Status", 18},
	{"Amount", 14},
	{"Start Date", 14},
	{"Target Date", 14},
	{"Remarks", 40},
}

// Column indexes (1-based) of the styled cells
const (
	colAmount     = 7
	colStartDate  = 8
	colTargetDate = 9
)

// RegisterExporter writes the engagement register as an xlsx workbook
type RegisterExporter struct {
	logger *zap.Logger
}

// NewRegisterExporter creates a new register exporter
func NewRegisterExporter(logger *zap.Logger) *RegisterExporter {
	return &RegisterExporter{logger: logger}
}

// ContentType is the MIME type of the produced workbook
func (e *RegisterExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Export writes one row per engagement, in the given order, to w
func (e *RegisterExporter) Export(ctx context.Context, engagements []*entity.Engagement, w io.Writer) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newRegisterStyles(file)
	if err != nil {
		return err
	}

	if err := writeHeader(file, styles.header); err != nil {
		return err
	}

	for i, engagement := range engagements {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeRow(file, dataRowStart+i, engagement); err != nil {
			return err
		}
	}

	if len(engagements) > 0 {
		if err := applyColumnStyles(file, styles, dataRowStart+len(engagements)-1); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.CoordinatesToCellName(len(registerColumns), headerRow)
	if err := file.AutoFilter(sheetName, "A1:"+lastCol, nil); err != nil {
		return fmt.Errorf("failed to set auto filter: %w", err)
	}

	if err := file.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Engagement register exported", zap.Int("rows", len(engagements)))
	return nil
}

type registerStyles struct {
	header int
	amount int
	date   int
}

func newRegisterStyles(file *excelize.File) (registerStyles, error) {
	var styles registerStyles
	var err error

	styles.header, err = file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return styles, fmt.Errorf("failed to create header style: %w", err)
	}

	styles.amount, err = file.NewStyle(&excelize.Style{NumFmt: amountNumFmt})
	if err != nil {
		return styles, fmt.Errorf("failed to create amount style: %w", err)
	}

	dateFmt := dateNumFormat
	styles.date, err = file.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return styles, fmt.Errorf("failed to create date style: %w", err)
	}

	return styles, nil
}

func writeHeader(file *excelize.File, style int) error {
	titles := make([]interface{}, len(registerColumns))
	for i, col := range registerColumns {
		titles[i] = col.title

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := file.SetColWidth(sheetName, name, name, col.width); err != nil {
			return fmt.Errorf("failed to set width of column %s: %w", name, err)
		}
	}

	if err := file.SetSheetRow(sheetName, "A1", &titles); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	lastCol, _ := excelize.CoordinatesToCellName(len(registerColumns), headerRow)
	if err := file.SetCellStyle(sheetName, "A1", lastCol, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

func writeRow(file *excelize.File, row int, e *entity.Engagement) error {
	values := []interface{}{
		e.Reference,
		e.ClientName,
		e.ServiceType,
		e.ConsultantName,
		strings.Join(e.Standards, ", "),
		e.Status,
		e.Amount,
		dateValue(e.StartDate),
		dateValue(e.TargetDate),
		e.Remarks,
	}

	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := file.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d (%s): %w", row, e.Reference, err)
	}
	return nil
}

func applyColumnStyles(file *excelize.File, styles registerStyles, lastRow int) error {
	columns := []struct {
		col   int
		style int
	}{
		{colAmount, styles.amount},
		{colStartDate, styles.date},
		{colTargetDate, styles.date},
	}

	for _, c := range columns {
		top, _ := excelize.CoordinatesToCellName(c.col, dataRowStart)
		bottom, _ := excelize.CoordinatesToCellName(c.col, lastRow)
		if err := file.SetCellStyle(sheetName, top, bottom, c.style); err != nil {
			return fmt.Errorf("failed to style column %d: %w", c.col, err)
		}
	}
	return nil
}

// dateValue leaves the cell empty for a missing date
func dateValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
