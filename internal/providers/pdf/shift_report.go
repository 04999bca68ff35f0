package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateShiftReport(ctx context.Context, data ShiftReportData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, data.VenueName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Shift Report", props.Text{
			Size:  14,
			Align: align.Right,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Register: "+data.Register, props.Text{Top: 0}),
			text.New("Shift: "+data.ShiftID, props.Text{Top: 5}),
			text.New("Opened by: "+data.OpenedBy, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Opened: "+data.OpenedAt, props.Text{Top: 0}),
			text.New("Closed: "+data.ClosedAt, props.Text{Top: 5}),
		),
	)

	m.AddRow(10,
		text.NewCol(12, "Drawer reconciliation", props.Text{
			Size:  11,
			Style: fontstyle.Bold,
		}),
	)
	for _, line := range []struct {
		label string
		value string
	}{
		{"Opening float", data.OpeningFloat},
		{"Cash sales", data.CashSales},
		{"Card sales", data.CardSales},
		{"Drops", data.Drops},
		{"Payouts", data.Payouts},
		{"Adjustments", data.Adjustments},
		{"Expected cash", data.ExpectedCash},
		{"Counted cash", data.CountedCash},
		{"Variance", data.Variance},
	} {
		m.AddRow(8,
			col.New(6),
			text.NewCol(3, line.label, props.Text{Size: 9}),
			text.NewCol(3, line.value, props.Text{Size: 9, Align: align.Right}),
		)
	}

	if len(data.Movements) > 0 {
		m.AddRow(12,
			text.NewCol(12, "Cash movements", props.Text{
				Size:  11,
				Style: fontstyle.Bold,
				Top:   4,
			}),
		)
		m.AddRow(8,
			text.NewCol(3, "Time", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Type", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.NewCol(4, "Reason", props.Text{Style: fontstyle.Bold, Size: 9}),
		)
		for _, movement := range data.Movements {
			m.AddRow(8,
				text.NewCol(3, movement.Time, props.Text{Size: 9}),
				text.NewCol(2, movement.Type, props.Text{Size: 9}),
				text.NewCol(3, movement.Amount, props.Text{Size: 9, Align: align.Right}),
				text.NewCol(4, movement.Reason, props.Text{Size: 9}),
			)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
