package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

func (p *PDFProvider) GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	cfg := config.NewBuilder().Build()

	m := maroto.New(cfg)

	m.AddRow(16,
		text.NewCol(12, data.VenueName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Bill: "+data.BillNo, props.Text{Top: 0}),
			text.New("Date: "+data.Date, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Table: "+data.TableCode, props.Text{Top: 0}),
			text.New("Cashier: "+data.Cashier, props.Text{Top: 5}),
		),
	)

	m.AddRow(8,
		text.NewCol(6, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if data.TimeCharge != "" {
		m.AddRow(8,
			text.NewCol(6, "Table time", props.Text{Size: 9}),
			col.New(4),
			text.NewCol(2, data.TimeCharge, props.Text{Size: 9, Align: align.Right}),
		)
	}
	for _, item := range data.Items {
		m.AddRow(8,
			text.NewCol(6, item.Name, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	for _, line := range []struct {
		label string
		value string
	}{
		{"Subtotal", data.Subtotal},
		{"Discount", data.Discount},
		{"Tax", data.Tax},
		{"Tip", data.Tip},
		{"Total (" + data.PaymentMethod + ")", data.Total},
		{"Cash", data.TenderCash},
		{"Card", data.TenderCard},
		{"Change", data.Change},
	} {
		if line.value == "" {
			continue
		}
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, line.label, props.Text{Size: 9}),
			text.NewCol(2, line.value, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(12,
		text.NewCol(12, "Thank you for playing", props.Text{
			Size:  9,
			Align: align.Center,
			Top:   4,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
