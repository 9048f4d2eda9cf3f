package receipt

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type Data struct {
	EventName  string
	OrderID    string
	PayerName  string
	PayerEmail string
	Method     string
	Amount     string
	PaidAt     string
	ReceiptURL string
}

// Build renders the payment receipt PDF attached to the receipt email.
func Build(data Data) ([]byte, error) {
	cfg := config.NewBuilder().Build()
	m := maroto.New(cfg)

	m.AddRow(25,
		text.NewCol(12, "Payment Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(30,
		col.New(12).Add(
			text.New("Event: "+data.EventName, props.Text{Top: 0}),
			text.New("Order ID: "+data.OrderID, props.Text{Top: 5}),
			text.New("Paid at: "+data.PaidAt, props.Text{Top: 10}),
		),
	)

	m.AddRow(25,
		col.New(6).Add(
			text.New("Payer", props.Text{Style: fontstyle.Bold}),
			text.New(data.PayerName, props.Text{Top: 5}),
			text.New(data.PayerEmail, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Payment", props.Text{Style: fontstyle.Bold}),
			text.New("Method: "+data.Method, props.Text{Top: 5}),
			text.New("Amount: "+data.Amount, props.Text{Top: 10}),
		),
	)

	if data.ReceiptURL != "" {
		m.AddRow(15,
			text.NewCol(12, "Provider receipt: "+data.ReceiptURL, props.Text{Size: 9, Top: 5}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
