package collection

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/erazemk/superge/internal/model"
)

var csvHeader = []string{
	"Brand", "Model", "Name", "Colorway", "Size", "Condition",
	"SKU", "Retail Price", "Market Value", "Purchase Date",
	"Purchase Price", "Purchase Location", "Notes",
}

var csvFields = []model.Field{
	model.FieldBrand, model.FieldModel, model.FieldName, model.FieldColorway,
	model.FieldSize, model.FieldCondition, model.FieldSKU, model.FieldRetailPrice,
	model.FieldMarketValue, model.FieldPurchaseDate, model.FieldPurchasePrice,
	model.FieldPurchaseLocation,
}

// WriteCSV writes records as a spreadsheet export. Absent values are empty
// cells.
func WriteCSV(w io.Writer, records []model.Sneaker) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	row := make([]string, len(csvHeader))
	for _, r := range records {
		for i, f := range csvFields {
			row[i], _ = f.Text(r)
		}
		row[len(row)-1] = r.Notes.OrZero()
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
