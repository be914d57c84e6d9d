package lf

import (
	"context"
	"html/template"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"

	"lostfound/internal/model"
)

const exportLayout = "2006-01-02_15-04-05"

// ExportFilename returns the download name for a workbook exported at the current time.
func (s *LFService) ExportFilename() string {
	return "BRZ_export_" + s.now().Format(exportLayout) + ".xlsx"
}

type exportColumn struct {
	header string
	value  func(*model.Item) string
}

var (
	colLP          = exportColumn{"LP", func(i *model.Item) string { return i.LP }}
	colOwner       = exportColumn{"Imię i nazwisko", func(i *model.Item) string { return model.StringValue(i.OwnerName) }}
	colAddress     = exportColumn{"Adres", func(i *model.Item) string { return model.StringValue(i.Address) }}
	colDescription = exportColumn{"Opis", func(i *model.Item) string { return i.Description }}
	colDocType     = exportColumn{"Typ dokumentu", func(i *model.Item) string { return model.StringValue(i.DocumentType) }}
	colBrand       = exportColumn{"Marka", func(i *model.Item) string { return model.StringValue(i.Brand) }}
	colStatus      = exportColumn{"Status", func(i *model.Item) string { return string(i.Status) }}
	colReceived    = exportColumn{"Data przyjęcia", func(i *model.Item) string { return i.CreatedAt.String() }}
)

func exportColumns(c model.Category) []exportColumn {
	switch c {
	case model.CategoryDocuments:
		return []exportColumn{colLP, colOwner, colAddress, colDescription, colDocType, colStatus, colReceived}
	case model.CategoryWallets, model.CategoryBags:
		return []exportColumn{colLP, colOwner, colAddress, colDescription, colStatus, colReceived}
	case model.CategoryPhones:
		return []exportColumn{colLP, colBrand, colAddress, colDescription, colStatus, colReceived}
	default:
		return []exportColumn{colLP, colAddress, colDescription, colStatus, colReceived}
	}
}

// ExportWorkbook writes an .xlsx workbook with one sheet per non-empty
// category, in the fixed category order.
func (s *LFService) ExportWorkbook(ctx context.Context, w io.Writer) error {
	release, err := s.acquireShared(ctx)
	if err != nil {
		return err
	}
	items, err := s.store.ListItemsForExport(ctx)
	release()
	if err != nil {
		return classify(errors.Wrap(err, "loading items for export"), ErrConfiguration)
	}

	grouped := make(map[model.Category][]*model.Item)
	for _, item := range items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	const defaultSheet = "Sheet1"
	sheets := 0
	for _, category := range model.Categories {
		rows := grouped[category]
		if len(rows) == 0 {
			continue
		}
		if err := writeCategorySheet(f, string(category), exportColumns(category), rows, header); err != nil {
			return errors.Wrapf(err, "writing sheet %s", category)
		}
		sheets++
	}

	if sheets > 0 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return errors.Wrap(err, "removing default sheet")
		}
		f.SetActiveSheet(0)
	}

	if err := f.Write(w); err != nil {
		return errors.Mark(errors.Wrap(err, "writing workbook"), ErrWriteFailure)
	}
	s.logger.Info("workbook exported", "items", len(items), "sheets", sheets)
	return nil
}

func writeCategorySheet(f *excelize.File, sheet string, cols []exportColumn, items []*model.Item, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := make([]any, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, item := range items {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = c.value(item)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 22)
}

var labelTemplate = template.Must(template.New("label").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Etykieta - {{.LP}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; background: white; color: black; }
        .label { border: 2px solid black; padding: 15px; width: 400px; background: white; }
        .header { font-size: 18px; font-weight: bold; margin-bottom: 10px; text-align: center; }
        .item-info { font-size: 14px; line-height: 1.5; }
        .item-info p { margin: 5px 0; }
        @media print {
            body { margin: 0; }
            .label { width: auto; border: 2px solid black; page-break-inside: avoid; }
        }
    </style>
    <script>window.onload = function() { window.print(); }</script>
</head>
<body>
    <div class="label">
        <div class="header">{{.LP}} - {{.Category}}</div>
        <div class="item-info">
            <p><strong>Opis:</strong> {{.Description}}</p>
{{- with .Owner}}
            <p><strong>Właściciel:</strong> {{.}}</p>
{{- end}}
{{- with .Address}}
            <p><strong>Adres:</strong> {{.}}</p>
{{- end}}
{{- with .Brand}}
            <p><strong>Marka:</strong> {{.}}</p>
{{- end}}
            <p><strong>Data przyjęcia:</strong> {{.Received}}</p>
            <p><strong>Osoba przyjmująca:</strong> {{.ReceivedBy}}</p>
        </div>
    </div>
</body>
</html>
`))

type labelData struct {
	LP          string
	Category    string
	Description string
	Owner       string
	Address     string
	Brand       string
	Received    string
	ReceivedBy  string
}

// RenderLabel writes a printable HTML label for the item with the given id.
func (s *LFService) RenderLabel(ctx context.Context, id int64, w io.Writer) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	data := labelData{
		LP:          item.LP,
		Category:    string(item.Category),
		Description: item.Description,
		Owner:       model.StringValue(item.OwnerName),
		Address:     model.StringValue(item.Address),
		Brand:       model.StringValue(item.Brand),
		ReceivedBy:  item.ReceivedBy,
	}
	if !item.CreatedAt.IsZero() {
		data.Received = item.CreatedAt.Format("2006-01-02")
	}

	if err := labelTemplate.Execute(w, data); err != nil {
		return errors.Wrap(err, "rendering label")
	}
	return nil
}
