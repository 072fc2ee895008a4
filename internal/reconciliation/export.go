package reconciliation

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// GET /api/reconciliations/:id/export
// Sayım raporunu xlsx olarak indirir
func ExportReconciliationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recon, err := findReconciliation(c.Params("id"))
		if err != nil {
			return err
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Sayım"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{"Ürün", "Stok Kodu", "Sistem Stoku", "Fiziksel Sayım", "Fark", "Birim Maliyet", "Tahmini Etki", "Sebep", "Not"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		row := 2
		for _, item := range recon.Items {
			values := []interface{}{
				item.ProductName,
				item.ProductSKU,
				item.SystemCount,
				item.PhysicalCount,
				Discrepancy(item),
				item.UnitCost.InexactFloat64(),
				Impact(item).InexactFloat64(),
				string(item.DiscrepancyReason),
				item.Notes,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheet, cell, v)
			}
			row++
		}

		// Toplam satırı
		totalDiscrepancy, totalImpact := Totals(recon.Items)
		totalCell, _ := excelize.CoordinatesToCellName(1, row+1)
		f.SetCellValue(sheet, totalCell, "TOPLAM")
		discCell, _ := excelize.CoordinatesToCellName(5, row+1)
		f.SetCellValue(sheet, discCell, totalDiscrepancy)
		impactCell, _ := excelize.CoordinatesToCellName(7, row+1)
		f.SetCellValue(sheet, impactCell, totalImpact.InexactFloat64())

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor oluşturulamadı")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="mutabakat-%d.xlsx"`, recon.ID))
		return c.Send(buf.Bytes())
	}
}
