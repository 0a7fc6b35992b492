package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Write creates a workbook at path whose sheet holds header followed by
// rows. It is used to seed sample data and test fixtures.
func Write(path, sheet string, header []string, rows [][]string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()

	if sheet != DefaultSheet {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return fmt.Errorf("creating sheet %q: %v", sheet, err)
		}
		f.SetActiveSheet(idx)
	}
	all := append([][]string{header}, rows...)
	for r, cells := range all {
		for c, v := range cells {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("setting %s!%s: %v", sheet, cell, err)
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %v", path, err)
	}
	return nil
}
