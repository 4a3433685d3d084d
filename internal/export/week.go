package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/planning"
	"github.com/xuri/excelize/v2"
)

const (
	GridSheet    = "排班表"
	MissionSheet = "任务列表"
)

var weekdayNames = []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

var missionHeader = []string{"任务ID", "日期", "开始", "结束", "时长(小时)", "客户", "城市", "类型", "状态", "技术员ID", "冲突"}

// blockLabel 为格子中的一个任务生成一行文字
func blockLabel(b planning.Block, loc *time.Location) string {
	label := fmt.Sprintf("#%d %s [%s] %s-%s", b.MissionID, b.ClientName, b.Type, b.Start.In(loc).Format("15:04"), b.End.In(loc).Format("15:04"))
	if b.Conflict {
		label += " (冲突)"
	}
	return label
}

// WeekWorkbook 把一周的排班表导出为 xlsx：第一个工作表为小时 × 天的网格，第二个工作表为任务明细
func WeekWorkbook(grid *planning.WeekGrid, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(GridSheet)
	if err != nil {
		return nil, fmt.Errorf("创建工作表失败: %w", err)
	}
	if _, err := f.NewSheet(MissionSheet); err != nil {
		return nil, fmt.Errorf("创建工作表失败: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("删除默认工作表失败: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("创建表头样式失败: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("创建单元格样式失败: %w", err)
	}
	conflictStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "9C0006"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("创建冲突样式失败: %w", err)
	}

	if err := writeGridSheet(f, grid, loc, headerStyle, cellStyle, conflictStyle); err != nil {
		return nil, err
	}
	if err := writeMissionSheet(f, grid, loc, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("写入 xlsx 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func writeGridSheet(f *excelize.File, grid *planning.WeekGrid, loc *time.Location, headerStyle, cellStyle, conflictStyle int) error {
	// 表头：A1 为空，B1..H1 为一周七天
	if err := f.SetCellValue(GridSheet, "A1", "时间"); err != nil {
		return err
	}
	for i, day := range grid.Days {
		cell, err := excelize.CoordinatesToCellName(i+2, 1)
		if err != nil {
			return err
		}
		label := fmt.Sprintf("%s %s", weekdayNames[i%7], day.Date.In(loc).Format("01-02"))
		if err := f.SetCellValue(GridSheet, cell, label); err != nil {
			return err
		}
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(grid.Days)+1, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(GridSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for row, hour := range grid.Hours {
		hourCell, err := excelize.CoordinatesToCellName(1, row+2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(GridSheet, hourCell, fmt.Sprintf("%02d:00", hour)); err != nil {
			return err
		}
		if err := f.SetCellStyle(GridSheet, hourCell, hourCell, headerStyle); err != nil {
			return err
		}

		for col, day := range grid.Days {
			if row >= len(day.Cells) {
				continue
			}
			blocks := day.Cells[row].Blocks
			cell, err := excelize.CoordinatesToCellName(col+2, row+2)
			if err != nil {
				return err
			}

			style := cellStyle
			lines := make([]string, 0, len(blocks))
			for _, b := range blocks {
				lines = append(lines, blockLabel(b, loc))
				if b.Conflict {
					style = conflictStyle
				}
			}
			if len(lines) > 0 {
				if err := f.SetCellValue(GridSheet, cell, strings.Join(lines, "\n")); err != nil {
					return err
				}
			}
			if err := f.SetCellStyle(GridSheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(GridSheet, "A", "A", 8); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(grid.Days) + 1)
	if err != nil {
		return err
	}
	return f.SetColWidth(GridSheet, "B", lastCol, 32)
}

func writeMissionSheet(f *excelize.File, grid *planning.WeekGrid, loc *time.Location, headerStyle int) error {
	for i, header := range missionHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(MissionSheet, cell, header); err != nil {
			return err
		}
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(missionHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(MissionSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	row := 2
	for _, day := range grid.Days {
		for _, c := range day.Cells {
			for _, b := range c.Blocks {
				technician := ""
				if b.TechnicianID != nil {
					technician = fmt.Sprint(*b.TechnicianID)
				}
				conflict := "否"
				if b.Conflict {
					conflict = "是"
				}

				values := []any{
					b.MissionID,
					b.Start.In(loc).Format("2006-01-02"),
					b.Start.In(loc).Format("15:04"),
					b.End.In(loc).Format("15:04"),
					b.Hours,
					b.ClientName,
					b.City,
					string(b.Type),
					string(b.Status),
					technician,
					conflict,
				}
				cell, err := excelize.CoordinatesToCellName(1, row)
				if err != nil {
					return err
				}
				if err := f.SetSheetRow(MissionSheet, cell, &values); err != nil {
					return err
				}
				row++
			}
		}
	}

	return f.SetColWidth(MissionSheet, "A", "K", 14)
}
