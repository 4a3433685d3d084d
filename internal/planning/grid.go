package planning

import (
	"math"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
)

const (
	pixelsPerHour  = 60
	minBlockHeight = 60
)

type Block struct {
	MissionID    int64                `json:"missionID"`
	ClientName   string               `json:"clientName"`
	Description  string               `json:"description"`
	City         string               `json:"city"`
	Type         domain.MissionType   `json:"type"`
	Status       domain.MissionStatus `json:"status"`
	TechnicianID *int64               `json:"technicianID"`
	Start        time.Time            `json:"start"`
	End          time.Time            `json:"end"`
	Hours        float64              `json:"hours"`
	Conflict     bool                 `json:"conflict"`
	HeightPx     int                  `json:"heightPx"`
}

type Cell struct {
	Hour   int     `json:"hour"`
	Blocks []Block `json:"blocks"`
}

type GridDay struct {
	Date  time.Time `json:"date"`
	Cells []Cell    `json:"cells"`
}

type WeekGrid struct {
	WeekStart time.Time `json:"weekStart"`
	Hours     []int     `json:"hours"`
	Days      []GridDay `json:"days"`
}

type TechnicianRow struct {
	Technician  *domain.Technician `json:"technician"` // 为 nil 时表示未分配的任务
	Workload    Workload           `json:"workload"`
	LoadPercent float64            `json:"loadPercent"`
	LoadLevel   LoadLevel          `json:"loadLevel"`
	BarWidth    float64            `json:"barWidth"`
	Cells       []Cell             `json:"cells"`
}

type TechnicianDay struct {
	Date          time.Time       `json:"date"`
	Hours         []int           `json:"hours"`
	BaselineHours float64         `json:"baselineHours"`
	Rows          []TechnicianRow `json:"rows"`
}

// BlockHeight 按时长计算任务块的高度，最少 60px（时长为 0 或负数时也是 60px）
func BlockHeight(hours float64) int {
	return max(int(math.Round(hours*pixelsPerHour)), minBlockHeight)
}

func newBlock(m *domain.Mission, w Window, conflicts ConflictSet) Block {
	return Block{
		MissionID:    m.ID,
		ClientName:   m.ClientName,
		Description:  m.Description,
		City:         m.City,
		Type:         m.Type,
		Status:       m.Status,
		TechnicianID: m.PlanningTechnicianID,
		Start:        w.Start,
		End:          w.End,
		Hours:        w.Hours(),
		Conflict:     conflicts.Has(m.ID),
		HeightPx:     BlockHeight(w.Hours()),
	}
}

// buildCells 把当天开始的任务放到对应小时的格子里，同一格子中的任务按输入顺序堆叠
func buildCells(day time.Time, missions []*domain.Mission, conflicts ConflictSet, opts Options) []Cell {
	loc := opts.location()

	cells := make([]Cell, 0, opts.LastHour-opts.FirstHour+1)
	index := make(map[int]int)
	for _, hour := range opts.Hours() {
		index[hour] = len(cells)
		cells = append(cells, Cell{Hour: hour, Blocks: []Block{}})
	}

	for _, m := range missions {
		w, ok := WindowOf(m)
		if !ok || !w.Day(loc).Equal(day) {
			continue
		}
		i, ok := index[w.Start.In(loc).Hour()]
		if !ok {
			// 不在排班表时间范围内的任务不显示
			continue
		}
		cells[i].Blocks = append(cells[i].Blocks, newBlock(m, w, conflicts))
	}

	return cells
}

func BuildWeekGrid(weekStart time.Time, missions []*domain.Mission, conflicts ConflictSet, opts Options) *WeekGrid {
	loc := opts.location()
	start := WeekStart(weekStart, loc)

	grid := &WeekGrid{
		WeekStart: start,
		Hours:     opts.Hours(),
		Days:      make([]GridDay, 0, 7),
	}

	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		grid.Days = append(grid.Days, GridDay{
			Date:  day,
			Cells: buildCells(day, missions, conflicts, opts),
		})
	}

	return grid
}

// BuildTechnicianDay 构建多技术员视图：每个技术员一行，最后一行为未分配（或分配给非在职技术员）的任务
func BuildTechnicianDay(date time.Time, technicians []*domain.Technician, missions []*domain.Mission, conflicts ConflictSet, opts Options) *TechnicianDay {
	loc := opts.location()
	day := DateOf(date, loc)

	td := &TechnicianDay{
		Date:          day,
		Hours:         opts.Hours(),
		BaselineHours: opts.BaselineHours,
		Rows:          make([]TechnicianRow, 0, len(technicians)+1),
	}

	known := make(map[int64]bool, len(technicians))
	byTechnician := make(map[int64][]*domain.Mission)
	unassigned := []*domain.Mission{}

	for _, t := range technicians {
		known[t.ID] = true
	}
	for _, m := range missions {
		if m.PlanningTechnicianID != nil && known[*m.PlanningTechnicianID] {
			byTechnician[*m.PlanningTechnicianID] = append(byTechnician[*m.PlanningTechnicianID], m)
			continue
		}
		unassigned = append(unassigned, m)
	}

	for _, t := range technicians {
		wl := TechWorkload(missions, t.ID, day, loc)
		td.Rows = append(td.Rows, TechnicianRow{
			Technician:  t,
			Workload:    wl,
			LoadPercent: wl.Percent(opts.BaselineHours),
			LoadLevel:   wl.Level(opts.BaselineHours),
			BarWidth:    wl.BarWidth(opts.BaselineHours),
			Cells:       buildCells(day, byTechnician[t.ID], conflicts, opts),
		})
	}

	hasUnassigned := false
	for _, m := range unassigned {
		if w, ok := WindowOf(m); ok && w.Day(loc).Equal(day) {
			hasUnassigned = true
			break
		}
	}
	if hasUnassigned {
		td.Rows = append(td.Rows, TechnicianRow{
			Technician: nil,
			LoadLevel:  LoadNormal,
			Cells:      buildCells(day, unassigned, conflicts, opts),
		})
	}

	return td
}
