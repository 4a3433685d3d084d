package planning

import (
	"testing"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func at(loc *time.Location, year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func mission(id int64, start, end time.Time) *domain.Mission {
	return &domain.Mission{
		ID:                   id,
		ClientName:           "client",
		Type:                 domain.MissionTypeMaintenance,
		Status:               domain.MissionStatusPlanned,
		ScheduledStart:       start,
		ScheduledWindowStart: &start,
		ScheduledWindowEnd:   &end,
		Version:              1,
	}
}

func assigned(m *domain.Mission, technicianID int64) *domain.Mission {
	m.PlanningTechnicianID = &technicianID
	return m
}

func TestWeekStart(t *testing.T) {
	loc := time.UTC

	// 2025-03-12 是周三
	assert.Equal(t, at(loc, 2025, 3, 10, 0, 0), WeekStart(at(loc, 2025, 3, 12, 15, 30), loc))
	// 周一当天
	assert.Equal(t, at(loc, 2025, 3, 10, 0, 0), WeekStart(at(loc, 2025, 3, 10, 0, 0), loc))
	// 周日属于上一周
	assert.Equal(t, at(loc, 2025, 3, 10, 0, 0), WeekStart(at(loc, 2025, 3, 16, 23, 59), loc))

	from, to := WeekRange(at(loc, 2025, 3, 12, 8, 0), loc)
	assert.Equal(t, at(loc, 2025, 3, 10, 0, 0), from)
	assert.Equal(t, at(loc, 2025, 3, 17, 0, 0), to)
}

func TestDateOfUsesPlannerLocation(t *testing.T) {
	paris := mustLoadLocation(t, "Europe/Paris")

	// 23:30 UTC 在巴黎已经是第二天
	instant := time.Date(2025, 3, 11, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, at(paris, 2025, 3, 12, 0, 0), DateOf(instant, paris))
	assert.False(t, SameDay(instant, time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC), paris))
}

func TestDetectConflicts_Scenario(t *testing.T) {
	loc := time.UTC

	m1 := mission(1, at(loc, 2025, 3, 10, 9, 0), at(loc, 2025, 3, 10, 10, 0))
	m2 := mission(2, at(loc, 2025, 3, 10, 9, 30), at(loc, 2025, 3, 10, 10, 30))
	m3 := mission(3, at(loc, 2025, 3, 10, 10, 30), at(loc, 2025, 3, 10, 11, 30))
	m4 := mission(4, at(loc, 2025, 3, 11, 9, 0), at(loc, 2025, 3, 11, 10, 0))

	set := DetectConflicts([]*domain.Mission{m1, m2, m3, m4}, loc)

	assert.True(t, set.Has(1))
	assert.True(t, set.Has(2))
	// m3 和 m2 首尾相接，不算冲突
	assert.False(t, set.Has(3))
	// m4 在另一天，即使钟点时间和 m1 一样也不算冲突
	assert.False(t, set.Has(4))
	assert.Equal(t, []int64{1, 2}, set.IDs())
}

func TestDetectConflicts_TouchingBoundaries(t *testing.T) {
	loc := time.UTC

	m1 := mission(1, at(loc, 2025, 3, 10, 9, 0), at(loc, 2025, 3, 10, 10, 0))
	m3 := mission(3, at(loc, 2025, 3, 10, 10, 0), at(loc, 2025, 3, 10, 11, 0))

	set := DetectConflicts([]*domain.Mission{m1, m3}, loc)
	assert.Empty(t, set)
}

func TestDetectConflicts_IsSymmetric(t *testing.T) {
	loc := time.UTC

	a := mission(10, at(loc, 2025, 3, 10, 8, 0), at(loc, 2025, 3, 10, 12, 0))
	b := mission(20, at(loc, 2025, 3, 10, 9, 0), at(loc, 2025, 3, 10, 10, 0))

	forward := DetectConflicts([]*domain.Mission{a, b}, loc)
	backward := DetectConflicts([]*domain.Mission{b, a}, loc)

	assert.Equal(t, forward.IDs(), backward.IDs())
	assert.Equal(t, []int64{10, 20}, forward.IDs())
}

func TestDetectConflicts_SkipsMissionsWithoutWindow(t *testing.T) {
	loc := time.UTC

	m1 := mission(1, at(loc, 2025, 3, 10, 9, 0), at(loc, 2025, 3, 10, 10, 0))
	noWindow := &domain.Mission{ID: 2, ScheduledStart: at(loc, 2025, 3, 10, 9, 0)}
	halfWindow := &domain.Mission{ID: 3, ScheduledWindowStart: m1.ScheduledWindowStart}

	set := DetectConflicts([]*domain.Mission{m1, noWindow, halfWindow}, loc)
	assert.Empty(t, set)
}

func TestConflictPairs(t *testing.T) {
	loc := time.UTC

	m1 := mission(1, at(loc, 2025, 3, 10, 9, 0), at(loc, 2025, 3, 10, 11, 0))
	m2 := mission(2, at(loc, 2025, 3, 10, 9, 30), at(loc, 2025, 3, 10, 10, 0))
	m3 := mission(3, at(loc, 2025, 3, 10, 10, 30), at(loc, 2025, 3, 10, 12, 0))

	pairs := ConflictPairs([]*domain.Mission{m1, m2, m3}, loc)
	assert.Equal(t, []ConflictPair{{A: 1, B: 2}, {A: 1, B: 3}}, pairs)
}

func TestRelocate_PreservesDuration(t *testing.T) {
	loc := time.UTC

	// 周一 14:00 - 15:30 的任务拖到周三 9:00
	m := mission(7, at(loc, 2025, 3, 10, 14, 0), at(loc, 2025, 3, 10, 15, 30))

	rel, err := Relocate(m, Drop{Date: at(loc, 2025, 3, 12, 0, 0), Hour: 9}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, int64(7), rel.MissionID)
	assert.Equal(t, int32(1), rel.Version)
	assert.Equal(t, at(loc, 2025, 3, 12, 9, 0), rel.WindowStart)
	assert.Equal(t, at(loc, 2025, 3, 12, 10, 30), rel.WindowEnd)
	assert.Equal(t, rel.WindowStart, rel.ScheduledStart)
	assert.Equal(t, 90*time.Minute, rel.WindowEnd.Sub(rel.WindowStart))
	assert.Equal(t, 9, rel.WindowStart.Hour())
}

func TestRelocate_UsesPlannerLocation(t *testing.T) {
	paris := mustLoadLocation(t, "Europe/Paris")
	opts := DefaultOptions()
	opts.Location = paris

	m := mission(1, at(paris, 2025, 3, 10, 14, 0), at(paris, 2025, 3, 10, 16, 0))

	// 拖放的日期即使是以 UTC 表示，也按巴黎时间的日期计算
	rel, err := Relocate(m, Drop{Date: time.Date(2025, 3, 12, 0, 0, 0, 0, paris).UTC(), Hour: 8}, opts)
	require.NoError(t, err)

	assert.Equal(t, at(paris, 2025, 3, 12, 8, 0), rel.WindowStart)
	assert.Equal(t, 8, rel.WindowStart.In(paris).Hour())
	assert.Equal(t, 2*time.Hour, rel.WindowEnd.Sub(rel.WindowStart))
}

func TestRelocate_Errors(t *testing.T) {
	loc := time.UTC
	opts := DefaultOptions()

	_, err := Relocate(&domain.Mission{ID: 1}, Drop{Date: at(loc, 2025, 3, 12, 0, 0), Hour: 9}, opts)
	assert.ErrorIs(t, err, ErrMissingWindow)

	inverted := mission(2, at(loc, 2025, 3, 10, 10, 0), at(loc, 2025, 3, 10, 9, 0))
	_, err = Relocate(inverted, Drop{Date: at(loc, 2025, 3, 12, 0, 0), Hour: 9}, opts)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	empty := mission(3, at(loc, 2025, 3, 10, 10, 0), at(loc, 2025, 3, 10, 10, 0))
	_, err = Relocate(empty, Drop{Date: at(loc, 2025, 3, 12, 0, 0), Hour: 9}, opts)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	ok := mission(4, at(loc, 2025, 3, 10, 10, 0), at(loc, 2025, 3, 10, 11, 0))
	_, err = Relocate(ok, Drop{Date: at(loc, 2025, 3, 12, 0, 0), Hour: 6}, opts)
	assert.ErrorIs(t, err, ErrHourOutOfGrid)
	_, err = Relocate(ok, Drop{Date: at(loc, 2025, 3, 12, 0, 0), Hour: 20}, opts)
	assert.ErrorIs(t, err, ErrHourOutOfGrid)
}

func TestRelocate_Reassign(t *testing.T) {
	loc := time.UTC
	m := assigned(mission(1, at(loc, 2025, 3, 10, 9, 0), at(loc, 2025, 3, 10, 10, 0)), 5)

	// 周视图中拖放不修改技术员
	rel, err := Relocate(m, Drop{Date: at(loc, 2025, 3, 11, 0, 0), Hour: 10}, DefaultOptions())
	require.NoError(t, err)
	rel.Apply(m)
	require.NotNil(t, m.PlanningTechnicianID)
	assert.Equal(t, int64(5), *m.PlanningTechnicianID)

	// 多技术员视图中拖到另一个技术员的行上
	other := int64(9)
	rel, err = Relocate(m, Drop{Date: at(loc, 2025, 3, 11, 0, 0), Hour: 13, Reassign: true, TechnicianID: &other}, DefaultOptions())
	require.NoError(t, err)
	rel.Apply(m)
	require.NotNil(t, m.PlanningTechnicianID)
	assert.Equal(t, int64(9), *m.PlanningTechnicianID)
	assert.Equal(t, at(loc, 2025, 3, 11, 13, 0), *m.ScheduledWindowStart)
	assert.Equal(t, at(loc, 2025, 3, 11, 14, 0), *m.ScheduledWindowEnd)
	assert.Equal(t, at(loc, 2025, 3, 11, 13, 0), m.ScheduledStart)

	// 拖到未分配的行上
	rel, err = Relocate(m, Drop{Date: at(loc, 2025, 3, 11, 0, 0), Hour: 13, Reassign: true}, DefaultOptions())
	require.NoError(t, err)
	rel.Apply(m)
	assert.Nil(t, m.PlanningTechnicianID)
}

func TestTechWorkload(t *testing.T) {
	loc := time.UTC
	day := at(loc, 2025, 3, 10, 0, 0)

	missions := []*domain.Mission{
		assigned(mission(1, at(loc, 2025, 3, 10, 8, 0), at(loc, 2025, 3, 10, 9, 30)), 1),
		assigned(mission(2, at(loc, 2025, 3, 10, 13, 0), at(loc, 2025, 3, 10, 15, 0)), 1),
		// 其他技术员
		assigned(mission(3, at(loc, 2025, 3, 10, 8, 0), at(loc, 2025, 3, 10, 12, 0)), 2),
		// 其他日期
		assigned(mission(4, at(loc, 2025, 3, 11, 8, 0), at(loc, 2025, 3, 11, 12, 0)), 1),
		// 未分配
		mission(5, at(loc, 2025, 3, 10, 8, 0), at(loc, 2025, 3, 10, 12, 0)),
	}

	wl := TechWorkload(missions, 1, day, loc)
	assert.Equal(t, Workload{Hours: 3.5, Missions: 2}, wl)
	assert.InDelta(t, 43.75, wl.Percent(8), 1e-9)
	assert.Equal(t, LoadNormal, wl.Level(8))
}

func TestWorkloadLevels(t *testing.T) {
	assert.Equal(t, LoadNormal, Workload{Hours: 6.3}.Level(8))
	assert.Equal(t, LoadHigh, Workload{Hours: 7}.Level(8))
	assert.Equal(t, LoadHigh, Workload{Hours: 8}.Level(8))
	assert.Equal(t, LoadOver, Workload{Hours: 9}.Level(8))

	assert.Equal(t, 100.0, Workload{Hours: 12}.BarWidth(8))
	assert.Equal(t, 50.0, Workload{Hours: 4}.BarWidth(8))
}

func TestBlockHeight(t *testing.T) {
	assert.Equal(t, 90, BlockHeight(1.5))
	assert.Equal(t, 60, BlockHeight(0.5))
	assert.Equal(t, 60, BlockHeight(0))
	assert.Equal(t, 60, BlockHeight(-2))
	assert.Equal(t, 240, BlockHeight(4))
}

func TestBuildWeekGrid(t *testing.T) {
	loc := time.UTC
	opts := DefaultOptions()

	m1 := mission(1, at(loc, 2025, 3, 10, 9, 0), at(loc, 2025, 3, 10, 10, 0))
	m2 := mission(2, at(loc, 2025, 3, 10, 9, 30), at(loc, 2025, 3, 10, 11, 30))
	m3 := mission(3, at(loc, 2025, 3, 12, 14, 0), at(loc, 2025, 3, 12, 15, 30))
	early := mission(4, at(loc, 2025, 3, 13, 6, 0), at(loc, 2025, 3, 13, 7, 0))
	noWindow := &domain.Mission{ID: 5, ScheduledStart: at(loc, 2025, 3, 10, 9, 0)}

	missions := []*domain.Mission{m1, m2, m3, early, noWindow}
	grid := BuildWeekGrid(at(loc, 2025, 3, 12, 0, 0), missions, DetectConflicts(missions, loc), opts)

	assert.Equal(t, at(loc, 2025, 3, 10, 0, 0), grid.WeekStart)
	require.Len(t, grid.Days, 7)
	require.Len(t, grid.Hours, 13)
	assert.Equal(t, 7, grid.Hours[0])
	assert.Equal(t, 19, grid.Hours[12])

	monday := grid.Days[0]
	require.Len(t, monday.Cells, 13)
	nine := monday.Cells[2]
	assert.Equal(t, 9, nine.Hour)
	require.Len(t, nine.Blocks, 2)
	assert.Equal(t, int64(1), nine.Blocks[0].MissionID)
	assert.True(t, nine.Blocks[0].Conflict)
	assert.Equal(t, 60, nine.Blocks[0].HeightPx)
	assert.Equal(t, int64(2), nine.Blocks[1].MissionID)
	assert.Equal(t, 120, nine.Blocks[1].HeightPx)

	wednesday := grid.Days[2]
	fourteen := wednesday.Cells[7]
	assert.Equal(t, 14, fourteen.Hour)
	require.Len(t, fourteen.Blocks, 1)
	assert.False(t, fourteen.Blocks[0].Conflict)
	assert.Equal(t, 90, fourteen.Blocks[0].HeightPx)

	// 6 点开始的任务不在表格范围内
	total := 0
	for _, day := range grid.Days {
		for _, cell := range day.Cells {
			total += len(cell.Blocks)
		}
	}
	assert.Equal(t, 3, total)
}

func TestBuildTechnicianDay(t *testing.T) {
	loc := time.UTC
	opts := DefaultOptions()
	day := at(loc, 2025, 3, 10, 0, 0)

	alice := &domain.Technician{ID: 1, FullName: "Alice Martin", IsActive: true}
	bruno := &domain.Technician{ID: 2, FullName: "Bruno Petit", IsActive: true}

	missions := []*domain.Mission{
		assigned(mission(1, at(loc, 2025, 3, 10, 8, 0), at(loc, 2025, 3, 10, 12, 0)), 1),
		assigned(mission(2, at(loc, 2025, 3, 10, 13, 0), at(loc, 2025, 3, 10, 18, 0)), 1),
		assigned(mission(3, at(loc, 2025, 3, 10, 9, 0), at(loc, 2025, 3, 10, 10, 0)), 2),
		mission(4, at(loc, 2025, 3, 10, 10, 0), at(loc, 2025, 3, 10, 11, 0)),
		// 分配给已离职的技术员
		assigned(mission(5, at(loc, 2025, 3, 10, 15, 0), at(loc, 2025, 3, 10, 16, 0)), 99),
	}

	td := BuildTechnicianDay(day, []*domain.Technician{alice, bruno}, missions, DetectConflicts(missions, loc), opts)

	require.Len(t, td.Rows, 3)
	assert.Equal(t, 8.0, td.BaselineHours)

	assert.Equal(t, alice, td.Rows[0].Technician)
	assert.Equal(t, Workload{Hours: 9, Missions: 2}, td.Rows[0].Workload)
	assert.Equal(t, LoadOver, td.Rows[0].LoadLevel)
	assert.Equal(t, 100.0, td.Rows[0].BarWidth)
	assert.InDelta(t, 112.5, td.Rows[0].LoadPercent, 1e-9)

	assert.Equal(t, Workload{Hours: 1, Missions: 1}, td.Rows[1].Workload)
	assert.Equal(t, LoadNormal, td.Rows[1].LoadLevel)
	require.Len(t, td.Rows[1].Cells[2].Blocks, 1)
	// 冲突是跨技术员计算的
	assert.True(t, td.Rows[1].Cells[2].Blocks[0].Conflict)

	unassigned := td.Rows[2]
	assert.Nil(t, unassigned.Technician)
	require.Len(t, unassigned.Cells[3].Blocks, 1)
	assert.Equal(t, int64(4), unassigned.Cells[3].Blocks[0].MissionID)
	require.Len(t, unassigned.Cells[8].Blocks, 1)
	assert.Equal(t, int64(5), unassigned.Cells[8].Blocks[0].MissionID)
}

func TestBuildTechnicianDay_NoUnassignedRow(t *testing.T) {
	loc := time.UTC
	alice := &domain.Technician{ID: 1, FullName: "Alice Martin", IsActive: true}

	td := BuildTechnicianDay(at(loc, 2025, 3, 10, 0, 0), []*domain.Technician{alice}, nil, ConflictSet{}, DefaultOptions())

	require.Len(t, td.Rows, 1)
	assert.Equal(t, Workload{}, td.Rows[0].Workload)
	assert.Equal(t, LoadNormal, td.Rows[0].LoadLevel)
}
