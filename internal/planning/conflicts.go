package planning

import (
	"slices"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
)

// ConflictSet 是一次加载中存在冲突的任务 ID 集合，不会被持久化，每次加载都重新计算
type ConflictSet map[int64]struct{}

func (s ConflictSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

func (s ConflictSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

type ConflictPair struct {
	A int64 `json:"a"`
	B int64 `json:"b"`
}

type windowedMission struct {
	id     int64
	window Window
	day    time.Time
}

func collectWindows(missions []*domain.Mission, loc *time.Location) []windowedMission {
	entries := make([]windowedMission, 0, len(missions))
	for _, m := range missions {
		w, ok := WindowOf(m)
		if !ok || !w.Valid() {
			// 没有时间段或时间段非法的任务不参与冲突检测
			continue
		}
		entries = append(entries, windowedMission{id: m.ID, window: w, day: w.Day(loc)})
	}
	return entries
}

// ConflictPairs 对所有任务两两比较，找出同一天内时间段重叠的任务对
// 每周的任务数量只有几十个，所以直接 O(n²) 遍历
func ConflictPairs(missions []*domain.Mission, loc *time.Location) []ConflictPair {
	entries := collectWindows(missions, loc)

	pairs := []ConflictPair{}
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if !entries[i].day.Equal(entries[j].day) {
				continue
			}
			if entries[i].window.Overlaps(entries[j].window) {
				pairs = append(pairs, ConflictPair{A: entries[i].id, B: entries[j].id})
			}
		}
	}

	return pairs
}

func DetectConflicts(missions []*domain.Mission, loc *time.Location) ConflictSet {
	set := ConflictSet{}
	for _, pair := range ConflictPairs(missions, loc) {
		set[pair.A] = struct{}{}
		set[pair.B] = struct{}{}
	}
	return set
}
