package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
	"github.com/fieldops-hvac/planning/backend/internal/repository"
	"github.com/fieldops-hvac/planning/backend/internal/utils"
)

const csvTimeLayout = "2006-01-02 15:04"

// CSVHeaders 导入任务时 CSV 文件必须包含的列，technician 列填写技术员的全名，可以为空
var CSVHeaders = []string{"client_name", "description", "address", "city", "type", "window_start", "window_end", "technician"}

var validTypes = []domain.MissionType{
	domain.MissionTypeInstallation,
	domain.MissionTypeMaintenance,
	domain.MissionTypeDispatch,
	domain.MissionTypeOther,
}

func parseWindowTime(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(csvTimeLayout, value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// missionFromRecord 把一行 CSV 记录转换为任务，technicians 以全名为键
func missionFromRecord(record map[string]string, technicians map[string]*domain.Technician, loc *time.Location) (*domain.Mission, error) {
	if record["client_name"] == "" {
		return nil, errors.New("缺少客户名称")
	}

	missionType := domain.MissionType(record["type"])
	if !slices.Contains(validTypes, missionType) {
		return nil, fmt.Errorf("未知的任务类型 %q", record["type"])
	}

	start, err := parseWindowTime(record["window_start"], loc)
	if err != nil {
		return nil, fmt.Errorf("开始时间格式错误: %w", err)
	}
	end, err := parseWindowTime(record["window_end"], loc)
	if err != nil {
		return nil, fmt.Errorf("结束时间格式错误: %w", err)
	}

	m := &domain.Mission{
		ClientName:           record["client_name"],
		Description:          record["description"],
		Address:              record["address"],
		City:                 record["city"],
		Type:                 missionType,
		ScheduledWindowStart: start,
		ScheduledWindowEnd:   end,
		Status:               domain.MissionStatusPlanned,
	}
	if err := utils.ValidateMissionWindow(m); err != nil {
		return nil, err
	}
	if start == nil {
		return nil, errors.New("缺少时间段")
	}
	m.ScheduledStart = *start

	if name := strings.TrimSpace(record["technician"]); name != "" {
		t, ok := technicians[name]
		if !ok {
			return nil, fmt.Errorf("技术员 %q 不存在", name)
		}
		m.PlanningTechnicianID = &t.ID
	}

	return m, nil
}

// ImportMissionsCSV 从 CSV 中导入任务，返回成功插入的数量；单行出错只记录日志并跳过
func ImportMissionsCSV(r *repository.Repository, in io.Reader, loc *time.Location) (int, error) {
	reader := csv.NewReader(in)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("读取表头失败: %w", err)
	}
	for _, h := range CSVHeaders {
		if !slices.Contains(headers, h) {
			return 0, fmt.Errorf("没有找到列 %s", h)
		}
	}

	all, err := r.GetAllTechnicians()
	if err != nil {
		return 0, err
	}
	technicians := make(map[string]*domain.Technician, len(all))
	for _, t := range all {
		technicians[t.FullName] = t
	}

	cnt := 0
	line := 1
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return cnt, fmt.Errorf("读取文件失败: %w", err)
		}
		line++

		record := make(map[string]string)
		for i, value := range row {
			record[headers[i]] = strings.TrimSpace(value)
		}

		m, err := missionFromRecord(record, technicians, loc)
		if err != nil {
			slog.Error("跳过非法记录", "line", line, "error", err)
			continue
		}

		if err := r.CreateMission(m); err != nil {
			slog.Error("插入任务失败", "line", line, "error", err)
			continue
		}
		cnt++
	}

	return cnt, nil
}

func SeedUsers(r *repository.Repository, n int, password string, emailDomain string) int {
	cnt := 0
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomUser(password, emailDomain)
		if err != nil {
			slog.Error("无法生成随机用户", "error", err)
			continue
		}
		if err := r.CreateUser(user); err != nil {
			slog.Error("无法插入用户", "error", err)
			continue
		}
		cnt++
	}
	return cnt
}

func SeedTechnicians(r *repository.Repository, n int, emailDomain string) int {
	cnt := 0
	for i := 0; i < n; i++ {
		if err := r.CreateTechnician(utils.GenerateRandomTechnician(emailDomain)); err != nil {
			slog.Error("无法插入技术员", "error", err)
			continue
		}
		cnt++
	}
	return cnt
}

// SeedMissions 在 weekStart 所在周随机插入 n 个任务，随机分配给在职的技术员
func SeedMissions(r *repository.Repository, weekStart time.Time, n int) (int, error) {
	technicians, err := r.GetActiveTechnicians()
	if err != nil {
		return 0, err
	}

	cnt := 0
	for i := 0; i < n; i++ {
		if err := r.CreateMission(utils.GenerateRandomMission(weekStart, technicians)); err != nil {
			slog.Error("无法插入任务", "error", err)
			continue
		}
		cnt++
	}
	return cnt, nil
}
