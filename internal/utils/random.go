package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonFirstNames = []string{
	"Julien", "Thomas", "Nicolas", "Camille", "Sophie", "Lucas", "Manon", "Hugo", "Chloe", "Antoine",
	"Mathieu", "Laura", "Kevin", "Emilie", "Maxime", "Sarah", "Romain", "Julie", "Pierre", "Claire",
}
var commonLastNames = []string{
	"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit", "Durand", "Leroy", "Moreau",
	"Simon", "Laurent", "Lefebvre", "Michel", "Garcia", "David", "Bertrand", "Roux", "Vincent", "Fournier",
}

func GenerateRandomFullName() string {
	return commonFirstNames[rand.Intn(len(commonFirstNames))] + " " + commonLastNames[rand.Intn(len(commonLastNames))]
}

var roles = []domain.Role{
	domain.RoleAdmin,
	domain.RoleTechnician,
	domain.RoleSubcontractor,
	domain.RoleClient,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

// GenerateUsernameFromFullName 用名的首字母加上姓再加上几位随机数字生成用户名，例如 jmartin42
func GenerateUsernameFromFullName(fullName string) string {
	parts := strings.Fields(strings.ToLower(fullName))
	username := ""

	if len(parts) > 0 {
		username += parts[0][:1]
	}
	if len(parts) > 1 {
		username += parts[len(parts)-1]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomFullName()
	username := GenerateUsernameFromFullName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

var specialties = []string{"climatisation", "chauffage", "pompe à chaleur", "ventilation", "plomberie", "électricité", "froid commercial"}
var colors = []string{"#ef4444", "#f97316", "#eab308", "#22c55e", "#14b8a6", "#3b82f6", "#8b5cf6", "#ec4899"}

// 使用 Fisher-Yates 洗牌算法来生成一个随机子集
func GenerateRandomSubset(arr []string) []string {
	arrCopy := append([]string{}, arr...) // 复制数组，避免修改原数组

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	l := rand.Intn(len(arrCopy)) + 1
	return arrCopy[:l]
}

func GenerateRandomTechnician(emailDomainName string) *domain.Technician {
	fullName := GenerateRandomFullName()
	email := GenerateUsernameFromFullName(fullName) + "@" + emailDomainName

	return &domain.Technician{
		FullName:    fullName,
		Email:       &email,
		Specialties: GenerateRandomSubset(specialties),
		Color:       colors[rand.Intn(len(colors))],
		IsActive:    true,
	}
}

var missionTypes = []domain.MissionType{
	domain.MissionTypeInstallation,
	domain.MissionTypeMaintenance,
	domain.MissionTypeDispatch,
	domain.MissionTypeOther,
}

var cities = []string{"Lyon", "Villeurbanne", "Vénissieux", "Bron", "Caluire-et-Cuire", "Écully", "Oullins"}
var streets = []string{"rue de la République", "avenue Jean Jaurès", "boulevard des Belges", "rue Garibaldi", "cours Lafayette"}

// GenerateRandomMission 在 weekStart 所在周的工作日内随机生成一个任务，时长为 0.5 ~ 4 小时（以半小时为单位）
// technicians 为空时生成未分配的任务
func GenerateRandomMission(weekStart time.Time, technicians []*domain.Technician) *domain.Mission {
	day := weekStart.AddDate(0, 0, rand.Intn(5))
	start := time.Date(day.Year(), day.Month(), day.Day(), 7+rand.Intn(11), 30*rand.Intn(2), 0, 0, day.Location())
	end := start.Add(time.Duration(rand.Intn(8)+1) * 30 * time.Minute)

	m := &domain.Mission{
		ClientName:           GenerateRandomFullName(),
		Description:          "Intervention " + GenerateRandomPassword(6),
		Address:              fmt.Sprintf("%d %s", rand.Intn(200)+1, streets[rand.Intn(len(streets))]),
		City:                 cities[rand.Intn(len(cities))],
		Type:                 missionTypes[rand.Intn(len(missionTypes))],
		ScheduledStart:       start,
		ScheduledWindowStart: &start,
		ScheduledWindowEnd:   &end,
		Status:               domain.MissionStatusPlanned,
	}

	if len(technicians) > 0 && rand.Intn(5) > 0 {
		m.PlanningTechnicianID = &technicians[rand.Intn(len(technicians))].ID
	}

	return m
}
