package mailqueue

import (
	"encoding/json"
	"fmt"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
)

// Decode 反序列化队列中的邮件，并根据邮件类型把 Data 解析为对应的结构体，方便模板直接使用字段
func Decode(body []byte) (domain.MailMessage, error) {
	var raw struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.MailMessage{}, err
	}

	var data any
	switch raw.Type {
	case domain.MailTypeCreateUser:
		data = &domain.CreateUserMailData{}
	case domain.MailTypeResetPassword:
		data = &domain.ResetPasswordMailData{}
	case domain.MailTypeMissionRelocated:
		data = &domain.MissionRelocatedMailData{}
	default:
		return domain.MailMessage{}, fmt.Errorf("不支持的邮件类型: %s", raw.Type)
	}

	if err := json.Unmarshal(raw.Data, data); err != nil {
		return domain.MailMessage{}, err
	}

	return domain.MailMessage{Type: raw.Type, To: raw.To, Data: data}, nil
}
