package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aiox-platform/agentbrain/internal/agent"
)

const (
	dateLayout          = "2006-01-02"
	missingDeviceReply  = "Por favor, informe o nome do dispositivo para buscar os alarmes."
	alarmsHeaderPattern = "Alarmes encontrados para o dispositivo %s no período %s:\n\n"
)

// ErrBadFilter is returned when the extraction agent does not produce a
// usable filter.
var ErrBadFilter = errors.New("invalid alarm filter")

// Filter is what the extraction agent pulls out of the user's message.
type Filter struct {
	DeviceName string `json:"device_name"`
	EndTime    string `json:"end_time"`
}

// ParseFilter decodes the agent's JSON answer. Markdown code fences and prose
// around the object are tolerated.
func ParseFilter(text string) (Filter, error) {
	text = StripCodeFence(text)
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	var f Filter
	if err := json.Unmarshal([]byte(text), &f); err != nil {
		return Filter{}, fmt.Errorf("%w: %v", ErrBadFilter, err)
	}
	f.DeviceName = strings.TrimSpace(f.DeviceName)
	f.EndTime = strings.TrimSpace(f.EndTime)
	return f, nil
}

// StripCodeFence removes a surrounding ``` block, with or without a language tag.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

// AlarmSource lists the alarms of a client up to a date.
type AlarmSource interface {
	Alarms(ctx context.Context, clientHash, endTime string) ([]Alarm, error)
}

// DeviceAlarms reports the alarms of one device.
type DeviceAlarms struct {
	agents AgentRunner
	source AlarmSource
	now    func() time.Time
}

func NewDeviceAlarms(agents AgentRunner, source AlarmSource) *DeviceAlarms {
	return &DeviceAlarms{agents: agents, source: source, now: time.Now}
}

func (f *DeviceAlarms) Run(ctx context.Context, req Request) (Response, error) {
	res, err := f.agents.Run(ctx, DeviceAlarmsAgent, agent.Input{
		Session: req.Session(),
		Message: req.Message,
	})
	if err != nil {
		return Response{}, err
	}

	filter, err := ParseFilter(res.Response)
	if err != nil {
		return Response{}, err
	}
	if filter.EndTime == "" {
		filter.EndTime = f.now().Format(dateLayout)
	}
	if filter.DeviceName == "" {
		return Response{Response: missingDeviceReply, Record: res.Usage}, nil
	}

	alarms, err := f.source.Alarms(ctx, req.ClientHash, filter.EndTime)
	if err != nil {
		return Response{}, fmt.Errorf("fetching alarms: %w", err)
	}

	var matched []Alarm
	for _, a := range alarms {
		if string(a.Name) == filter.DeviceName {
			matched = append(matched, a)
		}
	}
	slog.Debug("tools: device alarms filtered",
		"device", filter.DeviceName,
		"end_time", filter.EndTime,
		"total", len(alarms),
		"matched", len(matched),
	)

	return Response{Response: FormatAlarms(filter, matched), Record: res.Usage}, nil
}

// FormatAlarms renders the alarms of one device as plain text.
func FormatAlarms(filter Filter, alarms []Alarm) string {
	blocks := make([]string, 0, len(alarms))
	for _, a := range alarms {
		blocks = append(blocks, fmt.Sprintf(
			"Componente: %s\nVariable: %s\nStatus: %s\nPontos acima do threshold: %s\nRank: %s\n",
			a.ComponentName, a.Output, a.Status, a.TotalAboveThreshold, a.RankText,
		))
	}
	return fmt.Sprintf(alarmsHeaderPattern, filter.DeviceName, filter.EndTime) + strings.Join(blocks, "\n\n")
}
