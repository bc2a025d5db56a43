package console

import (
	"fmt"
	"time"

	"github.com/vlreinier/DFRobot-PH-2024/pkg/output"
)

type ConsoleOutput struct{}

func NewConsole() output.Output { return &ConsoleOutput{} }

func (c *ConsoleOutput) Publish(m output.Measurement) error {
	line := fmt.Sprintf("%s ph=%.2f millivolts=%.3f raw=%d", m.Timestamp.Format(time.RFC3339), m.PH, m.Millivolts, m.Raw)
	if m.TemperatureC != nil {
		line += fmt.Sprintf(" temperature=%.1f", *m.TemperatureC)
	}
	fmt.Println(line)
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }
