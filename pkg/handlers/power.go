package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/windowsadmins/playertoolkit/pkg/events"
	"github.com/windowsadmins/playertoolkit/pkg/runner"
	"github.com/windowsadmins/playertoolkit/pkg/tasks"
)

// PowerPolicy decides how partial failure of power_config is reported.
type PowerPolicy string

const (
	PowerAllMustSucceed PowerPolicy = "all-must-succeed"
	PowerBestEffort     PowerPolicy = "best-effort"
)

// ParsePowerPolicy validates a policy name. Empty means all-must-succeed.
func ParsePowerPolicy(s string) (PowerPolicy, error) {
	switch p := PowerPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PowerAllMustSucceed:
		return PowerAllMustSucceed, nil
	case PowerBestEffort:
		return PowerBestEffort, nil
	default:
		return "", fmt.Errorf("%w: unknown power config policy %q", tasks.ErrConfiguration, s)
	}
}

// PowerSettings are the powercfg timeouts set to zero (never) on AC and battery.
var PowerSettings = []string{
	"monitor-timeout-ac",
	"monitor-timeout-dc",
	"standby-timeout-ac",
	"standby-timeout-dc",
	"hibernate-timeout-ac",
	"hibernate-timeout-dc",
}

const powercfgTimeout = 60 * time.Second

func (s *Set) powerConfig(ctx context.Context, rep Reporter) (string, error) {
	var failed []string
	for i, setting := range PowerSettings {
		res := s.Runner.Run(ctx, runner.Command{
			Name:    "powercfg",
			Args:    []string{"/change", setting, "0"},
			Wait:    true,
			Timeout: powercfgTimeout,
			Log: func(level events.Level, message string) {
				rep.Logf(level, "%s", message)
			},
		})
		if !res.Success() {
			failed = append(failed, setting)
		}
		rep.Progress("powercfg", (i+1)*100/len(PowerSettings), setting)
	}

	applied := len(PowerSettings) - len(failed)
	if len(failed) == 0 {
		return "power plan set to never sleep", nil
	}
	if s.PowerPolicy == PowerBestEffort {
		rep.Logf(events.LevelWarning, "powercfg failed for %s", strings.Join(failed, ", "))
		return fmt.Sprintf("applied %d of %d power settings", applied, len(PowerSettings)), nil
	}
	return "", fmt.Errorf("%w: powercfg failed for %s", tasks.ErrExternalProcess, strings.Join(failed, ", "))
}
