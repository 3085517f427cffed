package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
	yaml "go.yaml.in/yaml/v3"

	"github.com/tempo-sched/tempo"
)

// taskFile is the on-disk task definition format.
//
//	tasks:
//	  - name: report
//	    cron: "30 9 * * MON-FRI"
//	    command: ./generate-report.sh
//	  - name: cleanup
//	    rule:
//	      day-of-month: ["/8"]
//	      hour: [3]
//	    command: ./cleanup.sh
//	  - name: ping
//	    every: 30s
type taskFile struct {
	Tasks []taskDef `yaml:"tasks"`
}

type taskDef struct {
	Name    string           `yaml:"name"`
	Cron    string           `yaml:"cron"`
	Every   string           `yaml:"every"`
	Rule    map[string][]any `yaml:"rule"`
	Command string           `yaml:"command"`
}

func loadTaskFile(path string) (*taskFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf taskFile
	if err := yaml.Unmarshal(b, &tf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	seen := make(map[string]bool, len(tf.Tasks))
	for _, d := range tf.Tasks {
		if d.Name == "" {
			return nil, fmt.Errorf("%s: task with no name", path)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("%s: duplicate task %q", path, d.Name)
		}
		seen[d.Name] = true
		if _, err := d.schedule(); err != nil {
			return nil, fmt.Errorf("%s: task %q: %w", path, d.Name, err)
		}
	}
	return &tf, nil
}

// schedule builds the task's Schedule from whichever of cron, every or rule
// is set. Exactly one must be.
func (d taskDef) schedule() (tempo.Schedule, error) {
	set := 0
	if d.Cron != "" {
		set++
	}
	if d.Every != "" {
		set++
	}
	if len(d.Rule) > 0 {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("need exactly one of cron, every or rule")
	}
	switch {
	case d.Cron != "":
		return tempo.CronRule(d.Cron)
	case d.Every != "":
		dur, err := time.ParseDuration(d.Every)
		if err != nil {
			return nil, fmt.Errorf("bad duration %q", d.Every)
		}
		if dur < time.Second {
			return nil, fmt.Errorf("duration %q below one second", d.Every)
		}
		return tempo.Every(dur), nil
	default:
		spec := make(tempo.Spec, len(d.Rule))
		for part, raws := range d.Rule {
			spec[part] = raws
		}
		return tempo.NewRule(spec)
	}
}

// taskFunc returns the work one task definition runs per activation. With a
// command it shells out and logs the result; without one it just logs the
// tick, which is useful for previewing a schedule live.
func (d taskDef) taskFunc(log zerolog.Logger) tempo.TaskFunc {
	name, command := d.Name, d.Command
	return func(args ...any) []any {
		if command == "" {
			log.Info().Str("task", name).Msg("tick")
			return nil
		}
		started := time.Now()
		cmd := exec.Command("/bin/sh", "-c", command)
		out, err := cmd.CombinedOutput()
		ev := log.Info()
		if err != nil {
			ev = log.Error().Err(err)
		}
		ev.Str("task", name).
			Dur("took", time.Since(started)).
			Bytes("output", out).
			Msg("ran")
		return nil
	}
}

// sameSchedule reports whether two definitions produce the same schedule,
// used to skip restarts on unrelated file edits.
func sameSchedule(a, b taskDef) bool {
	if a.Cron != b.Cron || a.Every != b.Every {
		return false
	}
	ay, errA := yaml.Marshal(a.Rule)
	by, errB := yaml.Marshal(b.Rule)
	return errA == nil && errB == nil && string(ay) == string(by)
}
