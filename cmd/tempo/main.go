package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"

	"github.com/tempo-sched/tempo"
)

var (
	taskFilePath string
	watchFile    bool
	verbose      bool
	nextCount    int
	nextFrom     string
)

func main() {
	app := cli.App{
		Name:      "tempo",
		Usage:     "declarative task scheduling",
		UsageText: "tempo <command> [arguments...]",
		Version:   "v0.1.0",
		Commands: []cli.Command{
			{
				Name:      "next",
				Usage:     "print the upcoming activations of a cron expression",
				UsageText: "tempo next [options] <cron expression>",
				Action:    next,
				Flags: []cli.Flag{
					cli.IntFlag{
						Name:        "count, n",
						Usage:       "number of activations to print",
						Value:       5,
						Destination: &nextCount,
					},
					cli.StringFlag{
						Name:        "from, f",
						Usage:       "simulate from this RFC3339 instant instead of now",
						Destination: &nextFrom,
					},
				},
			},
			{
				Name:      "run",
				Usage:     "run the tasks defined in a task file",
				UsageText: "tempo run [options]",
				Action:    run,
				Flags: []cli.Flag{
					cli.StringFlag{
						Name:        "file, f",
						Usage:       "task file to load",
						Value:       "tasks.yaml",
						Destination: &taskFilePath,
					},
					cli.BoolFlag{
						Name:        "watch, w",
						Usage:       "reload the task file when it changes",
						Destination: &watchFile,
					},
					cli.BoolFlag{
						Name:        "verbose, v",
						Usage:       "log scheduler activity",
						Destination: &verbose,
					},
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tempo: %s\n", err)
		os.Exit(1)
	}
}

func next(ctx *cli.Context) error {
	expr := ctx.Args().First()
	if expr == "" {
		return cli.ShowCommandHelp(ctx, "next")
	}
	rule, err := tempo.CronRule(expr)
	if err != nil {
		return err
	}
	from := time.Now()
	if nextFrom != "" {
		from, err = time.Parse(time.RFC3339, nextFrom)
		if err != nil {
			return fmt.Errorf("bad --from instant: %w", err)
		}
	}
	times := tempo.NextN(rule, from, nextCount)
	if len(times) == 0 {
		return fmt.Errorf("no activations within horizon")
	}
	for _, t := range times {
		fmt.Println(t.Format(time.RFC3339))
	}
	return nil
}

func run(ctx *cli.Context) error {
	log := newLogger()
	tf, err := loadTaskFile(taskFilePath)
	if err != nil {
		return err
	}

	sched := tempo.NewScheduler(
		tempo.WithLogger(tempo.NewZerologLogger(log)),
		tempo.WithChain(tempo.Recover(tempo.NewZerologLogger(log))),
	)
	defs := make(map[string]taskDef, len(tf.Tasks))
	for _, d := range tf.Tasks {
		schedule, err := d.schedule()
		if err != nil {
			return err
		}
		sched.Add(d.Name, schedule, d.taskFunc(log))
		sched.Start(d.Name)
		defs[d.Name] = d
	}
	log.Info().Int("tasks", len(defs)).Str("file", taskFilePath).Msg("running")

	if watchFile {
		stop, err := watchTaskFile(sched, log, defs)
		if err != nil {
			return err
		}
		defer stop()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")
	sched.StopAll()
	return nil
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// watchTaskFile reloads the task file on change and reconciles the scheduler
// against it: new tasks start, removed tasks stop, tasks whose schedule
// changed restart so the new rule takes effect immediately. Editors replace
// rather than write files, so the watch is on the directory and events are
// debounced to ride out partial writes.
func watchTaskFile(sched *tempo.Scheduler, log zerolog.Logger, defs map[string]taskDef) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(taskFilePath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	target := filepath.Clean(taskFilePath)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		tf, err := loadTaskFile(taskFilePath)
		if err != nil {
			log.Error().Err(err).Msg("reload failed, keeping previous tasks")
			return
		}
		reconcile(sched, log, defs, tf)
	}
	debounce := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, reload)
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("watch error")
			}
		}
	}()
	return func() { watcher.Close() }, nil
}

func reconcile(sched *tempo.Scheduler, log zerolog.Logger, defs map[string]taskDef, tf *taskFile) {
	next := make(map[string]taskDef, len(tf.Tasks))
	for _, d := range tf.Tasks {
		next[d.Name] = d
	}

	for name := range defs {
		if _, keep := next[name]; !keep {
			sched.Stop(name)
			sched.Remove(name)
			delete(defs, name)
			log.Info().Str("task", name).Msg("task removed")
		}
	}

	for name, d := range next {
		schedule, err := d.schedule()
		if err != nil {
			log.Error().Err(err).Str("task", name).Msg("skipping task")
			continue
		}
		prev, existed := defs[name]
		if !existed {
			sched.Add(name, schedule, d.taskFunc(log))
			sched.Start(name)
			defs[name] = d
			log.Info().Str("task", name).Msg("task added")
			continue
		}
		if sameSchedule(prev, d) && prev.Command == d.Command {
			continue
		}
		sched.UpdateRule(name, schedule)
		sched.UpdateFunc(name, d.taskFunc(log))
		sched.Restart(name)
		defs[name] = d
		log.Info().Str("task", name).Msg("task updated")
	}
}
