package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovchar/divspread/internal/scheduler"
	"github.com/ovchar/divspread/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the background scheduler",
	Long: `Runs the background scheduler.

Registered jobs:
- refdata_refresh: daily at 08:45, before the MOEX main session opens

Subcommands:
  start - start the scheduler daemon
  run   - run a registered job immediately

Example:
  go run ./cmd/divspread scheduler start
  go run ./cmd/divspread scheduler run refdata_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a registered job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func initScheduler(ctx context.Context) (*scheduler.Scheduler, *app, error) {
	a, err := buildApp(ctx)
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewRefreshJob(a.pipeline, a.log)); err != nil {
		a.Close()
		return nil, nil, fmt.Errorf("register refresh job: %w", err)
	}

	return sched, a, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched.Start()

	fmt.Println("✅ Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.JobNames() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	jobName := args[0]
	if err := sched.RunJob(jobName); err != nil {
		return err
	}

	// RunJob is asynchronous, poll the history for the outcome
	fmt.Printf("Running %s...\n", jobName)
	for {
		time.Sleep(200 * time.Millisecond)

		history, err := sched.History(jobName)
		if err != nil {
			return err
		}
		if latest := history.LatestResults(1); len(latest) > 0 {
			last := latest[0]
			if !last.Success {
				return fmt.Errorf("job %s failed: %s", jobName, last.Error)
			}
			fmt.Printf("✅ %s completed in %.2fs\n", jobName, last.Duration.Seconds())
			return nil
		}
	}
}
