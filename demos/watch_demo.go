// Demo program that plays a scripted build through the watch view, no TeamCity needed.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"baobab/src/render"
	"baobab/src/teamcity"
	"baobab/src/tui"
)

func main() {
	status := teamcity.StatusSuccess
	if len(os.Args) > 1 && os.Args[1] == "--fail" {
		status = teamcity.StatusFailure
	}

	err := tui.Run(context.Background(), "https://teamcity.example.com/viewLog.html?buildId=4091",
		func(ctx context.Context, display render.Display) error {
			for _, build := range sampleBuilds(status) {
				if err := display.Render(render.Describe(build)); err != nil {
					return err
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(700 * time.Millisecond):
				}
			}
			return nil
		})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func sampleBuilds(finalStatus string) []teamcity.Build {
	pct := func(n int) *int { return &n }
	stage := func(s string) *teamcity.RunningInfo { return &teamcity.RunningInfo{CurrentStageText: s} }

	return []teamcity.Build{
		{Status: teamcity.StatusSuccess, State: teamcity.StateQueued, WebURL: "https://teamcity.example.com/build/4091"},
		{Status: teamcity.StatusSuccess, State: teamcity.StateRunning, PercentageComplete: pct(5), RunningInfo: stage("Step 1/4: Checkout")},
		{Status: teamcity.StatusSuccess, State: teamcity.StateRunning, PercentageComplete: pct(30), RunningInfo: stage("Step 2/4: Compile (go build ./...)")},
		{Status: finalStatus, State: teamcity.StateRunning, PercentageComplete: pct(55), RunningInfo: stage("Step 3/4: Unit tests")},
		{Status: finalStatus, State: teamcity.StateRunning, PercentageComplete: pct(85), RunningInfo: stage("Step 4/4: Publish artifacts")},
		{Status: finalStatus, State: teamcity.StateFinished, PercentageComplete: pct(100), WebURL: "https://teamcity.example.com/build/4091"},
	}
}
