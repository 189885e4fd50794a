// main is the entry point for the patrolq CLI.
package main

import (
	"github.com/huangsam/patrolq/cmd"
	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/internal/tracking"
)

func main() {
	cmd.SetTrackingManager(tracking.Manager)
	err := cmd.Execute()

	tracking.CloseTracking()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		contract.LogFatal("patrolq", err)
	}
}
