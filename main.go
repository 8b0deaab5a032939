package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/trafficai/internal/app"
)

// @title           TrafficAI API
// @version         1.0
// @description     TrafficAI issues and verifies one-time e-mail login codes.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:5000
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
