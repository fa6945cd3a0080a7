// Package app provides graceful shutdown for the application.
// It ensures all components are stopped in the correct order.
package app

import (
	"context"
	"time"
)

const metricsShutdownTimeout = 5 * time.Second

// Shutdown performs graceful shutdown of all components.
// It stops the application in the following order:
//  1. Cancels the application context
//  2. Stops the Telegram connector
//  3. Stops the scheduler loop and the session janitor
//  4. Waits for the message processor
//  5. Stops the metrics endpoint
//  6. Stops the message bus
//
// The method is thread-safe and can be called from multiple goroutines.
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	err := a.stopComponents()

	a.started = false
	a.logger.Info("Application shutdown complete")

	return err
}

// shutdownPartial releases whatever a failed Initialize managed to start.
func (a *App) shutdownPartial() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started || a.cancel == nil {
		return
	}
	_ = a.stopComponents()
}

// stopComponents stops every component that exists. The caller holds a.mu.
// The message bus error, if any, is returned.
func (a *App) stopComponents() error {
	if a.cancel != nil {
		a.cancel()
	}

	if a.channel != nil {
		if err := a.channel.Stop(); err != nil {
			a.logger.Error("Failed to stop telegram connector", err)
		}
	}

	if a.loop != nil {
		a.loop.Stop()
	}

	if a.sessions != nil {
		a.sessions.StopJanitor()
	}

	a.processing.Wait()

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Error("Failed to stop metrics server", err)
		}
	}

	var busErr error
	if a.messageBus != nil && a.messageBus.IsStarted() {
		busErr = a.messageBus.Stop()
		if busErr != nil {
			a.logger.Error("Failed to stop message bus", busErr)
		}
	}

	return busErr
}
