package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"eventsIngestion/internal/config"
	"eventsIngestion/internal/contracts"
	"eventsIngestion/internal/model"
)

// commandContext is cancelled on SIGINT/SIGTERM and, when set, after timeout.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func loadRootInterface(cfg config.Config) (abi.ABI, error) {
	rootABI, err := loadInterface("root-abi", cfg.RootABI, contracts.RootABI)
	if err != nil {
		return abi.ABI{}, err
	}
	if err := contracts.CheckRegistryMethod(rootABI, cfg.RegistryMethod); err != nil {
		return abi.ABI{}, &model.ConfigError{Field: "registry-method", Reason: err.Error()}
	}
	return rootABI, nil
}

func loadInterface(field, path string, fallback func() (abi.ABI, error)) (abi.ABI, error) {
	parsed, err := contracts.Load(path, fallback)
	if err != nil {
		return abi.ABI{}, &model.ConfigError{Field: field, Reason: err.Error()}
	}
	if err := contracts.CheckEvents(parsed); err != nil {
		return abi.ABI{}, &model.ConfigError{Field: field, Reason: err.Error()}
	}
	return parsed, nil
}
