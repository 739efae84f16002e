package config_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/drivegate/internal/config"
	"github.com/MrWong99/drivegate/internal/drive"
	"github.com/MrWong99/drivegate/internal/drive/mock"
)

func TestRegistry_CreateBackend(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	reg.RegisterBackend("mock", func(cfg config.BackendConfig) (drive.Service, error) {
		return &mock.Service{}, nil
	})

	svc, err := reg.CreateBackend(config.BackendConfig{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if svc == nil {
		t.Fatal("CreateBackend returned nil service")
	}
}

func TestRegistry_UnregisteredBackend(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()

	_, err := reg.CreateBackend(config.BackendConfig{Name: "nope"})
	if !errors.Is(err, config.ErrBackendNotRegistered) {
		t.Errorf("err = %v, want ErrBackendNotRegistered", err)
	}
}

func TestRegistry_OverwriteRegistration(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	first := &mock.Service{}
	second := &mock.Service{}
	reg.RegisterBackend("mock", func(config.BackendConfig) (drive.Service, error) { return first, nil })
	reg.RegisterBackend("mock", func(config.BackendConfig) (drive.Service, error) { return second, nil })

	svc, err := reg.CreateBackend(config.BackendConfig{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if svc != second {
		t.Error("later registration should win")
	}
}
