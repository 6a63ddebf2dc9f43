package config

import "testing"

func TestLoadAppliesDefaultsWithoutAConfigFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/for/scope-service-config-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8089" {
		t.Fatalf("Server.Port = %q, want 8089", cfg.Server.Port)
	}
	if cfg.App.Environment != "development" {
		t.Fatalf("App.Environment = %q, want development", cfg.App.Environment)
	}
	if cfg.Device.USB.BulkTransferSize != 64 {
		t.Fatalf("Device.USB.BulkTransferSize = %d, want 64", cfg.Device.USB.BulkTransferSize)
	}
}

func TestValidateRejectsUnknownEnvironment(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: "8089"},
		Logging: LoggingConfig{Level: "info"},
		App:     AppConfig{Name: "scope-service", Environment: "bogus"},
	}
	if err := validate(cfg); err == nil {
		t.Fatal("expected an error for an unrecognized environment")
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: "8089"},
		Logging: LoggingConfig{Level: "verbose"},
		App:     AppConfig{Name: "scope-service", Environment: "development"},
	}
	if err := validate(cfg); err == nil {
		t.Fatal("expected an error for an unrecognized log level")
	}
}

func TestGetServerAddrJoinsHostAndPort(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Host: "127.0.0.1", Port: "9000"}}
	if got := cfg.GetServerAddr(); got != "127.0.0.1:9000" {
		t.Fatalf("GetServerAddr() = %q", got)
	}
}

func TestIsProduction(t *testing.T) {
	cfg := &Config{App: AppConfig{Environment: "production"}}
	if !cfg.IsProduction() {
		t.Fatal("expected IsProduction() to be true")
	}
	cfg.App.Environment = "development"
	if cfg.IsProduction() {
		t.Fatal("expected IsProduction() to be false")
	}
}
