package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "gpxup.db" {
			t.Errorf("expected database path gpxup.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8000 {
			t.Errorf("expected server port 8000, got %d", config.Server.Port)
		}

		if config.Credentials.OSM.RedirectURI != "http://127.0.0.1:8000/callback" {
			t.Errorf("expected default redirect URI, got %s", config.Credentials.OSM.RedirectURI)
		}

		if config.Upload.Visibility != "identifiable" {
			t.Errorf("expected default visibility identifiable, got %s", config.Upload.Visibility)
		}

		if config.Upload.Description != "Uploaded with gpxup" {
			t.Errorf("expected default description, got %s", config.Upload.Description)
		}

		if len(config.Upload.Tags) != 1 || config.Upload.Tags[0] != "survey" {
			t.Errorf("expected default tags [survey], got %v", config.Upload.Tags)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		err = CreateConfigFile(configPath)
		if err == nil {
			t.Error("creating config file again should fail")
		}
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 9090

[credentials.osm]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:9090/callback"

[upload]
visibility = "private"
description = "Commute traces"
tags = ["commute", "bike"]
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("unexpected database path: %s", config.Database.Path)
		}
		if config.Server.Port != 9090 {
			t.Errorf("unexpected server port: %d", config.Server.Port)
		}
		if config.Credentials.OSM.ClientID != "test_client_id" {
			t.Errorf("unexpected client_id: %s", config.Credentials.OSM.ClientID)
		}
		if config.Upload.Visibility != "private" {
			t.Errorf("unexpected visibility: %s", config.Upload.Visibility)
		}
		if len(config.Upload.Tags) != 2 {
			t.Errorf("expected 2 tags, got %v", config.Upload.Tags)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("LoadConfig invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})

	t.Run("OSMConfig Map", func(t *testing.T) {
		creds := OSMConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURI:  "http://localhost/callback",
		}

		m := creds.Map()
		if m["client_id"] != "id" || m["client_secret"] != "secret" {
			t.Errorf("unexpected credentials map: %v", m)
		}
		if m["redirect_uri"] != "http://localhost/callback" {
			t.Errorf("unexpected redirect_uri: %s", m["redirect_uri"])
		}
	})
}
