package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk layout of the JSON config file.
type StructuredJSONConfig struct {
	App struct {
		TokenSignKey  string   `json:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer"`
		TokenDuration Duration `json:"token_duration"`
		Version       string   `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		Backend   string `json:"backend"`
		DSN       string `json:"dsn"`
		BoltPath  string `json:"bolt_path"`
		ServerDSN string `json:"database_uri"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
		ClientToken    string   `json:"client_token"`
		UseQuickfind   bool     `json:"use_quickfind"`
		UsePostFind    bool     `json:"use_post_find"`
	} `json:"adapter,omitempty"`

	Hybrid struct {
		Interim               *bool    `json:"interim"`
		CacheFind             *bool    `json:"cache_find"`
		CacheFindOne          *bool    `json:"cache_find_one"`
		UseLocalOnRemoteError *bool    `json:"use_local_on_remote_error"`
		Shortcut              *bool    `json:"shortcut"`
		ReadTimeout           Duration `json:"read_timeout"`
	} `json:"hybrid,omitempty"`

	Workers struct {
		UploadInterval Duration `json:"upload_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			TokenSignKey:  jsonCfg.App.TokenSignKey,
			TokenIssuer:   jsonCfg.App.TokenIssuer,
			TokenDuration: time.Duration(jsonCfg.App.TokenDuration),
			Version:       jsonCfg.App.Version,
		},
		Storage: Storage{
			Backend:   jsonCfg.Storage.Backend,
			DSN:       jsonCfg.Storage.DSN,
			BoltPath:  jsonCfg.Storage.BoltPath,
			ServerDSN: jsonCfg.Storage.ServerDSN,
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:    jsonCfg.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
			ClientToken:    jsonCfg.Adapter.ClientToken,
			UseQuickfind:   jsonCfg.Adapter.UseQuickfind,
			UsePostFind:    jsonCfg.Adapter.UsePostFind,
		},
		Hybrid: Hybrid{
			Interim:               jsonCfg.Hybrid.Interim,
			CacheFind:             jsonCfg.Hybrid.CacheFind,
			CacheFindOne:          jsonCfg.Hybrid.CacheFindOne,
			UseLocalOnRemoteError: jsonCfg.Hybrid.UseLocalOnRemoteError,
			Shortcut:              jsonCfg.Hybrid.Shortcut,
			ReadTimeout:           time.Duration(jsonCfg.Hybrid.ReadTimeout),
		},
		Workers: Workers{
			UploadInterval: time.Duration(jsonCfg.Workers.UploadInterval),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
