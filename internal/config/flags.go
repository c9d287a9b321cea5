package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// optionalBool is a boolean flag that records whether it was set at all, so
// that an absent flag keeps the configured default.
type optionalBool struct {
	value *bool
}

func (b *optionalBool) String() string {
	if b == nil || b.value == nil {
		return ""
	}
	return strconv.FormatBool(*b.value)
}

func (b *optionalBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	b.value = &v
	return nil
}

func (b *optionalBool) IsBoolFlag() bool { return true }

// ParseFlags parses all configuration flags from args.
//
// Flags:
//
//	-a document server listen address in format [host]:[port]
//	-d document server PostgreSQL DSN
//	-c/-config json file path with configs
//	-token-sign-key client token signing key
//	-token-issuer client token issuer name
//	-token-duration client token duration (e.g., "720h")
//	-request-timeout server request timeout (e.g., "30s")
//	-remote document server URL used by the client
//	-remote-timeout client request timeout
//	-token client token used for writes
//	-quickfind use the quickfind protocol
//	-post-find send long queries in a POST body
//	-backend local store backend (memory, sqlite, bolt)
//	-dsn local SQLite database file
//	-bolt-path local bbolt database file
//	-interim, -cache-find, -cache-find-one, -use-local-on-error, -shortcut
//	    hybrid reconciliation defaults
//	-read-timeout remote read timeout
//	-upload-interval upload worker period
func ParseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("go-doc-keeper", flag.ContinueOnError)

	var serverAddress NetAddress
	var serverDSN, jsonConfigPath string
	var tokenSignKey, tokenIssuer string
	var tokenDuration, requestTimeout time.Duration
	var remoteAddress, clientToken string
	var remoteTimeout time.Duration
	var useQuickfind, usePostFind bool
	var backend, dsn, boltPath string
	var interim, cacheFind, cacheFindOne, useLocalOnError, shortcut optionalBool
	var readTimeout, uploadInterval time.Duration

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.StringVar(&serverDSN, "d", "", "Server database DSN")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	fs.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 720h)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.StringVar(&remoteAddress, "remote", "", "Document server URL")
	fs.DurationVar(&remoteTimeout, "remote-timeout", 0, "Remote request timeout")
	fs.StringVar(&clientToken, "token", "", "Client token")
	fs.BoolVar(&useQuickfind, "quickfind", false, "Use the quickfind protocol")
	fs.BoolVar(&usePostFind, "post-find", false, "Send long queries as POST")
	fs.StringVar(&backend, "backend", "", "Local backend: memory, sqlite or bolt")
	fs.StringVar(&dsn, "dsn", "", "Local SQLite database file")
	fs.StringVar(&boltPath, "bolt-path", "", "Local bbolt database file")
	fs.Var(&interim, "interim", "Deliver local results before remote ones")
	fs.Var(&cacheFind, "cache-find", "Cache remote find results")
	fs.Var(&cacheFindOne, "cache-find-one", "Cache remote findOne results")
	fs.Var(&useLocalOnError, "use-local-on-error", "Fall back to local results on remote errors")
	fs.Var(&shortcut, "shortcut", "Stop findOne after a local hit")
	fs.DurationVar(&readTimeout, "read-timeout", 0, "Remote read timeout")
	fs.DurationVar(&uploadInterval, "upload-interval", 0, "Upload worker period")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		App: App{
			TokenSignKey:  tokenSignKey,
			TokenIssuer:   tokenIssuer,
			TokenDuration: tokenDuration,
		},
		Storage: Storage{
			Backend:   backend,
			DSN:       dsn,
			BoltPath:  boltPath,
			ServerDSN: serverDSN,
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			HTTPAddress:    remoteAddress,
			RequestTimeout: remoteTimeout,
			ClientToken:    clientToken,
			UseQuickfind:   useQuickfind,
			UsePostFind:    usePostFind,
		},
		Hybrid: Hybrid{
			Interim:               interim.value,
			CacheFind:             cacheFind.value,
			CacheFindOne:          cacheFindOne.value,
			UseLocalOnRemoteError: useLocalOnError.value,
			Shortcut:              shortcut.value,
			ReadTimeout:           readTimeout,
		},
		Workers:      Workers{UploadInterval: uploadInterval},
		JSONFilePath: jsonConfigPath,
		Args:         fs.Args(),
	}, nil
}

// String returns a canonical host:port string for a NetAddress.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost"
// or empty, and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
