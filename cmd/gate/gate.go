/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package gate

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/underlayhq/mcrelay/pkg/auth"
	"github.com/underlayhq/mcrelay/pkg/config"
	"github.com/underlayhq/mcrelay/pkg/proxy"
	"github.com/underlayhq/mcrelay/pkg/route"
)

func Run() (err error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if err := initLogger(cfg.Debug); err != nil {
		return fmt.Errorf("error initializing global logger: %w", err)
	}

	if err = config.Validate(&cfg); err != nil {
		return fmt.Errorf("error validating config: %w", err)
	}

	authProvider, err := newAuthProvider(cfg.Auth)
	if err != nil {
		return fmt.Errorf("error setting up auth provider: %w", err)
	}

	target, err := backendTarget(cfg.Backend)
	if err != nil {
		return fmt.Errorf("error parsing backend address: %w", err)
	}
	router := route.Static{Target: target}

	p := proxy.New(&cfg, authProvider, router)

	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer func() { signal.Stop(sig); close(sig) }()

	go func() {
		s, ok := <-sig
		if !ok {
			return
		}
		zap.S().Infof("Received %s signal", s)
		cancel()
		_ = p.Shutdown()
	}()
	return p.Run(ctx)
}

// backendTarget splits a configured "host:port" backend address into
// the TargetServer the client-side handshake needs to present, the
// same way pump.go resolves "/proxy-goto" targets.
func backendTarget(addr string) (proxy.TargetServer, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return proxy.TargetServer{}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return proxy.TargetServer{}, fmt.Errorf("invalid backend port %q: %w", portStr, err)
	}
	return proxy.TargetServer{
		Address:       addr,
		HandshakeHost: host,
		HandshakePort: int16(port),
	}, nil
}

func newAuthProvider(mode config.AuthMode) (auth.Provider, error) {
	switch mode {
	case config.AuthMojang:
		return auth.NewMojangProvider()
	case config.AuthOffline, "":
		return auth.NewOfflineProvider(), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
}

func initLogger(debug bool) (err error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(l)
	return nil
}
