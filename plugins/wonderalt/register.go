package wonderalt

import (
	"fmt"
	"io"
	"time"

	"github.com/edigermatthew/wonder-alt/host"
	"github.com/edigermatthew/wonder-alt/host/alttext"
	logpkg "github.com/edigermatthew/wonder-alt/host/logger"
	"github.com/edigermatthew/wonder-alt/host/plugins"
)

func init() {
	if err := plugins.Register(Name, buildContribution); err != nil {
		panic(err)
	}
}

func buildContribution(deps plugins.Deps) (*plugins.Contribution, error) {
	if deps.Media == nil {
		return nil, fmt.Errorf("media library required")
	}

	var logger host.Logger
	if deps.Logger != nil {
		logger = deps.Logger.With("plugin", Name)
	} else {
		logger = logpkg.NewWithWriter(io.Discard, logpkg.Options{})
	}

	delay := defaultDelay
	if deps.Config != nil && deps.Config.HasPluginKey(Name, "delay_seconds") {
		delay = time.Duration(deps.Config.GetPluginInt(Name, "delay_seconds")) * time.Second
	}

	opts := []alttext.Option{alttext.WithLogger(logger)}
	if deps.Recorder != nil {
		opts = append(opts, alttext.WithRecorder(deps.Recorder))
	}
	filler := alttext.NewFiller(alttext.MetaStore(deps.Media.Repository()), opts...)

	hookNames, err := New(deps.Media, filler, delay, logger).Subscribe(deps.Media.Hooks())
	if err != nil {
		return nil, err
	}
	return &plugins.Contribution{Hooks: hookNames}, nil
}
