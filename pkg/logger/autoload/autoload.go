// Package autoload configures the global logger from the environment when
// blank-imported by a binary.
package autoload

import (
	configx "github.com/tanpawarit/Rocket-Approval-Concierge/pkg/config"
	logx "github.com/tanpawarit/Rocket-Approval-Concierge/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}
