package internal

import (
	"github.com/talent-lab/sourcedash/internal/handler"
	"github.com/talent-lab/sourcedash/pkg/logutils"
)

// registerManagers instantiates every self-registered handler manager.
func registerManagers(conf *handler.RegisterConfig) []handler.Manager {
	var managers []handler.Manager
	for _, register := range handler.Registers {
		manager := register(conf)
		managers = append(managers, manager)
		logutils.Log.Infof("Registered manager: %s", manager.GetName())
	}
	return managers
}
