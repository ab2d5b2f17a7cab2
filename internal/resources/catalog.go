package resources

import (
	"sort"

	"github.com/olusolaa/appliance-converge/internal/core/ports"
)

// Definitions returns every supported kind, sorted by kind name.
func Definitions() []Definition {
	defs := []Definition{
		ltmPool(),
		ltmNode(),
		ltmVirtual(),
		ltmSnatPool(),
		ltmMonitor("ltm_monitor_http", "http"),
		ltmMonitor("ltm_monitor_tcp", "tcp"),
		ltmIRule(),
		ltmProfileClientSSL(),
		ltmPolicy(),
		ltmPolicyRule(),
		netVLAN(),
		netSelfIP(),
		sysUser(),
		authPartition(),
		sysDB(),
		sysNTP(),
		sysDNS(),
		sysSyslogRemoteServer(),
		cmDeviceUnicastAddress(),
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Kind < defs[j].Kind })
	return defs
}

// Handlers binds every definition to client.
func Handlers(client ports.ApplianceClient, logger ports.Logger) []ports.KindHandler {
	defs := Definitions()
	out := make([]ports.KindHandler, 0, len(defs))
	for _, def := range defs {
		out = append(out, NewHandler(def, client, logger))
	}
	return out
}
